package campaignmanager

import (
	"math/big"

	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/campaign"
	"voucherchain/native/common"
)

// CodeName is the name the campaign manager code registers under.
const CodeName = "campaign_management"

// Contract creates and funds campaigns, closes them, and settles merchant
// redemptions against the escrowed stable asset.
type Contract struct {
	dial         Dialer
	campaignCode [32]byte
}

// New returns the manager code deploying the registered campaign code.
func New() Contract {
	return Contract{dial: HostDialer{}, campaignCode: host.CodeHash(campaign.CodeName)}
}

// WithDialer overrides how siblings are resolved.
func (c Contract) WithDialer(d Dialer) Contract {
	c.dial = d
	return c
}

// WithCampaignCode overrides the code new campaigns are deployed from.
func (c Contract) WithCampaignCode(code [32]byte) Contract {
	c.campaignCode = code
	return c
}

var _ API = Contract{}

func (c Contract) dialer() Dialer {
	if c.dial == nil {
		return HostDialer{}
	}
	return c.dial
}

// Initialize records the registry. It can run only once.
func (Contract) Initialize(env *host.Env, registryAddr [20]byte) error {
	ok, err := env.Instance().Has(keyRegistry)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	return env.Instance().Set(keyRegistry, registryAddr)
}

func (c Contract) registry(env *host.Env) (Registry, error) {
	addr, err := c.Registry(env)
	if err != nil {
		return nil, err
	}
	return c.dialer().Registry(env, addr)
}

func (c Contract) stable(env *host.Env) (Token, error) {
	addr, err := c.StableCoin(env)
	if err != nil {
		return nil, err
	}
	return c.dialer().Token(env, addr)
}

func (c Contract) requireSuperAdmin(env *host.Env) (Registry, [20]byte, error) {
	reg, err := c.registry(env)
	if err != nil {
		return nil, [20]byte{}, err
	}
	admin, err := reg.SuperAdmin()
	if err != nil {
		return nil, admin, err
	}
	return reg, admin, env.RequireAuth(admin)
}

// SetRegistry replaces the registry. Super-admin only.
func (c Contract) SetRegistry(env *host.Env, addr [20]byte) error {
	if _, _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyRegistry, addr)
}

// SetStableCoinAddress records the backing asset. Super-admin only.
func (c Contract) SetStableCoinAddress(env *host.Env, addr [20]byte) error {
	if _, _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyStableCoin, addr)
}

// Upgrade swaps the manager's own code. Super-admin only.
func (c Contract) Upgrade(env *host.Env, code [32]byte) error {
	if _, _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.UpdateCurrentContractCode(code)
}

// UpgradeToken swaps the code of a token this manager administers.
// Super-admin only.
func (c Contract) UpgradeToken(env *host.Env, tokenAddr [20]byte, code [32]byte) error {
	if _, _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	token, err := c.dialer().Token(env, tokenAddr)
	if err != nil {
		return err
	}
	return token.Upgrade(code)
}

// CreateCampaign escrows amount of the stable asset from creator, deploys a
// campaign and mints amount of tokenAddr to it. The creator must authorise.
func (c Contract) CreateCampaign(env *host.Env, name, description string, capacity uint32, tokenAddr [20]byte, amount *big.Int, creator [20]byte, location string) ([20]byte, error) {
	var zero [20]byte
	if err := env.RequireAuth(creator); err != nil {
		return zero, err
	}
	if err := common.CheckAmount(amount); err != nil {
		return zero, err
	}
	reg, err := c.registry(env)
	if err != nil {
		return zero, err
	}
	if err := requireAvailable(reg, tokenAddr); err != nil {
		return zero, err
	}
	token, err := c.dialer().Token(env, tokenAddr)
	if err != nil {
		return zero, err
	}
	decimals, err := token.Decimals()
	if err != nil {
		return zero, err
	}
	if amount.Cmp(minimumFor(decimals)) < 0 {
		return zero, ErrAmountTooLow
	}
	stable, err := c.stable(env)
	if err != nil {
		return zero, err
	}
	self := env.CurrentContract()
	if err := stable.Transfer(creator, self, amount); err != nil {
		return zero, err
	}

	salt, err := c.SaltCounter(env)
	if err != nil {
		return zero, err
	}
	campaignAddr, err := env.Deploy(creator, c.campaignCode, crypto.CounterSalt(salt))
	if err != nil {
		return zero, err
	}
	if err := env.Instance().Set(keySaltCounter, salt+1); err != nil {
		return zero, err
	}
	camp, err := c.dialer().Campaign(env, campaignAddr)
	if err != nil {
		return zero, err
	}
	if err := camp.SetCampaignInfo(name, description, capacity, tokenAddr, creator, self, location); err != nil {
		return zero, err
	}
	if err := token.Mint(campaignAddr, amount); err != nil {
		return zero, err
	}
	if err := reg.SetCampaignAdmin(campaignAddr, creator); err != nil {
		return zero, err
	}

	detail := &CampaignDetail{
		Campaign:    campaignAddr,
		Token:       tokenAddr,
		TokenMinted: common.CloneBigInt(amount),
		Escrowed:    common.CloneBigInt(amount),
		Name:        name,
		Description: description,
		Capacity:    capacity,
		Location:    location,
		Creator:     creator,
	}
	if err := c.record(env, detail); err != nil {
		return zero, err
	}
	env.Emit(events.CampaignCreated{
		Campaign: campaignAddr,
		Creator:  creator,
		Token:    tokenAddr,
		Amount:   common.CloneBigInt(amount),
		Name:     name,
		Capacity: capacity,
	})
	return campaignAddr, nil
}

func (c Contract) record(env *host.Env, detail *CampaignDetail) error {
	campaigns, err := c.Campaigns(env)
	if err != nil {
		return err
	}
	if err := env.Instance().Set(keyCampaigns, append(campaigns, detail.Campaign)); err != nil {
		return err
	}
	if err := env.Instance().Set(campaignNameKey(detail.Campaign), detail.Name); err != nil {
		return err
	}
	if err := env.Instance().Set(campaignDetailKey(detail.Campaign), detail); err != nil {
		return err
	}
	owned, err := c.CampaignsInfo(env, detail.Creator)
	if err != nil {
		return err
	}
	return env.Instance().Set(creatorCampaignsKey(detail.Creator), append(owned, *detail))
}

// EndCampaign closes a campaign on behalf of its owner. Undisbursed tokens
// are burned and the matching share of the escrow is refunded to creator.
func (c Contract) EndCampaign(env *host.Env, campaignAddr, creator [20]byte) error {
	if err := env.RequireAuth(creator); err != nil {
		return err
	}
	detail, ok, err := c.CampaignDetail(env, campaignAddr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCampaignNotFound
	}
	reg, err := c.registry(env)
	if err != nil {
		return err
	}
	owner, err := reg.CampaignAdmin(campaignAddr)
	if err != nil {
		return err
	}
	if owner != creator {
		return ErrNotCampaignOwner
	}
	camp, err := c.dialer().Campaign(env, campaignAddr)
	if err != nil {
		return err
	}
	ended, err := camp.IsEnded()
	if err != nil {
		return err
	}
	if ended {
		return ErrCampaignEnded
	}
	token, err := c.dialer().Token(env, detail.Token)
	if err != nil {
		return err
	}
	remaining, err := token.BalanceOf(campaignAddr)
	if err != nil {
		return err
	}
	if err := camp.SetCampaignEndStatus(true); err != nil {
		return err
	}
	if remaining.Sign() > 0 {
		if err := token.Burn(campaignAddr, remaining); err != nil {
			return err
		}
	}
	refund := refundFor(detail, remaining)
	if refund.Sign() > 0 {
		stable, err := c.stable(env)
		if err != nil {
			return err
		}
		if err := stable.Transfer(env.CurrentContract(), creator, refund); err != nil {
			return err
		}
	}
	env.Emit(events.CampaignEnded{
		Campaign: campaignAddr,
		Creator:  creator,
		Burned:   common.CloneBigInt(remaining),
		Refund:   refund,
	})
	return nil
}

// refundFor scales the escrow by the share of minted tokens never disbursed.
func refundFor(detail *CampaignDetail, remaining *big.Int) *big.Int {
	if detail.TokenMinted == nil || detail.TokenMinted.Sign() <= 0 || remaining.Sign() <= 0 {
		return big.NewInt(0)
	}
	refund := new(big.Int).Mul(common.CloneBigInt(detail.Escrowed), remaining)
	return refund.Quo(refund, detail.TokenMinted)
}

// RequestCampaignSettlement burns amount of tokenAddr held by a verified
// merchant and releases the same amount of the stable asset to the
// super-admin. The merchant must authorise.
func (c Contract) RequestCampaignSettlement(env *host.Env, from [20]byte, amount *big.Int, tokenAddr [20]byte) error {
	if err := env.RequireAuth(from); err != nil {
		return err
	}
	if err := common.CheckAmount(amount); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	reg, err := c.registry(env)
	if err != nil {
		return err
	}
	if err := requireAvailable(reg, tokenAddr); err != nil {
		return err
	}
	verified, err := reg.VerifiedMerchants()
	if err != nil {
		return err
	}
	if !common.Contains(verified, from) {
		return ErrNotMerchant
	}
	token, err := c.dialer().Token(env, tokenAddr)
	if err != nil {
		return err
	}
	balance, err := token.BalanceOf(from)
	if err != nil {
		return err
	}
	if amount.Cmp(balance) > 0 {
		return ErrInsufficientTokens
	}
	if err := token.Burn(from, amount); err != nil {
		return err
	}
	stable, err := c.stable(env)
	if err != nil {
		return err
	}
	self := env.CurrentContract()
	escrow, err := stable.BalanceOf(self)
	if err != nil {
		return err
	}
	if amount.Cmp(escrow) > 0 {
		return ErrInsufficientStable
	}
	admin, err := reg.SuperAdmin()
	if err != nil {
		return err
	}
	if err := stable.Transfer(self, admin, amount); err != nil {
		return err
	}
	env.Emit(events.SettlementRequested{
		Merchant:    from,
		Token:       tokenAddr,
		Amount:      common.CloneBigInt(amount),
		Beneficiary: admin,
	})
	return nil
}

// Campaigns lists every campaign in creation order.
func (Contract) Campaigns(env *host.Env) ([][20]byte, error) {
	var list [][20]byte
	if _, err := env.Instance().Get(keyCampaigns, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = make([][20]byte, 0)
	}
	return list, nil
}

// CampaignsInfo lists the campaigns created by creator.
func (Contract) CampaignsInfo(env *host.Env, creator [20]byte) ([]CampaignDetail, error) {
	var list []CampaignDetail
	if _, err := env.Instance().Get(creatorCampaignsKey(creator), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = make([]CampaignDetail, 0)
	}
	return list, nil
}

// CampaignDetail returns the creation record of campaign.
func (Contract) CampaignDetail(env *host.Env, campaignAddr [20]byte) (*CampaignDetail, bool, error) {
	detail := new(CampaignDetail)
	ok, err := env.Instance().Get(campaignDetailKey(campaignAddr), detail)
	if err != nil || !ok {
		return nil, false, err
	}
	return detail, true, nil
}

// CampaignName returns the display name of campaign.
func (Contract) CampaignName(env *host.Env, campaignAddr [20]byte) (string, error) {
	var name string
	ok, err := env.Instance().Get(campaignNameKey(campaignAddr), &name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCampaignNotFound
	}
	return name, nil
}

// Registry returns the configured registry.
func (Contract) Registry(env *host.Env) ([20]byte, error) {
	var addr [20]byte
	ok, err := env.Instance().Get(keyRegistry, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, ErrRegistryNotSet
	}
	return addr, nil
}

// StableCoin returns the backing asset.
func (Contract) StableCoin(env *host.Env) ([20]byte, error) {
	var addr [20]byte
	ok, err := env.Instance().Get(keyStableCoin, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, ErrStableCoinNotSet
	}
	return addr, nil
}

// SuperAdmin resolves the platform authority through the registry.
func (c Contract) SuperAdmin(env *host.Env) ([20]byte, error) {
	reg, err := c.registry(env)
	if err != nil {
		return [20]byte{}, err
	}
	return reg.SuperAdmin()
}

// BalanceOfStableCoin returns holder's balance of the backing asset.
func (c Contract) BalanceOfStableCoin(env *host.Env, holder [20]byte) (*big.Int, error) {
	stable, err := c.stable(env)
	if err != nil {
		return nil, err
	}
	return stable.BalanceOf(holder)
}

// SaltCounter returns the salt the next campaign will be deployed with.
func (Contract) SaltCounter(env *host.Env) (uint32, error) {
	var salt uint32
	_, err := env.Instance().Get(keySaltCounter, &salt)
	return salt, err
}

func requireAvailable(reg Registry, token [20]byte) error {
	tokens, err := reg.AvailableTokens()
	if err != nil {
		return err
	}
	if !common.Contains(tokens, token) {
		return ErrTokenNotAvailable
	}
	return nil
}

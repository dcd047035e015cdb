package issuance

import (
	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/common"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
)

// CodeName is the name the issuance code registers under.
const CodeName = "issuance_management"

// Contract deploys local coins and owns their item and merchant eligibility
// lists.
type Contract struct {
	tokenCode [32]byte
}

// New returns the issuance code deploying tokens from the registered
// local coin code.
func New() Contract {
	return Contract{tokenCode: host.CodeHash(localcoin.CodeName)}
}

// WithTokenCode overrides the code new tokens are deployed from.
func (c Contract) WithTokenCode(code [32]byte) Contract {
	c.tokenCode = code
	return c
}

var _ API = Contract{}

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

func (c Contract) registry(env *host.Env) (*registry.Client, error) {
	addr, err := c.Registry(env)
	if err != nil {
		return nil, err
	}
	return registry.Dial(env, addr)
}

func (c Contract) requireSuperAdmin(env *host.Env) ([20]byte, error) {
	admin, err := c.SuperAdmin(env)
	if err != nil {
		return admin, err
	}
	return admin, env.RequireAuth(admin)
}

// SetRegistry replaces the registry. Super-admin only.
func (c Contract) SetRegistry(env *host.Env, addr [20]byte) error {
	if _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyRegistry, addr)
}

// SetCampaignManagement records the contract that administers issued tokens.
// Super-admin only.
func (c Contract) SetCampaignManagement(env *host.Env, addr [20]byte) error {
	if _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyCampaignManagement, addr)
}

// IssueNewToken deploys a local coin administered by campaign management and
// binds its eligibility lists. Super-admin only.
func (c Contract) IssueNewToken(env *host.Env, decimal uint32, name, symbol string, items []string, merchants [][20]byte) ([20]byte, error) {
	var zero [20]byte
	admin, err := c.requireSuperAdmin(env)
	if err != nil {
		return zero, err
	}
	if normalizeSymbol(symbol) == "" {
		return zero, ErrInvalidSymbol
	}
	if taken, err := env.Instance().Has(symbolKey(symbol)); err != nil {
		return zero, err
	} else if taken {
		return zero, ErrSymbolTaken
	}
	if _, dup := common.FirstDuplicate(nil, items); dup {
		return zero, ErrItemExists
	}
	if _, dup := common.FirstDuplicate(nil, merchants); dup {
		return zero, ErrMerchantExists
	}
	manager, err := c.CampaignManagement(env)
	if err != nil {
		return zero, err
	}
	reg, err := c.registry(env)
	if err != nil {
		return zero, err
	}
	if err := requireVerified(reg, merchants); err != nil {
		return zero, err
	}

	var salt uint32
	if _, err := env.Instance().Get(keySaltCounter, &salt); err != nil {
		return zero, err
	}
	tokenAddr, err := env.Deploy(admin, c.tokenCode, crypto.CounterSalt(salt))
	if err != nil {
		return zero, err
	}
	token, err := localcoin.Dial(env, tokenAddr)
	if err != nil {
		return zero, err
	}
	if err := token.SetIssuanceManagement(env.CurrentContract()); err != nil {
		return zero, err
	}
	if err := token.Initialize(manager, decimal, name, symbol); err != nil {
		return zero, err
	}
	if err := env.Instance().Set(keySaltCounter, salt+1); err != nil {
		return zero, err
	}

	record := &TokenRecord{Name: name, Symbol: symbol, Decimals: decimal}
	if err := env.Instance().Set(tokenKey(tokenAddr), record); err != nil {
		return zero, err
	}
	if err := env.Instance().Set(symbolKey(symbol), tokenAddr); err != nil {
		return zero, err
	}
	if err := env.Instance().Set(itemsKey(tokenAddr), nonNilStrings(items)); err != nil {
		return zero, err
	}
	if err := env.Instance().Set(merchantsKey(tokenAddr), nonNilAccounts(merchants)); err != nil {
		return zero, err
	}
	if err := reg.AddDeployedTokens(tokenAddr); err != nil {
		return zero, err
	}
	env.Emit(events.TokenIssued{
		Token:     tokenAddr,
		Name:      name,
		Symbol:    symbol,
		Decimals:  decimal,
		Items:     append([]string(nil), items...),
		Merchants: append([][20]byte(nil), merchants...),
	})
	return tokenAddr, nil
}

// AddTokenItems appends items to a token's eligibility list. Any item
// already present fails the whole call. Super-admin only.
func (c Contract) AddTokenItems(env *host.Env, token [20]byte, items []string) error {
	if _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	if err := requireToken(env, token); err != nil {
		return err
	}
	existing, err := c.ItemsAssociated(env, token)
	if err != nil {
		return err
	}
	if _, dup := common.FirstDuplicate(existing, items); dup {
		return ErrItemExists
	}
	if err := env.Instance().Set(itemsKey(token), append(existing, items...)); err != nil {
		return err
	}
	env.Emit(events.TokenItemsAdded{Token: token, Items: append([]string(nil), items...)})
	return nil
}

// AddTokenMerchants appends verified merchants to a token's eligibility
// list. Any merchant already present fails the whole call. Super-admin only.
func (c Contract) AddTokenMerchants(env *host.Env, token [20]byte, merchants [][20]byte) error {
	if _, err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	if err := requireToken(env, token); err != nil {
		return err
	}
	existing, err := c.MerchantsAssociated(env, token)
	if err != nil {
		return err
	}
	if _, dup := common.FirstDuplicate(existing, merchants); dup {
		return ErrMerchantExists
	}
	reg, err := c.registry(env)
	if err != nil {
		return err
	}
	if err := requireVerified(reg, merchants); err != nil {
		return err
	}
	if err := env.Instance().Set(merchantsKey(token), append(existing, merchants...)); err != nil {
		return err
	}
	env.Emit(events.TokenMerchantsAdded{Token: token, Merchants: append([][20]byte(nil), merchants...)})
	return nil
}

// BalanceOfBatch lists every issued token user holds a positive balance of.
func (c Contract) BalanceOfBatch(env *host.Env, user [20]byte) ([]TokenBalance, error) {
	reg, err := c.registry(env)
	if err != nil {
		return nil, err
	}
	tokens, err := reg.AvailableTokens()
	if err != nil {
		return nil, err
	}
	out := make([]TokenBalance, 0, len(tokens))
	for _, addr := range tokens {
		token, err := localcoin.Dial(env, addr)
		if err != nil {
			return nil, err
		}
		balance, err := token.BalanceOf(user)
		if err != nil {
			return nil, err
		}
		if balance.Sign() <= 0 {
			continue
		}
		name, err := token.Name()
		if err != nil {
			return nil, err
		}
		symbol, err := token.Symbol()
		if err != nil {
			return nil, err
		}
		out = append(out, TokenBalance{Token: addr, Name: name, Symbol: symbol, Balance: balance})
	}
	return out, nil
}

// Registry returns the configured registry.
func (Contract) Registry(env *host.Env) ([20]byte, error) {
	return readAccount(env, keyRegistry)
}

// CampaignManagement returns the configured campaign manager.
func (Contract) CampaignManagement(env *host.Env) ([20]byte, error) {
	return readAccount(env, keyCampaignManagement)
}

// SuperAdmin resolves the platform authority through the registry.
func (c Contract) SuperAdmin(env *host.Env) ([20]byte, error) {
	reg, err := c.registry(env)
	if err != nil {
		return [20]byte{}, err
	}
	return reg.SuperAdmin()
}

// MerchantsAssociated returns the merchants accepting token, empty for
// unknown tokens.
func (Contract) MerchantsAssociated(env *host.Env, token [20]byte) ([][20]byte, error) {
	var list [][20]byte
	if _, err := env.Instance().Get(merchantsKey(token), &list); err != nil {
		return nil, err
	}
	return nonNilAccounts(list), nil
}

// ItemsAssociated returns the item categories of token, empty for unknown
// tokens.
func (Contract) ItemsAssociated(env *host.Env, token [20]byte) ([]string, error) {
	var list []string
	if _, err := env.Instance().Get(itemsKey(token), &list); err != nil {
		return nil, err
	}
	return nonNilStrings(list), nil
}

// TokenBySymbol resolves a ticker to the token it was issued as.
func (Contract) TokenBySymbol(env *host.Env, symbol string) ([20]byte, bool, error) {
	var addr [20]byte
	ok, err := env.Instance().Get(symbolKey(symbol), &addr)
	return addr, ok, err
}

// TokenInfo returns the issuance record of token.
func (Contract) TokenInfo(env *host.Env, token [20]byte) (*TokenRecord, bool, error) {
	record := new(TokenRecord)
	ok, err := env.Instance().Get(tokenKey(token), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// SaltCounter returns the salt the next deployment will use.
func (Contract) SaltCounter(env *host.Env) (uint32, error) {
	var salt uint32
	_, err := env.Instance().Get(keySaltCounter, &salt)
	return salt, err
}

func requireToken(env *host.Env, token [20]byte) error {
	ok, err := env.Instance().Has(tokenKey(token))
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	return nil
}

func requireVerified(reg *registry.Client, merchants [][20]byte) error {
	if len(merchants) == 0 {
		return nil
	}
	verified, err := reg.VerifiedMerchants()
	if err != nil {
		return err
	}
	for _, m := range merchants {
		if !common.Contains(verified, m) {
			return ErrUnverifiedMerchant
		}
	}
	return nil
}

func readAccount(env *host.Env, key []byte) ([20]byte, error) {
	var addr [20]byte
	ok, err := env.Instance().Get(key, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, ErrAddressNotSet
	}
	return addr, nil
}

func nonNilStrings(list []string) []string {
	if list == nil {
		return make([]string, 0)
	}
	return list
}

func nonNilAccounts(list [][20]byte) [][20]byte {
	if list == nil {
		return make([][20]byte, 0)
	}
	return list
}

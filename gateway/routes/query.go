package routes

import (
	"context"
	"errors"
	"math/big"
	"sort"

	"voucherchain/core/genesis"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/campaign"
	"voucherchain/native/campaignmanager"
	"voucherchain/native/issuance"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
	"voucherchain/observability/logging"
)

// ErrNotFound reports a lookup for a record the contracts do not hold.
var ErrNotFound = errors.New("not found")

// Query answers read-only questions against the latest committed state.
type Query struct {
	host       *host.Host
	deployment *genesis.Deployment
}

func NewQuery(h *host.Host, deployment *genesis.Deployment) *Query {
	return &Query{host: h, deployment: deployment}
}

type deployedTokenView struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

type deploymentView struct {
	SuperAdmin      string              `json:"superAdmin"`
	Registry        string              `json:"registry"`
	Issuance        string              `json:"issuance"`
	CampaignManager string              `json:"campaignManager"`
	StableCoin      string              `json:"stableCoin"`
	Tokens          []deployedTokenView `json:"tokens"`
	GenesisLedger   uint64              `json:"genesisLedger"`
	Ledger          uint64              `json:"ledger"`
}

type tokenView struct {
	Address     string   `json:"address"`
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint32   `json:"decimals"`
	TotalSupply string   `json:"totalSupply"`
	TotalBurned string   `json:"totalBurned"`
	Admin       string   `json:"admin"`
	Stable      bool     `json:"stable"`
	Items       []string `json:"items,omitempty"`
	Merchants   []string `json:"merchants,omitempty"`
}

type balanceView struct {
	Token   string `json:"token"`
	Name    string `json:"name,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	Holder  string `json:"holder,omitempty"`
	Balance string `json:"balance"`
}

type merchantView struct {
	Address    string `json:"address"`
	Verified   bool   `json:"verified"`
	StoreName  string `json:"storeName"`
	Location   string `json:"location"`
	Proprietor string `json:"proprietor"`
	PhoneNo    string `json:"phoneNo"`
}

type recipientView struct {
	Username       string `json:"username"`
	Address        string `json:"address"`
	Verified       bool   `json:"verified"`
	AmountReceived string `json:"amountReceived"`
}

type campaignView struct {
	Address     string          `json:"address"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Creator     string          `json:"creator"`
	Token       string          `json:"token"`
	Capacity    uint32          `json:"capacity"`
	TokenMinted string          `json:"tokenMinted"`
	Escrowed    string          `json:"escrowed"`
	Ended       bool            `json:"ended"`
	Balance     string          `json:"balance,omitempty"`
	Recipients  []recipientView `json:"recipients,omitempty"`
}

func (q *Query) view(ctx context.Context, fn func(env *host.Env) error) error {
	return q.host.View(ctx, fn)
}

// Deployment describes where genesis placed the contracts.
func (q *Query) Deployment(ctx context.Context) (*deploymentView, error) {
	ledger, err := q.host.Ledger()
	if err != nil {
		return nil, err
	}
	d := q.deployment
	out := &deploymentView{
		SuperAdmin:      crypto.FormatAccount(d.SuperAdmin),
		Registry:        crypto.FormatAccount(d.Registry),
		Issuance:        crypto.FormatAccount(d.Issuance),
		CampaignManager: crypto.FormatAccount(d.CampaignManager),
		StableCoin:      crypto.FormatAccount(d.StableCoin),
		Tokens:          make([]deployedTokenView, 0, len(d.Tokens)),
		GenesisLedger:   d.Ledger,
		Ledger:          ledger,
	}
	for _, token := range d.Tokens {
		out.Tokens = append(out.Tokens, deployedTokenView{Symbol: token.Symbol, Address: crypto.FormatAccount(token.Address)})
	}
	return out, nil
}

// Tokens lists the stable asset followed by every issued local coin.
func (q *Query) Tokens(ctx context.Context) ([]tokenView, error) {
	var out []tokenView
	err := q.view(ctx, func(env *host.Env) error {
		reg, err := registry.Dial(env, q.deployment.Registry)
		if err != nil {
			return err
		}
		available, err := reg.AvailableTokens()
		if err != nil {
			return err
		}
		addrs := append([][20]byte{q.deployment.StableCoin}, available...)
		out = make([]tokenView, 0, len(addrs))
		for _, addr := range addrs {
			view, err := q.describeToken(env, addr)
			if err != nil {
				return err
			}
			out = append(out, *view)
		}
		return nil
	})
	return out, err
}

// Token describes one token, resolving ref as an address or a ticker.
func (q *Query) Token(ctx context.Context, ref string) (*tokenView, error) {
	var out *tokenView
	err := q.view(ctx, func(env *host.Env) error {
		addr, err := q.resolveToken(env, ref)
		if err != nil {
			return err
		}
		view, err := q.describeToken(env, addr)
		if err != nil {
			return err
		}
		iss, err := issuance.Dial(env, q.deployment.Issuance)
		if err != nil {
			return err
		}
		if view.Items, err = iss.ItemsAssociated(addr); err != nil {
			return err
		}
		merchants, err := iss.MerchantsAssociated(addr)
		if err != nil {
			return err
		}
		view.Merchants = formatAccounts(merchants)
		out = view
		return nil
	})
	return out, err
}

// TokenBalance returns holder's balance of one token.
func (q *Query) TokenBalance(ctx context.Context, ref string, holder [20]byte) (*balanceView, error) {
	var out *balanceView
	err := q.view(ctx, func(env *host.Env) error {
		addr, err := q.resolveToken(env, ref)
		if err != nil {
			return err
		}
		coin, err := localcoin.Dial(env, addr)
		if err != nil {
			return err
		}
		balance, err := coin.BalanceOf(holder)
		if err != nil {
			return err
		}
		symbol, err := coin.Symbol()
		if err != nil {
			return err
		}
		out = &balanceView{
			Token:   crypto.FormatAccount(addr),
			Symbol:  symbol,
			Holder:  crypto.FormatAccount(holder),
			Balance: balance.String(),
		}
		return nil
	})
	return out, err
}

// HolderBalances lists the non-zero balances of holder across the stable
// asset and every issued token.
func (q *Query) HolderBalances(ctx context.Context, holder [20]byte) ([]balanceView, error) {
	var out []balanceView
	err := q.view(ctx, func(env *host.Env) error {
		out = make([]balanceView, 0)
		stable, err := localcoin.Dial(env, q.deployment.StableCoin)
		if err != nil {
			return err
		}
		stableBalance, err := stable.BalanceOf(holder)
		if err != nil {
			return err
		}
		if stableBalance.Sign() > 0 {
			name, err := stable.Name()
			if err != nil {
				return err
			}
			symbol, err := stable.Symbol()
			if err != nil {
				return err
			}
			out = append(out, balanceView{
				Token:   crypto.FormatAccount(q.deployment.StableCoin),
				Name:    name,
				Symbol:  symbol,
				Balance: stableBalance.String(),
			})
		}
		iss, err := issuance.Dial(env, q.deployment.Issuance)
		if err != nil {
			return err
		}
		batch, err := iss.BalanceOfBatch(holder)
		if err != nil {
			return err
		}
		for _, row := range batch {
			out = append(out, balanceView{
				Token:   crypto.FormatAccount(row.Token),
				Name:    row.Name,
				Symbol:  row.Symbol,
				Balance: row.Balance.String(),
			})
		}
		return nil
	})
	return out, err
}

// Merchants lists every registered merchant ordered by address.
func (q *Query) Merchants(ctx context.Context) ([]merchantView, error) {
	var out []merchantView
	err := q.view(ctx, func(env *host.Env) error {
		reg, err := registry.Dial(env, q.deployment.Registry)
		if err != nil {
			return err
		}
		verified, err := reg.VerifiedMerchants()
		if err != nil {
			return err
		}
		unverified, err := reg.UnverifiedMerchants()
		if err != nil {
			return err
		}
		addrs := append(append([][20]byte{}, verified...), unverified...)
		sort.Slice(addrs, func(i, j int) bool {
			return crypto.FormatAccount(addrs[i]) < crypto.FormatAccount(addrs[j])
		})
		out = make([]merchantView, 0, len(addrs))
		for _, addr := range addrs {
			view, err := describeMerchant(reg, addr)
			if err != nil {
				return err
			}
			out = append(out, *view)
		}
		return nil
	})
	return out, err
}

// Merchant describes one registered merchant.
func (q *Query) Merchant(ctx context.Context, addr [20]byte) (*merchantView, error) {
	var out *merchantView
	err := q.view(ctx, func(env *host.Env) error {
		reg, err := registry.Dial(env, q.deployment.Registry)
		if err != nil {
			return err
		}
		out, err = describeMerchant(reg, addr)
		return err
	})
	return out, err
}

// Campaigns lists every campaign in creation order.
func (q *Query) Campaigns(ctx context.Context) ([]campaignView, error) {
	var out []campaignView
	err := q.view(ctx, func(env *host.Env) error {
		cm, err := campaignmanager.Dial(env, q.deployment.CampaignManager)
		if err != nil {
			return err
		}
		addrs, err := cm.Campaigns()
		if err != nil {
			return err
		}
		out = make([]campaignView, 0, len(addrs))
		for _, addr := range addrs {
			detail, ok, err := cm.CampaignDetail(addr)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			view, err := describeCampaign(env, detail, false)
			if err != nil {
				return err
			}
			out = append(out, *view)
		}
		return nil
	})
	return out, err
}

// Campaign describes one campaign including its recipients.
func (q *Query) Campaign(ctx context.Context, addr [20]byte) (*campaignView, error) {
	var out *campaignView
	err := q.view(ctx, func(env *host.Env) error {
		cm, err := campaignmanager.Dial(env, q.deployment.CampaignManager)
		if err != nil {
			return err
		}
		detail, ok, err := cm.CampaignDetail(addr)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		out, err = describeCampaign(env, detail, true)
		return err
	})
	return out, err
}

// CreatorCampaigns lists the campaigns started by creator.
func (q *Query) CreatorCampaigns(ctx context.Context, creator [20]byte) ([]campaignView, error) {
	var out []campaignView
	err := q.view(ctx, func(env *host.Env) error {
		cm, err := campaignmanager.Dial(env, q.deployment.CampaignManager)
		if err != nil {
			return err
		}
		details, err := cm.CampaignsInfo(creator)
		if err != nil {
			return err
		}
		out = make([]campaignView, 0, len(details))
		for i := range details {
			view, err := describeCampaign(env, &details[i], false)
			if err != nil {
				return err
			}
			out = append(out, *view)
		}
		return nil
	})
	return out, err
}

func (q *Query) resolveToken(env *host.Env, ref string) ([20]byte, error) {
	if addr, err := crypto.ParseAccount(ref); err == nil {
		return addr, nil
	}
	iss, err := issuance.Dial(env, q.deployment.Issuance)
	if err != nil {
		return [20]byte{}, err
	}
	addr, ok, err := iss.TokenBySymbol(ref)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrNotFound
	}
	return addr, nil
}

func (q *Query) describeToken(env *host.Env, addr [20]byte) (*tokenView, error) {
	coin, err := localcoin.Dial(env, addr)
	if err != nil {
		return nil, err
	}
	view := &tokenView{Address: crypto.FormatAccount(addr), Stable: addr == q.deployment.StableCoin}
	if view.Name, err = coin.Name(); err != nil {
		return nil, err
	}
	if view.Symbol, err = coin.Symbol(); err != nil {
		return nil, err
	}
	if view.Decimals, err = coin.Decimals(); err != nil {
		return nil, err
	}
	supply, err := coin.TotalSupply()
	if err != nil {
		return nil, err
	}
	burned, err := coin.TotalBurned()
	if err != nil {
		return nil, err
	}
	admin, err := coin.Admin()
	if err != nil {
		return nil, err
	}
	view.TotalSupply = supply.String()
	view.TotalBurned = burned.String()
	view.Admin = crypto.FormatAccount(admin)
	return view, nil
}

func describeMerchant(reg *registry.Client, addr [20]byte) (*merchantView, error) {
	info, ok, err := reg.MerchantInfo(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &merchantView{
		Address:    crypto.FormatAccount(addr),
		Verified:   info.VerifiedStatus,
		StoreName:  info.StoreName,
		Location:   info.Location,
		Proprietor: info.Proprietor,
		PhoneNo:    logging.MaskPhone(info.PhoneNo),
	}, nil
}

func describeCampaign(env *host.Env, detail *campaignmanager.CampaignDetail, withRecipients bool) (*campaignView, error) {
	view := &campaignView{
		Address:     crypto.FormatAccount(detail.Campaign),
		Name:        detail.Name,
		Description: detail.Description,
		Location:    detail.Location,
		Creator:     crypto.FormatAccount(detail.Creator),
		Token:       crypto.FormatAccount(detail.Token),
		Capacity:    detail.Capacity,
		TokenMinted: amountString(detail.TokenMinted),
		Escrowed:    amountString(detail.Escrowed),
	}
	c, err := campaign.Dial(env, detail.Campaign)
	if err != nil {
		return nil, err
	}
	if view.Ended, err = c.IsEnded(); err != nil {
		return nil, err
	}
	if !withRecipients {
		return view, nil
	}
	balance, err := c.CampaignBalance()
	if err != nil {
		return nil, err
	}
	view.Balance = balance.String()
	book, err := c.RecipientsStatus()
	if err != nil {
		return nil, err
	}
	view.Recipients = make([]recipientView, 0, len(book))
	for _, entry := range book {
		received, err := c.AmountReceived(entry.Recipient)
		if err != nil {
			return nil, err
		}
		view.Recipients = append(view.Recipients, recipientView{
			Username:       entry.Username,
			Address:        crypto.FormatAccount(entry.Recipient),
			Verified:       entry.Verified,
			AmountReceived: received.String(),
		})
	}
	return view, nil
}

func formatAccounts(list [][20]byte) []string {
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, crypto.FormatAccount(addr))
	}
	return out
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

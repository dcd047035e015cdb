package issuance

import (
	"fmt"

	"voucherchain/core/host"
	"voucherchain/crypto"
)

// API is the entry-point surface of the issuance contract.
type API interface {
	Initialize(env *host.Env, registryAddr [20]byte) error
	SetRegistry(env *host.Env, addr [20]byte) error
	SetCampaignManagement(env *host.Env, addr [20]byte) error
	IssueNewToken(env *host.Env, decimal uint32, name, symbol string, items []string, merchants [][20]byte) ([20]byte, error)
	AddTokenItems(env *host.Env, token [20]byte, items []string) error
	AddTokenMerchants(env *host.Env, token [20]byte, merchants [][20]byte) error
	BalanceOfBatch(env *host.Env, user [20]byte) ([]TokenBalance, error)
	Registry(env *host.Env) ([20]byte, error)
	CampaignManagement(env *host.Env) ([20]byte, error)
	SuperAdmin(env *host.Env) ([20]byte, error)
	MerchantsAssociated(env *host.Env, token [20]byte) ([][20]byte, error)
	ItemsAssociated(env *host.Env, token [20]byte) ([]string, error)
	TokenBySymbol(env *host.Env, symbol string) ([20]byte, bool, error)
	TokenInfo(env *host.Env, token [20]byte) (*TokenRecord, bool, error)
	SaltCounter(env *host.Env) (uint32, error)
}

// Client invokes a deployed issuance contract from the frame it was dialled
// in.
type Client struct {
	api  API
	env  *host.Env
	addr [20]byte
}

// Dial resolves the issuance contract deployed at addr.
func Dial(env *host.Env, addr [20]byte) (*Client, error) {
	impl, child, err := env.Call(addr)
	if err != nil {
		return nil, err
	}
	api, ok := impl.(API)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an issuance contract", host.ErrWrongInterface, crypto.FormatAccount(addr))
	}
	return &Client{api: api, env: child, addr: addr}, nil
}

// Address returns the issuance contract address.
func (c *Client) Address() [20]byte { return c.addr }

// Initialize records the registry.
func (c *Client) Initialize(registryAddr [20]byte) error {
	return c.api.Initialize(c.env, registryAddr)
}

// SetRegistry replaces the registry.
func (c *Client) SetRegistry(addr [20]byte) error {
	return c.api.SetRegistry(c.env, addr)
}

// SetCampaignManagement records the contract that administers issued tokens.
func (c *Client) SetCampaignManagement(addr [20]byte) error {
	return c.api.SetCampaignManagement(c.env, addr)
}

// IssueNewToken deploys a local coin administered by campaign management and
// binds its eligibility lists.
func (c *Client) IssueNewToken(decimal uint32, name, symbol string, items []string, merchants [][20]byte) ([20]byte, error) {
	return c.api.IssueNewToken(c.env, decimal, name, symbol, items, merchants)
}

// AddTokenItems appends items to a token's eligibility list.
func (c *Client) AddTokenItems(token [20]byte, items []string) error {
	return c.api.AddTokenItems(c.env, token, items)
}

// AddTokenMerchants appends verified merchants to a token's eligibility list.
func (c *Client) AddTokenMerchants(token [20]byte, merchants [][20]byte) error {
	return c.api.AddTokenMerchants(c.env, token, merchants)
}

// BalanceOfBatch lists every issued token user holds a positive balance of.
func (c *Client) BalanceOfBatch(user [20]byte) ([]TokenBalance, error) {
	return c.api.BalanceOfBatch(c.env, user)
}

// Registry returns the configured registry.
func (c *Client) Registry() ([20]byte, error) {
	return c.api.Registry(c.env)
}

// CampaignManagement returns the configured campaign manager.
func (c *Client) CampaignManagement() ([20]byte, error) {
	return c.api.CampaignManagement(c.env)
}

// SuperAdmin resolves the platform authority through the registry.
func (c *Client) SuperAdmin() ([20]byte, error) {
	return c.api.SuperAdmin(c.env)
}

// MerchantsAssociated returns the merchants accepting token, empty for
// unknown tokens.
func (c *Client) MerchantsAssociated(token [20]byte) ([][20]byte, error) {
	return c.api.MerchantsAssociated(c.env, token)
}

// ItemsAssociated returns the item categories of token, empty for unknown
// tokens.
func (c *Client) ItemsAssociated(token [20]byte) ([]string, error) {
	return c.api.ItemsAssociated(c.env, token)
}

// TokenBySymbol resolves a ticker to the token it was issued as.
func (c *Client) TokenBySymbol(symbol string) ([20]byte, bool, error) {
	return c.api.TokenBySymbol(c.env, symbol)
}

// TokenInfo returns the issuance record of token.
func (c *Client) TokenInfo(token [20]byte) (*TokenRecord, bool, error) {
	return c.api.TokenInfo(c.env, token)
}

// SaltCounter returns the salt the next deployment will use.
func (c *Client) SaltCounter() (uint32, error) {
	return c.api.SaltCounter(c.env)
}

package localcoin

import (
	"fmt"
	"math/big"

	"voucherchain/core/host"
	"voucherchain/crypto"
)

// API is the entry-point surface of a deployed token.
type API interface {
	Initialize(env *host.Env, admin [20]byte, decimal uint32, name, symbol string) error
	Mint(env *host.Env, to [20]byte, amount *big.Int) error
	Burn(env *host.Env, from [20]byte, amount *big.Int) error
	Transfer(env *host.Env, from, to [20]byte, amount *big.Int) error
	RecipientToMerchantTransfer(env *host.Env, from, to [20]byte, amount *big.Int) error
	SetAdmin(env *host.Env, newAdmin [20]byte) error
	SetIssuanceManagement(env *host.Env, issuance [20]byte) error
	Upgrade(env *host.Env, code [32]byte) error
	BalanceOf(env *host.Env, holder [20]byte) (*big.Int, error)
	TotalSupply(env *host.Env) (*big.Int, error)
	TotalBurned(env *host.Env) (*big.Int, error)
	Admin(env *host.Env) ([20]byte, error)
	IssuanceManagement(env *host.Env) ([20]byte, error)
	Decimals(env *host.Env) (uint32, error)
	Name(env *host.Env) (string, error)
	Symbol(env *host.Env) (string, error)
}

// Client invokes a deployed token from the frame it was dialled in.
type Client struct {
	api  API
	env  *host.Env
	addr [20]byte
}

// Dial resolves the token deployed at addr.
func Dial(env *host.Env, addr [20]byte) (*Client, error) {
	impl, child, err := env.Call(addr)
	if err != nil {
		return nil, err
	}
	api, ok := impl.(API)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a local coin", host.ErrWrongInterface, crypto.FormatAccount(addr))
	}
	return &Client{api: api, env: child, addr: addr}, nil
}

// Address returns the token contract address.
func (c *Client) Address() [20]byte { return c.addr }

// Initialize binds the admin and display metadata.
func (c *Client) Initialize(admin [20]byte, decimal uint32, name, symbol string) error {
	return c.api.Initialize(c.env, admin, decimal, name, symbol)
}

// Mint credits amount to to and grows the supply.
func (c *Client) Mint(to [20]byte, amount *big.Int) error {
	return c.api.Mint(c.env, to, amount)
}

// Burn destroys amount from from.
func (c *Client) Burn(from [20]byte, amount *big.Int) error {
	return c.api.Burn(c.env, from, amount)
}

// Transfer moves amount from from to to.
func (c *Client) Transfer(from, to [20]byte, amount *big.Int) error {
	return c.api.Transfer(c.env, from, to, amount)
}

// RecipientToMerchantTransfer transfers only to merchants the issuance
// contract associates with this token.
func (c *Client) RecipientToMerchantTransfer(from, to [20]byte, amount *big.Int) error {
	return c.api.RecipientToMerchantTransfer(c.env, from, to, amount)
}

// SetAdmin rotates the mint/burn authority.
func (c *Client) SetAdmin(newAdmin [20]byte) error {
	return c.api.SetAdmin(c.env, newAdmin)
}

// SetIssuanceManagement binds the issuance contract exactly once.
func (c *Client) SetIssuanceManagement(issuance [20]byte) error {
	return c.api.SetIssuanceManagement(c.env, issuance)
}

// Upgrade replaces the token code while keeping its balances.
func (c *Client) Upgrade(code [32]byte) error {
	return c.api.Upgrade(c.env, code)
}

// BalanceOf returns the balance of holder, zero when absent.
func (c *Client) BalanceOf(holder [20]byte) (*big.Int, error) {
	return c.api.BalanceOf(c.env, holder)
}

// TotalSupply returns minted minus burned supply.
func (c *Client) TotalSupply() (*big.Int, error) {
	return c.api.TotalSupply(c.env)
}

// TotalBurned returns the cumulative burned amount.
func (c *Client) TotalBurned() (*big.Int, error) {
	return c.api.TotalBurned(c.env)
}

// Admin returns the mint/burn authority.
func (c *Client) Admin() ([20]byte, error) {
	return c.api.Admin(c.env)
}

// IssuanceManagement returns the bound issuance contract.
func (c *Client) IssuanceManagement() ([20]byte, error) {
	return c.api.IssuanceManagement(c.env)
}

// Decimals returns the display precision.
func (c *Client) Decimals() (uint32, error) {
	return c.api.Decimals(c.env)
}

// Name returns the display name.
func (c *Client) Name() (string, error) {
	return c.api.Name(c.env)
}

// Symbol returns the ticker.
func (c *Client) Symbol() (string, error) {
	return c.api.Symbol(c.env)
}

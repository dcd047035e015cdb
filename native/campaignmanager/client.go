package campaignmanager

import (
	"fmt"
	"math/big"

	"voucherchain/core/host"
	"voucherchain/crypto"
)

// API is the entry-point surface of the campaign manager.
type API interface {
	Initialize(env *host.Env, registryAddr [20]byte) error
	SetRegistry(env *host.Env, addr [20]byte) error
	SetStableCoinAddress(env *host.Env, addr [20]byte) error
	Upgrade(env *host.Env, code [32]byte) error
	UpgradeToken(env *host.Env, tokenAddr [20]byte, code [32]byte) error
	CreateCampaign(env *host.Env, name, description string, capacity uint32, tokenAddr [20]byte, amount *big.Int, creator [20]byte, location string) ([20]byte, error)
	EndCampaign(env *host.Env, campaignAddr, creator [20]byte) error
	RequestCampaignSettlement(env *host.Env, from [20]byte, amount *big.Int, tokenAddr [20]byte) error
	Campaigns(env *host.Env) ([][20]byte, error)
	CampaignsInfo(env *host.Env, creator [20]byte) ([]CampaignDetail, error)
	CampaignDetail(env *host.Env, campaignAddr [20]byte) (*CampaignDetail, bool, error)
	CampaignName(env *host.Env, campaignAddr [20]byte) (string, error)
	Registry(env *host.Env) ([20]byte, error)
	StableCoin(env *host.Env) ([20]byte, error)
	SuperAdmin(env *host.Env) ([20]byte, error)
	BalanceOfStableCoin(env *host.Env, holder [20]byte) (*big.Int, error)
	SaltCounter(env *host.Env) (uint32, error)
}

// Client invokes the deployed campaign manager from the frame it was
// dialled in.
type Client struct {
	api  API
	env  *host.Env
	addr [20]byte
}

// Dial resolves the campaign manager deployed at addr.
func Dial(env *host.Env, addr [20]byte) (*Client, error) {
	impl, child, err := env.Call(addr)
	if err != nil {
		return nil, err
	}
	api, ok := impl.(API)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a campaign manager", host.ErrWrongInterface, crypto.FormatAccount(addr))
	}
	return &Client{api: api, env: child, addr: addr}, nil
}

// Address returns the campaign manager address.
func (c *Client) Address() [20]byte { return c.addr }

// Initialize records the registry.
func (c *Client) Initialize(registryAddr [20]byte) error {
	return c.api.Initialize(c.env, registryAddr)
}

// SetRegistry replaces the registry.
func (c *Client) SetRegistry(addr [20]byte) error {
	return c.api.SetRegistry(c.env, addr)
}

// SetStableCoinAddress records the backing asset.
func (c *Client) SetStableCoinAddress(addr [20]byte) error {
	return c.api.SetStableCoinAddress(c.env, addr)
}

// Upgrade swaps the manager's own code.
func (c *Client) Upgrade(code [32]byte) error {
	return c.api.Upgrade(c.env, code)
}

// UpgradeToken swaps the code of a token this manager administers.
func (c *Client) UpgradeToken(tokenAddr [20]byte, code [32]byte) error {
	return c.api.UpgradeToken(c.env, tokenAddr, code)
}

// CreateCampaign escrows amount of the stable asset from creator, deploys a
// campaign and mints amount of tokenAddr to it.
func (c *Client) CreateCampaign(name, description string, capacity uint32, tokenAddr [20]byte, amount *big.Int, creator [20]byte, location string) ([20]byte, error) {
	return c.api.CreateCampaign(c.env, name, description, capacity, tokenAddr, amount, creator, location)
}

// EndCampaign closes a campaign on behalf of its owner.
func (c *Client) EndCampaign(campaignAddr, creator [20]byte) error {
	return c.api.EndCampaign(c.env, campaignAddr, creator)
}

// RequestCampaignSettlement burns amount of tokenAddr held by a verified
// merchant and releases the same amount of the stable asset to the
// super-admin.
func (c *Client) RequestCampaignSettlement(from [20]byte, amount *big.Int, tokenAddr [20]byte) error {
	return c.api.RequestCampaignSettlement(c.env, from, amount, tokenAddr)
}

// Campaigns lists every campaign in creation order.
func (c *Client) Campaigns() ([][20]byte, error) {
	return c.api.Campaigns(c.env)
}

// CampaignsInfo lists the campaigns created by creator.
func (c *Client) CampaignsInfo(creator [20]byte) ([]CampaignDetail, error) {
	return c.api.CampaignsInfo(c.env, creator)
}

// CampaignDetail returns the creation record of campaign.
func (c *Client) CampaignDetail(campaignAddr [20]byte) (*CampaignDetail, bool, error) {
	return c.api.CampaignDetail(c.env, campaignAddr)
}

// CampaignName returns the display name of campaign.
func (c *Client) CampaignName(campaignAddr [20]byte) (string, error) {
	return c.api.CampaignName(c.env, campaignAddr)
}

// Registry returns the configured registry.
func (c *Client) Registry() ([20]byte, error) {
	return c.api.Registry(c.env)
}

// StableCoin returns the backing asset.
func (c *Client) StableCoin() ([20]byte, error) {
	return c.api.StableCoin(c.env)
}

// SuperAdmin resolves the platform authority through the registry.
func (c *Client) SuperAdmin() ([20]byte, error) {
	return c.api.SuperAdmin(c.env)
}

// BalanceOfStableCoin returns holder's balance of the backing asset.
func (c *Client) BalanceOfStableCoin(holder [20]byte) (*big.Int, error) {
	return c.api.BalanceOfStableCoin(c.env, holder)
}

// SaltCounter returns the salt the next campaign will be deployed with.
func (c *Client) SaltCounter() (uint32, error) {
	return c.api.SaltCounter(c.env)
}

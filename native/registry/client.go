package registry

import (
	"fmt"

	"voucherchain/core/host"
	"voucherchain/crypto"
)

// API is the entry-point surface of the registry.
type API interface {
	Initialize(env *host.Env, superAdmin [20]byte) error
	SetCampaignManagement(env *host.Env, addr [20]byte) error
	SetIssuanceManagement(env *host.Env, addr [20]byte) error
	SetSuperAdmin(env *host.Env, next [20]byte) error
	MerchantRegistration(env *host.Env, merchant [20]byte, profile Profile) error
	VerifyMerchant(env *host.Env, merchant [20]byte) error
	UpdateMerchantInfo(env *host.Env, merchant [20]byte, verified bool, profile Profile) error
	SetCampaignAdmin(env *host.Env, campaign, admin [20]byte) error
	AddDeployedTokens(env *host.Env, token [20]byte) error
	MerchantInfo(env *host.Env, merchant [20]byte) (*MerchantInfo, bool, error)
	VerifiedMerchants(env *host.Env) ([][20]byte, error)
	UnverifiedMerchants(env *host.Env) ([][20]byte, error)
	AvailableTokens(env *host.Env) ([][20]byte, error)
	CampaignAdmin(env *host.Env, campaign [20]byte) ([20]byte, error)
	SuperAdmin(env *host.Env) ([20]byte, error)
	CampaignManagement(env *host.Env) ([20]byte, error)
	IssuanceManagement(env *host.Env) ([20]byte, error)
	IsInitialized(env *host.Env) (bool, error)
}

// Client invokes a deployed registry from the frame it was dialled in.
type Client struct {
	api  API
	env  *host.Env
	addr [20]byte
}

// Dial resolves the registry deployed at addr.
func Dial(env *host.Env, addr [20]byte) (*Client, error) {
	impl, child, err := env.Call(addr)
	if err != nil {
		return nil, err
	}
	api, ok := impl.(API)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a registry", host.ErrWrongInterface, crypto.FormatAccount(addr))
	}
	return &Client{api: api, env: child, addr: addr}, nil
}

// Address returns the registry contract address.
func (c *Client) Address() [20]byte { return c.addr }

// Initialize records the super-admin.
func (c *Client) Initialize(superAdmin [20]byte) error {
	return c.api.Initialize(c.env, superAdmin)
}

// SetCampaignManagement records the campaign manager.
func (c *Client) SetCampaignManagement(addr [20]byte) error {
	return c.api.SetCampaignManagement(c.env, addr)
}

// SetIssuanceManagement records the issuance manager.
func (c *Client) SetIssuanceManagement(addr [20]byte) error {
	return c.api.SetIssuanceManagement(c.env, addr)
}

// SetSuperAdmin hands the super-admin role over.
func (c *Client) SetSuperAdmin(next [20]byte) error {
	return c.api.SetSuperAdmin(c.env, next)
}

// MerchantRegistration files an unverified merchant record.
func (c *Client) MerchantRegistration(merchant [20]byte, profile Profile) error {
	return c.api.MerchantRegistration(c.env, merchant, profile)
}

// VerifyMerchant moves a registered merchant from the unverified list to the
// verified list.
func (c *Client) VerifyMerchant(merchant [20]byte) error {
	return c.api.VerifyMerchant(c.env, merchant)
}

// UpdateMerchantInfo rewrites a verified merchant's record.
func (c *Client) UpdateMerchantInfo(merchant [20]byte, verified bool, profile Profile) error {
	return c.api.UpdateMerchantInfo(c.env, merchant, verified, profile)
}

// SetCampaignAdmin records the owner of a campaign.
func (c *Client) SetCampaignAdmin(campaign, admin [20]byte) error {
	return c.api.SetCampaignAdmin(c.env, campaign, admin)
}

// AddDeployedTokens appends a token to the available-token list.
func (c *Client) AddDeployedTokens(token [20]byte) error {
	return c.api.AddDeployedTokens(c.env, token)
}

// MerchantInfo returns the stored record of merchant.
func (c *Client) MerchantInfo(merchant [20]byte) (*MerchantInfo, bool, error) {
	return c.api.MerchantInfo(c.env, merchant)
}

// VerifiedMerchants lists verified merchants in verification order.
func (c *Client) VerifiedMerchants() ([][20]byte, error) {
	return c.api.VerifiedMerchants(c.env)
}

// UnverifiedMerchants lists merchants awaiting verification.
func (c *Client) UnverifiedMerchants() ([][20]byte, error) {
	return c.api.UnverifiedMerchants(c.env)
}

// AvailableTokens lists every token issued so far.
func (c *Client) AvailableTokens() ([][20]byte, error) {
	return c.api.AvailableTokens(c.env)
}

// CampaignAdmin returns the owner recorded for campaign.
func (c *Client) CampaignAdmin(campaign [20]byte) ([20]byte, error) {
	return c.api.CampaignAdmin(c.env, campaign)
}

// SuperAdmin returns the platform authority.
func (c *Client) SuperAdmin() ([20]byte, error) {
	return c.api.SuperAdmin(c.env)
}

// CampaignManagement returns the registered campaign manager.
func (c *Client) CampaignManagement() ([20]byte, error) {
	return c.api.CampaignManagement(c.env)
}

// IssuanceManagement returns the registered issuance manager.
func (c *Client) IssuanceManagement() ([20]byte, error) {
	return c.api.IssuanceManagement(c.env)
}

// IsInitialized reports whether a super-admin was recorded.
func (c *Client) IsInitialized() (bool, error) {
	return c.api.IsInitialized(c.env)
}

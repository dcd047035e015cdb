package campaign

import (
	"fmt"
	"math/big"

	"voucherchain/core/host"
	"voucherchain/crypto"
)

// API is the entry-point surface of a campaign contract.
type API interface {
	SetCampaignInfo(env *host.Env, name, description string, noOfRecipients uint32, tokenAddr, creator, management [20]byte, location string) error
	SetCampaignEndStatus(env *host.Env, status bool) error
	JoinCampaign(env *host.Env, username string, recipient [20]byte) error
	VerifyRecipients(env *host.Env, usernames []string) error
	TransferTokensToRecipient(env *host.Env, to [20]byte, amount *big.Int) error
	RecipientLimitExceeded(env *host.Env) (bool, error)
	RecipientsStatus(env *host.Env) ([]RecipientStatus, error)
	VerifiedRecipients(env *host.Env) ([][20]byte, error)
	AmountReceived(env *host.Env, recipient [20]byte) (*big.Int, error)
	CampaignBalance(env *host.Env) (*big.Int, error)
	CampaignInfo(env *host.Env) (*Info, error)
	Owner(env *host.Env) ([20]byte, error)
	TokenAddress(env *host.Env) ([20]byte, error)
	CampaignManagement(env *host.Env) ([20]byte, error)
	IsEnded(env *host.Env) (bool, error)
}

// Client invokes a deployed campaign from the frame it was dialled in.
type Client struct {
	api  API
	env  *host.Env
	addr [20]byte
}

// Dial resolves the campaign deployed at addr.
func Dial(env *host.Env, addr [20]byte) (*Client, error) {
	impl, child, err := env.Call(addr)
	if err != nil {
		return nil, err
	}
	api, ok := impl.(API)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a campaign", host.ErrWrongInterface, crypto.FormatAccount(addr))
	}
	return &Client{api: api, env: child, addr: addr}, nil
}

// Address returns the campaign address.
func (c *Client) Address() [20]byte { return c.addr }

// SetCampaignInfo binds the campaign identity.
func (c *Client) SetCampaignInfo(name, description string, noOfRecipients uint32, tokenAddr, creator, management [20]byte, location string) error {
	return c.api.SetCampaignInfo(c.env, name, description, noOfRecipients, tokenAddr, creator, management, location)
}

// SetCampaignEndStatus ends or reopens the campaign.
func (c *Client) SetCampaignEndStatus(status bool) error {
	return c.api.SetCampaignEndStatus(c.env, status)
}

// JoinCampaign records username as an unverified recipient.
func (c *Client) JoinCampaign(username string, recipient [20]byte) error {
	return c.api.JoinCampaign(c.env, username, recipient)
}

// VerifyRecipients verifies a batch of joined usernames.
func (c *Client) VerifyRecipients(usernames []string) error {
	return c.api.VerifyRecipients(c.env, usernames)
}

// TransferTokensToRecipient pays amount of the campaign token to a verified
// recipient and adds it to the recipient's cumulative receipt.
func (c *Client) TransferTokensToRecipient(to [20]byte, amount *big.Int) error {
	return c.api.TransferTokensToRecipient(c.env, to, amount)
}

// RecipientLimitExceeded reports whether the verified recipients reached the
// declared capacity.
func (c *Client) RecipientLimitExceeded() (bool, error) {
	return c.api.RecipientLimitExceeded(c.env)
}

// RecipientsStatus lists joined usernames ordered by username.
func (c *Client) RecipientsStatus() ([]RecipientStatus, error) {
	return c.api.RecipientsStatus(c.env)
}

// VerifiedRecipients lists verified recipient addresses in verification
// order.
func (c *Client) VerifiedRecipients() ([][20]byte, error) {
	return c.api.VerifiedRecipients(c.env)
}

// AmountReceived returns the cumulative amount paid to recipient.
func (c *Client) AmountReceived(recipient [20]byte) (*big.Int, error) {
	return c.api.AmountReceived(c.env, recipient)
}

// CampaignBalance returns the campaign's own token balance.
func (c *Client) CampaignBalance() (*big.Int, error) {
	return c.api.CampaignBalance(c.env)
}

// CampaignInfo returns the identity snapshot.
func (c *Client) CampaignInfo() (*Info, error) {
	return c.api.CampaignInfo(c.env)
}

// Owner returns the creator.
func (c *Client) Owner() ([20]byte, error) {
	return c.api.Owner(c.env)
}

// TokenAddress returns the token the campaign pays out of.
func (c *Client) TokenAddress() ([20]byte, error) {
	return c.api.TokenAddress(c.env)
}

// CampaignManagement returns the manager that created the campaign.
func (c *Client) CampaignManagement() ([20]byte, error) {
	return c.api.CampaignManagement(c.env)
}

// IsEnded reports whether the campaign was closed.
func (c *Client) IsEnded() (bool, error) {
	return c.api.IsEnded(c.env)
}

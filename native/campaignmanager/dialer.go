package campaignmanager

import (
	"math/big"

	"voucherchain/core/host"
	"voucherchain/native/campaign"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
)

// Registry is the part of the registry campaign management relies on.
type Registry interface {
	SuperAdmin() ([20]byte, error)
	AvailableTokens() ([][20]byte, error)
	VerifiedMerchants() ([][20]byte, error)
	SetCampaignAdmin(campaign, admin [20]byte) error
	CampaignAdmin(campaign [20]byte) ([20]byte, error)
}

// Token is the part of a local coin campaign management drives. The stable
// asset is served through the same surface.
type Token interface {
	Decimals() (uint32, error)
	Mint(to [20]byte, amount *big.Int) error
	Burn(from [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(holder [20]byte) (*big.Int, error)
	Upgrade(code [32]byte) error
}

// Campaign is the part of a campaign contract its manager drives.
type Campaign interface {
	SetCampaignInfo(name, description string, noOfRecipients uint32, tokenAddr, creator, management [20]byte, location string) error
	SetCampaignEndStatus(status bool) error
	IsEnded() (bool, error)
}

// Dialer resolves sibling contracts from a contract frame.
type Dialer interface {
	Registry(env *host.Env, addr [20]byte) (Registry, error)
	Token(env *host.Env, addr [20]byte) (Token, error)
	Campaign(env *host.Env, addr [20]byte) (Campaign, error)
}

// HostDialer resolves siblings deployed on the host.
type HostDialer struct{}

var _ Dialer = HostDialer{}

func (HostDialer) Registry(env *host.Env, addr [20]byte) (Registry, error) {
	client, err := registry.Dial(env, addr)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (HostDialer) Token(env *host.Env, addr [20]byte) (Token, error) {
	client, err := localcoin.Dial(env, addr)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (HostDialer) Campaign(env *host.Env, addr [20]byte) (Campaign, error) {
	client, err := campaign.Dial(env, addr)
	if err != nil {
		return nil, err
	}
	return client, nil
}

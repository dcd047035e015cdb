// Package protocol registers the voucher contracts with a host.
package protocol

import (
	"voucherchain/core/host"
	"voucherchain/native/campaign"
	"voucherchain/native/campaignmanager"
	"voucherchain/native/issuance"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
)

// Codes holds the code hash of every registered contract.
type Codes struct {
	Registry        [32]byte
	Issuance        [32]byte
	CampaignManager [32]byte
	Campaign        [32]byte
	LocalCoin       [32]byte
}

// Register installs the five contract codes on h.
func Register(h *host.Host) Codes {
	return Codes{
		Registry:        h.RegisterCode(registry.CodeName, registry.New()),
		Issuance:        h.RegisterCode(issuance.CodeName, issuance.New()),
		CampaignManager: h.RegisterCode(campaignmanager.CodeName, campaignmanager.New()),
		Campaign:        h.RegisterCode(campaign.CodeName, campaign.New()),
		LocalCoin:       h.RegisterCode(localcoin.CodeName, localcoin.New()),
	}
}

// Lookup returns the hash a contract name registers under.
func Lookup(name string) ([32]byte, bool) {
	switch name {
	case registry.CodeName, issuance.CodeName, campaignmanager.CodeName, campaign.CodeName, localcoin.CodeName:
		return host.CodeHash(name), true
	default:
		return [32]byte{}, false
	}
}

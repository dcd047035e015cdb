package campaignmanager

import (
	"math/big"

	"voucherchain/core/state"
	"voucherchain/native/common"
)

// MinimumCampaignUnits is the smallest campaign funding, in whole units of
// the campaign token.
const MinimumCampaignUnits = 100

var (
	keyRegistry    = state.Key("UserRegistry")
	keyStableCoin  = state.Key("StableCoin")
	keySaltCounter = state.Key("SaltCounter")
	keyCampaigns   = state.Key("Campaigns")
)

func campaignNameKey(campaign [20]byte) []byte {
	return state.Key("CampaignsName", campaign[:])
}

func creatorCampaignsKey(creator [20]byte) []byte {
	return state.Key("CreatorCampaigns", creator[:])
}

func campaignDetailKey(campaign [20]byte) []byte {
	return state.Key("CampaignDetail", campaign[:])
}

// CampaignDetail is the manager's record of a campaign it created.
type CampaignDetail struct {
	Campaign    [20]byte
	Token       [20]byte
	TokenMinted *big.Int
	Escrowed    *big.Int
	Name        string
	Description string
	Capacity    uint32
	Location    string
	Creator     [20]byte
}

// minimumFor returns the funding floor of a token with the given decimals.
func minimumFor(decimals uint32) *big.Int {
	floor := new(big.Int).SetUint64(MinimumCampaignUnits)
	return floor.Mul(floor, common.Pow10(decimals))
}

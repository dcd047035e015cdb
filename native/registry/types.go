package registry

import "voucherchain/core/state"

var (
	keySuperAdmin         = state.Key("SuperAdmin")
	keyCampaignManagement = state.Key("CampaignManagement")
	keyIssuanceManagement = state.Key("IssuanceManagement")
	keyVerifiedMerchants  = state.Key("VerifiedMerchantList")
	keyUnverifiedMerchant = state.Key("UnVerifiedMerchantList")
	keyDeployedTokens     = state.Key("DeployedTokensList")
)

func merchantInfoKey(merchant [20]byte) []byte {
	return state.Key("MerchantsInfo", merchant[:])
}

func campaignAdminKey(campaign [20]byte) []byte {
	return state.Key("CampaignAdmin", campaign[:])
}

// Profile is the merchant-supplied part of a registration.
type Profile struct {
	Proprietor string
	PhoneNo    string
	StoreName  string
	Location   string
}

// MerchantInfo is the stored merchant record.
type MerchantInfo struct {
	VerifiedStatus bool
	Proprietor     string
	PhoneNo        string
	StoreName      string
	Location       string
}

func newMerchantInfo(verified bool, p Profile) *MerchantInfo {
	return &MerchantInfo{
		VerifiedStatus: verified,
		Proprietor:     p.Proprietor,
		PhoneNo:        p.PhoneNo,
		StoreName:      p.StoreName,
		Location:       p.Location,
	}
}

// Profile returns the merchant-supplied fields of the record.
func (m *MerchantInfo) Profile() Profile {
	if m == nil {
		return Profile{}
	}
	return Profile{
		Proprietor: m.Proprietor,
		PhoneNo:    m.PhoneNo,
		StoreName:  m.StoreName,
		Location:   m.Location,
	}
}

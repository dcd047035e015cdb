package registry

import (
	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/core/state"
	"voucherchain/native/common"
)

// CodeName is the name the registry code registers under.
const CodeName = "registry"

// Contract is the authority and merchant directory.
type Contract struct{}

// New returns the registry code.
func New() Contract { return Contract{} }

var _ API = Contract{}

// Initialize records the super-admin. It can run only once.
func (Contract) Initialize(env *host.Env, superAdmin [20]byte) error {
	ok, err := env.Instance().Has(keySuperAdmin)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	return env.Instance().Set(keySuperAdmin, superAdmin)
}

func (c Contract) requireSuperAdmin(env *host.Env) error {
	admin, err := c.SuperAdmin(env)
	if err != nil {
		return err
	}
	return env.RequireAuth(admin)
}

// SetCampaignManagement records the campaign manager. Super-admin only.
func (c Contract) SetCampaignManagement(env *host.Env, addr [20]byte) error {
	if err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyCampaignManagement, addr)
}

// SetIssuanceManagement records the issuance manager. Super-admin only.
func (c Contract) SetIssuanceManagement(env *host.Env, addr [20]byte) error {
	if err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keyIssuanceManagement, addr)
}

// SetSuperAdmin hands the super-admin role over. Super-admin only.
func (c Contract) SetSuperAdmin(env *host.Env, next [20]byte) error {
	if err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	return env.Instance().Set(keySuperAdmin, next)
}

// MerchantRegistration files an unverified merchant record.
func (c Contract) MerchantRegistration(env *host.Env, merchant [20]byte, profile Profile) error {
	ok, err := env.Instance().Has(merchantInfoKey(merchant))
	if err != nil {
		return err
	}
	if ok {
		return ErrRegistrationExists
	}
	if err := env.Instance().Set(merchantInfoKey(merchant), newMerchantInfo(false, profile)); err != nil {
		return err
	}
	unverified, err := c.UnverifiedMerchants(env)
	if err != nil {
		return err
	}
	if err := env.Instance().Set(keyUnverifiedMerchant, append(unverified, merchant)); err != nil {
		return err
	}
	env.Emit(events.MerchantRegistered{
		Merchant:   merchant,
		Proprietor: profile.Proprietor,
		StoreName:  profile.StoreName,
		Location:   profile.Location,
	})
	return nil
}

// VerifyMerchant moves a registered merchant from the unverified list to the
// verified list. Super-admin only.
func (c Contract) VerifyMerchant(env *host.Env, merchant [20]byte) error {
	if err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	info, ok, err := c.MerchantInfo(env, merchant)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRegistration
	}
	verified, err := c.VerifiedMerchants(env)
	if err != nil {
		return err
	}
	if common.Contains(verified, merchant) {
		return ErrMerchantAlreadyVerified
	}
	unverified, err := c.UnverifiedMerchants(env)
	if err != nil {
		return err
	}
	unverified, removed := common.RemoveFirst(unverified, merchant)
	if !removed {
		return ErrNoMerchantToPop
	}
	info.VerifiedStatus = true
	if err := env.Instance().Set(merchantInfoKey(merchant), info); err != nil {
		return err
	}
	if err := env.Instance().Set(keyVerifiedMerchants, append(verified, merchant)); err != nil {
		return err
	}
	if err := env.Instance().Set(keyUnverifiedMerchant, unverified); err != nil {
		return err
	}
	env.Emit(events.MerchantVerified{Merchant: merchant, StoreName: info.StoreName})
	return nil
}

// UpdateMerchantInfo rewrites a verified merchant's record. Passing
// verified=false demotes the merchant back to the unverified list. The
// merchant must be verified already. Super-admin only.
func (c Contract) UpdateMerchantInfo(env *host.Env, merchant [20]byte, verified bool, profile Profile) error {
	if err := c.requireSuperAdmin(env); err != nil {
		return err
	}
	ok, err := env.Instance().Has(merchantInfoKey(merchant))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoRegistration
	}
	verifiedList, err := c.VerifiedMerchants(env)
	if err != nil {
		return err
	}
	if !common.Contains(verifiedList, merchant) {
		return ErrMerchantNotVerified
	}
	if err := env.Instance().Set(merchantInfoKey(merchant), newMerchantInfo(verified, profile)); err != nil {
		return err
	}
	if !verified {
		remaining, removed := common.RemoveFirst(verifiedList, merchant)
		if !removed {
			return ErrNoMerchantToPop
		}
		unverified, err := c.UnverifiedMerchants(env)
		if err != nil {
			return err
		}
		if err := env.Instance().Set(keyVerifiedMerchants, remaining); err != nil {
			return err
		}
		if err := env.Instance().Set(keyUnverifiedMerchant, append(unverified, merchant)); err != nil {
			return err
		}
	}
	env.Emit(events.MerchantUpdated{
		Merchant:  merchant,
		Verified:  verified,
		StoreName: profile.StoreName,
		Location:  profile.Location,
	})
	return nil
}

// SetCampaignAdmin records the owner of a campaign. Only the registered
// campaign manager may call it.
func (c Contract) SetCampaignAdmin(env *host.Env, campaign, admin [20]byte) error {
	manager, err := c.CampaignManagement(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(manager); err != nil {
		return err
	}
	if err := env.Instance().Set(campaignAdminKey(campaign), admin); err != nil {
		return err
	}
	env.Emit(events.CampaignAdminSet{Campaign: campaign, Admin: admin})
	return nil
}

// AddDeployedTokens appends a token to the available-token list. Only the
// registered issuance manager may call it.
func (c Contract) AddDeployedTokens(env *host.Env, token [20]byte) error {
	issuance, err := c.IssuanceManagement(env)
	if err != nil {
		return err
	}
	if err := env.RequireAuth(issuance); err != nil {
		return err
	}
	tokens, err := c.AvailableTokens(env)
	if err != nil {
		return err
	}
	if err := env.Instance().Set(keyDeployedTokens, append(tokens, token)); err != nil {
		return err
	}
	env.Emit(events.TokenAdded{Token: token})
	return nil
}

// MerchantInfo returns the stored record of merchant. The boolean is false
// when the merchant never registered.
func (Contract) MerchantInfo(env *host.Env, merchant [20]byte) (*MerchantInfo, bool, error) {
	info := new(MerchantInfo)
	ok, err := env.Instance().Get(merchantInfoKey(merchant), info)
	if err != nil || !ok {
		return nil, false, err
	}
	return info, true, nil
}

// VerifiedMerchants lists verified merchants in verification order.
func (Contract) VerifiedMerchants(env *host.Env) ([][20]byte, error) {
	return readAccounts(env.Instance(), keyVerifiedMerchants)
}

// UnverifiedMerchants lists merchants awaiting verification.
func (Contract) UnverifiedMerchants(env *host.Env) ([][20]byte, error) {
	return readAccounts(env.Instance(), keyUnverifiedMerchant)
}

// AvailableTokens lists every token issued so far.
func (Contract) AvailableTokens(env *host.Env) ([][20]byte, error) {
	return readAccounts(env.Instance(), keyDeployedTokens)
}

// CampaignAdmin returns the owner recorded for campaign.
func (Contract) CampaignAdmin(env *host.Env, campaign [20]byte) ([20]byte, error) {
	return readAccount(env.Instance(), campaignAdminKey(campaign), ErrCampaignNotFound)
}

// SuperAdmin returns the platform authority.
func (Contract) SuperAdmin(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keySuperAdmin, ErrSuperAdminNotSet)
}

// CampaignManagement returns the registered campaign manager.
func (Contract) CampaignManagement(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keyCampaignManagement, ErrCampaignManagementNotSet)
}

// IssuanceManagement returns the registered issuance manager.
func (Contract) IssuanceManagement(env *host.Env) ([20]byte, error) {
	return readAccount(env.Instance(), keyIssuanceManagement, ErrIssuanceManagementNotSet)
}

// IsInitialized reports whether a super-admin was recorded.
func (Contract) IsInitialized(env *host.Env) (bool, error) {
	return env.Instance().Has(keySuperAdmin)
}

func readAccount(store *state.Store, key []byte, missing error) ([20]byte, error) {
	var addr [20]byte
	ok, err := store.Get(key, &addr)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, missing
	}
	return addr, nil
}

func readAccounts(store *state.Store, key []byte) ([][20]byte, error) {
	var list [][20]byte
	if _, err := store.Get(key, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = make([][20]byte, 0)
	}
	return list, nil
}

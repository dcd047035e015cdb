package registry

import "errors"

var (
	ErrAlreadyInitialized       = errors.New("Contract already initialized.")
	ErrSuperAdminNotSet         = errors.New("Super admin not set.")
	ErrCampaignManagementNotSet = errors.New("Campaign management address not set.")
	ErrIssuanceManagementNotSet = errors.New("Issuance management address not set.")
	ErrRegistrationExists       = errors.New("Registration request already sent.")
	ErrNoRegistration           = errors.New("No registration request.")
	ErrMerchantAlreadyVerified  = errors.New("Merchant already verified.")
	ErrMerchantNotVerified      = errors.New("Merchant not verified. Please first verify to update info.")
	ErrNoMerchantToPop          = errors.New("No merchant to pop.")
	ErrCampaignNotFound         = errors.New("Contract doesn't exist.")
)

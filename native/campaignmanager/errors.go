package campaignmanager

import "errors"

var (
	ErrAlreadyInitialized = errors.New("Contract already initialized.")
	ErrRegistryNotSet     = errors.New("Address not set.")
	ErrStableCoinNotSet   = errors.New("Stable coin address not set.")
	ErrAmountTooLow       = errors.New("Amount cannot be less than 100 USDC")
	ErrTokenNotAvailable  = errors.New("Token doesn't exist.")
	ErrCampaignNotFound   = errors.New("Campaign doesn't exist.")
	ErrNotCampaignOwner   = errors.New("Caller is not campaign owner.")
	ErrCampaignEnded      = errors.New("Campaign already ended.")
	ErrAmountNotPositive  = errors.New("Amount must be positive.")
	ErrNotMerchant        = errors.New("Caller not merchant.")
	ErrInsufficientTokens = errors.New("Insufficient token balance.")
	ErrInsufficientStable = errors.New("Insufficient stable coin balance.")
)

package localcoin

import "errors"

// Error messages are the reason strings reported to transaction submitters.
var (
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrNotInitialized      = errors.New("not initialized")
	ErrDecimalTooLarge     = errors.New("Decimal must fit in a u8")
	ErrNegativeAmount      = errors.New("negative amount is not allowed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrIssuanceAlreadySet  = errors.New("Address already set.")
	ErrIssuanceNotSet      = errors.New("issuance management not set")
	ErrMerchantNotAccepted = errors.New("This token's item is not accepted by the merchant.")
)

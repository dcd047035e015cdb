package issuance

import "errors"

var (
	ErrAlreadyInitialized = errors.New("Contract already initialized.")
	ErrAddressNotSet      = errors.New("Address not set.")
	ErrSymbolTaken        = errors.New("Token symbol already exists.")
	ErrUnverifiedMerchant = errors.New("Merchants list contains unverified merchant.")
	ErrTokenNotFound      = errors.New("Token doesn't exist.")
	ErrItemExists         = errors.New("Item provided already exist.")
	ErrMerchantExists     = errors.New("Merchant provided already exist.")
	ErrInvalidSymbol      = errors.New("Token symbol required.")
)

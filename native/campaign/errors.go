package campaign

import "errors"

var (
	ErrInfoAlreadySet      = errors.New("Campaign info already set.")
	ErrOwnerNotSet         = errors.New("Owner address not set.")
	ErrTokenNotSet         = errors.New("Token address not set.")
	ErrManagementNotSet    = errors.New("Campaign management address not set.")
	ErrAlreadyJoined       = errors.New("Campaign already joined.")
	ErrNotJoined           = errors.New("Given list contains username that hasn't joined campaign.")
	ErrAlreadyVerified     = errors.New("Given list contains already verified username.")
	ErrRecipientLimit      = errors.New("Recipient limit exceeded.")
	ErrRecipientUnverified = errors.New("Recipient not verified.")
	ErrAmountNotPositive   = errors.New("Amount must be positive.")
	ErrCampaignEnded       = errors.New("Campaign already ended.")
	ErrUsernameRequired    = errors.New("Username required.")
)

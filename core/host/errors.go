package host

import (
	"errors"

	"voucherchain/core/state"
)

var (
	ErrNilHost          = errors.New("host: not configured")
	ErrAuthFailed       = errors.New("auth failed")
	ErrContractNotFound = errors.New("contract not found")
	ErrWrongInterface   = errors.New("unexpected contract interface")
	ErrAddressInUse     = errors.New("contract address already in use")
	ErrUnknownCode      = errors.New("code not registered")
	ErrCallDepth        = errors.New("host: call depth exceeded")
	ErrNotAContract     = errors.New("host: caller is not a contract")
	ErrContractPanic    = errors.New("host: contract panicked")

	// ErrEntryArchived is returned when an expired persistent entry or
	// contract instance is accessed.
	ErrEntryArchived = state.ErrArchived
)

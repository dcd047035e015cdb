package events

import (
	"math/big"

	"voucherchain/core/types"
)

const (
	// TypeLocalCoinMint is emitted when the token admin credits new supply.
	TypeLocalCoinMint = "localcoin.mint"
	// TypeLocalCoinBurn is emitted when the token admin destroys a holder's
	// balance.
	TypeLocalCoinBurn = "localcoin.burn"
	// TypeLocalCoinTransfer is emitted for every balance movement between two
	// holders, including merchant-restricted transfers.
	TypeLocalCoinTransfer = "localcoin.transfer"
	// TypeLocalCoinAdminSet is emitted when the mint/burn authority rotates.
	TypeLocalCoinAdminSet = "localcoin.admin.set"
)

// LocalCoinMint captures a mint performed by the token admin.
type LocalCoinMint struct {
	Admin  [20]byte
	To     [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (LocalCoinMint) EventType() string { return TypeLocalCoinMint }

// Event renders the mint for indexers.
func (e LocalCoinMint) Event() *types.Event {
	return types.NewEvent(TypeLocalCoinMint).
		Set("admin", formatAccount(e.Admin)).
		Set("to", formatAccount(e.To)).
		Set("amount", amountString(e.Amount))
}

// LocalCoinBurn captures a burn performed by the token admin.
type LocalCoinBurn struct {
	From   [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (LocalCoinBurn) EventType() string { return TypeLocalCoinBurn }

// Event renders the burn for indexers.
func (e LocalCoinBurn) Event() *types.Event {
	return types.NewEvent(TypeLocalCoinBurn).
		Set("from", formatAccount(e.From)).
		Set("amount", amountString(e.Amount))
}

// LocalCoinTransfer captures a balance movement.
type LocalCoinTransfer struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (LocalCoinTransfer) EventType() string { return TypeLocalCoinTransfer }

// Event renders the transfer for indexers.
func (e LocalCoinTransfer) Event() *types.Event {
	return types.NewEvent(TypeLocalCoinTransfer).
		Set("from", formatAccount(e.From)).
		Set("to", formatAccount(e.To)).
		Set("amount", amountString(e.Amount))
}

// LocalCoinAdminSet captures an admin rotation.
type LocalCoinAdminSet struct {
	Previous [20]byte
	Admin    [20]byte
}

// EventType implements the Event interface.
func (LocalCoinAdminSet) EventType() string { return TypeLocalCoinAdminSet }

// Event renders the rotation for indexers.
func (e LocalCoinAdminSet) Event() *types.Event {
	return types.NewEvent(TypeLocalCoinAdminSet).
		Set("previous", formatAccount(e.Previous)).
		Set("admin", formatAccount(e.Admin))
}

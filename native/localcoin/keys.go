package localcoin

import (
	"voucherchain/core/host"
	"voucherchain/core/state"
)

const (
	// BalanceBumpAmount is the lifetime a ledger entry is extended to on access.
	BalanceBumpAmount = 30 * host.DayInLedgers
	// BalanceLifetimeThreshold triggers the extension once less remains.
	BalanceLifetimeThreshold = BalanceBumpAmount - host.DayInLedgers
)

var (
	keyAdmin       = state.Key("Admin")
	keyIssuance    = state.Key("IssuanceManagement")
	keyMetadata    = state.Key("Metadata")
	keyTotalSupply = state.Key("TotalSupply")
	keyTokenBurned = state.Key("TokenBurned")
)

func balanceKey(holder [20]byte) []byte {
	return state.Key("Balance", holder[:])
}

// Metadata describes the display properties of a token.
type Metadata struct {
	Decimal uint32
	Name    string
	Symbol  string
}

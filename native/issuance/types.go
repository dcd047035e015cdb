package issuance

import (
	"math/big"
	"strings"

	"voucherchain/core/state"
)

var (
	keyRegistry           = state.Key("UserRegistry")
	keyCampaignManagement = state.Key("CampaignManagement")
	keySaltCounter        = state.Key("SaltCounter")
)

func itemsKey(token [20]byte) []byte {
	return state.Key("ItemsAssociated", token[:])
}

func merchantsKey(token [20]byte) []byte {
	return state.Key("MerchantsAssociated", token[:])
}

func tokenKey(token [20]byte) []byte {
	return state.Key("Token", token[:])
}

func symbolKey(symbol string) []byte {
	return state.Key("Symbol", []byte(normalizeSymbol(symbol)))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// TokenRecord is what the issuance contract remembers about a token it
// deployed.
type TokenRecord struct {
	Name     string
	Symbol   string
	Decimals uint32
}

// TokenBalance is one row of a batch balance query.
type TokenBalance struct {
	Token   [20]byte
	Name    string
	Symbol  string
	Balance *big.Int
}

package events

import (
	"math/big"
	"strings"

	"voucherchain/crypto"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAccount(addr [20]byte) string {
	if crypto.IsZero(addr) {
		return ""
	}
	return crypto.FormatAccount(addr)
}

func joinAccounts(list [][20]byte) string {
	parts := make([]string, 0, len(list))
	for _, addr := range list {
		parts = append(parts, crypto.FormatAccount(addr))
	}
	return strings.Join(parts, ",")
}

func joinStrings(list []string) string {
	trimmed := make([]string, 0, len(list))
	for _, item := range list {
		trimmed = append(trimmed, strings.TrimSpace(item))
	}
	return strings.Join(trimmed, ",")
}

package common

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrAmountRequired is returned when a nil amount reaches a contract.
	ErrAmountRequired = errors.New("amount required")
	// ErrAmountOutOfRange is returned for amounts outside the signed 128-bit
	// range.
	ErrAmountOutOfRange = errors.New("amount exceeds 128-bit range")
)

var (
	maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minAmount = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// CheckAmount verifies amount is present and fits a signed 128-bit integer.
func CheckAmount(amount *big.Int) error {
	if amount == nil {
		return ErrAmountRequired
	}
	if amount.Cmp(maxAmount) > 0 || amount.Cmp(minAmount) < 0 {
		return fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}
	return nil
}

// AddAmounts returns a+b, failing when the sum leaves the 128-bit range.
func AddAmounts(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(zeroIfNil(a), zeroIfNil(b))
	if err := CheckAmount(sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// CloneBigInt returns a copy of v, mapping nil to zero.
func CloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// Pow10 returns 10^exp.
func Pow10(exp uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

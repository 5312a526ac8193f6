package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultPlatformFeePercent is the marketplace cut applied to every sale.
// Both chain builders and the payment recorder receive this single value
// through configuration so the split is never computed twice differently.
var DefaultPlatformFeePercent = decimal.NewFromFloat(0.05)

const USDCDecimals = 6

// SplitAmount computes the platform fee and creator net amount for a gross
// decimal amount. creator = amount - fee, so the sum always equals amount.
func SplitAmount(amount, feePercent decimal.Decimal) (fee, creator decimal.Decimal) {
	fee = amount.Mul(feePercent)
	creator = amount.Sub(fee)
	return fee, creator
}

// SplitBaseUnits computes the on-chain fee split on integer base units.
// The fee is floored so the seller absorbs the rounding remainder:
// seller = total - floor(total * feePercent). No floating point is involved.
func SplitBaseUnits(total uint64, feePercent decimal.Decimal) (fee, seller uint64) {
	feeDec := decimal.NewFromUint64(total).Mul(feePercent).Floor()
	fee = feeDec.BigInt().Uint64()
	return fee, total - fee
}

// ToBaseUnits converts a decimal token amount to its smallest integer
// representation for a mint with the given precision. Amounts with more
// fractional digits than the mint supports are rejected rather than
// silently truncated.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	shifted := amount.Shift(decimals)
	if !shifted.Equal(shifted.Floor()) {
		return nil, fmt.Errorf("%w: amount exceeds %d decimal places", ErrInvalidInput, decimals)
	}
	return shifted.BigInt(), nil
}

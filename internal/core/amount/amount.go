// Package amount provides fixed-point arithmetic for native-asset values.
//
// All internal math happens in stroops (1 XLM = 10^7 stroops), the smallest
// representable unit of the native asset. Conversion to and from decimal
// strings delegates to the Stellar SDK so parsing matches the ledger's own
// 7-fractional-digit rules.
package amount

import (
	"fmt"
	"math/big"

	stellaramount "github.com/stellar/go/amount"
)

// StroopsPerLumen is the number of stroops in one XLM.
const StroopsPerLumen = 10_000_000

// ParseLumens converts a decimal XLM string (up to 7 fractional digits)
// into stroops.
func ParseLumens(v string) (int64, error) {
	stroops, err := stellaramount.ParseInt64(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount %q: %w", v, err)
	}
	return stroops, nil
}

// FormatStroops renders a stroop value as a decimal XLM string.
func FormatStroops(v int64) string {
	return stellaramount.StringFromInt64(v)
}

// Calculator computes the forwarded share of an incoming amount.
// The result is truncated toward zero at stroop granularity, so the share
// never exceeds fraction * incoming even at the smallest denomination.
type Calculator struct {
	num *big.Int
	den *big.Int
}

// NewCalculator builds a Calculator from a decimal fraction string such as
// "0.25". The fraction must be greater than zero and at most one.
func NewCalculator(fraction string) (*Calculator, error) {
	r, ok := new(big.Rat).SetString(fraction)
	if !ok {
		return nil, fmt.Errorf("invalid send fraction %q", fraction)
	}
	if r.Sign() <= 0 || r.Cmp(big.NewRat(1, 1)) > 0 {
		return nil, fmt.Errorf("send fraction %q out of range (0, 1]", fraction)
	}
	return &Calculator{num: r.Num(), den: r.Denom()}, nil
}

// Compute returns floor(incoming * fraction) in stroops. A result of zero or
// less means "no forward" and is not an error.
func (c *Calculator) Compute(incomingStroops int64) int64 {
	if incomingStroops <= 0 {
		return 0
	}
	z := new(big.Int).Mul(big.NewInt(incomingStroops), c.num)
	z.Quo(z, c.den)
	return z.Int64()
}

package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// CentsFromMajor converts a major-unit amount (e.g. dollars) into integer
// minor units. Negative amounts clamp to zero and the result is rounded
// half away from zero, so 980 becomes 98000 and 12.345 becomes 1235.
// Amounts whose cents do not fit in an int64 fail with ErrValidation.
func CentsFromMajor(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, nil
	}
	cents := amount.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: cost is too large", ErrValidation)
	}
	return cents.IntPart(), nil
}

// MajorFromCents is the inverse of CentsFromMajor for values with at most
// two fraction digits.
func MajorFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

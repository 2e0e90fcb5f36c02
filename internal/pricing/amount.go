package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Money represents an amount in minor currency units (e.g. cents).
type Money = int64

// ErrInvalidQuantity is returned when an order quantity is missing, zero or negative.
var ErrInvalidQuantity = errors.New("pricing: quantity must be a positive integer")

// ErrInvalidAmount is returned when a refund amount is zero, negative or unparseable.
var ErrInvalidAmount = errors.New("pricing: amount must be greater than zero")

var hundred = decimal.NewFromInt(100)

// Total computes the order total from the configured unit price. The total is
// always derived server-side; a client-supplied total is never trusted.
func Total(unitPriceMinor Money, quantity int) (Money, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	if unitPriceMinor > 0 && int64(quantity) > math.MaxInt64/unitPriceMinor {
		return 0, ErrInvalidQuantity
	}
	return unitPriceMinor * int64(quantity), nil
}

// MinorUnits converts a major-unit decimal amount (e.g. "10.005") to minor
// units, rounding half-up. The input is kept as its decimal string so values
// like 10.005 round to 1001 rather than losing the half cent to binary
// floating point.
func MinorUnits(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	minor := d.Mul(hundred).Round(0)
	if !minor.IsInteger() || !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewMoneyFromInt creates a Money value from an integer amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// Hundred is the divisor for percentage math.
var Hundred = decimal.NewFromInt(100)

// RoundMoney rounds to 2 decimal places using round-half-up.
// All payable totals pass through this exactly once, at the document boundary.
func RoundMoney(m Money) Money {
	return m.Round(2)
}

// RoundOff returns the explicit adjustment between the unrounded total
// and its rounded payable value. Recorded on the document, never dropped.
func RoundOff(unrounded Money) Money {
	return RoundMoney(unrounded).Sub(unrounded)
}

// Percent returns value×pct/100 without rounding.
func Percent(value, pct Money) Money {
	return value.Mul(pct).Div(Hundred)
}

package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const maxAmount = 1 << 53

// ParseAmount converts a decimal string to whole currency units.
//
// It accepts both dot (12.5) and comma (12,5) decimal separators and rounds
// half-up to the nearest unit. Negative and non-numeric input is rejected;
// zero is allowed because tips and package revenue may legitimately be zero.
//
// Examples:
//
//	ParseAmount("2800")   -> 2800, nil
//	ParseAmount("12,5")   -> 13, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	units := d.Round(0)
	if units.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, ErrInvalidAmount
	}
	return Money(units.IntPart()), nil
}

// Decimal returns m as a decimal for exact arithmetic.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}

// NonNegative clamps m at zero.
func (m Money) NonNegative() Money {
	if m < 0 {
		return 0
	}
	return m
}

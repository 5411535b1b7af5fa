// Package plan implements the goal-driven earnings allocation engine.
//
// Every function here is pure: it takes point-in-time snapshots of day
// records, goal state and settings and returns a value. Nothing is cached
// or persisted between calls.
package plan

import (
	"github.com/shopspring/decimal"

	"pobrify/internal/core"
)

const (
	DefaultDayRate   core.Money = 2800
	DefaultNightRate core.Money = 3800
)

// Rates is the money earned per delivered package, per shift.
type Rates struct {
	Day   core.Money `json:"day" yaml:"day"`
	Night core.Money `json:"night" yaml:"night"`
}

func DefaultRates() Rates {
	return Rates{Day: DefaultDayRate, Night: DefaultNightRate}
}

// Normalize replaces non-positive rates with the defaults.
func (r Rates) Normalize() Rates {
	if r.Day <= 0 {
		r.Day = DefaultDayRate
	}
	if r.Night <= 0 {
		r.Night = DefaultNightRate
	}
	return r
}

func (r Rates) For(s core.Shift) core.Money {
	if s == core.ShiftNight {
		return r.Night
	}
	return r.Day
}

// Revenue is packages × rate for the shift.
func (r Rates) Revenue(s core.Shift, packages int) core.Money {
	if packages <= 0 {
		return 0
	}
	return core.Money(packages) * r.For(s)
}

// PackagesFor converts a money need into packages, rounding up.
func (r Rates) PackagesFor(s core.Shift, need core.Money) int {
	if need <= 0 {
		return 0
	}
	return int(ceilDiv(need.Decimal(), r.For(s).Decimal()).IntPart())
}

// ceilDiv divides with a denominator floor of 1.
func ceilDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.LessThan(decimal.NewFromInt(1)) {
		den = decimal.NewFromInt(1)
	}
	return num.Div(den).Ceil()
}

func ceilMoney(d decimal.Decimal) core.Money {
	return core.Money(d.Ceil().IntPart()).NonNegative()
}

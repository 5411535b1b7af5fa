package plan

import (
	"github.com/shopspring/decimal"

	"pobrify/internal/core"
)

// Progress is the goal completion shown to the user.
//
// Additional savings (loans, advances entered by hand) only ever feed
// PercentWithAdditional. They are never added to the goal itself.
type Progress struct {
	Percent               float64    `json:"percent"`
	PercentWithAdditional float64    `json:"percentWithAdditional"`
	Additional            core.Money `json:"additional"`
	Remaining             core.Money `json:"remaining"`
}

func ComputeProgress(goal core.GoalState, additional core.Money) Progress {
	goal = goal.Clamp()
	p := Progress{
		Additional: additional.NonNegative(),
		Remaining:  goal.TargetAmount - goal.CurrentAmount,
	}
	if goal.TargetAmount <= 0 {
		return p
	}
	p.Percent = percentOf(goal.CurrentAmount, goal.TargetAmount)
	p.PercentWithAdditional = percentOf(goal.CurrentAmount+p.Additional, goal.TargetAmount)
	return p
}

func percentOf(part, whole core.Money) float64 {
	pct := part.Decimal().Mul(decimal.NewFromInt(100)).Div(whole.Decimal()).Round(1)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		pct = decimal.NewFromInt(100)
	}
	f, _ := pct.Float64()
	return f
}

package plan

import (
	"time"

	"github.com/shopspring/decimal"

	"pobrify/internal/core"
)

// FallbackHorizonDays is used when the deadline is missing or already past.
const FallbackHorizonDays = 7

var (
	weightRest    = decimal.Zero
	weightWeekday = decimal.NewFromInt(1)
	weightWeekend = decimal.NewFromFloat(1.5)
	weekWeight    = decimal.NewFromFloat(7.5)
)

// Horizon is the remaining goal spread over weighted working days.
type Horizon struct {
	Today    core.Date `json:"today"`
	End      core.Date `json:"end"`
	Fallback bool      `json:"fallback"`

	Remaining         core.Money      `json:"remaining"`
	ExtraNeed         core.Money      `json:"extraNeed"`
	WorkingDaysWeight decimal.Decimal `json:"workingDaysWeight"`
	// PerDayTarget is money per unit of weight, not per calendar day.
	PerDayTarget core.Money `json:"perDayTarget"`
}

// DayWeight is 0 on Monday, 1 Tuesday to Thursday and 1.5 Friday to Sunday.
func DayWeight(d core.Date) decimal.Decimal {
	switch d.Weekday() {
	case time.Monday:
		return weightRest
	case time.Friday, time.Saturday, time.Sunday:
		return weightWeekend
	}
	return weightWeekday
}

// HorizonEnd is the last day of the horizon: the deadline, or a
// 7-calendar-day window when the deadline is absent or already past.
func HorizonEnd(goal core.GoalState, today core.Date) (core.Date, bool) {
	if goal.Deadline.IsZero() || goal.Deadline.Before(today) {
		return today.AddDays(FallbackHorizonDays - 1), true
	}
	return goal.Deadline, false
}

// WeightBetween sums DayWeight over [from, to], both inclusive.
func WeightBetween(from, to core.Date) decimal.Decimal {
	days := from.DaysUntil(to) + 1
	if days <= 0 {
		return decimal.Zero
	}
	// Any 7 consecutive days weigh the same.
	weeks := days / 7
	total := weekWeight.Mul(decimal.NewFromInt(int64(weeks)))
	for d := from.AddDays(weeks * 7); !d.After(to); d = d.AddDays(1) {
		total = total.Add(DayWeight(d))
	}
	return total
}

// ComputeHorizon spreads the remaining amount, plus any extra need, over
// the weighted days from today to the deadline. A zero weight divides by 1.
func ComputeHorizon(goal core.GoalState, today core.Date, extraNeed core.Money) Horizon {
	end, fallback := HorizonEnd(goal, today)
	h := Horizon{
		Today:     today,
		End:       end,
		Fallback:  fallback,
		Remaining: (goal.TargetAmount - goal.CurrentAmount).NonNegative(),
		ExtraNeed: extraNeed.NonNegative(),
	}
	h.WorkingDaysWeight = WeightBetween(today, end)

	need := h.Remaining + h.ExtraNeed
	if need == 0 {
		return h
	}
	h.PerDayTarget = ceilMoney(ceilDiv(need.Decimal(), h.WorkingDaysWeight))
	return h
}

// UnpaidFixedDue sums unpaid fixed expenses due inside [from, to]. Expenses
// without a due date use their date.
func UnpaidFixedDue(expenses []core.Expense, from, to core.Date) core.Money {
	var total core.Money
	for _, e := range expenses {
		if e.Kind != core.ExpenseFixed || e.Paid {
			continue
		}
		due := e.DueDate
		if due.IsZero() {
			due = e.Date
		}
		if due.IsZero() || due.Before(from) || due.After(to) {
			continue
		}
		total += e.Amount.NonNegative()
	}
	return total
}

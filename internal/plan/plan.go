package plan

import (
	"github.com/shopspring/decimal"

	"pobrify/internal/core"
)

// MaxPlanDays bounds the number of dated entries in a plan.
const MaxPlanDays = 366

// Input is the snapshot a plan is computed from.
type Input struct {
	Today    core.Date
	Goal     core.GoalState
	Settings Settings
	Rates    Rates
	Records  []core.DayRecord
	Expenses []core.Expense
}

type DayPlan struct {
	Date       core.Date       `json:"date"`
	Weight     decimal.Decimal `json:"weight"`
	RestDay    bool            `json:"restDay"`
	CarryIn    Carry           `json:"carryIn"`
	Allocation Allocation      `json:"allocation"`
}

type Plan struct {
	Horizon Horizon   `json:"horizon"`
	Days    []DayPlan `json:"days"`
	// Carry is today's outgoing shortfall.
	Carry Carry `json:"carry"`
}

// Today returns the entry for the first day of the plan.
func (p Plan) Today() (DayPlan, bool) {
	if len(p.Days) == 0 {
		return DayPlan{}, false
	}
	return p.Days[0], true
}

// Find returns the entry for d.
func (p Plan) Find(d core.Date) (DayPlan, bool) {
	for _, dp := range p.Days {
		if dp.Date.Equal(d) {
			return dp, true
		}
	}
	return DayPlan{}, false
}

// BuildPlan runs horizon, allocation and carry-over for every day from
// today to the end of the horizon. Today's shortfall lands on the next
// working day; rest days pass it through untouched.
func BuildPlan(in Input) Plan {
	rates := in.Rates.Normalize()
	settings := in.Settings.Normalize()
	goal := in.Goal.Clamp()
	today := in.Today

	end, _ := HorizonEnd(goal, today)
	var extra core.Money
	if settings.IncludeUnpaidFixed {
		extra = UnpaidFixedDue(in.Expenses, today, end)
	}
	h := ComputeHorizon(goal, today, extra)

	byDate := make(map[string]core.DayRecord, len(in.Records))
	for _, r := range in.Records {
		byDate[r.Date.String()] = r
	}
	recordFor := func(d core.Date) core.DayRecord {
		rec, ok := byDate[d.String()]
		if !ok {
			return core.DayRecord{Date: d}
		}
		return rec
	}

	p := Plan{Horizon: h}
	var pending Carry
	for i := 0; i < MaxPlanDays; i++ {
		d := today.AddDays(i)
		if d.After(h.End) {
			break
		}
		rec := recordFor(d)
		dp := DayPlan{Date: d, Weight: DayWeight(d), RestDay: d.IsRestDay()}
		if !dp.RestDay && !pending.IsZero() {
			dp.CarryIn = pending
			pending = Carry{}
		}
		dp.Allocation = Allocate(AllocationInput{
			Date:         d,
			Record:       rec,
			PerDayTarget: h.PerDayTarget,
			Settings:     settings,
			Rates:        rates,
			Carry:        dp.CarryIn,
		})
		if i == 0 {
			p.Carry = ComputeCarry(rec, dp.Allocation, rates)
			pending = p.Carry
		}
		p.Days = append(p.Days, dp)
	}
	return p
}

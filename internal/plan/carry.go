package plan

import "pobrify/internal/core"

// Carry is one day's unmet need, rolled into the next working day.
type Carry struct {
	From core.Date `json:"from"`

	DayShortfall core.Money `json:"dayShortfall"`
	// DayPackages is DayShortfall expressed in day-shift packages.
	DayPackages    int        `json:"dayPackages"`
	NightShortfall core.Money `json:"nightShortfall"`
	// DaySurplus is day-shift over-performance. It only shrinks the pool
	// used by the reassignment rule; it never offsets NightShortfall.
	DaySurplus core.Money `json:"daySurplus"`
}

func (c Carry) IsZero() bool {
	return c.DayPackages == 0 && c.NightShortfall == 0 && c.DaySurplus == 0
}

// ComputeCarry derives the shortfall of a day from its record and its
// allocation. It is recomputed from scratch on every call.
func ComputeCarry(rec core.DayRecord, alloc Allocation, rates Rates) Carry {
	rates = rates.Normalize()
	c := Carry{From: alloc.Date}
	if alloc.RestDay {
		return c
	}

	summary := SummarizeDay(rec, rates)
	dayDone := summary.Earned(core.ShiftDay)
	nightDone := summary.Earned(core.ShiftNight)

	c.DayShortfall = (alloc.DayMoneyTarget - dayDone).NonNegative()
	c.DayPackages = rates.PackagesFor(core.ShiftDay, c.DayShortfall)
	c.DaySurplus = (dayDone - alloc.DayMoneyTarget).NonNegative()
	c.NightShortfall = (alloc.NightMoneyTarget - nightDone).NonNegative()
	return c
}

package plan

import (
	"github.com/shopspring/decimal"

	"pobrify/internal/core"
)

// AllocationInput is everything the allocator needs for one date.
type AllocationInput struct {
	Date         core.Date
	Record       core.DayRecord
	PerDayTarget core.Money
	Settings     Settings
	Rates        Rates
	// Carry is the shortfall coming in from the previous working day.
	Carry Carry
}

// Allocation is the per-shift plan for one date.
type Allocation struct {
	Date    core.Date `json:"date"`
	Weekend bool      `json:"weekend"`
	RestDay bool      `json:"restDay"`

	// Money targets before anything earned is subtracted.
	DayMoneyTarget   core.Money `json:"dayMoneyTarget"`
	NightMoneyTarget core.Money `json:"nightMoneyTarget"`

	DayEarned   core.Money `json:"dayEarned"`
	NightEarned core.Money `json:"nightEarned"`

	// Remaining need per shift after earnings, carry and reassignment.
	DayRemaining   core.Money `json:"dayRemaining"`
	NightRemaining core.Money `json:"nightRemaining"`
	Reassigned     bool       `json:"reassigned"`

	DayPackagesToDo   int `json:"dayPackagesToDo"`
	NightPackagesToDo int `json:"nightPackagesToDo"`
}

// Allocate splits a day's target between the shifts and converts the
// remaining need into packages.
func Allocate(in AllocationInput) Allocation {
	rates := in.Rates.Normalize()
	settings := in.Settings.Normalize()
	date := in.Date
	if date.IsZero() {
		date = in.Record.Date
	}

	a := Allocation{
		Date:    date,
		Weekend: date.IsWeekend(),
		RestDay: date.IsRestDay(),
	}
	if a.RestDay {
		return a
	}

	summary := SummarizeDay(in.Record, rates)
	a.DayEarned = summary.Earned(core.ShiftDay)
	a.NightEarned = summary.Earned(core.ShiftNight)

	base := in.PerDayTarget.NonNegative().Decimal()
	nightW := settings.nightWeight(a.Weekend)
	dayW := decimal.NewFromInt(1).Sub(nightW)
	mult := settings.multiplier(a.Weekend)

	a.DayMoneyTarget = ceilMoney(base.Mul(dayW).Mul(mult))
	a.NightMoneyTarget = ceilMoney(base.Mul(nightW).Mul(mult))

	dayRem := (a.DayMoneyTarget - a.DayEarned).NonNegative()
	nightRem := (a.NightMoneyTarget - a.NightEarned).NonNegative()

	dayRem += rates.Revenue(core.ShiftDay, in.Carry.DayPackages)
	nightRem += in.Carry.NightShortfall.NonNegative()

	dayBooked := summary.HasBookings(core.ShiftDay)
	nightBooked := summary.HasBookings(core.ShiftNight)
	if dayBooked != nightBooked {
		pool := (dayRem + nightRem - in.Carry.DaySurplus.NonNegative()).NonNegative()
		favoured := ceilMoney(pool.Decimal().Mul(decimal.NewFromFloat(settings.DaySharePercent)).Div(decimal.NewFromInt(100)))
		if favoured > pool {
			favoured = pool
		}
		if !dayBooked {
			dayRem, nightRem = favoured, pool-favoured
		} else {
			nightRem, dayRem = favoured, pool-favoured
		}
		a.Reassigned = true
	}

	a.DayRemaining = dayRem
	a.NightRemaining = nightRem
	a.DayPackagesToDo = rates.PackagesFor(core.ShiftDay, dayRem)
	a.NightPackagesToDo = rates.PackagesFor(core.ShiftNight, nightRem)

	if a.DayMoneyTarget+a.NightMoneyTarget > 0 {
		if a.DayPackagesToDo < settings.MinDayPackages {
			a.DayPackagesToDo = settings.MinDayPackages
		}
		if !a.Weekend && a.NightPackagesToDo < settings.MinNightPackagesWeekday {
			a.NightPackagesToDo = settings.MinNightPackagesWeekday
		}
	}
	return a
}

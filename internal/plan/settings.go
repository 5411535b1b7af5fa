package plan

import "github.com/shopspring/decimal"

// Settings tunes the shift allocator. Percentages are 0..100.
type Settings struct {
	NightWeightWeekday      float64 `json:"nightWeightWeekday" yaml:"night_weight_weekday"`
	NightWeightWeekend      float64 `json:"nightWeightWeekend" yaml:"night_weight_weekend"`
	MinDayPackages          int     `json:"minDayPackages" yaml:"min_day_packages"`
	MinNightPackagesWeekday int     `json:"minNightPackagesWeekday" yaml:"min_night_packages_weekday"`
	// DaySharePercent is the share of the combined need handed to the
	// shift without bookings when only the other shift has some.
	DaySharePercent    float64 `json:"daySharePercent" yaml:"day_share_percent"`
	WeekendMultiplier  float64 `json:"weekendMultiplier" yaml:"weekend_multiplier"`
	IncludeUnpaidFixed bool    `json:"includeUnpaidFixed" yaml:"include_unpaid_fixed"`
}

func DefaultSettings() Settings {
	return Settings{
		NightWeightWeekday: 70,
		NightWeightWeekend: 60,
		DaySharePercent:    70,
		WeekendMultiplier:  1.5,
	}
}

// Normalize repairs out-of-range values. Night weights outside 0..100
// fall back to an even split.
func (s Settings) Normalize() Settings {
	if s.NightWeightWeekday < 0 || s.NightWeightWeekday > 100 {
		s.NightWeightWeekday = 50
	}
	if s.NightWeightWeekend < 0 || s.NightWeightWeekend > 100 {
		s.NightWeightWeekend = 50
	}
	if s.DaySharePercent < 0 || s.DaySharePercent > 100 {
		s.DaySharePercent = 70
	}
	if s.WeekendMultiplier <= 0 {
		s.WeekendMultiplier = 1.5
	}
	if s.MinDayPackages < 0 {
		s.MinDayPackages = 0
	}
	if s.MinNightPackagesWeekday < 0 {
		s.MinNightPackagesWeekday = 0
	}
	return s
}

func (s Settings) nightWeight(weekend bool) decimal.Decimal {
	pct := s.NightWeightWeekday
	if weekend {
		pct = s.NightWeightWeekend
	}
	return decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))
}

func (s Settings) multiplier(weekend bool) decimal.Decimal {
	if !weekend {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(s.WeekendMultiplier)
}

package plan

import "pobrify/internal/core"

// DaySummary aggregates one DayRecord.
type DaySummary struct {
	Date            core.Date  `json:"date"`
	Collected       core.Money `json:"collected"`
	Pending         core.Money `json:"pending"`
	ShipmentRevenue core.Money `json:"shipmentRevenue"`
	Tips            core.Money `json:"tips"`
	// Total excludes tips.
	Total core.Money `json:"total"`

	DayBookings   core.Money `json:"dayBookings"`
	NightBookings core.Money `json:"nightBookings"`
	DayShipment   core.Money `json:"dayShipment"`
	NightShipment core.Money `json:"nightShipment"`

	// Booking counts per shift, zero-amount bookings included.
	DayBookingCount   int `json:"dayBookingCount"`
	NightBookingCount int `json:"nightBookingCount"`

	ByPerson map[core.Person]PersonTotals `json:"byPerson,omitempty"`
}

type PersonTotals struct {
	Collected core.Money `json:"collected"`
	Pending   core.Money `json:"pending"`
}

// SummarizeDay aggregates a record. Negative amounts and counts are
// treated as zero; a zero-value record yields an all-zero summary.
func SummarizeDay(rec core.DayRecord, rates Rates) DaySummary {
	rates = rates.Normalize()
	s := DaySummary{Date: rec.Date}

	for _, b := range rec.Bookings {
		if b.Shift == core.ShiftNight {
			s.NightBookingCount++
		} else {
			s.DayBookingCount++
		}
		amount := b.Amount.NonNegative()
		if amount == 0 {
			continue
		}
		if b.Status == core.StatusCollected {
			s.Collected += amount
		} else {
			s.Pending += amount
		}
		if b.Shift == core.ShiftNight {
			s.NightBookings += amount
		} else {
			s.DayBookings += amount
		}
		if b.Person.Valid() {
			if s.ByPerson == nil {
				s.ByPerson = make(map[core.Person]PersonTotals)
			}
			pt := s.ByPerson[b.Person]
			if b.Status == core.StatusCollected {
				pt.Collected += amount
			} else {
				pt.Pending += amount
			}
			s.ByPerson[b.Person] = pt
		}
	}

	s.DayShipment = rates.Revenue(core.ShiftDay, rec.DayPackages)
	s.NightShipment = rates.Revenue(core.ShiftNight, rec.NightPackages)
	s.ShipmentRevenue = s.DayShipment + s.NightShipment
	s.Tips = rec.DayTip.NonNegative() + rec.NightTip.NonNegative()
	s.Total = s.Collected + s.Pending + s.ShipmentRevenue
	return s
}

// Earned is what a shift has already produced: its bookings in any
// status plus its delivered packages.
func (s DaySummary) Earned(shift core.Shift) core.Money {
	if shift == core.ShiftNight {
		return s.NightBookings + s.NightShipment
	}
	return s.DayBookings + s.DayShipment
}

// HasBookings reports whether the shift has at least one booking. A
// zero-amount booking still marks the shift as taken.
func (s DaySummary) HasBookings(shift core.Shift) bool {
	if shift == core.ShiftNight {
		return s.NightBookingCount > 0
	}
	return s.DayBookingCount > 0
}

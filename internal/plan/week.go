package plan

import "pobrify/internal/core"

// WeekSummary aggregates a Monday-anchored 7-day window.
type WeekSummary struct {
	Start core.Date    `json:"start"`
	End   core.Date    `json:"end"`
	Days  []DaySummary `json:"days"`

	Cobradas     core.Money `json:"cobradas"`
	PorCobrar    core.Money `json:"porCobrar"`
	Envios       core.Money `json:"envios"`
	Tips         core.Money `json:"tips"`
	IngresoTotal core.Money `json:"ingresoTotal"`
	GastoTotal   core.Money `json:"gastoTotal"`
	Neto         core.Money `json:"neto"`

	ByPerson map[core.Person]PersonTotals `json:"byPerson"`
}

// SummarizeWeek sums the week containing start. Records outside the
// window are ignored and missing days contribute zero. Expenses count
// when dated inside the window; fixed ones only when paid.
func SummarizeWeek(start core.Date, records []core.DayRecord, expenses []core.Expense, rates Rates) WeekSummary {
	start = start.WeekStart()
	end := start.AddDays(6)

	byDate := make(map[string]core.DayRecord, len(records))
	for _, r := range records {
		byDate[r.Date.String()] = r
	}

	w := WeekSummary{
		Start:    start,
		End:      end,
		Days:     make([]DaySummary, 0, 7),
		ByPerson: map[core.Person]PersonTotals{core.PersonA: {}, core.PersonB: {}},
	}
	for i := 0; i < 7; i++ {
		d := start.AddDays(i)
		rec, ok := byDate[d.String()]
		if !ok {
			rec = core.DayRecord{Date: d}
		}
		rec.Date = d
		ds := SummarizeDay(rec, rates)
		w.Days = append(w.Days, ds)

		w.Cobradas += ds.Collected
		w.PorCobrar += ds.Pending
		w.Envios += ds.ShipmentRevenue
		w.Tips += ds.Tips
		for p, t := range ds.ByPerson {
			acc := w.ByPerson[p]
			acc.Collected += t.Collected
			acc.Pending += t.Pending
			w.ByPerson[p] = acc
		}
	}

	for _, e := range expenses {
		if e.Date.IsZero() || e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		if !e.Counts() {
			continue
		}
		w.GastoTotal += e.Amount.NonNegative()
	}

	w.IngresoTotal = w.Cobradas + w.PorCobrar + w.Envios
	w.Neto = w.IngresoTotal - w.GastoTotal
	return w
}

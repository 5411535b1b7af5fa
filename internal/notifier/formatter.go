package notifier

import (
	"fmt"
	"html"
	"strings"

	"pobrify/internal/core"
	"pobrify/internal/plan"
	"pobrify/internal/services"
)

// FormatMoney renders whole units with dot thousand separators: 12.345.
func FormatMoney(m core.Money) string {
	neg := m < 0
	if neg {
		m = -m
	}
	s := fmt.Sprintf("%d", int64(m))
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatDailyPlan summarises today's allocation, goal progress and fixed
// expenses coming due.
func FormatDailyPlan(v services.PlanView) string {
	var b strings.Builder

	today, ok := v.Plan.Today()
	if !ok {
		return "No plan for today."
	}
	fmt.Fprintf(&b, "<b>Plan %s</b> (%s)\n\n", today.Date, today.Date.Weekday())

	if today.RestDay {
		b.WriteString("Rest day. Nothing to do.\n")
	} else {
		a := today.Allocation
		fmt.Fprintf(&b, "Day: %d packages (%s, earned %s)\n",
			a.DayPackagesToDo, FormatMoney(a.DayMoneyTarget), FormatMoney(a.DayEarned))
		fmt.Fprintf(&b, "Night: %d packages (%s, earned %s)\n",
			a.NightPackagesToDo, FormatMoney(a.NightMoneyTarget), FormatMoney(a.NightEarned))
		if a.Reassigned {
			b.WriteString("Targets reassigned around booked shifts.\n")
		}
		if !today.CarryIn.IsZero() {
			fmt.Fprintf(&b, "Includes carry-over: %d day packages, %s night\n",
				today.CarryIn.DayPackages, FormatMoney(today.CarryIn.NightShortfall))
		}
	}

	g := v.Goal
	name := g.Name
	if name == "" {
		name = "Goal"
	}
	fmt.Fprintf(&b, "\n<b>%s</b>: %s / %s (%.1f%%)\n",
		html.EscapeString(name), FormatMoney(g.CurrentAmount), FormatMoney(g.TargetAmount), v.Progress.Percent)
	if v.Progress.Additional > 0 {
		fmt.Fprintf(&b, "With additional savings: %.1f%%\n", v.Progress.PercentWithAdditional)
	}
	fmt.Fprintf(&b, "Per weighted day: %s until %s", FormatMoney(v.Horizon.PerDayTarget), v.Horizon.End)
	if v.Horizon.Fallback {
		b.WriteString(" (no deadline, 7-day window)")
	}
	b.WriteString("\n")

	if len(v.DueSoon) > 0 {
		b.WriteString("\n<b>Due soon</b>\n")
		for _, e := range v.DueSoon {
			fmt.Fprintf(&b, "• %s %s %s\n", dueDate(e), html.EscapeString(expenseLabel(e)), FormatMoney(e.Amount))
		}
	}
	return b.String()
}

// FormatWeekRegistered announces a week credited to the goal.
func FormatWeekRegistered(w plan.WeekSummary, amount core.Money) string {
	return fmt.Sprintf("<b>Week %s registered</b>\nCredited %s\nIncome %s, spent %s, net %s",
		w.Start, FormatMoney(amount), FormatMoney(w.IngresoTotal), FormatMoney(w.GastoTotal), FormatMoney(w.Neto))
}

func dueDate(e core.Expense) core.Date {
	if e.DueDate.IsZero() {
		return e.Date
	}
	return e.DueDate
}

func expenseLabel(e core.Expense) string {
	for _, s := range []string{e.Description, e.Provider, e.Category} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return "expense"
}

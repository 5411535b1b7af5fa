// Package worker reacts to domain events published by the API.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"pobrify/internal/amqp"
	"pobrify/internal/core"
	"pobrify/internal/notifier"
	"pobrify/internal/plan"
	"pobrify/internal/ports"
	"pobrify/internal/services"
)

// Planner is the read side of the plan service.
type Planner interface {
	Plan(ctx context.Context, today core.Date) (services.PlanView, error)
	WeekSummary(ctx context.Context, start core.Date) (plan.WeekSummary, error)
}

// WeekExporter writes a registered week somewhere outside the app.
type WeekExporter interface {
	ExportWeek(ctx context.Context, w plan.WeekSummary, billing core.WeeklyBilling) (string, error)
}

type EventWorker struct {
	plans    Planner
	ledger   ports.BillingLedger
	exporter WeekExporter
	notifier notifier.Notifier
}

// NewEventWorker wires the handlers. exporter and n may be nil.
func NewEventWorker(plans Planner, ledger ports.BillingLedger, exporter WeekExporter, n notifier.Notifier) *EventWorker {
	return &EventWorker{plans: plans, ledger: ledger, exporter: exporter, notifier: n}
}

// Handle dispatches one event. A returned error requeues the message;
// events that can never succeed are logged and dropped.
func (w *EventWorker) Handle(ctx context.Context, e *amqp.Event) error {
	slog.InfoContext(ctx, "Processing event", "id", e.ID, "type", e.Type)

	switch e.Type {
	case amqp.EventWeekRegistered:
		return w.handleWeekRegistered(ctx, e)
	case amqp.EventDayUpdated:
		return w.handleDayUpdated(ctx, e)
	case amqp.EventGoalCredited:
		slog.InfoContext(ctx, "Goal credited", "amount", e.Amount, "source", e.Source)
		return nil
	}
	slog.WarnContext(ctx, "Dropping unsupported event", "id", e.ID, "type", e.Type)
	return nil
}

func (w *EventWorker) handleWeekRegistered(ctx context.Context, e *amqp.Event) error {
	weekKey, err := core.ParseDate(e.WeekKey)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping event with bad week key", "id", e.ID, "week", e.WeekKey, "error", err)
		return nil
	}
	return w.ExportWeek(ctx, weekKey, core.Money(e.Amount))
}

// ExportWeek summarises the week, exports it and announces the credit.
func (w *EventWorker) ExportWeek(ctx context.Context, weekKey core.Date, credited core.Money) error {
	summary, err := w.plans.WeekSummary(ctx, weekKey)
	if err != nil {
		return fmt.Errorf("summarize week %s: %w", weekKey, err)
	}
	billing := core.WeeklyBilling{WeekKey: summary.Start}
	if stored, err := w.ledger.GetWeek(ctx, summary.Start); err != nil {
		return fmt.Errorf("load billing %s: %w", summary.Start, err)
	} else if stored != nil {
		billing = *stored
	}

	if w.exporter != nil {
		rng, err := w.exporter.ExportWeek(ctx, summary, billing)
		if err != nil {
			return fmt.Errorf("export week %s: %w", summary.Start, err)
		}
		slog.InfoContext(ctx, "Week exported", "week", summary.Start, "range", rng)
	}

	if credited == 0 && billing.RegisteredSum != nil {
		credited = *billing.RegisteredSum
	}
	w.notify(ctx, notifier.FormatWeekRegistered(summary, credited))
	return nil
}

func (w *EventWorker) handleDayUpdated(ctx context.Context, e *amqp.Event) error {
	date, err := core.ParseDate(e.Date)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping event with bad date", "id", e.ID, "date", e.Date, "error", err)
		return nil
	}
	view, err := w.plans.Plan(ctx, core.Date{})
	if err != nil {
		return fmt.Errorf("recompute plan: %w", err)
	}
	dp, ok := view.Find(date)
	if !ok {
		slog.InfoContext(ctx, "Updated day is outside the plan", "date", date, "horizon_end", view.Horizon.End)
		return nil
	}
	slog.InfoContext(ctx, "Plan recomputed",
		"date", date,
		"day_packages", dp.Allocation.DayPackagesToDo,
		"night_packages", dp.Allocation.NightPackagesToDo,
		"reassigned", dp.Allocation.Reassigned,
		"per_day_target", int64(view.Horizon.PerDayTarget))
	return nil
}

// NotifyDailyPlan sends today's plan digest.
func (w *EventWorker) NotifyDailyPlan(ctx context.Context) error {
	view, err := w.plans.Plan(ctx, core.Date{})
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	w.notify(ctx, notifier.FormatDailyPlan(view))
	return nil
}

func (w *EventWorker) notify(ctx context.Context, text string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.Notify(ctx, text); err != nil {
		slog.ErrorContext(ctx, "Notification failed", "error", err)
	}
}

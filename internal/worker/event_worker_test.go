package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pobrify/internal/amqp"
	"pobrify/internal/core"
	"pobrify/internal/plan"
	"pobrify/internal/services"
	"pobrify/internal/store/memory"
)

var monday = core.NewDate(2025, 6, 2)

type fakePlanner struct {
	view    services.PlanView
	err     error
	summary plan.WeekSummary
	asked   []core.Date
}

func (f *fakePlanner) Plan(_ context.Context, _ core.Date) (services.PlanView, error) {
	return f.view, f.err
}

func (f *fakePlanner) WeekSummary(_ context.Context, start core.Date) (plan.WeekSummary, error) {
	f.asked = append(f.asked, start)
	s := f.summary
	s.Start = start.WeekStart()
	return s, f.err
}

type fakeExporter struct {
	err     error
	weeks   []plan.WeekSummary
	billing []core.WeeklyBilling
}

func (f *fakeExporter) ExportWeek(_ context.Context, w plan.WeekSummary, b core.WeeklyBilling) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.weeks = append(f.weeks, w)
	f.billing = append(f.billing, b)
	return "2025 Weeks!A2:K2", nil
}

type fakeNotifier struct{ messages []string }

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func TestHandleWeekRegistered_ExportsAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sum := core.Money(25000)
	at := time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	if err := store.PutWeek(ctx, core.WeeklyBilling{WeekKey: monday, RegisteredSum: &sum, RegisteredAt: &at}); err != nil {
		t.Fatal(err)
	}

	planner := &fakePlanner{summary: plan.WeekSummary{IngresoTotal: 30000, Neto: 28000}}
	exp := &fakeExporter{}
	n := &fakeNotifier{}
	w := NewEventWorker(planner, store, exp, n)

	if err := w.Handle(ctx, amqp.NewWeekRegistered(monday.String(), 25000)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(exp.weeks) != 1 || !exp.weeks[0].Start.Equal(monday) {
		t.Fatalf("unexpected exports %+v", exp.weeks)
	}
	if exp.billing[0].RegisteredSum == nil || *exp.billing[0].RegisteredSum != 25000 {
		t.Errorf("billing not loaded from ledger: %+v", exp.billing[0])
	}
	if len(n.messages) != 1 || !strings.Contains(n.messages[0], "Credited $25.000") {
		t.Errorf("unexpected notifications %q", n.messages)
	}
}

func TestHandleWeekRegistered_ExportFailureRequeues(t *testing.T) {
	w := NewEventWorker(&fakePlanner{}, memory.New(), &fakeExporter{err: errors.New("quota")}, nil)
	err := w.Handle(context.Background(), amqp.NewWeekRegistered(monday.String(), 1))
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestHandleWeekRegistered_WithoutExporter(t *testing.T) {
	n := &fakeNotifier{}
	w := NewEventWorker(&fakePlanner{}, memory.New(), nil, n)
	if err := w.Handle(context.Background(), amqp.NewWeekRegistered(monday.String(), 100)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(n.messages) != 1 {
		t.Errorf("expected one notification, got %d", len(n.messages))
	}
}

func TestHandle_DropsBadDates(t *testing.T) {
	exp := &fakeExporter{}
	w := NewEventWorker(&fakePlanner{}, memory.New(), exp, nil)
	ctx := context.Background()

	if err := w.Handle(ctx, amqp.NewWeekRegistered("not-a-date", 1)); err != nil {
		t.Errorf("bad week key should be dropped, got %v", err)
	}
	if err := w.Handle(ctx, amqp.NewDayUpdated("2025-13-40")); err != nil {
		t.Errorf("bad date should be dropped, got %v", err)
	}
	if len(exp.weeks) != 0 {
		t.Error("nothing should have been exported")
	}
}

func TestHandleDayUpdated(t *testing.T) {
	tue := monday.AddDays(1)
	planner := &fakePlanner{view: services.PlanView{Plan: plan.Plan{
		Horizon: plan.Horizon{End: tue},
		Days:    []plan.DayPlan{{Date: monday, RestDay: true}, {Date: tue}},
	}}}
	w := NewEventWorker(planner, memory.New(), nil, nil)
	ctx := context.Background()

	if err := w.Handle(ctx, amqp.NewDayUpdated(tue.String())); err != nil {
		t.Errorf("Handle: %v", err)
	}
	if err := w.Handle(ctx, amqp.NewDayUpdated(tue.AddDays(30).String())); err != nil {
		t.Errorf("day outside plan: %v", err)
	}

	planner.err = errors.New("store down")
	if err := w.Handle(ctx, amqp.NewDayUpdated(tue.String())); err == nil {
		t.Error("expected plan error to requeue")
	}
}

func TestHandleGoalCredited(t *testing.T) {
	w := NewEventWorker(&fakePlanner{}, memory.New(), nil, nil)
	if err := w.Handle(context.Background(), amqp.NewGoalCredited(500, "manual")); err != nil {
		t.Fatal(err)
	}
}

func TestNotifyDailyPlan(t *testing.T) {
	n := &fakeNotifier{}
	planner := &fakePlanner{view: services.PlanView{Plan: plan.Plan{
		Days: []plan.DayPlan{{Date: monday, RestDay: true}},
	}}}
	w := NewEventWorker(planner, memory.New(), nil, n)
	if err := w.NotifyDailyPlan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(n.messages) != 1 || !strings.Contains(n.messages[0], "Rest day") {
		t.Errorf("unexpected messages %q", n.messages)
	}
}

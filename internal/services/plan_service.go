package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pobrify/internal/core"
	"pobrify/internal/plan"
	"pobrify/internal/ports"
)

// PlanView is a plan plus the goal progress shown next to it.
type PlanView struct {
	Goal     core.GoalState `json:"goal"`
	Settings plan.Settings  `json:"settings"`
	Rates    plan.Rates     `json:"rates"`
	Progress plan.Progress  `json:"progress"`
	// DueSoon lists unpaid fixed expenses due within the next week.
	DueSoon []core.Expense `json:"dueSoon"`
	plan.Plan
}

const dueSoonDays = 7

// PlanService loads point-in-time snapshots and runs the allocation engine.
type PlanService struct {
	settings *SettingsService
	days     ports.DayRecordStore
	expenses ports.ExpenseStore
	now      func() time.Time
}

func NewPlanService(settings *SettingsService, days ports.DayRecordStore, expenses ports.ExpenseStore) *PlanService {
	return &PlanService{settings: settings, days: days, expenses: expenses, now: time.Now}
}

// Today is the current calendar date in local time.
func (s *PlanService) Today() core.Date {
	return core.DateOf(s.now())
}

type snapshot struct {
	goal       core.GoalState
	settings   plan.Settings
	rates      plan.Rates
	additional core.Money
	records    []core.DayRecord
	expenses   []core.Expense
}

// load fetches every input concurrently. Each fetch is read-only and
// writes its own field.
func (s *PlanService) load(ctx context.Context, from, to core.Date) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.goal, err = s.settings.Goal(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.settings, err = s.settings.Allocation(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.rates, err = s.settings.Rates(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.additional, err = s.settings.AdditionalSavings(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.records, err = s.days.ListDays(ctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		snap.expenses, err = s.expenses.ListExpenses(ctx, "")
		return err
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, fmt.Errorf("load plan snapshot: %w", err)
	}
	return snap, nil
}

// Plan builds the plan starting at today. A zero date means the current day.
func (s *PlanService) Plan(ctx context.Context, today core.Date) (PlanView, error) {
	if today.IsZero() {
		today = s.Today()
	}
	snap, err := s.load(ctx, today, today.AddDays(plan.MaxPlanDays))
	if err != nil {
		return PlanView{}, err
	}

	p := plan.BuildPlan(plan.Input{
		Today:    today,
		Goal:     snap.goal,
		Settings: snap.settings,
		Rates:    snap.rates,
		Records:  snap.records,
		Expenses: snap.expenses,
	})
	return PlanView{
		Goal:     snap.goal,
		Settings: snap.settings,
		Rates:    snap.rates,
		Progress: plan.ComputeProgress(snap.goal, snap.additional),
		DueSoon:  dueSoon(snap.expenses, today, today.AddDays(dueSoonDays)),
		Plan:     p,
	}, nil
}

// WeekSummary aggregates the Monday-anchored week containing start.
func (s *PlanService) WeekSummary(ctx context.Context, start core.Date) (plan.WeekSummary, error) {
	if start.IsZero() {
		start = s.Today()
	}
	start = start.WeekStart()
	snap, err := s.load(ctx, start, start.AddDays(6))
	if err != nil {
		return plan.WeekSummary{}, err
	}
	return plan.SummarizeWeek(start, snap.records, snap.expenses, snap.rates), nil
}

func dueSoon(expenses []core.Expense, from, to core.Date) []core.Expense {
	out := []core.Expense{}
	for _, e := range expenses {
		if e.Kind != core.ExpenseFixed || e.Paid {
			continue
		}
		due := e.DueDate
		if due.IsZero() {
			due = e.Date
		}
		if due.Before(from) || due.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return dueOf(out[i]).Before(dueOf(out[j])) })
	return out
}

func dueOf(e core.Expense) core.Date {
	if e.DueDate.IsZero() {
		return e.Date
	}
	return e.DueDate
}

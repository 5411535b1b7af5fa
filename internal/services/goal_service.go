package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"pobrify/internal/amqp"
	"pobrify/internal/core"
	"pobrify/internal/ports"
)

// GoalService owns every mutation of GoalState.CurrentAmount. Each
// collected booking and each registered week credits the goal once.
type GoalService struct {
	settings  *SettingsService
	days      ports.DayRecordStore
	ledger    ports.BillingLedger
	publisher amqp.Publisher
	now       func() time.Time

	// Serialises read-modify-write of the goal and the ledger.
	mu sync.Mutex
}

func NewGoalService(settings *SettingsService, days ports.DayRecordStore, ledger ports.BillingLedger, publisher amqp.Publisher) *GoalService {
	return &GoalService{
		settings:  settings,
		days:      days,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// Credit adds amount to the goal (negative amounts are manual corrections)
// and returns the clamped result.
func (s *GoalService) Credit(ctx context.Context, amount core.Money, source string) (core.GoalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credit(ctx, amount, source)
}

func (s *GoalService) credit(ctx context.Context, amount core.Money, source string) (core.GoalState, error) {
	goal, err := s.settings.Goal(ctx)
	if err != nil {
		return core.GoalState{}, err
	}
	before := goal.CurrentAmount
	goal.CurrentAmount += amount
	goal, err = s.settings.PutGoal(ctx, goal.Clamp())
	if err != nil {
		return core.GoalState{}, err
	}

	slog.InfoContext(ctx, "Goal credited",
		"source", source,
		"amount", int64(amount),
		"before", int64(before),
		"after", int64(goal.CurrentAmount))

	s.publish(ctx, amqp.NewGoalCredited(int64(goal.CurrentAmount-before), source))
	return goal, nil
}

// UpdateGoal replaces the goal's name, target and deadline. The current
// amount is kept; it only changes through Credit.
func (s *GoalService) UpdateGoal(ctx context.Context, g core.GoalState) (core.GoalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.settings.Goal(ctx)
	if err != nil {
		return core.GoalState{}, err
	}
	g.Name = strings.TrimSpace(g.Name)
	g.CurrentAmount = current.CurrentAmount
	if err := g.Validate(); err != nil {
		return core.GoalState{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.settings.PutGoal(ctx, g)
}

// UpdateBookingStatus moves a booking forward. The goal is credited with
// the booking amount only on the transition into collected.
func (s *GoalService) UpdateBookingStatus(ctx context.Context, date core.Date, bookingID string, status core.BookingStatus) (core.DayRecord, error) {
	if !status.Valid() {
		return core.DayRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.days.GetDay(ctx, date)
	if errors.Is(err, ports.ErrNotFound) {
		return core.DayRecord{}, ErrBookingNotFound
	}
	if err != nil {
		return core.DayRecord{}, fmt.Errorf("load day %s: %w", date, err)
	}

	idx := -1
	for i, b := range rec.Bookings {
		if b.ID == bookingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.DayRecord{}, ErrBookingNotFound
	}

	current := rec.Bookings[idx]
	if !current.Status.CanAdvanceTo(status) {
		return core.DayRecord{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}
	if current.Status == status {
		return rec, nil
	}

	rec.Bookings[idx].Status = status
	saved, err := s.days.UpsertDay(ctx, rec)
	if err != nil {
		return core.DayRecord{}, fmt.Errorf("save day %s: %w", date, err)
	}

	if status == core.StatusCollected {
		if _, err := s.credit(ctx, current.Amount, "booking:"+current.ID); err != nil {
			// Undo the transition so a retry credits the goal.
			rec.Bookings[idx].Status = current.Status
			if _, rerr := s.days.UpsertDay(ctx, rec); rerr != nil {
				slog.ErrorContext(ctx, "Booking collected without goal credit",
					"date", date.String(),
					"booking", current.ID,
					"amount", int64(current.Amount),
					"error", err,
					"rollback_error", rerr)
			}
			return core.DayRecord{}, err
		}
	}
	s.publish(ctx, amqp.NewDayUpdated(date.String()))
	return saved, nil
}

// SaveWeek stores billed totals for a week without registering it.
// Totals of an already registered week are frozen.
func (s *GoalService) SaveWeek(ctx context.Context, w core.WeeklyBilling) (core.WeeklyBilling, error) {
	w.WeekKey = w.WeekKey.WeekStart()
	if err := w.WeekKey.Validate(); err != nil {
		return core.WeeklyBilling{}, err
	}
	if (w.PersonATotal != nil && *w.PersonATotal < 0) || (w.PersonBTotal != nil && *w.PersonBTotal < 0) {
		return core.WeeklyBilling{}, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.ledger.GetWeek(ctx, w.WeekKey)
	if err != nil {
		return core.WeeklyBilling{}, fmt.Errorf("load week %s: %w", w.WeekKey, err)
	}
	if existing != nil && existing.Registered() {
		return *existing, nil
	}

	// Registration markers are only ever written by RegisterWeek.
	w.RegisteredSum, w.RegisteredAt = nil, nil
	if err := s.ledger.PutWeek(ctx, w); err != nil {
		return core.WeeklyBilling{}, fmt.Errorf("save week %s: %w", w.WeekKey, err)
	}
	return w, nil
}

// GetWeek returns the ledger entry for the week containing weekKey, or an
// empty entry when none exists.
func (s *GoalService) GetWeek(ctx context.Context, weekKey core.Date) (core.WeeklyBilling, error) {
	weekKey = weekKey.WeekStart()
	w, err := s.ledger.GetWeek(ctx, weekKey)
	if err != nil {
		return core.WeeklyBilling{}, fmt.Errorf("load week %s: %w", weekKey, err)
	}
	if w == nil {
		return core.WeeklyBilling{WeekKey: weekKey}, nil
	}
	return *w, nil
}

// RegisterWeek credits a week's billed totals to the goal exactly once.
// Totals passed in override stored ones. The second return value is false
// when the week had already been registered and nothing changed.
func (s *GoalService) RegisterWeek(ctx context.Context, weekKey core.Date, personA, personB *core.Money) (core.WeeklyBilling, bool, error) {
	weekKey = weekKey.WeekStart()
	if err := weekKey.Validate(); err != nil {
		return core.WeeklyBilling{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.ledger.GetWeek(ctx, weekKey)
	if err != nil {
		return core.WeeklyBilling{}, false, fmt.Errorf("load week %s: %w", weekKey, err)
	}
	if existing != nil && existing.Registered() {
		slog.InfoContext(ctx, "Week already registered", "week", weekKey.String(), "sum", int64(*existing.RegisteredSum))
		return *existing, false, nil
	}

	w := core.WeeklyBilling{WeekKey: weekKey}
	if existing != nil {
		w = *existing
	}
	if personA != nil {
		w.PersonATotal = personA
	}
	if personB != nil {
		w.PersonBTotal = personB
	}

	var sum core.Money
	for _, t := range []*core.Money{w.PersonATotal, w.PersonBTotal} {
		if t != nil {
			if *t < 0 {
				return core.WeeklyBilling{}, false, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidAmount)
			}
			sum += *t
		}
	}
	if sum == 0 {
		return core.WeeklyBilling{}, false, ErrNothingToRegister
	}

	// The marker is written before the credit and removed again when the
	// credit fails, leaving the week open for another attempt.
	at := s.now().UTC()
	w.RegisteredSum = &sum
	w.RegisteredAt = &at
	if err := s.ledger.PutWeek(ctx, w); err != nil {
		return core.WeeklyBilling{}, false, fmt.Errorf("register week %s: %w", weekKey, err)
	}
	if _, err := s.credit(ctx, sum, "week:"+weekKey.String()); err != nil {
		w.RegisteredSum, w.RegisteredAt = nil, nil
		if rerr := s.ledger.PutWeek(ctx, w); rerr != nil {
			slog.ErrorContext(ctx, "Week registered without goal credit",
				"week", weekKey.String(),
				"sum", int64(sum),
				"error", err,
				"rollback_error", rerr)
		}
		return core.WeeklyBilling{}, false, err
	}

	s.publish(ctx, amqp.NewWeekRegistered(weekKey.String(), int64(sum)))
	return w, true, nil
}

func (s *GoalService) publish(ctx context.Context, e *amqp.Event) {
	publish(ctx, s.publisher, e)
}

// publish emits e when a publisher is configured. Failures are logged;
// the store stays the source of truth.
func publish(ctx context.Context, p amqp.Publisher, e *amqp.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "type", e.Type, "error", err)
	}
}

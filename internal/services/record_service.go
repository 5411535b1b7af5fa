package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pobrify/internal/amqp"
	"pobrify/internal/core"
	"pobrify/internal/ports"
)

// RecordService manages day records and expenses. Day writes share the
// GoalService lock so they cannot interleave with a status transition.
type RecordService struct {
	days      ports.DayRecordStore
	expenses  ports.ExpenseStore
	publisher amqp.Publisher
	goals     *GoalService
}

func NewRecordService(days ports.DayRecordStore, expenses ports.ExpenseStore, publisher amqp.Publisher, goals *GoalService) *RecordService {
	return &RecordService{days: days, expenses: expenses, publisher: publisher, goals: goals}
}

func (s *RecordService) lock() func() {
	if s.goals == nil {
		return func() {}
	}
	s.goals.mu.Lock()
	return s.goals.mu.Unlock
}

// ListDays returns records in [start, end]. A zero end means start + 6 days.
func (s *RecordService) ListDays(ctx context.Context, start, end core.Date) ([]core.DayRecord, error) {
	if !start.IsZero() && end.IsZero() {
		end = start.AddDays(6)
	}
	if !start.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidInput)
	}
	recs, err := s.days.ListDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return recs, nil
}

// SaveDay upserts the record for rec.Date. Bookings without an id get one
// and new bookings default to booked. Status changes must go through
// GoalService so the goal is credited. Collected bookings are frozen: they
// were credited with their amount and cannot be edited or dropped.
func (s *RecordService) SaveDay(ctx context.Context, rec core.DayRecord) (core.DayRecord, error) {
	defer s.lock()()

	prev, err := s.days.GetDay(ctx, rec.Date)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return core.DayRecord{}, fmt.Errorf("load day %s: %w", rec.Date, err)
	}
	previous := make(map[string]core.BookingStatus, len(prev.Bookings))
	for _, b := range prev.Bookings {
		previous[b.ID] = b.Status
	}
	if err := checkCollectedKept(prev.Bookings, rec.Bookings); err != nil {
		return core.DayRecord{}, err
	}

	for i := range rec.Bookings {
		b := &rec.Bookings[i]
		b.LocalName = strings.TrimSpace(b.LocalName)
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.Status == "" {
			b.Status = core.StatusBooked
		}
		if old, ok := previous[b.ID]; ok && old != b.Status {
			// Keep the stored status; transitions are separate.
			b.Status = old
		} else if !ok && b.Status == core.StatusCollected {
			return core.DayRecord{}, fmt.Errorf("%w: new bookings cannot start collected", ErrInvalidInput)
		}
	}
	if err := rec.Validate(); err != nil {
		return core.DayRecord{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	saved, err := s.days.UpsertDay(ctx, rec)
	if err != nil {
		return core.DayRecord{}, fmt.Errorf("save day %s: %w", rec.Date, err)
	}
	publish(ctx, s.publisher, amqp.NewDayUpdated(rec.Date.String()))
	return saved, nil
}

// checkCollectedKept fails when a stored collected booking is missing from
// next or differs in amount, shift or person.
func checkCollectedKept(stored, next []core.Booking) error {
	byID := make(map[string]core.Booking, len(next))
	for _, b := range next {
		byID[b.ID] = b
	}
	for _, old := range stored {
		if old.Status != core.StatusCollected {
			continue
		}
		b, ok := byID[old.ID]
		if !ok {
			return fmt.Errorf("%w: collected booking %s cannot be removed", ErrInvalidInput, old.ID)
		}
		if b.Amount != old.Amount || b.Shift != old.Shift || b.Person != old.Person {
			return fmt.Errorf("%w: collected booking %s cannot be edited", ErrInvalidInput, old.ID)
		}
	}
	return nil
}

// DeleteDay removes a record. Days holding collected bookings are kept.
func (s *RecordService) DeleteDay(ctx context.Context, date core.Date) error {
	defer s.lock()()

	prev, err := s.days.GetDay(ctx, date)
	if err != nil {
		return err
	}
	if err := checkCollectedKept(prev.Bookings, nil); err != nil {
		return err
	}
	if err := s.days.DeleteDay(ctx, date); err != nil {
		return err
	}
	publish(ctx, s.publisher, amqp.NewDayUpdated(date.String()))
	return nil
}

func (s *RecordService) ListExpenses(ctx context.Context, kind core.ExpenseKind) ([]core.Expense, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidKind)
	}
	return s.expenses.ListExpenses(ctx, kind)
}

func (s *RecordService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = ""
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	e.ID = uuid.NewString()
	return s.expenses.CreateExpense(ctx, e)
}

func (s *RecordService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		return core.Expense{}, fmt.Errorf("%w: missing expense id", ErrInvalidInput)
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.expenses.UpdateExpense(ctx, e)
}

func (s *RecordService) DeleteExpense(ctx context.Context, kind core.ExpenseKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrInvalidKind)
	}
	return s.expenses.DeleteExpense(ctx, kind, id)
}

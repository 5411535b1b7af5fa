// Package memory is an in-process backend, used for development and tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pobrify/internal/core"
	"pobrify/internal/ports"
)

type Store struct {
	mu          sync.Mutex
	settings    map[string]json.RawMessage
	days        map[string]core.DayRecord
	expenses    map[string]core.Expense
	billing     map[string]core.WeeklyBilling
	accessories map[string]core.Accessory
	locals      map[string]core.KnownLocal
	seq         int
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		settings:    make(map[string]json.RawMessage),
		days:        make(map[string]core.DayRecord),
		expenses:    make(map[string]core.Expense),
		billing:     make(map[string]core.WeeklyBilling),
		accessories: make(map[string]core.Accessory),
		locals:      make(map[string]core.KnownLocal),
	}
}

// NewFromFiles seeds settings from <base>/seed_settings.json, a JSON object
// mapping setting keys to values. A missing or malformed file is ignored.
func NewFromFiles(base string) *Store {
	s := New()
	raw, err := os.ReadFile(filepath.Join(base, "seed_settings.json"))
	if err != nil {
		return s
	}
	var seed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &seed); err != nil {
		return s
	}
	for k, v := range seed {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		s.settings[k] = bytes.Clone(v)
	}
	return s
}

func (s *Store) GetSetting(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (s *Store) PutSetting(_ context.Context, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("setting %q: invalid JSON", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = bytes.Clone(data)
	return nil
}

func (s *Store) ListDays(_ context.Context, start, end core.Date) ([]core.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.DayRecord, 0, len(s.days))
	for _, rec := range s.days {
		if !start.IsZero() && rec.Date.Before(start) {
			continue
		}
		if !end.IsZero() && rec.Date.After(end) {
			continue
		}
		out = append(out, cloneDay(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetDay(_ context.Context, date core.Date) (core.DayRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.days[date.String()]
	if !ok {
		return core.DayRecord{}, ports.ErrNotFound
	}
	return cloneDay(rec), nil
}

func (s *Store) UpsertDay(_ context.Context, rec core.DayRecord) (core.DayRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.DayRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[rec.Date.String()] = cloneDay(rec)
	return cloneDay(rec), nil
}

func (s *Store) DeleteDay(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := date.String()
	if _, ok := s.days[key]; !ok {
		return ports.ErrNotFound
	}
	delete(s.days, key)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, kind core.ExpenseKind) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		s.seq++
		e.ID = fmt.Sprintf("mem:%d", s.seq)
	}
	s.expenses[expenseKey(e.Kind, e.ID)] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := expenseKey(e.Kind, e.ID)
	if _, ok := s.expenses[key]; !ok {
		return core.Expense{}, ports.ErrNotFound
	}
	s.expenses[key] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, kind core.ExpenseKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := expenseKey(kind, id)
	if _, ok := s.expenses[key]; !ok {
		return ports.ErrNotFound
	}
	delete(s.expenses, key)
	return nil
}

func (s *Store) GetWeek(_ context.Context, weekKey core.Date) (*core.WeeklyBilling, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.billing[weekKey.String()]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (s *Store) PutWeek(_ context.Context, w core.WeeklyBilling) error {
	if err := w.WeekKey.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billing[w.WeekKey.String()] = w
	return nil
}

func (s *Store) ListAccessories(_ context.Context) ([]core.Accessory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Accessory, 0, len(s.accessories))
	for _, a := range s.accessories {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveAccessory(_ context.Context, a core.Accessory) (core.Accessory, error) {
	if err := a.Validate(); err != nil {
		return core.Accessory{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		s.seq++
		a.ID = fmt.Sprintf("mem:%d", s.seq)
	}
	s.accessories[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAccessory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accessories[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.accessories, id)
	return nil
}

func (s *Store) ListKnownLocals(_ context.Context) ([]core.KnownLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.KnownLocal, 0, len(s.locals))
	for _, k := range s.locals {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutKnownLocal(_ context.Context, k core.KnownLocal) (core.KnownLocal, error) {
	k.Name = strings.TrimSpace(k.Name)
	if err := k.Validate(); err != nil {
		return core.KnownLocal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locals[k.Name] = k
	return k, nil
}

func (s *Store) DeleteKnownLocal(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locals[name]; !ok {
		return ports.ErrNotFound
	}
	delete(s.locals, name)
	return nil
}

func expenseKey(kind core.ExpenseKind, id string) string {
	return string(kind) + "/" + id
}

func cloneDay(rec core.DayRecord) core.DayRecord {
	rec.Bookings = append([]core.Booking(nil), rec.Bookings...)
	return rec
}

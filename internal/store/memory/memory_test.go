package memory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pobrify/internal/core"
	"pobrify/internal/ports"
)

func TestSettingsRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	got, err := s.GetSetting(ctx, "goal")
	if err != nil || got != nil {
		t.Fatalf("absent key: got %s err=%v", got, err)
	}
	if err := s.PutSetting(ctx, "goal", json.RawMessage(`{"targetAmount":100}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ = s.GetSetting(ctx, "goal")
	if string(got) != `{"targetAmount":100}` {
		t.Fatalf("unexpected setting %s", got)
	}
	if err := s.PutSetting(ctx, "goal", json.RawMessage(`{`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestDayRecordsUpsertAndRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	mon := core.NewDate(2025, 6, 2)

	for _, d := range []int{3, 0, 1, 9} {
		if _, err := s.UpsertDay(ctx, core.DayRecord{Date: mon.AddDays(d), DayPackages: d}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	// Upsert replaces.
	if _, err := s.UpsertDay(ctx, core.DayRecord{Date: mon.AddDays(1), NightPackages: 4}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ListDays(ctx, mon, mon.AddDays(6))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if !got[0].Date.Equal(mon) || !got[2].Date.Equal(mon.AddDays(3)) {
		t.Fatalf("records not sorted: %v", got)
	}
	if got[1].NightPackages != 4 || got[1].DayPackages != 0 {
		t.Fatalf("upsert did not replace: %+v", got[1])
	}

	if _, err := s.UpsertDay(ctx, core.DayRecord{Date: mon, DayPackages: -1}); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := s.DeleteDay(ctx, mon.AddDays(20)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetDay(ctx, mon.AddDays(20)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpensesByKind(t *testing.T) {
	s := New()
	ctx := context.Background()
	d := core.NewDate(2025, 6, 3)

	v, err := s.CreateExpense(ctx, core.Expense{Kind: core.ExpenseVariable, Date: d, Amount: 10, Category: "food"})
	if err != nil || v.ID == "" {
		t.Fatalf("create: %+v %v", v, err)
	}
	if _, err := s.CreateExpense(ctx, core.Expense{Kind: core.ExpenseFixed, Date: d, Amount: 20, Provider: "power"}); err != nil {
		t.Fatalf("create fixed: %v", err)
	}

	vars, _ := s.ListExpenses(ctx, core.ExpenseVariable)
	all, _ := s.ListExpenses(ctx, "")
	if len(vars) != 1 || len(all) != 2 {
		t.Fatalf("unexpected counts vars=%d all=%d", len(vars), len(all))
	}

	v.Amount = 15
	if _, err := s.UpdateExpense(ctx, v); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteExpense(ctx, core.ExpenseFixed, v.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("delete with wrong kind should miss, got %v", err)
	}
	if err := s.DeleteExpense(ctx, core.ExpenseVariable, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestBillingLedger(t *testing.T) {
	s := New()
	ctx := context.Background()
	week := core.NewDate(2025, 6, 2)

	w, err := s.GetWeek(ctx, week)
	if err != nil || w != nil {
		t.Fatalf("unknown week should be nil, got %+v %v", w, err)
	}
	sum := core.Money(1200)
	if err := s.PutWeek(ctx, core.WeeklyBilling{WeekKey: week, RegisteredSum: &sum}); err != nil {
		t.Fatalf("put: %v", err)
	}
	w, _ = s.GetWeek(ctx, week)
	if w == nil || !w.Registered() || *w.RegisteredSum != 1200 {
		t.Fatalf("unexpected week %+v", w)
	}
}

func TestNewFromFilesSeedsSettings(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	if got, _ := s.GetSetting(context.Background(), "allocation"); got != nil {
		t.Fatalf("expected no settings without seed file")
	}

	seed := `{"allocation":{"nightWeightWeekday":65}," ":1}`
	if err := os.WriteFile(filepath.Join(dir, "seed_settings.json"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	got, _ := s.GetSetting(context.Background(), "allocation")
	if string(got) != `{"nightWeightWeekday":65}` {
		t.Fatalf("unexpected seeded setting %s", got)
	}
}

func TestKnownLocalsAndAccessories(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.PutKnownLocal(ctx, core.KnownLocal{Name: "  Pizzeria  ", Favorite: true}); err != nil {
		t.Fatalf("put local: %v", err)
	}
	locals, _ := s.ListKnownLocals(ctx)
	if len(locals) != 1 || locals[0].Name != "Pizzeria" {
		t.Fatalf("unexpected locals %+v", locals)
	}
	if _, err := s.PutKnownLocal(ctx, core.KnownLocal{Name: " "}); err == nil {
		t.Fatalf("expected error for empty name")
	}

	a, err := s.SaveAccessory(ctx, core.Accessory{Title: "Helmet"})
	if err != nil || a.ID == "" {
		t.Fatalf("save accessory: %+v %v", a, err)
	}
	a.Bought = true
	if _, err := s.SaveAccessory(ctx, a); err != nil {
		t.Fatalf("update accessory: %v", err)
	}
	list, _ := s.ListAccessories(ctx)
	if len(list) != 1 || !list[0].Bought {
		t.Fatalf("unexpected accessories %+v", list)
	}
}

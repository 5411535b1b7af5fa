package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pobrify/internal/core"
	"pobrify/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "pobrify.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("unexpected versions %d %d", v1, v2)
	}
}

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetSetting(ctx, "allocation")
	if err != nil || got != nil {
		t.Fatalf("absent setting: %s %v", got, err)
	}
	if err := repo.PutSetting(ctx, "allocation", json.RawMessage(`{"daySharePercent":70}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, "allocation", json.RawMessage(`{"daySharePercent":60}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = repo.GetSetting(ctx, "allocation")
	if string(got) != `{"daySharePercent":60}` {
		t.Fatalf("unexpected value %s", got)
	}
}

func TestDayRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mon := core.NewDate(2025, 6, 2)

	rec := core.DayRecord{
		Date: mon.AddDays(1),
		Bookings: []core.Booking{
			{ID: "b1", LocalName: "Sushi", Amount: 4200, Person: core.PersonA, Shift: core.ShiftDay, Status: core.StatusCollected},
		},
		DayPackages: 2,
		NightTip:    150,
	}
	if _, err := repo.UpsertDay(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec.NightPackages = 3
	if _, err := repo.UpsertDay(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if _, err := repo.UpsertDay(ctx, core.DayRecord{Date: mon.AddDays(8)}); err != nil {
		t.Fatalf("upsert outside range: %v", err)
	}

	days, err := repo.ListDays(ctx, mon, mon.AddDays(6))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	got := days[0]
	if got.NightPackages != 3 || got.DayPackages != 2 || got.NightTip != 150 {
		t.Fatalf("unexpected record %+v", got)
	}
	if len(got.Bookings) != 1 || got.Bookings[0].Status != core.StatusCollected {
		t.Fatalf("bookings not round-tripped: %+v", got.Bookings)
	}

	all, _ := repo.ListDays(ctx, core.Date{}, core.Date{})
	if len(all) != 2 {
		t.Fatalf("open range should list all, got %d", len(all))
	}

	if err := repo.DeleteDay(ctx, mon.AddDays(8)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetDay(ctx, mon.AddDays(8)); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	d := core.NewDate(2025, 6, 4)

	fixed, err := repo.CreateExpense(ctx, core.Expense{Kind: core.ExpenseFixed, Date: d, Amount: 9000, Provider: "Power", DueDate: d.AddDays(10)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fixed.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := repo.CreateExpense(ctx, core.Expense{Kind: core.ExpenseVariable, Date: d, Amount: 300, Category: "fuel"}); err != nil {
		t.Fatalf("create variable: %v", err)
	}

	fixed.Paid = true
	if _, err := repo.UpdateExpense(ctx, fixed); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.ListExpenses(ctx, core.ExpenseFixed)
	if err != nil || len(list) != 1 {
		t.Fatalf("list fixed: %v %v", list, err)
	}
	if !list[0].Paid || list[0].DueDate.String() != "2025-06-14" {
		t.Fatalf("unexpected fixed expense %+v", list[0])
	}

	all, _ := repo.ListExpenses(ctx, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(all))
	}

	missing := fixed
	missing.ID = "nope"
	if _, err := repo.UpdateExpense(ctx, missing); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWeeklyBilling(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	week := core.NewDate(2025, 6, 2)

	w, err := repo.GetWeek(ctx, week)
	if err != nil || w != nil {
		t.Fatalf("unknown week: %+v %v", w, err)
	}

	a := core.Money(5000)
	if err := repo.PutWeek(ctx, core.WeeklyBilling{WeekKey: week, PersonATotal: &a}); err != nil {
		t.Fatalf("put: %v", err)
	}
	w, _ = repo.GetWeek(ctx, week)
	if w == nil || w.Registered() || *w.PersonATotal != 5000 || w.PersonBTotal != nil {
		t.Fatalf("unexpected week %+v", w)
	}

	sum := core.Money(5000)
	at := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	w.RegisteredSum = &sum
	w.RegisteredAt = &at
	if err := repo.PutWeek(ctx, *w); err != nil {
		t.Fatalf("register: %v", err)
	}
	w, _ = repo.GetWeek(ctx, week)
	if !w.Registered() || !w.RegisteredAt.Equal(at) {
		t.Fatalf("registration not stored: %+v", w)
	}
}

func TestAccessoriesAndLocals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	price := core.Money(25000)
	a, err := repo.SaveAccessory(ctx, core.Accessory{Title: "Phone mount", Price: &price})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	a.Bought = true
	if _, err := repo.SaveAccessory(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := repo.ListAccessories(ctx)
	if len(list) != 1 || !list[0].Bought || *list[0].Price != 25000 {
		t.Fatalf("unexpected accessories %+v", list)
	}
	if err := repo.DeleteAccessory(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := repo.PutKnownLocal(ctx, core.KnownLocal{Name: "Burger Bar", Favorite: true}); err != nil {
		t.Fatalf("put local: %v", err)
	}
	locals, _ := repo.ListKnownLocals(ctx)
	if len(locals) != 1 || !locals[0].Favorite {
		t.Fatalf("unexpected locals %+v", locals)
	}
}

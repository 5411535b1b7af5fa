// Package ports declares the storage collaborators the services depend on.
package ports

import (
	"context"
	"encoding/json"
	"errors"

	"pobrify/internal/core"
)

var ErrNotFound = errors.New("not found")

// Outbound ports implemented by the memory and sqlite backends.
type (
	// SettingsStore is a JSON key/value store. GetSetting returns nil data
	// and no error when the key is absent.
	SettingsStore interface {
		GetSetting(ctx context.Context, key string) (json.RawMessage, error)
		PutSetting(ctx context.Context, key string, data json.RawMessage) error
	}

	// DayRecordStore keeps one record per calendar date.
	DayRecordStore interface {
		// ListDays returns records in [start, end], sorted by date. A zero
		// bound leaves that side open.
		ListDays(ctx context.Context, start, end core.Date) ([]core.DayRecord, error)
		GetDay(ctx context.Context, date core.Date) (core.DayRecord, error)
		UpsertDay(ctx context.Context, rec core.DayRecord) (core.DayRecord, error)
		DeleteDay(ctx context.Context, date core.Date) error
	}

	ExpenseStore interface {
		// ListExpenses returns every expense of kind, or all kinds when kind is "".
		ListExpenses(ctx context.Context, kind core.ExpenseKind) ([]core.Expense, error)
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		DeleteExpense(ctx context.Context, kind core.ExpenseKind, id string) error
	}

	// BillingLedger stores weekly billing entries keyed by Monday.
	// GetWeek returns nil and no error for an unknown week.
	BillingLedger interface {
		GetWeek(ctx context.Context, weekKey core.Date) (*core.WeeklyBilling, error)
		PutWeek(ctx context.Context, w core.WeeklyBilling) error
	}

	AccessoryStore interface {
		ListAccessories(ctx context.Context) ([]core.Accessory, error)
		SaveAccessory(ctx context.Context, a core.Accessory) (core.Accessory, error)
		DeleteAccessory(ctx context.Context, id string) error
	}

	KnownLocalStore interface {
		ListKnownLocals(ctx context.Context) ([]core.KnownLocal, error)
		PutKnownLocal(ctx context.Context, k core.KnownLocal) (core.KnownLocal, error)
		DeleteKnownLocal(ctx context.Context, name string) error
	}

	// Store is everything a backend provides.
	Store interface {
		SettingsStore
		DayRecordStore
		ExpenseStore
		BillingLedger
		AccessoryStore
		KnownLocalStore
	}
)

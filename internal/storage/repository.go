package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pobrify/internal/core"
	"pobrify/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (json.RawMessage, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM settings WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %q: %w", key, err)
	}
	return json.RawMessage(data), nil
}

func (r *SQLiteRepository) PutSetting(ctx context.Context, key string, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("setting %q: invalid JSON", key)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

const dayColumns = `date, bookings, day_packages, night_packages, day_tip, night_tip`

func (r *SQLiteRepository) ListDays(ctx context.Context, start, end core.Date) ([]core.DayRecord, error) {
	query := `SELECT ` + dayColumns + ` FROM day_records WHERE 1=1`
	var args []any
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.String())
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.String())
	}
	query += ` ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list day records: %w", err)
	}
	defer rows.Close()

	var out []core.DayRecord
	for rows.Next() {
		rec, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetDay(ctx context.Context, date core.Date) (core.DayRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dayColumns+` FROM day_records WHERE date = ?`, date.String())
	rec, err := scanDay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DayRecord{}, ports.ErrNotFound
	}
	return rec, err
}

func (r *SQLiteRepository) UpsertDay(ctx context.Context, rec core.DayRecord) (core.DayRecord, error) {
	if err := rec.Validate(); err != nil {
		return core.DayRecord{}, err
	}
	if rec.Bookings == nil {
		rec.Bookings = []core.Booking{}
	}
	bookings, err := json.Marshal(rec.Bookings)
	if err != nil {
		return core.DayRecord{}, fmt.Errorf("encode bookings: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO day_records (`+dayColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			bookings = excluded.bookings,
			day_packages = excluded.day_packages,
			night_packages = excluded.night_packages,
			day_tip = excluded.day_tip,
			night_tip = excluded.night_tip,
			updated_at = excluded.updated_at`,
		rec.Date.String(), string(bookings), rec.DayPackages, rec.NightPackages,
		int64(rec.DayTip), int64(rec.NightTip), nowUTC())
	if err != nil {
		return core.DayRecord{}, fmt.Errorf("upsert day %s: %w", rec.Date, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) DeleteDay(ctx context.Context, date core.Date) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM day_records WHERE date = ?`, date.String())
	if err != nil {
		return fmt.Errorf("delete day %s: %w", date, err)
	}
	return affected(res)
}

const expenseColumns = `id, kind, date, amount, paid, category, description, provider, payment_method, due_date`

func (r *SQLiteRepository) ListExpenses(ctx context.Context, kind core.ExpenseKind) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY date DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e                  core.Expense
			kindStr, date, due string
			amount             int64
			paid               bool
		)
		if err := rows.Scan(&e.ID, &kindStr, &date, &amount, &paid, &e.Category, &e.Description, &e.Provider, &e.PaymentMethod, &due); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Kind = core.ExpenseKind(kindStr)
		e.Amount = core.Money(amount)
		e.Paid = paid
		e.Date, _ = core.ParseDate(date)
		e.DueDate, _ = core.ParseDate(due)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Date.String(), int64(e.Amount), e.Paid,
		e.Category, e.Description, e.Provider, e.PaymentMethod, e.DueDate.String())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"kind", e.Kind,
		"amount", int64(e.Amount),
		"date", e.Date.String())

	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET date = ?, amount = ?, paid = ?, category = ?, description = ?,
			provider = ?, payment_method = ?, due_date = ?
		WHERE kind = ? AND id = ?`,
		e.Date.String(), int64(e.Amount), e.Paid, e.Category, e.Description,
		e.Provider, e.PaymentMethod, e.DueDate.String(), string(e.Kind), e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	if err := affected(res); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, kind core.ExpenseKind, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetWeek(ctx context.Context, weekKey core.Date) (*core.WeeklyBilling, error) {
	var (
		personA, personB, sum sql.NullInt64
		registeredAt          sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT person_a_total, person_b_total, registered_sum, registered_at
		FROM weekly_billing WHERE week_key = ?`, weekKey.String()).
		Scan(&personA, &personB, &sum, &registeredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get week %s: %w", weekKey, err)
	}

	w := &core.WeeklyBilling{
		WeekKey:       weekKey,
		PersonATotal:  moneyPtr(personA),
		PersonBTotal:  moneyPtr(personB),
		RegisteredSum: moneyPtr(sum),
	}
	if registeredAt.Valid {
		if t, err := time.Parse(time.RFC3339, registeredAt.String); err == nil {
			w.RegisteredAt = &t
		}
	}
	return w, nil
}

func (r *SQLiteRepository) PutWeek(ctx context.Context, w core.WeeklyBilling) error {
	if err := w.WeekKey.Validate(); err != nil {
		return err
	}
	var registeredAt sql.NullString
	if w.RegisteredAt != nil {
		registeredAt = sql.NullString{String: w.RegisteredAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO weekly_billing (week_key, person_a_total, person_b_total, registered_sum, registered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(week_key) DO UPDATE SET
			person_a_total = excluded.person_a_total,
			person_b_total = excluded.person_b_total,
			registered_sum = excluded.registered_sum,
			registered_at = excluded.registered_at`,
		w.WeekKey.String(), nullMoney(w.PersonATotal), nullMoney(w.PersonBTotal), nullMoney(w.RegisteredSum), registeredAt)
	if err != nil {
		return fmt.Errorf("put week %s: %w", w.WeekKey, err)
	}
	return nil
}

func (r *SQLiteRepository) ListAccessories(ctx context.Context) ([]core.Accessory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, url, title, price, image, description, bought FROM accessories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list accessories: %w", err)
	}
	defer rows.Close()

	var out []core.Accessory
	for rows.Next() {
		var (
			a     core.Accessory
			price sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &price, &a.Image, &a.Description, &a.Bought); err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		a.Price = moneyPtr(price)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveAccessory(ctx context.Context, a core.Accessory) (core.Accessory, error) {
	if err := a.Validate(); err != nil {
		return core.Accessory{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accessories (id, url, title, price, image, description, bought)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url, title = excluded.title, price = excluded.price,
			image = excluded.image, description = excluded.description, bought = excluded.bought`,
		a.ID, a.URL, a.Title, nullMoney(a.Price), a.Image, a.Description, a.Bought)
	if err != nil {
		return core.Accessory{}, fmt.Errorf("save accessory: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) DeleteAccessory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accessories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete accessory %s: %w", id, err)
	}
	return affected(res)
}

func (r *SQLiteRepository) ListKnownLocals(ctx context.Context) ([]core.KnownLocal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, logo_url, favorite FROM known_locals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list known locals: %w", err)
	}
	defer rows.Close()

	var out []core.KnownLocal
	for rows.Next() {
		var k core.KnownLocal
		if err := rows.Scan(&k.Name, &k.LogoURL, &k.Favorite); err != nil {
			return nil, fmt.Errorf("scan known local: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) PutKnownLocal(ctx context.Context, k core.KnownLocal) (core.KnownLocal, error) {
	if err := k.Validate(); err != nil {
		return core.KnownLocal{}, err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO known_locals (name, logo_url, favorite) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET logo_url = excluded.logo_url, favorite = excluded.favorite`,
		k.Name, k.LogoURL, k.Favorite)
	if err != nil {
		return core.KnownLocal{}, fmt.Errorf("put known local %q: %w", k.Name, err)
	}
	return k, nil
}

func (r *SQLiteRepository) DeleteKnownLocal(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM known_locals WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete known local %q: %w", name, err)
	}
	return affected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDay(row rowScanner) (core.DayRecord, error) {
	var (
		rec       core.DayRecord
		date, raw string
		dayTip    int64
		nightTip  int64
	)
	if err := row.Scan(&date, &raw, &rec.DayPackages, &rec.NightPackages, &dayTip, &nightTip); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan day record: %w", err)
	}
	rec.Date, _ = core.ParseDate(date)
	rec.DayTip = core.Money(dayTip)
	rec.NightTip = core.Money(nightTip)
	// Malformed booking JSON reads as no bookings.
	if err := json.Unmarshal([]byte(raw), &rec.Bookings); err != nil {
		slog.Warn("Ignoring malformed bookings", "date", date, "error", err)
		rec.Bookings = nil
	}
	return rec, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func nullMoney(m *core.Money) sql.NullInt64 {
	if m == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*m), Valid: true}
}

func moneyPtr(n sql.NullInt64) *core.Money {
	if !n.Valid {
		return nil
	}
	m := core.Money(n.Int64)
	return &m
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Package google exports weekly summaries to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pobrify/internal/core"
	"pobrify/internal/plan"
)

// Header is the first row written to a fresh weekly sheet.
var Header = []any{
	"Week", "Cobradas", "Por cobrar", "Envios", "Tips",
	"Ingreso total", "Gasto total", "Neto", "Person A", "Person B", "Registered",
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
}

type Config struct {
	SpreadsheetID string
	// SheetName is the base tab name; the week's year is prefixed.
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		cfg.SheetName = "Weeks"
	}

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet", cfg.SpreadsheetID, "sheet", cfg.SheetName)
	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetBase: cfg.SheetName}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials")
}

// ExportWeek appends one row for the week and returns the updated range.
func (e *Exporter) ExportWeek(ctx context.Context, w plan.WeekSummary, billing core.WeeklyBilling) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(e.sheetBase, w.Start.Year())
	rng := fmt.Sprintf("%s!A:K", sheet)

	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, fmt.Sprintf("%s!A1:A1", sheet)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", sheet, err)
	}
	values := [][]any{WeekRow(w, billing)}
	if len(resp.Values) == 0 {
		values = append([][]any{Header}, values...)
	}

	out, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if out.Updates == nil {
		return rng, nil
	}
	return out.Updates.UpdatedRange, nil
}

// WeekRow renders a week as a sheet row.
func WeekRow(w plan.WeekSummary, billing core.WeeklyBilling) []any {
	registered := ""
	if billing.RegisteredAt != nil {
		registered = billing.RegisteredAt.UTC().Format(time.RFC3339)
	}
	return []any{
		w.Start.String(),
		int64(w.Cobradas),
		int64(w.PorCobrar),
		int64(w.Envios),
		int64(w.Tips),
		int64(w.IngresoTotal),
		int64(w.GastoTotal),
		int64(w.Neto),
		optional(billing.PersonATotal),
		optional(billing.PersonBTotal),
		registered,
	}
}

func optional(m *core.Money) any {
	if m == nil {
		return ""
	}
	return int64(*m)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

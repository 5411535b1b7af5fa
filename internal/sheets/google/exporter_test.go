package google

import (
	"context"
	"strings"
	"testing"
	"time"

	"pobrify/internal/core"
	"pobrify/internal/plan"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestExportWeek_NilService(t *testing.T) {
	e := &Exporter{spreadsheetID: "test", sheetBase: "Weeks"}
	if _, err := e.ExportWeek(context.Background(), plan.WeekSummary{}, core.WeeklyBilling{}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestWeekRow(t *testing.T) {
	a := core.Money(12000)
	at := time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC)
	w := plan.WeekSummary{
		Start:        core.NewDate(2025, 6, 2),
		Cobradas:     4200,
		PorCobrar:    3800,
		Envios:       9400,
		Tips:         500,
		IngresoTotal: 17400,
		GastoTotal:   1300,
		Neto:         16100,
	}

	row := WeekRow(w, core.WeeklyBilling{PersonATotal: &a, RegisteredAt: &at})

	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header %d", len(row), len(Header))
	}
	if row[0] != "2025-06-02" || row[5] != int64(17400) || row[7] != int64(16100) {
		t.Errorf("unexpected row %v", row)
	}
	if row[8] != int64(12000) || row[9] != "" {
		t.Errorf("unexpected person totals %v %v", row[8], row[9])
	}
	if row[10] != "2025-06-09T08:30:00Z" {
		t.Errorf("unexpected registration time %v", row[10])
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Weeks", "2025 Weeks"},
		{"2024 Weeks", "2024 Weeks"},
		{"  Weeks ", "2025 Weeks"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, 2025); got != tt.want {
				t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	valid := map[string]Money{
		"2800":      2800,
		"0":         0,
		" 35000 ":   35000,
		"12.4":      12,
		"12,5":      13,
		"129990.49": 129990,
	}
	for in, want := range valid {
		t.Run(in, func(t *testing.T) {
			got, err := ParseAmount(in)
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", in, err)
			}
			if got != want {
				t.Errorf("ParseAmount(%q) = %d, want %d", in, got, want)
			}
		})
	}

	for _, in := range []string{"", "-1", "+1", "abc", "1.2.3", "9999999999999999999"} {
		t.Run("reject "+in, func(t *testing.T) {
			if _, err := ParseAmount(in); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", in, err)
			}
		})
	}
}

func TestMoneyHelpers(t *testing.T) {
	if got := Money(-4500).NonNegative(); got != 0 {
		t.Errorf("NonNegative(-4500) = %d", got)
	}
	if got := Money(4500).NonNegative(); got != 4500 {
		t.Errorf("NonNegative(4500) = %d", got)
	}
	if got := Money(17400).Decimal().String(); got != "17400" {
		t.Errorf("Decimal() = %s", got)
	}
	if err := Money(-1).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate(-1) = %v", err)
	}
}

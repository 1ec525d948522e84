package taxlot

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", NewDate(2025, time.January, 15), false},
		{"2025-7-1", NewDate(2025, time.July, 1), false},
		{"2024-02-29", NewDate(2024, time.February, 29), false},
		{"invalid-date", Date{}, true},
		{"", Date{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if tt.err {
			if err == nil {
				t.Errorf("ParseDate(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestAddYears(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		years    int
		expected Date
	}{
		{"plain year", NewDate(2023, time.May, 15), 1, NewDate(2024, time.May, 15)},
		{"two years", NewDate(2023, time.January, 1), 2, NewDate(2025, time.January, 1)},
		{"leap day to non-leap year", NewDate(2024, time.February, 29), 1, NewDate(2025, time.February, 28)},
		{"leap day to leap year", NewDate(2024, time.February, 29), 4, NewDate(2028, time.February, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.date.AddYears(tt.years); got != tt.expected {
				t.Errorf("%v.AddYears(%d) = %v, want %v", tt.date, tt.years, got, tt.expected)
			}
		})
	}
}

func TestHoldingPeriod(t *testing.T) {
	acq := NewDate(2023, time.May, 15)
	tests := []struct {
		name     string
		sale     Date
		expected HoldingPeriod
	}{
		{"same year", NewDate(2023, time.December, 1), ShortTerm},
		{"one day short", NewDate(2024, time.May, 15), ShortTerm},
		{"exactly one year plus a day", NewDate(2024, time.May, 16), LongTerm},
		{"well past", NewDate(2025, time.January, 1), LongTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := holdingPeriod(acq, tt.sale); got != tt.expected {
				t.Errorf("holdingPeriod(%v, %v) = %v, want %v", acq, tt.sale, got, tt.expected)
			}
		})
	}
}

// Acquiring on a leap day pushes the long-term threshold to March 1 of the
// next year.
func TestHoldingPeriodLeapDay(t *testing.T) {
	acq := NewDate(2024, time.February, 29)
	if got := holdingPeriod(acq, NewDate(2025, time.February, 28)); got != ShortTerm {
		t.Errorf("sale on 2025-02-28 should be short-term, got %v", got)
	}
	if got := holdingPeriod(acq, NewDate(2025, time.March, 1)); got != LongTerm {
		t.Errorf("sale on 2025-03-01 should be long-term, got %v", got)
	}
}

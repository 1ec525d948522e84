package taxlot

import (
	"reflect"
	"testing"
)

func TestNewSecurityNormalizesTicker(t *testing.T) {
	s := NewSecurity(" acme ", "  Acme Inc ")
	if s.Ticker() != "ACME" {
		t.Errorf("ticker = %q, want ACME", s.Ticker())
	}
	if s.Name() != "Acme Inc" {
		t.Errorf("name = %q, want trimmed", s.Name())
	}
	if got, want := s.String(), "ACME (Acme Inc)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSignificantTokens(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"ACME INC COMMON STOCK", []string{"ACME"}},
		{"Acme Widgets, Inc.", []string{"ACME", "WIDGETS"}},
		{"EMPLOYEE STOCK PURCHASE (ESPP)", []string{"EMPLOYEE"}},
		{"INC CORP LTD", nil},
	}
	for _, tt := range tests {
		got := significantTokens(tt.name)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("significantTokens(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

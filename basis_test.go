package taxlot

import (
	"testing"
	"time"
)

// An RSU lot the broker reported with zero basis: the full vest-date value
// must come back as the basis adjustment.
func TestCorrectBasisRSUZeroBroker(t *testing.T) {
	lot := newLot("lot-1", RSU, "ACME", NewDate(2023, time.May, 15), 100, 150)
	sale := newSale("ACME", NewDate(2024, time.June, 10), 100, 175)
	sale.BrokerBasis = USD(0)
	sale.BasisKnown = true

	r, err := CorrectBasis(lot, sale, Q(100), USD(0), true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := r.CorrectBasis.Amount(), "15000.00"; got != want {
		t.Errorf("correct basis = %s, want %s", got, want)
	}
	if got, want := r.GainLoss.Amount(), "2500.00"; got != want {
		t.Errorf("gain = %s, want %s", got, want)
	}
	if got, want := r.Adjustment.Amount(), "15000.00"; got != want {
		t.Errorf("adjustment = %s, want %s", got, want)
	}
	if r.AdjustmentCode != "B" {
		t.Errorf("adjustment code = %q, want B", r.AdjustmentCode)
	}
	if r.Period != LongTerm {
		t.Errorf("period = %v, want long-term", r.Period)
	}
	if r.Category != CategoryD {
		t.Errorf("category = %v, want D", r.Category)
	}
	if !r.OrdinaryIncome.IsZero() {
		t.Errorf("RSU sale must produce no ordinary income, got %s", r.OrdinaryIncome.Amount())
	}
}

// With a correct broker basis there is nothing to adjust and no code.
func TestCorrectBasisNoAdjustmentWhenBrokerIsRight(t *testing.T) {
	lot := newLot("lot-1", NSO, "ACME", NewDate(2023, time.May, 15), 100, 150)
	sale := newSale("ACME", NewDate(2024, time.June, 10), 100, 175)
	sale.BasisKnown = true

	r, err := CorrectBasis(lot, sale, Q(100), USD(15000), true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Adjustment.IsZero() {
		t.Errorf("adjustment = %s, want zero", r.Adjustment.Amount())
	}
	if r.AdjustmentCode != "" {
		t.Errorf("adjustment code = %q, want none", r.AdjustmentCode)
	}
}

// Without a 1099-B basis there is no adjustment column at all; the category
// reflects the unreported basis.
func TestCorrectBasisUnknownBroker(t *testing.T) {
	lot := newLot("lot-1", RSU, "ACME", NewDate(2024, time.January, 15), 100, 150)
	sale := newSale("ACME", NewDate(2024, time.June, 10), 100, 175)

	r, err := CorrectBasis(lot, sale, Q(100), USD(0), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Adjustment.IsZero() || r.AdjustmentCode != "" {
		t.Errorf("unknown basis must not produce an adjustment, got %s %q", r.Adjustment.Amount(), r.AdjustmentCode)
	}
	if r.Category != CategoryB {
		t.Errorf("category = %v, want B (short-term, basis not reported)", r.Category)
	}
}

func TestForm8949Categories(t *testing.T) {
	tests := []struct {
		period   HoldingPeriod
		reported bool
		has1099B bool
		want     Form8949Category
	}{
		{ShortTerm, true, true, CategoryA},
		{ShortTerm, false, true, CategoryB},
		{ShortTerm, false, false, CategoryC},
		{LongTerm, true, true, CategoryD},
		{LongTerm, false, true, CategoryE},
		{LongTerm, false, false, CategoryF},
	}
	for _, tt := range tests {
		if got := form8949Category(tt.period, tt.reported, tt.has1099B); got != tt.want {
			t.Errorf("form8949Category(%v, %v, %v) = %v, want %v", tt.period, tt.reported, tt.has1099B, got, tt.want)
		}
	}
}

func TestCorrectBasisPartialLot(t *testing.T) {
	lot := newLot("lot-1", RSU, "ACME", NewDate(2023, time.May, 15), 100, 150)
	sale := newSale("ACME", NewDate(2024, time.June, 10), 40, 175)
	sale.BasisKnown = true

	r, err := CorrectBasis(lot, sale, Q(40), USD(0), true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := r.CorrectBasis.Amount(), "6000.00"; got != want {
		t.Errorf("correct basis = %s, want %s", got, want)
	}
	if got, want := r.Proceeds.Amount(), "7000.00"; got != want {
		t.Errorf("proceeds = %s, want %s", got, want)
	}
}

package taxlot

import (
	"testing"
	"time"
)

func esppPurchase(offering, purchase Date, paid, fmv, fmvOffering float64, shares int) *EquityEvent {
	return &EquityEvent{
		ID:            "ev-1",
		Type:          ESPP,
		Security:      NewSecurity("ACME", ""),
		GrantDate:     offering,
		EventDate:     purchase,
		Shares:        Q(shares),
		PricePaid:     USD(paid),
		FMV:           USD(fmv),
		FMVAtOffering: USD(fmvOffering),
	}
}

// Sold within a year of purchase: the full purchase discount is compensation
// and is added to basis.
func TestESPPDisqualifying(t *testing.T) {
	purchase := esppPurchase(NewDate(2023, time.January, 1), NewDate(2023, time.June, 30), 127.50, 150, 140, 50)
	sale := newSale("ACME", NewDate(2024, time.February, 1), 50, 160)

	disp, err := ComputeESPPDisposition(sale, Q(50), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp.Qualifying {
		t.Fatal("sale within a year of purchase must be disqualifying")
	}
	if got, want := disp.OrdinaryIncome.Amount(), "1125.00"; got != want {
		t.Errorf("ordinary income = %s, want %s", got, want)
	}
	if got, want := disp.AdjustedBasis.Amount(), "7500.00"; got != want {
		t.Errorf("adjusted basis = %s, want %s", got, want)
	}
	if got, want := disp.CapitalGainLoss.Amount(), "500.00"; got != want {
		t.Errorf("capital gain = %s, want %s", got, want)
	}
}

// Both holding periods met: ordinary income is the lesser of the discount at
// offering and the actual gain.
func TestESPPQualifying(t *testing.T) {
	purchase := esppPurchase(NewDate(2021, time.January, 1), NewDate(2021, time.June, 30), 127.50, 150, 140, 50)
	sale := newSale("ACME", NewDate(2024, time.February, 1), 50, 200)

	disp, err := ComputeESPPDisposition(sale, Q(50), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !disp.Qualifying {
		t.Fatal("sale after both holding periods must be qualifying")
	}
	// Discount at offering: 140 - 127.50 = 12.50/share, less than the
	// 72.50/share actual gain.
	if got, want := disp.OrdinaryIncome.Amount(), "625.00"; got != want {
		t.Errorf("ordinary income = %s, want %s", got, want)
	}
	if got, want := disp.AdjustedBasis.Amount(), "7000.00"; got != want {
		t.Errorf("adjusted basis = %s, want %s", got, want)
	}
	if got, want := disp.CapitalGainLoss.Amount(), "3000.00"; got != want {
		t.Errorf("capital gain = %s, want %s", got, want)
	}
}

// A qualifying sale at a loss yields zero ordinary income, never negative.
func TestESPPQualifyingAtLoss(t *testing.T) {
	purchase := esppPurchase(NewDate(2021, time.January, 1), NewDate(2021, time.June, 30), 127.50, 150, 140, 50)
	sale := newSale("ACME", NewDate(2024, time.February, 1), 50, 100)

	disp, err := ComputeESPPDisposition(sale, Q(50), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !disp.OrdinaryIncome.IsZero() {
		t.Errorf("ordinary income = %s, want zero", disp.OrdinaryIncome.Amount())
	}
	if got, want := disp.CapitalGainLoss.Amount(), "-1375.00"; got != want {
		t.Errorf("capital loss = %s, want %s", got, want)
	}
}

// A disqualifying sale below the purchase-date FMV still recognizes the full
// bargain element alongside the capital loss.
func TestESPPDisqualifyingAtLoss(t *testing.T) {
	purchase := esppPurchase(NewDate(2023, time.January, 1), NewDate(2023, time.June, 30), 127.50, 150, 140, 50)
	sale := newSale("ACME", NewDate(2023, time.December, 1), 50, 130)

	disp, err := ComputeESPPDisposition(sale, Q(50), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := disp.OrdinaryIncome.Amount(), "1125.00"; got != want {
		t.Errorf("ordinary income = %s, want %s", got, want)
	}
	if got, want := disp.CapitalGainLoss.Amount(), "-1000.00"; got != want {
		t.Errorf("capital loss = %s, want %s", got, want)
	}
}

// The qualifying test is strict: selling exactly on the boundary dates is
// still disqualifying.
func TestESPPBoundaryDates(t *testing.T) {
	purchase := esppPurchase(NewDate(2022, time.January, 15), NewDate(2022, time.June, 30), 90, 100, 100, 10)

	onOffering := newSale("ACME", NewDate(2024, time.January, 15), 10, 120)
	disp, err := ComputeESPPDisposition(onOffering, Q(10), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if disp.Qualifying {
		t.Error("sale exactly two years after offering must be disqualifying")
	}

	dayAfter := newSale("ACME", NewDate(2024, time.January, 16), 10, 120)
	disp, err = ComputeESPPDisposition(dayAfter, Q(10), purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !disp.Qualifying {
		t.Error("sale the day after both tests pass must be qualifying")
	}
}

func TestESPPMissingEvent(t *testing.T) {
	sale := newSale("ACME", NewDate(2024, time.February, 1), 50, 160)
	if _, err := ComputeESPPDisposition(sale, Q(50), nil); !IsKind(err, KindComputation) {
		t.Errorf("expected a computation error, got %v", err)
	}
}

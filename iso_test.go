package taxlot

import (
	"testing"
	"time"
)

func isoExercise(grant, exercise Date, strike, fmv float64, shares int) *EquityEvent {
	return &EquityEvent{
		ID:        "ev-1",
		Type:      ISO,
		Security:  NewSecurity("ACME", ""),
		GrantDate: grant,
		EventDate: exercise,
		Shares:    Q(shares),
		PricePaid: USD(strike),
		FMV:       USD(fmv),
	}
}

func isoLot(exercise *EquityEvent) *Lot {
	return &Lot{
		ID:              "lot-1",
		Type:            ISO,
		Security:        exercise.Security,
		AcquisitionDate: exercise.EventDate,
		Shares:          exercise.Shares,
		CostPerShare:    exercise.PricePaid,
		AMTCostPerShare: exercise.FMV,
		SourceEventID:   exercise.ID,
		SharesRemaining: exercise.Shares,
	}
}

func TestAMTPreference(t *testing.T) {
	ex := isoExercise(NewDate(2022, time.March, 1), NewDate(2024, time.March, 1), 50, 120, 200)
	pref, err := ComputeAMTPreference(ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := pref.Preference.Amount(), "14000.00"; got != want {
		t.Errorf("preference = %s, want %s", got, want)
	}
	if got, want := pref.RegularBasis.Amount(), "10000.00"; got != want {
		t.Errorf("regular basis = %s, want %s", got, want)
	}
	if got, want := pref.AMTBasis.Amount(), "24000.00"; got != want {
		t.Errorf("amt basis = %s, want %s", got, want)
	}
}

// A qualifying sale: all gain is capital, and the AMT adjustment reverses the
// exercise-year preference.
func TestISOQualifyingSale(t *testing.T) {
	ex := isoExercise(NewDate(2021, time.March, 1), NewDate(2023, time.April, 1), 50, 120, 200)
	lot := isoLot(ex)
	sale := newSale("ACME", NewDate(2024, time.June, 1), 200, 150)
	sale.BasisKnown = true

	r, err := CorrectBasis(lot, sale, Q(200), USD(10000), true, ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.OrdinaryIncome.IsZero() {
		t.Errorf("qualifying sale ordinary income = %s, want zero", r.OrdinaryIncome.Amount())
	}
	if got, want := r.GainLoss.Amount(), "20000.00"; got != want {
		t.Errorf("regular gain = %s, want %s", got, want)
	}
	// Regular gain 20000 vs AMT gain 6000: the sale-year AMT adjustment is the
	// 14000 preference taxed at exercise.
	if got, want := r.AMTAdjustment.Amount(), "14000.00"; got != want {
		t.Errorf("amt adjustment = %s, want %s", got, want)
	}
	if r.Period != LongTerm {
		t.Errorf("period = %v, want long-term", r.Period)
	}
}

// A disqualifying sale converts the spread into compensation, capped by the
// actual gain, without touching the regular basis.
func TestISODisqualifyingSale(t *testing.T) {
	ex := isoExercise(NewDate(2023, time.March, 1), NewDate(2024, time.February, 1), 50, 120, 200)
	lot := isoLot(ex)
	sale := newSale("ACME", NewDate(2024, time.August, 1), 200, 150)

	r, err := CorrectBasis(lot, sale, Q(200), USD(0), false, ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Spread at exercise is 14000, actual gain 20000: compensation is the
	// full spread.
	if got, want := r.OrdinaryIncome.Amount(), "14000.00"; got != want {
		t.Errorf("ordinary income = %s, want %s", got, want)
	}
	if got, want := r.GainLoss.Amount(), "20000.00"; got != want {
		t.Errorf("regular gain = %s, want %s", got, want)
	}
	if got, want := r.CorrectBasis.Amount(), "10000.00"; got != want {
		t.Errorf("basis = %s, want strike only (%s)", got, want)
	}
	if r.Period != ShortTerm {
		t.Errorf("period = %v, want short-term", r.Period)
	}
}

// Selling below the exercise FMV caps the compensation at the actual gain.
func TestISODisqualifyingCappedByGain(t *testing.T) {
	ex := isoExercise(NewDate(2023, time.March, 1), NewDate(2024, time.February, 1), 50, 120, 200)
	lot := isoLot(ex)
	sale := newSale("ACME", NewDate(2024, time.August, 1), 200, 80)

	r, err := CorrectBasis(lot, sale, Q(200), USD(0), false, ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Gain is (80-50) x 200 = 6000, below the 14000 spread.
	if got, want := r.OrdinaryIncome.Amount(), "6000.00"; got != want {
		t.Errorf("ordinary income = %s, want %s", got, want)
	}
}

// A lot ingested without its FMV-at-exercise basis has a zero spread; the
// disqualifying sale must not report negative compensation.
func TestISODisqualifyingWithoutAMTBasis(t *testing.T) {
	ex := isoExercise(NewDate(2023, time.March, 1), NewDate(2024, time.February, 1), 50, 120, 200)
	lot := isoLot(ex)
	lot.AMTCostPerShare = USD(0)
	sale := newSale("ACME", NewDate(2024, time.August, 1), 200, 150)

	r, err := CorrectBasis(lot, sale, Q(200), USD(0), false, ex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.OrdinaryIncome.IsZero() {
		t.Errorf("ordinary income = %s, want zero", r.OrdinaryIncome.Amount())
	}
	if got, want := r.GainLoss.Amount(), "20000.00"; got != want {
		t.Errorf("regular gain = %s, want %s", got, want)
	}
}

func TestISOMissingEventFails(t *testing.T) {
	ex := isoExercise(NewDate(2023, time.March, 1), NewDate(2024, time.February, 1), 50, 120, 200)
	lot := isoLot(ex)
	sale := newSale("ACME", NewDate(2024, time.August, 1), 200, 150)

	if _, err := CorrectBasis(lot, sale, Q(200), USD(0), false, nil); !IsKind(err, KindComputation) {
		t.Errorf("expected a computation error, got %v", err)
	}
}

func TestComputeAMTCredit(t *testing.T) {
	tests := []struct {
		name                       string
		credit, regular, tentative float64
		usable, remaining          string
	}{
		{"full credit fits", 5000, 40000, 30000, "5000.00", "0.00"},
		{"headroom caps credit", 12000, 40000, 30000, "10000.00", "2000.00"},
		{"no headroom", 5000, 30000, 40000, "0.00", "5000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usable, remaining := ComputeAMTCredit(USD(tt.credit), USD(tt.regular), USD(tt.tentative))
			if got := usable.Amount(); got != tt.usable {
				t.Errorf("usable = %s, want %s", got, tt.usable)
			}
			if got := remaining.Amount(); got != tt.remaining {
				t.Errorf("remaining = %s, want %s", got, tt.remaining)
			}
		})
	}
}

package taxlot

// AMTPreference is the preference item created by an ISO exercise: the
// bargain element is income for AMT in the exercise year even though regular
// tax sees nothing until sale.
type AMTPreference struct {
	// Preference is (FMV at exercise - strike) x shares.
	Preference Money
	// RegularBasis is strike x shares.
	RegularBasis Money
	// AMTBasis is FMV at exercise x shares.
	AMTBasis Money
}

// ComputeAMTPreference computes the preference item for one ISO exercise event.
func ComputeAMTPreference(exercise *EquityEvent) (AMTPreference, error) {
	if exercise == nil {
		return AMTPreference{}, Errorf(KindComputation, "ISO exercise event is missing")
	}
	spread := exercise.FMV.Sub(exercise.PricePaid)
	return AMTPreference{
		Preference:   spread.Mul(exercise.Shares),
		RegularBasis: exercise.PricePaid.Mul(exercise.Shares),
		AMTBasis:     exercise.FMV.Mul(exercise.Shares),
	}, nil
}

// ComputeAMTCredit determines how much of a prior-year minimum tax credit is
// usable this year. The credit can only offset regular tax down to the
// tentative minimum tax, never below it.
func ComputeAMTCredit(priorCredit, regularTax, tentativeMinimumTax Money) (usable, remaining Money) {
	headroom := MaxMoney(regularTax.Sub(tentativeMinimumTax), USD(0))
	usable = MinMoney(priorCredit, headroom)
	remaining = priorCredit.Sub(usable)
	return usable, remaining
}

package taxlot

// basisFunc computes the tax-law-correct numbers for one (sale, lot)
// allocation. brokerBasis is the pro-rata share of the broker-reported basis
// for this lot; event is the lot's source event, nil when unknown.
type basisFunc func(lot *Lot, sale Sale, shares Quantity, brokerBasis Money, basisKnown bool, event *EquityEvent) (SaleResult, error)

// basisEngines dispatches correction by equity type.
var basisEngines = map[EquityType]basisFunc{
	RSU:  correctVestBasis,
	NSO:  correctVestBasis,
	ESPP: correctESPPBasis,
	ISO:  correctISOBasis,
}

// CorrectBasis computes the SaleResult for shares of a sale allocated to a
// lot. An unsupported equity type is a computation error, fatal for this lot
// only.
func CorrectBasis(lot *Lot, sale Sale, shares Quantity, brokerBasis Money, basisKnown bool, event *EquityEvent) (SaleResult, error) {
	engine, ok := basisEngines[lot.Type]
	if !ok {
		return SaleResult{}, Errorf(KindComputation, "sale %s: unsupported equity type %q", sale.ID, lot.Type)
	}
	return engine(lot, sale, shares, brokerBasis, basisKnown, event)
}

// correctVestBasis handles RSU and NSO lots. The correct basis is the FMV at
// vest (RSU) or strike plus recognized income (NSO), both already captured in
// the lot's cost per share. The recognized income went through the W-2, so no
// ordinary income arises at sale.
func correctVestBasis(lot *Lot, sale Sale, shares Quantity, brokerBasis Money, basisKnown bool, _ *EquityEvent) (SaleResult, error) {
	correct := lot.CostPerShare.Mul(shares)
	proceeds := sale.Proceeds(shares)
	r := newSaleResult(lot, sale, shares)
	r.Proceeds = proceeds
	r.CorrectBasis = correct
	r.GainLoss = proceeds.Sub(correct)
	applyAdjustment(&r, brokerBasis, basisKnown)
	return r, nil
}

// correctESPPBasis delegates to the ESPP engine for the §423 disposition
// classification.
func correctESPPBasis(lot *Lot, sale Sale, shares Quantity, brokerBasis Money, basisKnown bool, event *EquityEvent) (SaleResult, error) {
	disp, err := ComputeESPPDisposition(sale, shares, event)
	if err != nil {
		return SaleResult{}, err
	}
	r := newSaleResult(lot, sale, shares)
	r.Proceeds = sale.Proceeds(shares)
	r.CorrectBasis = disp.AdjustedBasis
	r.OrdinaryIncome = disp.OrdinaryIncome
	r.GainLoss = disp.CapitalGainLoss
	if disp.Qualifying {
		r.Note = "ESPP qualifying disposition"
	} else {
		r.Note = "ESPP disqualifying disposition"
	}
	applyAdjustment(&r, brokerBasis, basisKnown)
	return r, nil
}

// correctISOBasis computes regular and AMT gain separately on the lot's dual
// basis. The AMT adjustment reverses the exercise-year preference item.
// Unlike ESPP, disqualifying ordinary income is never added to the ISO basis.
func correctISOBasis(lot *Lot, sale Sale, shares Quantity, brokerBasis Money, basisKnown bool, event *EquityEvent) (SaleResult, error) {
	if event == nil {
		return SaleResult{}, Errorf(KindComputation, "sale %s: ISO lot %s has no source exercise event", sale.ID, lot.ID)
	}

	proceeds := sale.Proceeds(shares)
	regularBasis := lot.CostPerShare.Mul(shares) // strike
	amtBasis := lot.AMTCostPerShare.Mul(shares)  // FMV at exercise
	regularGain := proceeds.Sub(regularBasis)
	amtGain := proceeds.Sub(amtBasis)

	r := newSaleResult(lot, sale, shares)
	r.Proceeds = proceeds
	r.CorrectBasis = regularBasis
	r.GainLoss = regularGain
	r.AMTAdjustment = regularGain.Sub(amtGain)

	grantTest := event.GrantDate.AddYears(2)
	exerciseTest := lot.AcquisitionDate.AddYears(1)
	qualifying := sale.SaleDate.After(grantTest) && sale.SaleDate.After(exerciseTest)
	if qualifying {
		r.Note = "ISO qualifying disposition"
	} else {
		// A lot missing its AMT basis must not produce negative income.
		spread := MaxMoney(amtBasis.Sub(regularBasis), USD(0))
		r.OrdinaryIncome = MinMoney(MaxMoney(regularGain, USD(0)), spread)
		r.Note = "ISO disqualifying disposition"
	}

	applyAdjustment(&r, brokerBasis, basisKnown)
	return r, nil
}

func newSaleResult(lot *Lot, sale Sale, shares Quantity) SaleResult {
	period := holdingPeriod(lot.AcquisitionDate, sale.SaleDate)
	return SaleResult{
		SaleID:          sale.ID,
		LotID:           lot.ID,
		Security:        lot.Security,
		Type:            lot.Type,
		AcquisitionDate: lot.AcquisitionDate,
		SaleDate:        sale.SaleDate,
		Shares:          shares,
		Period:          period,
		Category:        form8949Category(period, sale.BasisKnown, sale.Has1099B),
	}
}

// applyAdjustment fills the Form 8949 column (g) amount.
// The adjustment is zero when the broker reported no basis at all.
func applyAdjustment(r *SaleResult, brokerBasis Money, basisKnown bool) {
	if !basisKnown {
		return
	}
	r.BrokerBasis = brokerBasis
	r.Adjustment = r.CorrectBasis.Sub(brokerBasis)
	if !r.Adjustment.IsZero() {
		r.AdjustmentCode = "B"
	}
}

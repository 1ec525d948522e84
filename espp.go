package taxlot

// ESPPDisposition is the outcome of classifying an ESPP sale under the
// IRC §423 holding-period tests.
type ESPPDisposition struct {
	Qualifying bool
	// OrdinaryIncome is the total compensation element for the shares sold.
	OrdinaryIncome Money
	// AdjustedBasis is purchase price times shares plus the ordinary income.
	// Unlike ISOs, ESPP ordinary income is added to basis.
	AdjustedBasis   Money
	CapitalGainLoss Money
}

// ComputeESPPDisposition classifies an ESPP sale and computes its ordinary
// income and adjusted basis. purchase is the source purchase event of the lot
// and carries the offering date, purchase price and the two FMV snapshots.
//
// A disposition is qualifying only when the sale date is strictly after both
// offering date + 2 years and purchase date + 1 year.
func ComputeESPPDisposition(sale Sale, shares Quantity, purchase *EquityEvent) (ESPPDisposition, error) {
	if purchase == nil {
		return ESPPDisposition{}, Errorf(KindComputation, "sale %s: ESPP lot has no source purchase event", sale.ID)
	}

	offeringTest := purchase.GrantDate.AddYears(2)
	purchaseTest := purchase.EventDate.AddYears(1)
	qualifying := sale.SaleDate.After(offeringTest) && sale.SaleDate.After(purchaseTest)

	purchasePrice := purchase.PricePaid

	var oiPerShare Money
	if qualifying {
		// Lesser of the actual discount at sale and the discount computed at
		// the offering, floored at zero. A qualifying sale at a loss yields
		// no ordinary income.
		atSale := sale.ProceedsPerShare.Sub(purchasePrice)
		atOffering := purchase.FMVAtOffering.Sub(purchasePrice)
		oiPerShare = MaxMoney(USD(0), MinMoney(atSale, atOffering))
	} else {
		// The full bargain element at purchase is compensation, regardless of
		// later price movement. It can coexist with a capital loss.
		oiPerShare = purchase.FMV.Sub(purchasePrice)
	}

	ordinaryIncome := oiPerShare.Mul(shares)
	adjustedBasis := purchasePrice.Mul(shares).Add(ordinaryIncome)
	gainLoss := sale.Proceeds(shares).Sub(adjustedBasis)

	return ESPPDisposition{
		Qualifying:      qualifying,
		OrdinaryIncome:  ordinaryIncome,
		AdjustedBasis:   adjustedBasis,
		CapitalGainLoss: gainLoss,
	}, nil
}

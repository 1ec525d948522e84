package taxlot

import "fmt"

// EquityEvent is the immutable record of a vest, exercise, or purchase
// transaction. Lots keep a weak back-reference to their source event through
// SourceEventID; an event is never owned by a lot.
type EquityEvent struct {
	ID       string
	Type     EquityType
	Security Security
	// GrantDate is the option grant date (ISO/NSO) or the offering start
	// (ESPP). Zero for RSUs.
	GrantDate Date
	// EventDate is the vest, exercise, or purchase date.
	EventDate Date
	Shares    Quantity
	// PricePaid is the strike (ISO/NSO) or the discounted purchase price
	// (ESPP), per share. Zero for RSUs.
	PricePaid Money
	// FMV is the fair market value per share on the event date.
	FMV Money
	// FMVAtOffering is the fair market value per share on the offering start
	// date. ESPP only.
	FMVAtOffering Money
}

// Lot is one acquisition of shares. SharesRemaining is the only mutable
// field; it is decremented exclusively by the reconciliation orchestrator and
// holds 0 <= SharesRemaining <= Shares at all times.
type Lot struct {
	ID              string
	Type            EquityType
	Security        Security
	AcquisitionDate Date
	Shares          Quantity
	CostPerShare    Money
	// AMTCostPerShare is the FMV-at-exercise basis of an ISO lot. Zero when
	// the lot has no dual basis.
	AMTCostPerShare Money
	// SourceEventID is a weak reference to the EquityEvent this lot came from.
	SourceEventID string
	// AutoCreated marks a synthetic lot fabricated from a sale's own reported
	// data when no acquisition records exist. A data-gap artifact, not a fact.
	AutoCreated bool

	SharesRemaining Quantity
}

// consume decrements SharesRemaining. Only the orchestrator calls it.
func (l *Lot) consume(q Quantity) error {
	if q.IsNegative() || q.GreaterThan(l.SharesRemaining) {
		return Errorf(KindComputation, "lot %s: cannot consume %s of %s remaining shares", l.ID, q, l.SharesRemaining)
	}
	l.SharesRemaining = l.SharesRemaining.Sub(q)
	return nil
}

// Sale is the immutable disposal input, typically one 1099-B row.
type Sale struct {
	ID       string
	Security Security
	SaleDate Date
	// Shares may be zero on 1099-B imports; the orchestrator then tries to
	// infer the count from the reported basis.
	Shares           Quantity
	ProceedsPerShare Money
	// BrokerBasis is the total basis the broker reported, valid only when
	// BasisKnown is true.
	BrokerBasis Money
	BasisKnown  bool
	// Has1099B is false for dispositions with no broker statement at all
	// (Form 8949 boxes C and F).
	Has1099B bool
	// LotID optionally pre-assigns the lot for specific-identification.
	LotID string
}

// Proceeds returns the total proceeds for the given share count.
func (s Sale) Proceeds(shares Quantity) Money {
	return s.ProceedsPerShare.Mul(shares)
}

// Allocation pairs a lot with the number of shares a sale takes from it.
type Allocation struct {
	Lot    *Lot
	Shares Quantity
}

// SaleResult is the output of basis correction for one (sale, lot) pair.
// A multi-lot sale yields several results sharing a SaleID.
type SaleResult struct {
	ID              string
	SaleID          string
	LotID           string
	Security        Security
	Type            EquityType
	AcquisitionDate Date
	SaleDate        Date
	Shares          Quantity

	Proceeds     Money
	CorrectBasis Money
	// BrokerBasis is the pro-rata share of the broker-reported basis
	// apportioned to this lot.
	BrokerBasis Money
	// Adjustment is CorrectBasis - BrokerBasis, the Form 8949 column (g)
	// amount. Zero when the broker reported no basis.
	Adjustment Money
	// AdjustmentCode is "B" iff Adjustment is non-zero.
	AdjustmentCode string

	OrdinaryIncome Money
	AMTAdjustment  Money
	GainLoss       Money

	Period   HoldingPeriod
	Category Form8949Category
	Note     string
}

// MarshalJSON writes all monetary values as exact-decimal strings.
func (r SaleResult) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", r.ID)
	w.Append("sale_id", r.SaleID)
	w.Append("lot_id", r.LotID)
	w.Append("security", r.Security.String())
	w.Append("equity_type", r.Type.String())
	w.Append("acquisition_date", r.AcquisitionDate)
	w.Append("sale_date", r.SaleDate)
	w.Append("shares", r.Shares)
	w.Append("proceeds", r.Proceeds.Amount())
	w.Append("correct_basis", r.CorrectBasis.Amount())
	w.Append("broker_basis", r.BrokerBasis.Amount())
	w.Append("adjustment", r.Adjustment.Amount())
	w.Optional("adjustment_code", r.AdjustmentCode)
	w.Append("ordinary_income", r.OrdinaryIncome.Amount())
	w.Append("amt_adjustment", r.AMTAdjustment.Amount())
	w.Append("gain_loss", r.GainLoss.Amount())
	w.Append("holding_period", r.Period.String())
	w.Append("form_8949_category", string(r.Category))
	w.Optional("note", r.Note)
	return w.MarshalJSON()
}

// holdingPeriod classifies a disposal. The period starts the day after
// acquisition, so long-term requires sale_date >= acquisition + 1 day + 1 year.
func holdingPeriod(acquisition, sale Date) HoldingPeriod {
	threshold := acquisition.Add(1).AddYears(1)
	if sale.Before(threshold) {
		return ShortTerm
	}
	return LongTerm
}

func (r SaleResult) String() string {
	return fmt.Sprintf("sale %s lot %s: %s shares, gain %s (%s, %s)",
		r.SaleID, r.LotID, r.Shares, r.GainLoss.SignedString(), r.Period, r.Category)
}

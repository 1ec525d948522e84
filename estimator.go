package taxlot

import (
	"github.com/shopspring/decimal"
)

// TaxInput is the aggregated income snapshot the estimator consumes. Gains
// and ordinary income from equity sales come out of a reconciliation run;
// everything else comes from W-2/1099 forms. Carryover losses are positive
// magnitudes.
type TaxInput struct {
	Year   int
	Status FilingStatus

	Wages              Money
	InterestIncome     Money
	OrdinaryDividends  Money // includes the qualified portion
	QualifiedDividends Money
	OtherIncome        Money

	ShortTermGain Money // net short-term gain/loss for the year
	LongTermGain  Money // net long-term gain/loss for the year
	// EquityOrdinaryIncome is the ESPP/ISO-disqualifying compensation from
	// reconciliation. Brokers usually fold it into the W-2; a warning flags
	// the double-count risk when both are present.
	EquityOrdinaryIncome Money
	// ISOPreference is the AMT preference item from ISO exercises this year.
	ISOPreference  Money
	PriorAMTCredit Money

	ShortTermCarryover Money // prior-year short-term loss carried in, positive
	LongTermCarryover  Money // prior-year long-term loss carried in, positive

	// Itemized deduction inputs.
	StateIncomeTaxPaid Money
	PropertyTax        Money
	MortgageInterest   Money
	Charitable         Money
	MedicalExpenses    Money
}

// TaxEstimate is the pure aggregate output of a full federal + California
// estimation.
type TaxEstimate struct {
	Year   int
	Status FilingStatus

	AGI Money

	FederalDeduction     Money
	FederalItemized      bool
	FederalTaxableIncome Money
	OrdinaryTax          Money
	LTCGTax              Money
	RegularTax           Money
	TentativeMinimumTax  Money
	AMT                  Money
	AMTCreditUsed        Money
	AMTCreditRemaining   Money
	NIIT                 Money
	TotalFederalTax      Money

	CADeduction     Money
	CAItemized      bool
	CATaxableIncome Money
	CATax           Money
	CASurtax        Money
	TotalCATax      Money

	TotalTax      Money
	EffectiveRate decimal.Decimal

	CapitalLossAllowed    Money // net capital loss deducted this year, positive
	ShortTermCarryforward Money
	LongTermCarryforward  Money

	Warnings []string
}

// MarshalJSON writes all monetary values as exact-decimal strings.
func (e TaxEstimate) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("year", e.Year)
	w.Append("filing_status", e.Status.String())
	w.Append("agi", e.AGI.Amount())
	w.Append("federal_deduction", e.FederalDeduction.Amount())
	w.Append("federal_itemized", e.FederalItemized)
	w.Append("federal_taxable_income", e.FederalTaxableIncome.Amount())
	w.Append("ordinary_tax", e.OrdinaryTax.Amount())
	w.Append("ltcg_tax", e.LTCGTax.Amount())
	w.Append("regular_tax", e.RegularTax.Amount())
	w.Append("tentative_minimum_tax", e.TentativeMinimumTax.Amount())
	w.Append("amt", e.AMT.Amount())
	w.Append("amt_credit_used", e.AMTCreditUsed.Amount())
	w.Append("amt_credit_remaining", e.AMTCreditRemaining.Amount())
	w.Append("niit", e.NIIT.Amount())
	w.Append("total_federal_tax", e.TotalFederalTax.Amount())
	w.Append("ca_deduction", e.CADeduction.Amount())
	w.Append("ca_itemized", e.CAItemized)
	w.Append("ca_taxable_income", e.CATaxableIncome.Amount())
	w.Append("ca_tax", e.CATax.Amount())
	w.Append("ca_surtax", e.CASurtax.Amount())
	w.Append("total_ca_tax", e.TotalCATax.Amount())
	w.Append("total_tax", e.TotalTax.Amount())
	w.Append("effective_rate", e.EffectiveRate.StringFixed(4))
	w.Append("capital_loss_allowed", e.CapitalLossAllowed.Amount())
	w.Append("short_term_carryforward", e.ShortTermCarryforward.Amount())
	w.Append("long_term_carryforward", e.LongTermCarryforward.Amount())
	w.Append("warnings", e.Warnings)
	return w.MarshalJSON()
}

// Estimator computes full federal + California liability from an income
// snapshot. It is pure; the only state is the parameter table registry.
type Estimator struct {
	Tables *Tables
}

// NewEstimator returns an estimator over the given table registry, or the
// built-in defaults when nil.
func NewEstimator(tables *Tables) *Estimator {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Estimator{Tables: tables}
}

// Estimate computes the TaxEstimate for one filer-year snapshot.
func (est *Estimator) Estimate(input TaxInput) (*TaxEstimate, error) {
	table, err := est.Tables.ForYear(input.Year)
	if err != nil {
		return nil, err
	}
	params, err := table.params(input.Status)
	if err != nil {
		return nil, err
	}

	e := &TaxEstimate{Year: input.Year, Status: input.Status, Warnings: []string{}}

	if input.EquityOrdinaryIncome.IsPositive() && input.Wages.IsPositive() {
		e.Warnings = append(e.Warnings,
			"equity ordinary income supplied alongside wages: verify it is not already included in Box 1 of the W-2")
	}

	// 1. Capital gain netting with §1211(b) carryovers.
	net := netCapital(input, table.capitalLossCap(input.Status))
	e.CapitalLossAllowed = net.allowedLoss
	e.ShortTermCarryforward = net.stCarryforward
	e.LongTermCarryforward = net.ltCarryforward
	if net.capped {
		e.Warnings = append(e.Warnings, "net capital loss exceeds the annual limit; excess carries forward")
	}

	// 2. AGI.
	agi := input.Wages.
		Add(input.InterestIncome).
		Add(input.OrdinaryDividends).
		Add(input.OtherIncome).
		Add(input.EquityOrdinaryIncome).
		Add(net.capitalIncome)
	e.AGI = agi

	// 3. Deductions, chosen independently for federal and CA.
	fedDed := federalDeduction(input, params, table, agi, e)
	caDed := californiaDeduction(input, params, table, agi)
	e.FederalDeduction = fedDed.amount
	e.FederalItemized = fedDed.itemized
	e.CADeduction = caDed.amount
	e.CAItemized = caDed.itemized

	// 4. Federal taxable income and the preferential split. Preferential
	// income sits atop ordinary income in the combined ladder.
	taxable := MaxMoney(agi.Sub(fedDed.amount), USD(0))
	e.FederalTaxableIncome = taxable
	preferential := MaxMoney(net.longTermGain.Add(input.QualifiedDividends), USD(0))
	preferential = MinMoney(preferential, taxable)
	ordinaryTaxable := taxable.Sub(preferential)

	e.OrdinaryTax = bracketTax(ordinaryTaxable, params.Brackets)
	e.LTCGTax = stackedTax(preferential, ordinaryTaxable, params.LTCGBrackets)
	e.RegularTax = e.OrdinaryTax.Add(e.LTCGTax).Round(2)

	// 5. AMT on the parallel base.
	tmt := tentativeMinimumTax(taxable, preferential, fedDed.amtAddback, input.ISOPreference, params, table, input.Status)
	e.TentativeMinimumTax = tmt
	e.AMT = MaxMoney(tmt.Sub(e.RegularTax), USD(0)).Round(2)

	// 6. Prior-year minimum tax credit, usable only down to the TMT floor.
	e.AMTCreditUsed, e.AMTCreditRemaining = ComputeAMTCredit(input.PriorAMTCredit, e.RegularTax, tmt)

	// 7. Net investment income tax.
	investment := input.InterestIncome.Add(input.OrdinaryDividends).Add(net.capitalIncome)
	over := MaxMoney(agi.Sub(params.NIITThreshold), USD(0))
	e.NIIT = MinMoney(MaxMoney(investment, USD(0)), over).MulRate(table.NIITRate).Round(2)

	e.TotalFederalTax = e.RegularTax.Add(e.AMT).Add(e.NIIT).Sub(e.AMTCreditUsed).Round(2)

	// 8. California: capital gains are ordinary income, no preferential ladder.
	caTaxable := MaxMoney(agi.Sub(caDed.amount), USD(0))
	e.CATaxableIncome = caTaxable
	e.CATax = bracketTax(caTaxable, params.CABrackets).Round(2)
	caOver := MaxMoney(caTaxable.Sub(table.CASurtaxThreshold), USD(0))
	e.CASurtax = caOver.MulRate(table.CASurtaxRate).Round(2)
	e.TotalCATax = e.CATax.Add(e.CASurtax)

	e.TotalTax = e.TotalFederalTax.Add(e.TotalCATax)
	if agi.IsPositive() {
		e.EffectiveRate = e.TotalTax.Decimal().Div(agi.Decimal()).Round(4)
	}

	return e, nil
}

// bracketTax accrues tax per bracket on income above the previous bound.
// The result is a continuous, non-decreasing function of income.
func bracketTax(income Money, brackets []Bracket) Money {
	tax := USD(0)
	prev := USD(0)
	for _, b := range brackets {
		upper := b.Upper
		if upper.IsZero() {
			upper = income // top bracket is unbounded
		}
		space := MinMoney(income, upper).Sub(prev)
		if space.IsPositive() {
			tax = tax.Add(space.MulRate(b.Rate))
		}
		if income.LessThanOrEqual(upper) {
			break
		}
		prev = upper
	}
	return tax
}

// stackedTax taxes preferential income stacked on top of ordinary income:
// each bracket's taxable space is bounded below by both the previous bound
// and the top of the ordinary income ladder.
func stackedTax(preferential, ordinaryTop Money, brackets []Bracket) Money {
	tax := USD(0)
	total := ordinaryTop.Add(preferential)
	prev := USD(0)
	for _, b := range brackets {
		upper := b.Upper
		if upper.IsZero() {
			upper = total
		}
		floor := MaxMoney(prev, ordinaryTop)
		space := MinMoney(total, upper).Sub(floor)
		if space.IsPositive() {
			tax = tax.Add(space.MulRate(b.Rate))
		}
		if total.LessThanOrEqual(upper) {
			break
		}
		prev = upper
	}
	return tax
}

// tentativeMinimumTax computes the parallel AMT liability. The exemption
// phases out 25 cents per dollar of AMTI above the threshold, floored at
// zero; preferential income keeps its capital-gains rates inside AMT.
func tentativeMinimumTax(taxable, preferential, deductionAddback, isoPreference Money, params StatusParams, table *TaxYearTable, status FilingStatus) Money {
	amti := taxable.Add(isoPreference).Add(deductionAddback)

	phaseout := MaxMoney(amti.Sub(params.AMTPhaseoutStart), USD(0)).MulRate(table.AMTPhaseoutRate)
	exemption := MaxMoney(params.AMTExemption.Sub(phaseout), USD(0))
	base := MaxMoney(amti.Sub(exemption), USD(0))

	pref := MinMoney(preferential, base)
	ordinaryBase := base.Sub(pref)

	threshold := table.amt28Threshold(status)
	low := MinMoney(ordinaryBase, threshold)
	high := MaxMoney(ordinaryBase.Sub(threshold), USD(0))
	tmt := low.MulRate(table.AMTLowRate).Add(high.MulRate(table.AMTHighRate))

	// LTCG-stacked rates on the preferential AMT base.
	tmt = tmt.Add(stackedTax(pref, ordinaryBase, params.LTCGBrackets))
	return tmt.Round(2)
}

// capitalNetting is the outcome of §1211(b) netting.
type capitalNetting struct {
	capitalIncome  Money // contribution to AGI: net gain, or -allowedLoss
	longTermGain   Money // positive long-term net, feeds the preferential split
	allowedLoss    Money // loss deducted this year, positive magnitude
	stCarryforward Money
	ltCarryforward Money
	capped         bool
}

// netCapital nets current-year gains against carryover losses. Same-character
// offsets apply first, the remainder crosses characters; a net loss is capped
// at the annual limit and the excess carries forward retaining the character
// of the bucket that absorbed it last.
func netCapital(input TaxInput, limit Money) capitalNetting {
	st := input.ShortTermGain.Sub(input.ShortTermCarryover)
	lt := input.LongTermGain.Sub(input.LongTermCarryover)

	// cross-character offset
	if st.IsNegative() && lt.IsPositive() {
		applied := MinMoney(st.Neg(), lt)
		st = st.Add(applied)
		lt = lt.Sub(applied)
	} else if lt.IsNegative() && st.IsPositive() {
		applied := MinMoney(lt.Neg(), st)
		lt = lt.Add(applied)
		st = st.Sub(applied)
	}

	net := st.Add(lt)
	out := capitalNetting{longTermGain: MaxMoney(lt, USD(0))}
	if !net.IsNegative() {
		out.capitalIncome = net
		return out
	}

	loss := net.Neg()
	out.allowedLoss = MinMoney(loss, limit)
	out.capitalIncome = out.allowedLoss.Neg()
	out.capped = loss.GreaterThan(limit)

	// Short-term loss absorbs the annual limit first; each carryforward
	// keeps its character.
	excess := loss.Sub(out.allowedLoss)
	stLoss := MaxMoney(st.Neg(), USD(0))
	stUsed := MinMoney(stLoss, out.allowedLoss)
	out.stCarryforward = stLoss.Sub(stUsed)
	out.ltCarryforward = excess.Sub(out.stCarryforward)
	return out
}

// deductionChoice is the outcome of the itemize-or-standard comparison.
type deductionChoice struct {
	amount   Money
	itemized bool
	// amtAddback is the part of the chosen deduction that AMT disallows:
	// the SALT deduction when itemizing, the whole standard deduction
	// otherwise.
	amtAddback Money
}

func federalDeduction(input TaxInput, params StatusParams, table *TaxYearTable, agi Money, e *TaxEstimate) deductionChoice {
	saltPaid := input.StateIncomeTaxPaid.Add(input.PropertyTax)
	salt := MinMoney(saltPaid, table.SALTCap)
	if saltPaid.GreaterThan(table.SALTCap) {
		e.Warnings = append(e.Warnings, "state and local taxes exceed the federal SALT cap; excess is not deductible")
	}

	medical := MaxMoney(input.MedicalExpenses.Sub(agi.MulRate(table.MedicalFloorRate)), USD(0))
	charitable := MinMoney(input.Charitable, agi.MulRate(table.CharitableCapRate))

	itemized := salt.Add(input.MortgageInterest).Add(charitable).Add(medical)
	if itemized.GreaterThan(params.StandardDeduction) {
		return deductionChoice{amount: itemized, itemized: true, amtAddback: salt}
	}
	return deductionChoice{amount: params.StandardDeduction, amtAddback: params.StandardDeduction}
}

// californiaDeduction compares CA itemized and standard deductions.
// California never conformed to the federal SALT cap but excludes its own
// income tax from the deduction.
func californiaDeduction(input TaxInput, params StatusParams, table *TaxYearTable, agi Money) deductionChoice {
	medical := MaxMoney(input.MedicalExpenses.Sub(agi.MulRate(table.MedicalFloorRate)), USD(0))
	charitable := MinMoney(input.Charitable, agi.MulRate(table.CharitableCapRate))

	itemized := input.PropertyTax.Add(input.MortgageInterest).Add(charitable).Add(medical)
	if itemized.GreaterThan(params.CAStandardDeduction) {
		return deductionChoice{amount: itemized, itemized: true}
	}
	return deductionChoice{amount: params.CAStandardDeduction}
}

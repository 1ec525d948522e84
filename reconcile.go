package taxlot

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is the persistence collaborator of the reconciliation engine. It
// holds all lots, sales, and equity events for one filer, and the per-year
// results and run summaries the engine writes back.
type Store interface {
	Lots() ([]*Lot, error)
	Events() ([]*EquityEvent, error)
	SalesForYear(year int) ([]Sale, error)

	// SaveAutoLot persists a synthetic lot fabricated for a sale of the
	// given tax year; DeleteAutoLots removes them again on re-run.
	SaveAutoLot(year int, l *Lot) error
	DeleteAutoLots(year int) error
	UpdateSharesRemaining(lotID string, remaining Quantity) error
	ResetSharesRemaining() error

	SaveResult(r SaleResult) error
	DeleteResultsForYear(year int) error
	ResultsForYear(year int) ([]SaleResult, error)

	SaveRun(run ReconciliationRun) error
}

// ReconciliationRun is the persisted record of one engine run.
type ReconciliationRun struct {
	ID          string
	Year        int
	StartedAt   time.Time
	CompletedAt time.Time
	Summary     RunSummary
}

// RunSummary aggregates one reconciliation run. The JSON keys are fixed;
// downstream report templates rely on them.
type RunSummary struct {
	TotalSales     int
	MatchedSales   int
	UnmatchedSales int

	TotalProceeds       Money
	TotalCorrectBasis   Money
	TotalGainLoss       Money
	TotalOrdinaryIncome Money
	TotalAMTAdjustment  Money

	Warnings []string
	Errors   []string
	Status   string
}

// MarshalJSON writes the summary with its fixed key set, monetary values as
// exact-decimal strings.
func (s RunSummary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("total_sales", s.TotalSales)
	w.Append("matched_sales", s.MatchedSales)
	w.Append("unmatched_sales", s.UnmatchedSales)
	w.Append("total_proceeds", s.TotalProceeds.Amount())
	w.Append("total_correct_basis", s.TotalCorrectBasis.Amount())
	w.Append("total_gain_loss", s.TotalGainLoss.Amount())
	w.Append("total_ordinary_income", s.TotalOrdinaryIncome.Amount())
	w.Append("total_amt_adjustment", s.TotalAMTAdjustment.Amount())
	w.Append("warnings", s.Warnings)
	w.Append("errors", s.Errors)
	w.Append("status", s.Status)
	return w.MarshalJSON()
}

// UnmarshalJSON restores a summary persisted through MarshalJSON.
func (s *RunSummary) UnmarshalJSON(data []byte) error {
	var aux struct {
		TotalSales          int      `json:"total_sales"`
		MatchedSales        int      `json:"matched_sales"`
		UnmatchedSales      int      `json:"unmatched_sales"`
		TotalProceeds       Money    `json:"total_proceeds"`
		TotalCorrectBasis   Money    `json:"total_correct_basis"`
		TotalGainLoss       Money    `json:"total_gain_loss"`
		TotalOrdinaryIncome Money    `json:"total_ordinary_income"`
		TotalAMTAdjustment  Money    `json:"total_amt_adjustment"`
		Warnings            []string `json:"warnings"`
		Errors              []string `json:"errors"`
		Status              string   `json:"status"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = RunSummary(aux)
	return nil
}

// ReconciliationEngine orchestrates matching and basis correction across all
// sales of a tax year. Runs are idempotent: prior results and synthetic lots
// for the year are removed and share counters reset before recomputation.
type ReconciliationEngine struct {
	store Store
	log   zerolog.Logger
}

// NewReconciliationEngine returns an engine over the given store.
func NewReconciliationEngine(store Store, log zerolog.Logger) *ReconciliationEngine {
	return &ReconciliationEngine{
		store: store,
		log:   log.With().Str("component", "reconciliation").Logger(),
	}
}

// Reconcile processes every sale of the tax year: clear prior results, load,
// match, correct, persist, summarize. Per-sale failures are recorded in the
// summary and never abort the batch; only store-level failures do.
func (e *ReconciliationEngine) Reconcile(year int) (*ReconciliationRun, error) {
	run := &ReconciliationRun{
		ID:        uuid.NewString(),
		Year:      year,
		StartedAt: time.Now(),
	}
	summary := &run.Summary
	summary.Warnings = []string{}
	summary.Errors = []string{}
	zero := USD(0)
	summary.TotalProceeds = zero
	summary.TotalCorrectBasis = zero
	summary.TotalGainLoss = zero
	summary.TotalOrdinaryIncome = zero
	summary.TotalAMTAdjustment = zero

	// step 1: make the run idempotent.
	if err := e.store.DeleteResultsForYear(year); err != nil {
		return nil, fmt.Errorf("clear prior results for %d: %w", year, err)
	}
	if err := e.store.DeleteAutoLots(year); err != nil {
		return nil, fmt.Errorf("clear auto-created lots for %d: %w", year, err)
	}
	if err := e.store.ResetSharesRemaining(); err != nil {
		return nil, fmt.Errorf("reset share counters: %w", err)
	}

	// step 2: load.
	lots, err := e.store.Lots()
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}
	events, err := e.store.Events()
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	eventByID := make(map[string]*EquityEvent, len(events))
	for _, ev := range events {
		eventByID[ev.ID] = ev
	}
	sales, err := e.store.SalesForYear(year)
	if err != nil {
		return nil, fmt.Errorf("load sales for %d: %w", year, err)
	}
	sort.SliceStable(sales, func(i, j int) bool { return sales[i].SaleDate.Before(sales[j].SaleDate) })

	summary.TotalSales = len(sales)
	e.log.Info().Int("year", year).Int("sales", len(sales)).Int("lots", len(lots)).Msg("reconciliation started")

	// step 3: per sale.
	for _, sale := range sales {
		matched := e.reconcileSale(year, sale, &lots, eventByID, summary)
		if matched {
			summary.MatchedSales++
		} else {
			summary.UnmatchedSales++
		}
	}

	switch {
	case len(summary.Errors) > 0 || summary.UnmatchedSales > 0:
		summary.Status = "completed_with_issues"
	case len(summary.Warnings) > 0:
		summary.Status = "completed_with_warnings"
	default:
		summary.Status = "completed"
	}

	run.CompletedAt = time.Now()
	if err := e.store.SaveRun(*run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	e.log.Info().
		Str("run", run.ID).
		Int("matched", summary.MatchedSales).
		Int("unmatched", summary.UnmatchedSales).
		Str("status", summary.Status).
		Msg("reconciliation finished")
	return run, nil
}

// reconcileSale matches, corrects, and persists one sale. It reports whether
// the sale found at least one lot.
func (e *ReconciliationEngine) reconcileSale(year int, sale Sale, lots *[]*Lot, events map[string]*EquityEvent, summary *RunSummary) bool {
	method := MatchFIFO
	if sale.LotID != "" {
		method = MatchSpecific
	}

	// exact-ticker first, fuzzy as fallback.
	candidates := exactTickerLots(*lots, sale)
	if len(candidates) == 0 {
		candidates = FuzzyCandidates(*lots, sale)
	}

	// 1099-B rows frequently come in with a zero share count.
	if sale.Shares.IsZero() {
		inferred, ok := inferShares(sale, candidates)
		if !ok {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("sale %s (%s): cannot infer share count, left unmatched", sale.ID, sale.Security))
			return false
		}
		sale.Shares = inferred
	}

	if len(candidates) == 0 {
		// No acquisition data at all for this security: degrade to a
		// synthetic lot built from the sale's own reported numbers.
		synthetic, err := e.autoCreateLot(year, sale)
		if err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			return false
		}
		*lots = append(*lots, synthetic)
		candidates = []*Lot{synthetic}
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("sale %s (%s): no acquisition records, auto-created lot %s from broker-reported data", sale.ID, sale.Security, synthetic.ID))
	}

	allocations := Match(candidates, sale, method)
	if len(allocations) == 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("sale %s (%s): no lot with sufficient remaining shares", sale.ID, sale.Security))
		return false
	}

	for i, alloc := range allocations {
		brokerBasis := apportionBasis(sale, allocations, i)
		result, err := CorrectBasis(alloc.Lot, sale, alloc.Shares, brokerBasis, sale.BasisKnown, events[alloc.Lot.SourceEventID])
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("sale %s lot %s: %v", sale.ID, alloc.Lot.ID, err))
			continue
		}
		result.ID = uuid.NewString()

		if err := e.store.SaveResult(result); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("sale %s lot %s: persist result: %v", sale.ID, alloc.Lot.ID, err))
			continue
		}
		if err := alloc.Lot.consume(alloc.Shares); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			continue
		}
		if err := e.store.UpdateSharesRemaining(alloc.Lot.ID, alloc.Lot.SharesRemaining); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("lot %s: persist share counter: %v", alloc.Lot.ID, err))
			continue
		}

		summary.TotalProceeds = summary.TotalProceeds.Add(result.Proceeds)
		summary.TotalCorrectBasis = summary.TotalCorrectBasis.Add(result.CorrectBasis)
		summary.TotalGainLoss = summary.TotalGainLoss.Add(result.GainLoss)
		summary.TotalOrdinaryIncome = summary.TotalOrdinaryIncome.Add(result.OrdinaryIncome)
		summary.TotalAMTAdjustment = summary.TotalAMTAdjustment.Add(result.AMTAdjustment)
	}
	return true
}

// exactTickerLots returns open lots with the sale's exact ticker.
func exactTickerLots(lots []*Lot, sale Sale) []*Lot {
	if sale.Security.Ticker() == "" {
		return nil
	}
	var out []*Lot
	for _, l := range lots {
		if l.Security.Ticker() == sale.Security.Ticker() {
			out = append(out, l)
		}
	}
	return out
}

// inferShares derives a share count for a zero-share 1099-B row. With exactly
// one open candidate lot: reported basis divided by the lot's cost per share,
// rounded to the nearest whole share, or that lot's full remaining count when
// there is no reported basis.
func inferShares(sale Sale, candidates []*Lot) (Quantity, bool) {
	var open []*Lot
	for _, l := range candidates {
		if l.SharesRemaining.IsPositive() {
			open = append(open, l)
		}
	}
	if len(open) != 1 {
		return Quantity{}, false
	}
	l := open[0]
	if sale.BasisKnown && l.CostPerShare.IsPositive() {
		return sale.BrokerBasis.DivPrice(l.CostPerShare).RoundShares(), true
	}
	if l.SharesRemaining.IsPositive() {
		return l.SharesRemaining, true
	}
	return Quantity{}, false
}

// autoCreateLot fabricates a synthetic RSU lot from a sale's own reported
// date and basis. RSU is the least precise fallback type and only used when
// no real lot exists at all, so it can never shadow an ESPP or ISO lot.
func (e *ReconciliationEngine) autoCreateLot(year int, sale Sale) (*Lot, error) {
	if !sale.Shares.IsPositive() {
		return nil, Errorf(KindDataGap, "sale %s (%s): no acquisition records and no share count to fabricate a lot from", sale.ID, sale.Security)
	}
	costPerShare := USD(0)
	if sale.BasisKnown {
		costPerShare = sale.BrokerBasis.Div(sale.Shares)
	}
	l := &Lot{
		ID:              uuid.NewString(),
		Type:            RSU,
		Security:        sale.Security,
		AcquisitionDate: sale.SaleDate,
		Shares:          sale.Shares,
		CostPerShare:    costPerShare,
		AutoCreated:     true,
		SharesRemaining: sale.Shares,
	}
	if err := e.store.SaveAutoLot(year, l); err != nil {
		return nil, fmt.Errorf("persist auto-created lot: %w", err)
	}
	e.log.Warn().Str("sale", sale.ID).Str("security", sale.Security.String()).Msg("auto-created lot for sale without acquisition data")
	return l, nil
}

// apportionBasis splits the broker-reported basis pro-rata by allocated
// shares. The final allocation takes the remainder so the parts sum exactly.
func apportionBasis(sale Sale, allocations []Allocation, index int) Money {
	if !sale.BasisKnown {
		return USD(0)
	}
	total := Quantity{}
	for _, a := range allocations {
		total = total.Add(a.Shares)
	}
	if !total.IsPositive() {
		return USD(0)
	}
	if index == len(allocations)-1 {
		rest := sale.BrokerBasis
		for i := 0; i < index; i++ {
			rest = rest.Sub(sale.BrokerBasis.Mul(allocations[i].Shares).Div(total).Round(2))
		}
		return rest
	}
	return sale.BrokerBasis.Mul(allocations[index].Shares).Div(total).Round(2)
}

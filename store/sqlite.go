// Package store provides taxlot.Store implementations: a SQLite database for
// real use and an in-memory store for tests and dry runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/mohanadkaleia/taxlot"
)

// SQLiteStore persists lots, sales, events, results, and runs for one filer.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens (or creates) the database and runs migrations.
func OpenSQLite(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.log.Info().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lots (
			id               TEXT PRIMARY KEY,
			equity_type      TEXT NOT NULL,
			ticker           TEXT,
			name             TEXT,
			acquisition_date TEXT NOT NULL,
			shares           TEXT NOT NULL,
			cost_per_share   TEXT NOT NULL,
			amt_cost_per_share TEXT,
			source_event_id  TEXT,
			auto_created     INTEGER NOT NULL DEFAULT 0,
			auto_year        INTEGER,
			shares_remaining TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id                 TEXT PRIMARY KEY,
			ticker             TEXT,
			name               TEXT,
			sale_date          TEXT NOT NULL,
			shares             TEXT NOT NULL,
			proceeds_per_share TEXT NOT NULL,
			broker_basis       TEXT,
			basis_known        INTEGER NOT NULL DEFAULT 0,
			has_1099b          INTEGER NOT NULL DEFAULT 1,
			lot_id             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date)`,
		`CREATE TABLE IF NOT EXISTS equity_events (
			id              TEXT PRIMARY KEY,
			equity_type     TEXT NOT NULL,
			ticker          TEXT,
			name            TEXT,
			grant_date      TEXT,
			event_date      TEXT NOT NULL,
			shares          TEXT NOT NULL,
			price_paid      TEXT NOT NULL,
			fmv             TEXT NOT NULL,
			fmv_at_offering TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sale_results (
			id               TEXT PRIMARY KEY,
			sale_id          TEXT NOT NULL,
			lot_id           TEXT NOT NULL,
			tax_year         INTEGER NOT NULL,
			ticker           TEXT,
			name             TEXT,
			equity_type      TEXT NOT NULL,
			acquisition_date TEXT NOT NULL,
			sale_date        TEXT NOT NULL,
			shares           TEXT NOT NULL,
			proceeds         TEXT NOT NULL,
			correct_basis    TEXT NOT NULL,
			broker_basis     TEXT NOT NULL,
			adjustment       TEXT NOT NULL,
			adjustment_code  TEXT,
			ordinary_income  TEXT NOT NULL,
			amt_adjustment   TEXT NOT NULL,
			gain_loss        TEXT NOT NULL,
			holding_period   TEXT NOT NULL,
			category         TEXT NOT NULL,
			note             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_year ON sale_results(tax_year)`,
		`CREATE TABLE IF NOT EXISTS reconciliation_runs (
			id           TEXT PRIMARY KEY,
			tax_year     INTEGER NOT NULL,
			started_at   TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			summary      TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// SaveLot inserts or replaces a real (imported) lot.
func (s *SQLiteStore) SaveLot(l *taxlot.Lot) error {
	return s.insertLot(l, nil)
}

// SaveAutoLot persists a synthetic lot tagged with the tax year it was
// fabricated for.
func (s *SQLiteStore) SaveAutoLot(year int, l *taxlot.Lot) error {
	return s.insertLot(l, &year)
}

func (s *SQLiteStore) insertLot(l *taxlot.Lot, autoYear *int) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO lots
		(id, equity_type, ticker, name, acquisition_date, shares, cost_per_share,
		 amt_cost_per_share, source_event_id, auto_created, auto_year, shares_remaining)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.Type.String(), l.Security.Ticker(), l.Security.Name(),
		l.AcquisitionDate.String(), l.Shares.String(), l.CostPerShare.Amount(),
		l.AMTCostPerShare.Amount(), l.SourceEventID, boolInt(l.AutoCreated), autoYear,
		l.SharesRemaining.String(),
	)
	if err != nil {
		return fmt.Errorf("save lot %s: %w", l.ID, err)
	}
	return nil
}

// Lots returns every lot for the filer.
func (s *SQLiteStore) Lots() ([]*taxlot.Lot, error) {
	rows, err := s.db.Query(`SELECT id, equity_type, ticker, name, acquisition_date,
		shares, cost_per_share, amt_cost_per_share, source_event_id, auto_created, shares_remaining
		FROM lots ORDER BY acquisition_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var lots []*taxlot.Lot
	for rows.Next() {
		var (
			id, typ, ticker, name, acq, shares, cps, amtCps, eventID, remaining string
			auto                                                               int
		)
		if err := rows.Scan(&id, &typ, &ticker, &name, &acq, &shares, &cps, &amtCps, &eventID, &auto, &remaining); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		l, err := buildLot(id, typ, ticker, name, acq, shares, cps, amtCps, eventID, auto != 0, remaining)
		if err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

func buildLot(id, typ, ticker, name, acq, shares, cps, amtCps, eventID string, auto bool, remaining string) (*taxlot.Lot, error) {
	equityType, err := taxlot.ParseEquityType(typ)
	if err != nil {
		return nil, fmt.Errorf("lot %s: %w", id, err)
	}
	acqDate, err := taxlot.ParseDate(acq)
	if err != nil {
		return nil, fmt.Errorf("lot %s: %w", id, err)
	}
	sh, err := decimal.NewFromString(shares)
	if err != nil {
		return nil, fmt.Errorf("lot %s shares: %w", id, err)
	}
	rem, err := decimal.NewFromString(remaining)
	if err != nil {
		return nil, fmt.Errorf("lot %s shares remaining: %w", id, err)
	}
	cost, err := decimal.NewFromString(cps)
	if err != nil {
		return nil, fmt.Errorf("lot %s cost per share: %w", id, err)
	}
	amtCost := decimal.Zero
	if amtCps != "" {
		if amtCost, err = decimal.NewFromString(amtCps); err != nil {
			return nil, fmt.Errorf("lot %s amt cost per share: %w", id, err)
		}
	}
	return &taxlot.Lot{
		ID:              id,
		Type:            equityType,
		Security:        taxlot.NewSecurity(ticker, name),
		AcquisitionDate: acqDate,
		Shares:          taxlot.Q(sh),
		CostPerShare:    taxlot.USD(cost),
		AMTCostPerShare: taxlot.USD(amtCost),
		SourceEventID:   eventID,
		AutoCreated:     auto,
		SharesRemaining: taxlot.Q(rem),
	}, nil
}

// DeleteAutoLots removes synthetic lots fabricated for the given tax year.
func (s *SQLiteStore) DeleteAutoLots(year int) error {
	_, err := s.db.Exec(`DELETE FROM lots WHERE auto_created = 1 AND auto_year = ?`, year)
	if err != nil {
		return fmt.Errorf("delete auto lots for %d: %w", year, err)
	}
	return nil
}

// UpdateSharesRemaining persists the share counter of one lot.
func (s *SQLiteStore) UpdateSharesRemaining(lotID string, remaining taxlot.Quantity) error {
	_, err := s.db.Exec(`UPDATE lots SET shares_remaining = ? WHERE id = ?`, remaining.String(), lotID)
	if err != nil {
		return fmt.Errorf("update lot %s shares remaining: %w", lotID, err)
	}
	return nil
}

// ResetSharesRemaining restores every lot's counter to its full share count.
func (s *SQLiteStore) ResetSharesRemaining() error {
	_, err := s.db.Exec(`UPDATE lots SET shares_remaining = shares`)
	if err != nil {
		return fmt.Errorf("reset shares remaining: %w", err)
	}
	return nil
}

// SaveSale inserts or replaces a sale record.
func (s *SQLiteStore) SaveSale(sale taxlot.Sale) error {
	basis := ""
	if sale.BasisKnown {
		basis = sale.BrokerBasis.Amount()
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sales
		(id, ticker, name, sale_date, shares, proceeds_per_share, broker_basis, basis_known, has_1099b, lot_id)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		sale.ID, sale.Security.Ticker(), sale.Security.Name(), sale.SaleDate.String(),
		sale.Shares.String(), sale.ProceedsPerShare.Amount(), basis,
		boolInt(sale.BasisKnown), boolInt(sale.Has1099B), sale.LotID,
	)
	if err != nil {
		return fmt.Errorf("save sale %s: %w", sale.ID, err)
	}
	return nil
}

// SalesForYear returns all sales dated within the tax year.
func (s *SQLiteStore) SalesForYear(year int) ([]taxlot.Sale, error) {
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-12-31", year)
	rows, err := s.db.Query(`SELECT id, ticker, name, sale_date, shares, proceeds_per_share,
		broker_basis, basis_known, has_1099b, lot_id
		FROM sales WHERE sale_date >= ? AND sale_date <= ? ORDER BY sale_date, id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query sales for %d: %w", year, err)
	}
	defer rows.Close()

	var sales []taxlot.Sale
	for rows.Next() {
		var (
			id, ticker, name, dateStr, shares, pps, basis, lotID string
			basisKnown, has1099b                                 int
		)
		if err := rows.Scan(&id, &ticker, &name, &dateStr, &shares, &pps, &basis, &basisKnown, &has1099b, &lotID); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		saleDate, err := taxlot.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("sale %s: %w", id, err)
		}
		sh, err := decimal.NewFromString(shares)
		if err != nil {
			return nil, fmt.Errorf("sale %s shares: %w", id, err)
		}
		proceeds, err := decimal.NewFromString(pps)
		if err != nil {
			return nil, fmt.Errorf("sale %s proceeds: %w", id, err)
		}
		sale := taxlot.Sale{
			ID:               id,
			Security:         taxlot.NewSecurity(ticker, name),
			SaleDate:         saleDate,
			Shares:           taxlot.Q(sh),
			ProceedsPerShare: taxlot.USD(proceeds),
			BasisKnown:       basisKnown != 0,
			Has1099B:         has1099b != 0,
			LotID:            lotID,
		}
		if sale.BasisKnown && basis != "" {
			b, err := decimal.NewFromString(basis)
			if err != nil {
				return nil, fmt.Errorf("sale %s basis: %w", id, err)
			}
			sale.BrokerBasis = taxlot.USD(b)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// SaveEvent inserts or replaces an equity event.
func (s *SQLiteStore) SaveEvent(ev *taxlot.EquityEvent) error {
	grant := ""
	if !ev.GrantDate.IsZero() {
		grant = ev.GrantDate.String()
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO equity_events
		(id, equity_type, ticker, name, grant_date, event_date, shares, price_paid, fmv, fmv_at_offering)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		ev.ID, ev.Type.String(), ev.Security.Ticker(), ev.Security.Name(),
		grant, ev.EventDate.String(), ev.Shares.String(),
		ev.PricePaid.Amount(), ev.FMV.Amount(), ev.FMVAtOffering.Amount(),
	)
	if err != nil {
		return fmt.Errorf("save event %s: %w", ev.ID, err)
	}
	return nil
}

// Events returns every equity event for the filer.
func (s *SQLiteStore) Events() ([]*taxlot.EquityEvent, error) {
	rows, err := s.db.Query(`SELECT id, equity_type, ticker, name, grant_date, event_date,
		shares, price_paid, fmv, fmv_at_offering FROM equity_events ORDER BY event_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []*taxlot.EquityEvent
	for rows.Next() {
		var id, typ, ticker, name, grant, eventDate, shares, paid, fmv, fmvOffering string
		if err := rows.Scan(&id, &typ, &ticker, &name, &grant, &eventDate, &shares, &paid, &fmv, &fmvOffering); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := buildEvent(id, typ, ticker, name, grant, eventDate, shares, paid, fmv, fmvOffering)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func buildEvent(id, typ, ticker, name, grant, eventDate, shares, paid, fmv, fmvOffering string) (*taxlot.EquityEvent, error) {
	equityType, err := taxlot.ParseEquityType(typ)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	ev := &taxlot.EquityEvent{ID: id, Type: equityType, Security: taxlot.NewSecurity(ticker, name)}
	if grant != "" {
		if ev.GrantDate, err = taxlot.ParseDate(grant); err != nil {
			return nil, fmt.Errorf("event %s: %w", id, err)
		}
	}
	if ev.EventDate, err = taxlot.ParseDate(eventDate); err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	sh, err := decimal.NewFromString(shares)
	if err != nil {
		return nil, fmt.Errorf("event %s shares: %w", id, err)
	}
	ev.Shares = taxlot.Q(sh)
	for _, f := range []struct {
		raw string
		dst *taxlot.Money
	}{
		{paid, &ev.PricePaid},
		{fmv, &ev.FMV},
		{fmvOffering, &ev.FMVAtOffering},
	} {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("event %s amount: %w", id, err)
		}
		*f.dst = taxlot.USD(d)
	}
	return ev, nil
}

// SaveResult persists one sale result. Monetary values are stored as
// exact-decimal strings, never converted through floats.
func (s *SQLiteStore) SaveResult(r taxlot.SaleResult) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO sale_results
		(id, sale_id, lot_id, tax_year, ticker, name, equity_type, acquisition_date, sale_date,
		 shares, proceeds, correct_basis, broker_basis, adjustment, adjustment_code,
		 ordinary_income, amt_adjustment, gain_loss, holding_period, category, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.SaleID, r.LotID, r.SaleDate.Year(),
		r.Security.Ticker(), r.Security.Name(), r.Type.String(),
		r.AcquisitionDate.String(), r.SaleDate.String(), r.Shares.String(),
		r.Proceeds.Amount(), r.CorrectBasis.Amount(), r.BrokerBasis.Amount(),
		r.Adjustment.Amount(), r.AdjustmentCode,
		r.OrdinaryIncome.Amount(), r.AMTAdjustment.Amount(), r.GainLoss.Amount(),
		r.Period.String(), string(r.Category), r.Note,
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	return nil
}

// DeleteResultsForYear removes every result of the tax year.
func (s *SQLiteStore) DeleteResultsForYear(year int) error {
	_, err := s.db.Exec(`DELETE FROM sale_results WHERE tax_year = ?`, year)
	if err != nil {
		return fmt.Errorf("delete results for %d: %w", year, err)
	}
	return nil
}

// ResultsForYear returns the persisted results of the tax year.
func (s *SQLiteStore) ResultsForYear(year int) ([]taxlot.SaleResult, error) {
	rows, err := s.db.Query(`SELECT id, sale_id, lot_id, ticker, name, equity_type,
		acquisition_date, sale_date, shares, proceeds, correct_basis, broker_basis,
		adjustment, adjustment_code, ordinary_income, amt_adjustment, gain_loss,
		holding_period, category, note
		FROM sale_results WHERE tax_year = ? ORDER BY sale_date, id`, year)
	if err != nil {
		return nil, fmt.Errorf("query results for %d: %w", year, err)
	}
	defer rows.Close()

	var results []taxlot.SaleResult
	for rows.Next() {
		var (
			id, saleID, lotID, ticker, name, typ, acq, saleDate, shares    string
			proceeds, basis, brokerBasis, adjustment, code, oi, amtAdj, gl string
			period, category, note                                         string
		)
		if err := rows.Scan(&id, &saleID, &lotID, &ticker, &name, &typ, &acq, &saleDate,
			&shares, &proceeds, &basis, &brokerBasis, &adjustment, &code, &oi, &amtAdj, &gl,
			&period, &category, &note); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r, err := buildResult(id, saleID, lotID, ticker, name, typ, acq, saleDate, shares,
			proceeds, basis, brokerBasis, adjustment, code, oi, amtAdj, gl, period, category, note)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func buildResult(id, saleID, lotID, ticker, name, typ, acq, saleDate, shares,
	proceeds, basis, brokerBasis, adjustment, code, oi, amtAdj, gl, period, category, note string) (taxlot.SaleResult, error) {

	r := taxlot.SaleResult{
		ID:             id,
		SaleID:         saleID,
		LotID:          lotID,
		Security:       taxlot.NewSecurity(ticker, name),
		AdjustmentCode: code,
		Category:       taxlot.Form8949Category(category),
		Note:           note,
	}
	var err error
	if r.Type, err = taxlot.ParseEquityType(typ); err != nil {
		return r, fmt.Errorf("result %s: %w", id, err)
	}
	if r.AcquisitionDate, err = taxlot.ParseDate(acq); err != nil {
		return r, fmt.Errorf("result %s: %w", id, err)
	}
	if r.SaleDate, err = taxlot.ParseDate(saleDate); err != nil {
		return r, fmt.Errorf("result %s: %w", id, err)
	}
	sh, err := decimal.NewFromString(shares)
	if err != nil {
		return r, fmt.Errorf("result %s shares: %w", id, err)
	}
	r.Shares = taxlot.Q(sh)
	if period == taxlot.LongTerm.String() {
		r.Period = taxlot.LongTerm
	}
	for _, f := range []struct {
		raw string
		dst *taxlot.Money
	}{
		{proceeds, &r.Proceeds},
		{basis, &r.CorrectBasis},
		{brokerBasis, &r.BrokerBasis},
		{adjustment, &r.Adjustment},
		{oi, &r.OrdinaryIncome},
		{amtAdj, &r.AMTAdjustment},
		{gl, &r.GainLoss},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return r, fmt.Errorf("result %s amount: %w", id, err)
		}
		*f.dst = taxlot.USD(d)
	}
	return r, nil
}

// SaveRun persists a reconciliation run summary.
func (s *SQLiteStore) SaveRun(run taxlot.ReconciliationRun) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO reconciliation_runs
		(id, tax_year, started_at, completed_at, summary) VALUES (?,?,?,?,?)`,
		run.ID, run.Year, run.StartedAt.Format(time.RFC3339), run.CompletedAt.Format(time.RFC3339), string(summary),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns every recorded reconciliation run, most recent first.
func (s *SQLiteStore) Runs() ([]taxlot.ReconciliationRun, error) {
	rows, err := s.db.Query(`SELECT id, tax_year, started_at, completed_at, summary
		FROM reconciliation_runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []taxlot.ReconciliationRun
	for rows.Next() {
		var run taxlot.ReconciliationRun
		var started, completed, summary string
		if err := rows.Scan(&run.ID, &run.Year, &started, &completed, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", run.ID, err)
		}
		if run.CompletedAt, err = time.Parse(time.RFC3339, completed); err != nil {
			return nil, fmt.Errorf("run %s completed_at: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
			return nil, fmt.Errorf("run %s summary: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ taxlot.Store = (*SQLiteStore)(nil)

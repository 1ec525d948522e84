package store

import (
	"sort"
	"sync"

	"github.com/mohanadkaleia/taxlot"
)

// MemoryStore keeps everything in process memory. It backs dry runs and tests
// where no database file is wanted.
type MemoryStore struct {
	mu       sync.Mutex
	lots     map[string]*taxlot.Lot
	autoYear map[string]int
	sales    map[string]taxlot.Sale
	events   map[string]*taxlot.EquityEvent
	results  map[string]taxlot.SaleResult
	runs     []taxlot.ReconciliationRun
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lots:     make(map[string]*taxlot.Lot),
		autoYear: make(map[string]int),
		sales:    make(map[string]taxlot.Sale),
		events:   make(map[string]*taxlot.EquityEvent),
		results:  make(map[string]taxlot.SaleResult),
	}
}

// SaveLot stores a real (imported) lot.
func (s *MemoryStore) SaveLot(l *taxlot.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[l.ID] = l
	return nil
}

// SaveAutoLot stores a synthetic lot tagged with its tax year.
func (s *MemoryStore) SaveAutoLot(year int, l *taxlot.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[l.ID] = l
	s.autoYear[l.ID] = year
	return nil
}

// Lots returns all lots ordered by acquisition date then id.
func (s *MemoryStore) Lots() ([]*taxlot.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lots := make([]*taxlot.Lot, 0, len(s.lots))
	for _, l := range s.lots {
		lots = append(lots, l)
	}
	sort.Slice(lots, func(i, j int) bool {
		if lots[i].AcquisitionDate != lots[j].AcquisitionDate {
			return lots[i].AcquisitionDate.Before(lots[j].AcquisitionDate)
		}
		return lots[i].ID < lots[j].ID
	})
	return lots, nil
}

// DeleteAutoLots removes the synthetic lots fabricated for the tax year.
func (s *MemoryStore) DeleteAutoLots(year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, y := range s.autoYear {
		if y == year {
			delete(s.lots, id)
			delete(s.autoYear, id)
		}
	}
	return nil
}

// UpdateSharesRemaining sets one lot's remaining shares.
func (s *MemoryStore) UpdateSharesRemaining(lotID string, remaining taxlot.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lots[lotID]; ok {
		l.SharesRemaining = remaining
	}
	return nil
}

// ResetSharesRemaining restores every lot's counter to its full share count.
func (s *MemoryStore) ResetSharesRemaining() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lots {
		l.SharesRemaining = l.Shares
	}
	return nil
}

// SaveSale stores a sale record.
func (s *MemoryStore) SaveSale(sale taxlot.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales[sale.ID] = sale
	return nil
}

// SalesForYear returns the sales dated within the tax year, ordered by date.
func (s *MemoryStore) SalesForYear(year int) ([]taxlot.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sales []taxlot.Sale
	for _, sale := range s.sales {
		if sale.SaleDate.Year() == year {
			sales = append(sales, sale)
		}
	}
	sort.Slice(sales, func(i, j int) bool {
		if sales[i].SaleDate != sales[j].SaleDate {
			return sales[i].SaleDate.Before(sales[j].SaleDate)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

// SaveEvent stores an equity event.
func (s *MemoryStore) SaveEvent(ev *taxlot.EquityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

// Events returns all equity events ordered by event date then id.
func (s *MemoryStore) Events() ([]*taxlot.EquityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]*taxlot.EquityEvent, 0, len(s.events))
	for _, ev := range s.events {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].EventDate != events[j].EventDate {
			return events[i].EventDate.Before(events[j].EventDate)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// SaveResult stores one sale result.
func (s *MemoryStore) SaveResult(r taxlot.SaleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.ID] = r
	return nil
}

// DeleteResultsForYear removes every result of the tax year.
func (s *MemoryStore) DeleteResultsForYear(year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.results {
		if r.SaleDate.Year() == year {
			delete(s.results, id)
		}
	}
	return nil
}

// ResultsForYear returns the results of the tax year ordered by sale date.
func (s *MemoryStore) ResultsForYear(year int) ([]taxlot.SaleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []taxlot.SaleResult
	for _, r := range s.results {
		if r.SaleDate.Year() == year {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].SaleDate != results[j].SaleDate {
			return results[i].SaleDate.Before(results[j].SaleDate)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// SaveRun appends a reconciliation run record.
func (s *MemoryStore) SaveRun(run taxlot.ReconciliationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// Runs returns the recorded reconciliation runs in insertion order.
func (s *MemoryStore) Runs() []taxlot.ReconciliationRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	runs := make([]taxlot.ReconciliationRun, len(s.runs))
	copy(runs, s.runs)
	return runs
}

var _ taxlot.Store = (*MemoryStore)(nil)

package taxlot

import (
	"testing"
	"time"
)

func newLot(id string, typ EquityType, ticker string, acq Date, shares int, cost float64) *Lot {
	return &Lot{
		ID:              id,
		Type:            typ,
		Security:        NewSecurity(ticker, ""),
		AcquisitionDate: acq,
		Shares:          Q(shares),
		CostPerShare:    USD(cost),
		SharesRemaining: Q(shares),
	}
}

func newSale(ticker string, date Date, shares int, proceeds float64) Sale {
	return Sale{
		ID:               "sale-1",
		Security:         NewSecurity(ticker, ""),
		SaleDate:         date,
		Shares:           Q(shares),
		ProceedsPerShare: USD(proceeds),
		Has1099B:         true,
	}
}

func TestMatchFIFOOldestFirst(t *testing.T) {
	lots := []*Lot{
		newLot("young", RSU, "ACME", NewDate(2024, time.March, 1), 100, 160),
		newLot("old", RSU, "ACME", NewDate(2023, time.March, 1), 100, 150),
	}
	sale := newSale("ACME", NewDate(2024, time.June, 1), 150, 175)

	allocs := Match(lots, sale, MatchFIFO)
	if len(allocs) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocs))
	}
	if allocs[0].Lot.ID != "old" || !allocs[0].Shares.Equal(Q(100)) {
		t.Errorf("first allocation = %s/%s, want old/100", allocs[0].Lot.ID, allocs[0].Shares)
	}
	if allocs[1].Lot.ID != "young" || !allocs[1].Shares.Equal(Q(50)) {
		t.Errorf("second allocation = %s/%s, want young/50", allocs[1].Lot.ID, allocs[1].Shares)
	}

	// Allocations must sum to exactly the sale's shares.
	sum := Q(0)
	for _, a := range allocs {
		sum = sum.Add(a.Shares)
	}
	if !sum.Equal(sale.Shares) {
		t.Errorf("allocated %s shares, want %s", sum, sale.Shares)
	}
}

func TestMatchFIFOTypePriorityOnSameDate(t *testing.T) {
	acq := NewDate(2023, time.June, 30)
	lots := []*Lot{
		newLot("rsu", RSU, "ACME", acq, 50, 150),
		newLot("espp", ESPP, "ACME", acq, 50, 127.50),
		newLot("iso", ISO, "ACME", acq, 50, 50),
	}
	sale := newSale("ACME", NewDate(2024, time.June, 1), 120, 175)

	allocs := Match(lots, sale, MatchFIFO)
	if len(allocs) != 3 {
		t.Fatalf("got %d allocations, want 3", len(allocs))
	}
	want := []string{"espp", "iso", "rsu"}
	for i, id := range want {
		if allocs[i].Lot.ID != id {
			t.Errorf("allocation %d = %s, want %s", i, allocs[i].Lot.ID, id)
		}
	}
}

func TestMatchFIFOAutoCreatedLast(t *testing.T) {
	auto := newLot("auto", RSU, "ACME", NewDate(2022, time.January, 1), 100, 10)
	auto.AutoCreated = true
	lots := []*Lot{
		auto,
		newLot("real", RSU, "ACME", NewDate(2023, time.June, 1), 100, 150),
	}
	sale := newSale("ACME", NewDate(2024, time.June, 1), 50, 175)

	allocs := Match(lots, sale, MatchFIFO)
	if len(allocs) != 1 || allocs[0].Lot.ID != "real" {
		t.Fatalf("real lots must be consumed before auto-created ones, got %+v", allocs)
	}
}

func TestMatchFIFOSkipsExhaustedAndForeign(t *testing.T) {
	spent := newLot("spent", RSU, "ACME", NewDate(2022, time.January, 1), 100, 100)
	spent.SharesRemaining = Q(0)
	lots := []*Lot{
		spent,
		newLot("other", RSU, "ZORG", NewDate(2022, time.January, 1), 100, 100),
		newLot("good", RSU, "ACME", NewDate(2023, time.June, 1), 100, 150),
	}
	sale := newSale("ACME", NewDate(2024, time.June, 1), 80, 175)

	allocs := Match(lots, sale, MatchFIFO)
	if len(allocs) != 1 || allocs[0].Lot.ID != "good" {
		t.Fatalf("got %+v, want the single open ACME lot", allocs)
	}
}

func TestMatchSpecific(t *testing.T) {
	lots := []*Lot{
		newLot("lot-a", RSU, "ACME", NewDate(2023, time.June, 1), 100, 150),
		newLot("lot-b", RSU, "ACME", NewDate(2022, time.June, 1), 100, 120),
	}

	sale := newSale("ACME", NewDate(2024, time.June, 1), 60, 175)
	sale.LotID = "lot-a"
	allocs := Match(lots, sale, MatchSpecific)
	if len(allocs) != 1 || allocs[0].Lot.ID != "lot-a" || !allocs[0].Shares.Equal(Q(60)) {
		t.Fatalf("got %+v, want 60 shares from lot-a", allocs)
	}

	// Specific matching never falls back to other lots.
	sale.Shares = Q(150)
	if allocs := Match(lots, sale, MatchSpecific); allocs != nil {
		t.Errorf("insufficient specific lot must yield nothing, got %+v", allocs)
	}

	sale.LotID = "missing"
	sale.Shares = Q(10)
	if allocs := Match(lots, sale, MatchSpecific); allocs != nil {
		t.Errorf("unknown lot id must yield nothing, got %+v", allocs)
	}
}

func TestFuzzyCandidates(t *testing.T) {
	lots := []*Lot{
		newLot("acme", RSU, "ACME", NewDate(2023, time.June, 1), 100, 150),
		newLot("zorg", RSU, "ZORG", NewDate(2023, time.June, 1), 100, 100),
	}
	lots[0].Security = NewSecurity("ACME", "Acme Widgets Inc")
	lots[1].Security = NewSecurity("ZORG", "Zorg Industries Inc")

	tests := []struct {
		name string
		sale Sale
		want []string
	}{
		{
			"exact ticker",
			newSale("ACME", NewDate(2024, time.June, 1), 10, 175),
			[]string{"acme"},
		},
		{
			"ticker as token in name",
			Sale{Security: NewSecurity("", "ACME COMMON STOCK"), Shares: Q(10)},
			[]string{"acme"},
		},
		{
			"substring of lot name",
			Sale{Security: NewSecurity("", "Widgets"), Shares: Q(10)},
			[]string{"acme"},
		},
		{
			"token overlap past stopwords",
			Sale{Security: NewSecurity("", "WIDGETS INC COMMON"), Shares: Q(10)},
			[]string{"acme"},
		},
		{
			"no match",
			Sale{Security: NewSecurity("", "Initech LLC"), Shares: Q(10)},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzyCandidates(lots, tt.sale)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("candidate %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

// A ticker-less sale gets its candidate set from name matching; FIFO must
// allocate from that set instead of re-filtering against the empty ticker.
func TestMatchFIFOTickerlessSale(t *testing.T) {
	lot := newLot("acme", RSU, "ACME", NewDate(2023, time.June, 1), 100, 150)
	lot.Security = NewSecurity("ACME", "Acme Widgets Inc")
	sale := Sale{
		ID:               "sale-1",
		Security:         NewSecurity("", "ACME COMMON STOCK"),
		SaleDate:         NewDate(2024, time.June, 1),
		Shares:           Q(40),
		ProceedsPerShare: USD(175),
		Has1099B:         true,
	}

	cands := FuzzyCandidates([]*Lot{lot}, sale)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	allocs := Match(cands, sale, MatchFIFO)
	if len(allocs) != 1 {
		t.Fatalf("got %d allocations, want 1", len(allocs))
	}
	if allocs[0].Lot.ID != "acme" || !allocs[0].Shares.Equal(Q(40)) {
		t.Errorf("allocation = %s/%s, want acme/40", allocs[0].Lot.ID, allocs[0].Shares)
	}
}

package taxlot

import (
	"sort"
	"strings"
)

// Match allocates a sale's shares across acquisition lots, returning pairs of
// (lot, shares allocated) summing to at most sale.Shares. It never mutates
// the lots; the orchestrator applies the decrements after correction succeeds.
func Match(candidates []*Lot, sale Sale, method MatchMethod) []Allocation {
	switch method {
	case MatchSpecific:
		return matchSpecific(candidates, sale)
	default:
		return matchFIFO(candidates, sale)
	}
}

// matchFIFO consumes lots oldest acquisition date first. Ties on the date are
// broken by equity-type priority (ESPP, ISO, NSO, RSU) with auto-created lots
// always last.
func matchFIFO(candidates []*Lot, sale Sale) []Allocation {
	open := make([]*Lot, 0, len(candidates))
	for _, l := range candidates {
		if sameTicker(l, sale) && l.SharesRemaining.IsPositive() {
			open = append(open, l)
		}
	}
	sortLots(open)

	var allocations []Allocation
	remaining := sale.Shares
	for _, l := range open {
		if !remaining.IsPositive() {
			break
		}
		take := MinQuantity(l.SharesRemaining, remaining)
		allocations = append(allocations, Allocation{Lot: l, Shares: take})
		remaining = remaining.Sub(take)
	}
	return allocations
}

// matchSpecific returns the sale's pre-assigned lot if it has sufficient
// remaining shares, and nothing otherwise.
func matchSpecific(candidates []*Lot, sale Sale) []Allocation {
	if sale.LotID == "" {
		return nil
	}
	for _, l := range candidates {
		if l.ID != sale.LotID {
			continue
		}
		if l.SharesRemaining.GreaterThanOrEqual(sale.Shares) {
			return []Allocation{{Lot: l, Shares: sale.Shares}}
		}
		return nil
	}
	return nil
}

// sameTicker guards an exact-ticker call against foreign lots. A ticker-less
// sale was already narrowed by name through FuzzyCandidates, so every
// candidate passes.
func sameTicker(l *Lot, sale Sale) bool {
	if sale.Security.Ticker() == "" {
		return true
	}
	return l.Security.Ticker() == sale.Security.Ticker()
}

func sortLots(open []*Lot) {
	sort.SliceStable(open, func(i, j int) bool {
		a, b := open[i], open[j]
		if a.AutoCreated != b.AutoCreated {
			return !a.AutoCreated
		}
		if a.AcquisitionDate != b.AcquisitionDate {
			return a.AcquisitionDate.Before(b.AcquisitionDate)
		}
		return a.Type.matchPriority() < b.Type.matchPriority()
	})
}

// FuzzyCandidates narrows lots down to those plausibly referring to the same
// security as the sale, for sales where the ticker is literally unknown. The
// priority order minimizes false positives from generic words; the first tier
// that yields candidates wins, and FIFO/specific matching still applies to
// the returned set.
//
//  1. exact ticker match
//  2. lot ticker appears as a token in the sale's free-text name
//  3. substring match either direction between names
//  4. token overlap after stripping the stopword set, at least one shared
//     significant token
func FuzzyCandidates(lots []*Lot, sale Sale) []*Lot {
	// tier 1: exact ticker
	if sale.Security.Ticker() != "" {
		var out []*Lot
		for _, l := range lots {
			if l.Security.Ticker() == sale.Security.Ticker() {
				out = append(out, l)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	saleName := strings.ToUpper(sale.Security.Name())
	if saleName == "" {
		return nil
	}

	// tier 2: lot ticker as a token of the sale name
	saleTokens := strings.Fields(saleName)
	var out []*Lot
	for _, l := range lots {
		t := l.Security.Ticker()
		if t == "" {
			continue
		}
		for _, tok := range saleTokens {
			if strings.Trim(tok, ".,()[]") == t {
				out = append(out, l)
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// tier 3: substring either direction between names
	for _, l := range lots {
		lotName := strings.ToUpper(l.Security.Name())
		if lotName == "" {
			continue
		}
		if strings.Contains(saleName, lotName) || strings.Contains(lotName, saleName) {
			out = append(out, l)
		}
	}
	if len(out) > 0 {
		return out
	}

	// tier 4: token overlap after stopword strip
	saleSig := significantTokens(sale.Security.Name())
	for _, l := range lots {
		lotSig := significantTokens(l.Security.Name())
		if sharesToken(saleSig, lotSig) {
			out = append(out, l)
		}
	}
	return out
}

func sharesToken(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

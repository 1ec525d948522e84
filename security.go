package taxlot

import (
	"fmt"
	"strings"
)

// Security identifies the traded instrument a lot or sale refers to.
// It is an immutable value type; the free-text name is what brokers print on
// 1099-B imports and is all the matcher has when the ticker is unknown.
type Security struct {
	ticker string
	name   string
}

// NewSecurity returns a Security with a normalized (upper case, trimmed) ticker.
func NewSecurity(ticker, name string) Security {
	return Security{
		ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		name:   strings.TrimSpace(name),
	}
}

// Ticker returns the normalized ticker, possibly empty for 1099-B imports
// that carry only a description.
func (s Security) Ticker() string { return s.ticker }

// Name returns the free-text security name.
func (s Security) Name() string { return s.name }

func (s Security) String() string {
	if s.ticker == "" {
		return s.name
	}
	if s.name == "" {
		return s.ticker
	}
	return fmt.Sprintf("%s (%s)", s.ticker, s.name)
}

// stopwords are generic tokens stripped before token-overlap matching.
// These words appear in nearly every broker security description and would
// otherwise produce false positives.
var stopwords = map[string]bool{
	"INC": true, "CORP": true, "LTD": true, "LLC": true,
	"CLASS": true, "COMMON": true, "STOCK": true,
	"PURCHASE": true, "EXERCISE": true,
	"ESPP": true, "RSU": true, "ISO": true, "NSO": true,
}

// significantTokens splits a free-text security name into upper-case tokens
// with the stopword set removed.
func significantTokens(name string) []string {
	fields := strings.Fields(strings.ToUpper(name))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,()[]")
		if f == "" || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

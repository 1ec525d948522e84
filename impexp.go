package taxlot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// this file contains the boundary that turns broker JSON exports into
// normalized Sale records. PDF/OCR extraction happens upstream; by the time
// data reaches here it is structured JSON of some broker-specific shape.

// BrokerMapping declares where each field lives in a broker's JSON export,
// as jsonpath expressions. Records selects the array of sale rows in the
// document; the per-field paths are evaluated against each row.
type BrokerMapping struct {
	Records string `yaml:"records" json:"records"`

	Ticker           string `yaml:"ticker" json:"ticker"`
	Name             string `yaml:"name" json:"name"`
	SaleDate         string `yaml:"sale_date" json:"sale_date"`
	Shares           string `yaml:"shares" json:"shares"`
	ProceedsPerShare string `yaml:"proceeds_per_share" json:"proceeds_per_share"`
	Basis            string `yaml:"basis" json:"basis"`
}

// ImportBrokerSales reads a broker JSON export and maps it into normalized
// sales. Rows that fail validation are rejected with a validation error; they
// must never reach the reconciliation core.
func ImportBrokerSales(r io.Reader, mapping BrokerMapping) ([]Sale, error) {
	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse broker export: %w", err)
	}

	rows, err := jsonpath.Get(mapping.Records, doc)
	if err != nil {
		return nil, fmt.Errorf("cannot select records with %q: %w", mapping.Records, err)
	}
	list, ok := rows.([]any)
	if !ok {
		return nil, Errorf(KindValidation, "records path %q does not select an array", mapping.Records)
	}

	sales := make([]Sale, 0, len(list))
	for i, row := range list {
		sale, err := mapRow(row, mapping)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := ValidateSale(sale); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

func mapRow(row any, mapping BrokerMapping) (Sale, error) {
	ticker, _ := pathString(row, mapping.Ticker)
	name, _ := pathString(row, mapping.Name)

	dateStr, ok := pathString(row, mapping.SaleDate)
	if !ok {
		return Sale{}, Errorf(KindValidation, "missing sale date at %q", mapping.SaleDate)
	}
	saleDate, err := ParseDate(dateStr)
	if err != nil {
		return Sale{}, err
	}

	shares, _, err := pathDecimal(row, mapping.Shares)
	if err != nil {
		return Sale{}, err
	}
	proceeds, ok, err := pathDecimal(row, mapping.ProceedsPerShare)
	if err != nil {
		return Sale{}, err
	}
	if !ok {
		return Sale{}, Errorf(KindValidation, "missing proceeds at %q", mapping.ProceedsPerShare)
	}
	basis, basisKnown, err := pathDecimal(row, mapping.Basis)
	if err != nil {
		return Sale{}, err
	}

	return Sale{
		ID:               uuid.NewString(),
		Security:         NewSecurity(ticker, name),
		SaleDate:         saleDate,
		Shares:           Q(shares),
		ProceedsPerShare: USD(proceeds),
		BrokerBasis:      USD(basis),
		BasisKnown:       basisKnown,
		Has1099B:         true,
	}, nil
}

// pathString evaluates a jsonpath expression to a string. A missing path or
// empty expression yields ("", false).
func pathString(row any, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	jval, err := jsonpath.Get(path, row)
	if err != nil {
		return "", false
	}
	// because jsonpath is never clear about whether it returns a list of 1
	// answer, or a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	s, ok := jval.(string)
	return s, ok && s != ""
}

// pathDecimal evaluates a jsonpath expression to an exact decimal. Broker
// exports carry amounts as numbers or strings; both are accepted, binary
// floats are never used.
func pathDecimal(row any, path string) (decimal.Decimal, bool, error) {
	if path == "" {
		return decimal.Zero, false, nil
	}
	jval, err := jsonpath.Get(path, row)
	if err != nil {
		return decimal.Zero, false, nil
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false, Errorf(KindValidation, "invalid number %q at %q", v.String(), path)
		}
		return d, true, nil
	case string:
		if v == "" {
			return decimal.Zero, false, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false, Errorf(KindValidation, "invalid number %q at %q", v, path)
		}
		return d, true, nil
	case nil:
		return decimal.Zero, false, nil
	default:
		return decimal.Zero, false, Errorf(KindValidation, "unsupported value %v at %q", jval, path)
	}
}

// ExportResults writes sale results to 'w' as JSONL, one result per line,
// monetary values as exact-decimal strings.
func ExportResults(w io.Writer, results []SaleResult) error {
	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("cannot marshal result %q: %w", r.ID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write result: %w", err)
		}
	}
	return nil
}

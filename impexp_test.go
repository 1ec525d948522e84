package taxlot

import (
	"strings"
	"testing"
	"time"
)

var etradeMapping = BrokerMapping{
	Records:          "$.transactions",
	Ticker:           "$.symbol",
	Name:             "$.description",
	SaleDate:         "$.dateSold",
	Shares:           "$.quantity",
	ProceedsPerShare: "$.salePrice",
	Basis:            "$.costBasis",
}

func TestImportBrokerSales(t *testing.T) {
	export := `{
		"transactions": [
			{
				"symbol": "ACME",
				"description": "ACME INC COMMON STOCK",
				"dateSold": "2024-06-10",
				"quantity": 100,
				"salePrice": "175.25",
				"costBasis": 0
			},
			{
				"symbol": "",
				"description": "ZORG INDUSTRIES",
				"dateSold": "2024-07-01",
				"quantity": "50.5",
				"salePrice": 12.10,
				"costBasis": ""
			}
		]
	}`

	sales, err := ImportBrokerSales(strings.NewReader(export), etradeMapping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("got %d sales, want 2", len(sales))
	}

	first := sales[0]
	if first.Security.Ticker() != "ACME" {
		t.Errorf("ticker = %q, want ACME", first.Security.Ticker())
	}
	if first.SaleDate != NewDate(2024, time.June, 10) {
		t.Errorf("sale date = %v", first.SaleDate)
	}
	if !first.Shares.Equal(Q(100)) {
		t.Errorf("shares = %s, want 100", first.Shares)
	}
	// String amounts must survive exactly.
	if got, want := first.ProceedsPerShare.Amount(), "175.25"; got != want {
		t.Errorf("proceeds = %s, want %s", got, want)
	}
	// A reported zero basis is still a known basis.
	if !first.BasisKnown || !first.BrokerBasis.IsZero() {
		t.Errorf("basis known/%s, want known zero", first.BrokerBasis.Amount())
	}

	second := sales[1]
	if second.Security.Ticker() != "" || second.Security.Name() != "ZORG INDUSTRIES" {
		t.Errorf("security = %v, want name-only", second.Security)
	}
	if second.Shares.String() != "50.5" {
		t.Errorf("fractional shares = %s, want 50.5", second.Shares)
	}
	// An empty basis cell means the broker reported nothing.
	if second.BasisKnown {
		t.Error("empty basis cell must not count as known")
	}
}

func TestImportBrokerSalesRejectsBadRows(t *testing.T) {
	tests := []struct {
		name   string
		export string
	}{
		{
			"missing sale date",
			`{"transactions":[{"symbol":"ACME","quantity":10,"salePrice":5}]}`,
		},
		{
			"negative shares",
			`{"transactions":[{"symbol":"ACME","dateSold":"2024-06-10","quantity":-10,"salePrice":5}]}`,
		},
		{
			"missing proceeds",
			`{"transactions":[{"symbol":"ACME","dateSold":"2024-06-10","quantity":10}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ImportBrokerSales(strings.NewReader(tt.export), etradeMapping); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestImportBrokerSalesBadRecordsPath(t *testing.T) {
	if _, err := ImportBrokerSales(strings.NewReader(`{"transactions":{}}`), etradeMapping); !IsKind(err, KindValidation) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestExportResults(t *testing.T) {
	results := []SaleResult{
		{
			ID:              "res-1",
			SaleID:          "sale-1",
			LotID:           "lot-1",
			Security:        NewSecurity("ACME", ""),
			Type:            RSU,
			AcquisitionDate: NewDate(2023, time.May, 15),
			SaleDate:        NewDate(2024, time.June, 10),
			Shares:          Q(100),
			Proceeds:        USD(17500),
			CorrectBasis:    USD(15000),
			Adjustment:      USD(15000),
			AdjustmentCode:  "B",
			GainLoss:        USD(2500),
			Period:          LongTerm,
			Category:        CategoryD,
		},
	}

	var sb strings.Builder
	if err := ExportResults(&sb, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := sb.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("output must be newline-terminated")
	}
	for _, want := range []string{
		`"correct_basis":"15000.00"`,
		`"adjustment_code":"B"`,
		`"holding_period":"LONG_TERM"`,
		`"form_8949_category":"D"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

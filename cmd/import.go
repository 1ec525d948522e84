package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mohanadkaleia/taxlot"
)

// importSalesCmd holds the flags for the 'import-sales' subcommand.
type importSalesCmd struct {
	mappingFile string
}

func (*importSalesCmd) Name() string     { return "import-sales" }
func (*importSalesCmd) Synopsis() string { return "import broker 1099-B sales from a JSON export" }
func (*importSalesCmd) Usage() string {
	return `taxlot import-sales -mapping <file> <export.json>

  Imports sale records from a broker JSON export. The mapping file (YAML)
  gives JSONPath expressions locating the record list and each field, so any
  broker export shape can be ingested without code changes.
`
}

func (c *importSalesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mappingFile, "mapping", "", "Broker field mapping file (YAML)")
}

func (c *importSalesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.mappingFile == "" || f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: taxlot import-sales -mapping <file> <export.json>")
		return subcommands.ExitUsageError
	}

	mapping, err := readMapping(c.mappingFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading mapping %q: %v\n", c.mappingFile, err)
		return subcommands.ExitFailure
	}

	export, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening export %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	defer export.Close()

	sales, err := taxlot.ImportBrokerSales(export, mapping)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing sales: %v\n", err)
		return subcommands.ExitFailure
	}

	db, err := OpenStore(Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	for _, sale := range sales {
		if err := db.SaveSale(sale); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving sale %s: %v\n", sale.ID, err)
			return subcommands.ExitFailure
		}
	}
	fmt.Printf("Imported %d sales\n", len(sales))
	return subcommands.ExitSuccess
}

func readMapping(path string) (taxlot.BrokerMapping, error) {
	var mapping taxlot.BrokerMapping
	data, err := os.ReadFile(path)
	if err != nil {
		return mapping, err
	}
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return mapping, err
	}
	return mapping, nil
}

// importLotsCmd holds the flags for the 'import-lots' subcommand.
type importLotsCmd struct{}

func (*importLotsCmd) Name() string     { return "import-lots" }
func (*importLotsCmd) Synopsis() string { return "import acquisition lots and equity events" }
func (*importLotsCmd) Usage() string {
	return `taxlot import-lots <lots.json>

  Imports acquisition lots and their originating equity events (vests, ESPP
  purchases, ISO exercises) from a JSON file.
`
}

func (*importLotsCmd) SetFlags(f *flag.FlagSet) {}

// lotRecord is the on-disk shape of one imported lot. Amounts are decimal
// strings.
type lotRecord struct {
	ID              string `json:"id"`
	EquityType      string `json:"equity_type"`
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	AcquisitionDate string `json:"acquisition_date"`
	Shares          string `json:"shares"`
	CostPerShare    string `json:"cost_per_share"`
	AMTCostPerShare string `json:"amt_cost_per_share"`

	GrantDate     string `json:"grant_date"`
	PricePaid     string `json:"price_paid"`
	FMV           string `json:"fmv"`
	FMVAtOffering string `json:"fmv_at_offering"`
}

func (*importLotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: taxlot import-lots <lots.json>")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	var records []lotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	db, err := OpenStore(Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	for i, rec := range records {
		lot, event, err := rec.build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in record %d: %v\n", i, err)
			return subcommands.ExitFailure
		}
		if err := taxlot.ValidateLot(lot); err != nil {
			fmt.Fprintf(os.Stderr, "Error in record %d: %v\n", i, err)
			return subcommands.ExitFailure
		}
		if err := db.SaveLot(lot); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving lot %s: %v\n", lot.ID, err)
			return subcommands.ExitFailure
		}
		if event != nil {
			if err := db.SaveEvent(event); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving event %s: %v\n", event.ID, err)
				return subcommands.ExitFailure
			}
		}
	}
	fmt.Printf("Imported %d lots\n", len(records))
	return subcommands.ExitSuccess
}

// build converts the record into a lot plus, for ESPP and ISO lots, the
// equity event basis correction needs.
func (rec lotRecord) build() (*taxlot.Lot, *taxlot.EquityEvent, error) {
	typ, err := taxlot.ParseEquityType(rec.EquityType)
	if err != nil {
		return nil, nil, err
	}
	acq, err := taxlot.ParseDate(rec.AcquisitionDate)
	if err != nil {
		return nil, nil, err
	}
	shares, err := decimal.NewFromString(rec.Shares)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid shares %q: %w", rec.Shares, err)
	}
	cost, err := decimal.NewFromString(rec.CostPerShare)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid cost per share %q: %w", rec.CostPerShare, err)
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	lot := &taxlot.Lot{
		ID:              id,
		Type:            typ,
		Security:        taxlot.NewSecurity(rec.Ticker, rec.Name),
		AcquisitionDate: acq,
		Shares:          taxlot.Q(shares),
		CostPerShare:    taxlot.USD(cost),
		SharesRemaining: taxlot.Q(shares),
	}
	if rec.AMTCostPerShare != "" {
		amt, err := decimal.NewFromString(rec.AMTCostPerShare)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid amt cost per share %q: %w", rec.AMTCostPerShare, err)
		}
		lot.AMTCostPerShare = taxlot.USD(amt)
	}

	if typ != taxlot.ESPP && typ != taxlot.ISO {
		return lot, nil, nil
	}

	// ESPP and ISO dispositions need the purchase or exercise details.
	event := &taxlot.EquityEvent{
		ID:        "ev-" + id,
		Type:      typ,
		Security:  lot.Security,
		EventDate: acq,
		Shares:    lot.Shares,
		PricePaid: lot.CostPerShare,
	}
	if rec.GrantDate != "" {
		if event.GrantDate, err = taxlot.ParseDate(rec.GrantDate); err != nil {
			return nil, nil, err
		}
	}
	for _, p := range []struct {
		raw string
		dst *taxlot.Money
	}{
		{rec.PricePaid, &event.PricePaid},
		{rec.FMV, &event.FMV},
		{rec.FMVAtOffering, &event.FMVAtOffering},
	} {
		if p.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(p.raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid amount %q: %w", p.raw, err)
		}
		*p.dst = taxlot.USD(d)
	}
	if err := taxlot.ValidateEvent(event); err != nil {
		return nil, nil, err
	}
	lot.SourceEventID = event.ID
	return lot, event, nil
}

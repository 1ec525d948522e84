package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mohanadkaleia/taxlot"
)

// estimateCmd holds the flags for the 'estimate' subcommand.
type estimateCmd struct {
	year      int
	status    string
	inputFile string
	fromDB    bool
}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "estimate federal and California tax liability" }
func (*estimateCmd) Usage() string {
	return `taxlot estimate -year <year> -status <status> -input <file> [-from-db]

  Computes federal income tax (with LTCG stacking, AMT and NIIT) and
  California tax from an income snapshot JSON file. With -from-db the
  capital gains and equity ordinary income are taken from the year's
  reconciliation results instead of the input file.
`
}

func (c *estimateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Tax year to estimate")
	f.StringVar(&c.status, "status", "single", "Filing status (single, married_joint, married_separate, head_of_household)")
	f.StringVar(&c.inputFile, "input", "", "Income snapshot file (JSON)")
	f.BoolVar(&c.fromDB, "from-db", false, "Pull capital gains and equity income from reconciliation results")
}

func (c *estimateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 || c.inputFile == "" {
		fmt.Fprintln(os.Stderr, "the -year and -input flags are required")
		return subcommands.ExitUsageError
	}
	status, err := taxlot.ParseFilingStatus(c.status)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing filing status: %v\n", err)
		return subcommands.ExitUsageError
	}

	input, err := readInput(c.inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input %q: %v\n", c.inputFile, err)
		return subcommands.ExitFailure
	}
	input.Year = c.year
	input.Status = status

	if c.fromDB {
		if err := fillFromResults(&input, c.year); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading reconciliation results: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	tables, err := LoadTables()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tax tables: %v\n", err)
		return subcommands.ExitFailure
	}

	estimate, err := taxlot.NewEstimator(tables).Estimate(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error estimating: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := json.MarshalIndent(estimate, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding estimate: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}

// readInput decodes the income snapshot file. Monetary fields accept bare
// decimal strings.
func readInput(path string) (taxlot.TaxInput, error) {
	var input taxlot.TaxInput
	data, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, err
	}
	return input, nil
}

// fillFromResults overwrites the capital-gain and equity-income fields of the
// input with the aggregates of the year's reconciliation results.
func fillFromResults(input *taxlot.TaxInput, year int) error {
	log := Logger()
	db, err := OpenStore(log)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.ResultsForYear(year)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no reconciliation results for %d, run 'taxlot reconcile' first", year)
	}

	st, lt := taxlot.USD(0), taxlot.USD(0)
	oi, pref := taxlot.USD(0), taxlot.USD(0)
	for _, r := range results {
		if r.Period == taxlot.LongTerm {
			lt = lt.Add(r.GainLoss)
		} else {
			st = st.Add(r.GainLoss)
		}
		oi = oi.Add(r.OrdinaryIncome)
		pref = pref.Add(r.AMTAdjustment)
	}
	input.ShortTermGain = st
	input.LongTermGain = lt
	input.EquityOrdinaryIncome = oi
	input.ISOPreference = taxlot.MaxMoney(pref, taxlot.USD(0))
	return nil
}

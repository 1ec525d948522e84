package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/mohanadkaleia/taxlot"
)

// resultsCmd holds the flags for the 'results' subcommand.
type resultsCmd struct {
	year int
	out  string
}

func (*resultsCmd) Name() string     { return "results" }
func (*resultsCmd) Synopsis() string { return "export reconciliation results for a tax year" }
func (*resultsCmd) Usage() string {
	return `taxlot results -year <year> [-o <file>]

  Writes the year's reconciliation results as JSON Lines, one Form 8949 row
  per sale/lot pair, ready to hand to a preparer.
`
}

func (c *resultsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Tax year")
	f.StringVar(&c.out, "o", "", "Output file (defaults to stdout)")
}

func (c *resultsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		fmt.Fprintln(os.Stderr, "the -year flag is required")
		return subcommands.ExitUsageError
	}

	db, err := OpenStore(Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	results, err := db.ResultsForYear(c.year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading results: %v\n", err)
		return subcommands.ExitFailure
	}

	out := os.Stdout
	if c.out != "" {
		out, err = os.Create(c.out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.out, err)
			return subcommands.ExitFailure
		}
		defer out.Close()
	}

	if err := taxlot.ExportResults(out, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

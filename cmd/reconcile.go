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

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	year int
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "match sales to lots and correct broker basis" }
func (*reconcileCmd) Usage() string {
	return `taxlot reconcile -year <year>

  Matches every sale of the tax year against acquisition lots, corrects the
  broker-reported cost basis, and persists per-lot results. Re-running a year
  replaces its prior results.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Tax year to reconcile")
}

func (c *reconcileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		fmt.Fprintln(os.Stderr, "the -year flag is required")
		return subcommands.ExitUsageError
	}

	log := Logger()
	db, err := OpenStore(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	engine := taxlot.NewReconciliationEngine(db, log)
	run, err := engine.Reconcile(c.year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reconciling %d: %v\n", c.year, err)
		return subcommands.ExitFailure
	}

	out, err := json.MarshalIndent(run.Summary, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding summary: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}

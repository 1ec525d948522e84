package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

// runsCmd holds the flags for the 'runs' subcommand.
type runsCmd struct {
	year int
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list past reconciliation runs" }
func (*runsCmd) Usage() string {
	return `taxlot runs [-year <year>]

  Lists recorded reconciliation runs with their summaries, most recent first.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Only show runs for this tax year")
}

func (c *runsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := OpenStore(Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	runs, err := db.Runs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading runs: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tYEAR\tCOMPLETED\tSALES\tMATCHED\tGAIN/LOSS\tSTATUS")
	for _, run := range runs {
		if c.year != 0 && run.Year != c.year {
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t%s\n",
			run.ID, run.Year, run.CompletedAt.Format("2006-01-02 15:04"),
			run.Summary.TotalSales, run.Summary.MatchedSales,
			run.Summary.TotalGainLoss.Amount(), run.Summary.Status,
		)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

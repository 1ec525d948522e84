package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

// lotsCmd holds the flags for the 'lots' subcommand.
type lotsCmd struct {
	open bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "list acquisition lots" }
func (*lotsCmd) Usage() string {
	return `taxlot lots [-open]

  Lists every acquisition lot with its remaining share count.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.open, "open", false, "Only show lots with shares remaining")
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := OpenStore(Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	lots, err := db.Lots()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing lots: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSECURITY\tACQUIRED\tSHARES\tREMAINING\tCOST/SHARE")
	for _, l := range lots {
		if c.open && !l.SharesRemaining.IsPositive() {
			continue
		}
		id := l.ID
		if l.AutoCreated {
			id += " (auto)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, l.Type, l.Security, l.AcquisitionDate,
			l.Shares, l.SharesRemaining, l.CostPerShare)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

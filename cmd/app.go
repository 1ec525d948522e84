// Package cmd implements the CLI application to reconcile equity compensation
// cost basis and estimate the resulting tax liability.
package cmd

import (
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/mohanadkaleia/taxlot"
	"github.com/mohanadkaleia/taxlot/store"
)

// Register the subcommands.
// A main package calls Register(), then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importSalesCmd{}, "data")
	c.Register(&importLotsCmd{}, "data")
	c.Register(&lotsCmd{}, "data")

	c.Register(&reconcileCmd{}, "reconciliation")
	c.Register(&resultsCmd{}, "reconciliation")
	c.Register(&runsCmd{}, "reconciliation")

	c.Register(&estimateCmd{}, "tax")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbPath = flag.String("db", "taxlot.db", "Path to the lot database file (SQLite)")
var tablesPath = flag.String("tables", "", "Path to a YAML tax table override file")
var verbose = flag.Bool("v", false, "Enable debug logging")

// Logger builds the application logger from the global flags.
func Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// OpenStore opens the lot database named by the -db flag.
func OpenStore(log zerolog.Logger) (*store.SQLiteStore, error) {
	return store.OpenSQLite(*dbPath, log)
}

// LoadTables loads the tax tables, merging the -tables override file over the
// built-in years when one is given.
func LoadTables() (*taxlot.Tables, error) {
	if *tablesPath == "" {
		return taxlot.DefaultTables(), nil
	}
	return taxlot.LoadTablesFile(*tablesPath)
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/psw"
	"github.com/etnz/psw/renderer"
	"github.com/etnz/psw/store"
	"github.com/etnz/psw/web"
	"github.com/google/subcommands"
)

type importDividendsCmd struct {
	broker         string
	brokerID       uint
	accountGroupID uint
	dryRun         bool
	format         string
}

func (*importDividendsCmd) Name() string     { return "import-dividends" }
func (*importDividendsCmd) Synopsis() string { return "import a broker dividend statement" }
func (*importDividendsCmd) Usage() string {
	return `import-dividends -broker <layout> [-broker-id <id>] [-account-group-id <id>] [-dry-run] <file.csv>

Import the dividends of a broker statement into the dividend log. Rows
already recorded with the same ISIN, payment date and amount are skipped.
Layouts: avanza, nordnet, seb, handelsbanken, generic.
`
}

func (c *importDividendsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.broker, "broker", "generic", "Statement layout")
	f.UintVar(&c.brokerID, "broker-id", 0, "Broker to record on every row")
	f.UintVar(&c.accountGroupID, "account-group-id", 0, "Account group to record on every row")
	f.BoolVar(&c.dryRun, "dry-run", false, "Parse and report without storing")
	formatFlag(f, &c.format)
}

func (c *importDividendsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		failf("expected exactly one statement file")
		return subcommands.ExitUsageError
	}
	layout, err := psw.LookupBrokerFormat(c.broker)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	// Same limit as the upload endpoint.
	res, err := psw.ParseDividends(io.LimitReader(file, web.MaxImportSize), layout)
	if err != nil {
		failf("cannot parse %s: %v", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	opts := renderer.Options{Format: c.format}

	if c.dryRun {
		sum := store.ImportSummary{Batch: "dry-run", Errors: res.Errors, Warnings: res.Warnings}
		for _, d := range res.Dividends {
			sum.Imported++
			if !d.IsComplete() {
				sum.Incomplete++
			}
		}
		printMarkdown(renderer.RenderImport(sum, opts))
		return subcommands.ExitSuccess
	}

	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()

	sum, err := e.store.ImportDividends(ctx, res, optionalID(c.brokerID), optionalID(c.accountGroupID))
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderImport(sum, opts))
	if len(sum.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%d rows could not be imported.\n", len(sum.Errors))
	}
	return subcommands.ExitSuccess
}

// optionalID maps the zero flag value to no id.
func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

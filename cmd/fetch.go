package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/psw/marketdata"
	"github.com/google/subcommands"
)

type fetchFXCmd struct {
	cache string
}

func (*fetchFXCmd) Name() string     { return "fetch-fx" }
func (*fetchFXCmd) Synopsis() string { return "fetch the latest exchange rates" }
func (*fetchFXCmd) Usage() string {
	return `fetch-fx [-cache <dir>]

Fetch the latest exchange rates from freecurrencyapi.com and store them.
Responses are cached in the directory for the day. FREECURRENCY_API_KEY must
be set.
`
}

func (c *fetchFXCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cache, "cache", "", "Directory of the daily response cache, the temporary directory by default")
}

func (c *fetchFXCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()
	if e.cfg.FreeCurrencyAPIKey == "" {
		failf("FREECURRENCY_API_KEY is not set")
		return subcommands.ExitFailure
	}

	fx := marketdata.NewFreeCurrency(e.cfg.FreeCurrencyAPIKey, marketdata.Daily(c.cache, e.log))
	sum, err := marketdata.SyncFX(ctx, fx, e.store, marketdata.DefaultPairs, e.log)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d exchange rates saved.\n", sum.Rates)
	if len(sum.FailedBases) > 0 {
		fmt.Printf("Failed base currencies: %s\n", strings.Join(sum.FailedBases, ", "))
	}
	return subcommands.ExitSuccess
}

type fetchBorsdataCmd struct {
	cache string
}

func (*fetchBorsdataCmd) Name() string     { return "fetch-borsdata" }
func (*fetchBorsdataCmd) Synopsis() string { return "fetch sectors, instruments, prices and yields from Börsdata" }
func (*fetchBorsdataCmd) Usage() string {
	return `fetch-borsdata [-cache <dir>]

Refresh the sectors, the Nordic and global instruments and their last prices
from the Börsdata API, then the dividend yield history of the new companies.
Responses are cached in the directory for the day. BORSDATA_API_KEY must be
set.
`
}

func (c *fetchBorsdataCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cache, "cache", "", "Directory of the daily response cache, the temporary directory by default")
}

func (c *fetchBorsdataCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()
	if e.cfg.BorsdataAPIKey == "" {
		failf("BORSDATA_API_KEY is not set")
		return subcommands.ExitFailure
	}

	b := marketdata.NewBorsdata(e.cfg.BorsdataAPIKey, marketdata.Daily(c.cache, e.log))
	sum, err := marketdata.SyncBorsdata(ctx, b, e.store, e.log)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d sectors, %d Nordic and %d global instruments, %d prices saved.\n",
		sum.Sectors, sum.Nordic, sum.Global, sum.Prices)
	fmt.Printf("%d yield figures fetched, %d new companies updated.\n", sum.Yields, sum.Companies)
	return subcommands.ExitSuccess
}

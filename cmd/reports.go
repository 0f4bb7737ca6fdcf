package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/psw/renderer"
	"github.com/etnz/psw/store"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// report runs a rendering function against an opened store.
func report(ctx context.Context, render func(context.Context, *store.Store) (string, error)) subcommands.ExitStatus {
	e, ok := migrated(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()
	md, err := render(ctx, e.store)
	if err != nil {
		failf("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}

type holdingsCmd struct{ format string }

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list the active holdings" }
func (*holdingsCmd) Usage() string {
	return `holdings [-format sv|en|de]

List the companies currently held, with their cost and value in SEK.
`
}
func (c *holdingsCmd) SetFlags(f *flag.FlagSet) { formatFlag(f, &c.format) }

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		h, err := s.ActiveHoldings(ctx)
		if err != nil {
			return "", err
		}
		return renderer.RenderHoldings(h, renderer.Options{Format: c.format}), nil
	})
}

type allocationCmd struct{ format string }

func (*allocationCmd) Name() string     { return "allocation" }
func (*allocationCmd) Synopsis() string { return "show how the portfolio is spread" }
func (*allocationCmd) Usage() string {
	return `allocation [-format sv|en|de]

Show the weight of each country, region, sector, currency and position size.
`
}
func (c *allocationCmd) SetFlags(f *flag.FlagSet) { formatFlag(f, &c.format) }

func (c *allocationCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		a, err := s.Allocation(ctx)
		if err != nil {
			return "", err
		}
		return renderer.RenderAllocation(a, renderer.Options{Format: c.format}), nil
	})
}

type dividendsCmd struct {
	format   string
	year     int
	company  string
	currency string
	min, max string
}

func (*dividendsCmd) Name() string     { return "dividends" }
func (*dividendsCmd) Synopsis() string { return "summarize the dividend log" }
func (*dividendsCmd) Usage() string {
	return `dividends [-year <yyyy>] [-company <name>] [-currency <ccy>] [-min <sek>] [-max <sek>] [-format sv|en|de]

Summarize the dividends received, optionally filtered.
`
}

func (c *dividendsCmd) SetFlags(f *flag.FlagSet) {
	formatFlag(f, &c.format)
	f.IntVar(&c.year, "year", 0, "Payment year")
	f.StringVar(&c.company, "company", "", "Part of the company name")
	f.StringVar(&c.currency, "currency", "", "Payment currency")
	f.StringVar(&c.min, "min", "", "Minimum amount in SEK")
	f.StringVar(&c.max, "max", "", "Maximum amount in SEK")
}

func (c *dividendsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter := store.DividendFilter{
		Year:     c.year,
		Company:  c.company,
		Currency: strings.ToUpper(c.currency),
	}
	var err error
	if filter.MinAmount, err = parseAmount(c.min); err != nil {
		failf("-min: %v", err)
		return subcommands.ExitUsageError
	}
	if filter.MaxAmount, err = parseAmount(c.max); err != nil {
		failf("-max: %v", err)
		return subcommands.ExitUsageError
	}
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		sum, err := s.SummarizeDividends(ctx, filter)
		if err != nil {
			return "", err
		}
		return renderer.RenderDividendSummary(sum, renderer.Options{Format: c.format}), nil
	})
}

type estimateCmd struct{ format string }

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "forecast the dividends of the year" }
func (*estimateCmd) Usage() string {
	return `estimate [-format sv|en|de]

Forecast the dividends of the current year, month by month and quarter by
quarter, from the dividend log.
`
}
func (c *estimateCmd) SetFlags(f *flag.FlagSet) { formatFlag(f, &c.format) }

func (c *estimateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		e, err := s.EstimateDividends(ctx)
		if err != nil {
			return "", err
		}
		return renderer.RenderEstimate(e, renderer.Options{Format: c.format}), nil
	})
}

type reconcileCmd struct{ format string }

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "list the holdings no data source covers" }
func (*reconcileCmd) Usage() string {
	return `reconcile [-format sv|en|de]

Check every held company against the masterlist, the Börsdata instruments and
the manual company data.
`
}
func (c *reconcileCmd) SetFlags(f *flag.FlagSet) { formatFlag(f, &c.format) }

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		r, err := s.Unsupported(ctx)
		if err != nil {
			return "", err
		}
		return renderer.RenderReconciliation(r, renderer.Options{Format: c.format}), nil
	})
}

type recomputeCmd struct{}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "rebuild the holdings from the trade log" }
func (*recomputeCmd) Usage() string {
	return `recompute

Rebuild the portfolio table from the trade log and value it at the latest
prices and exchange rates.
`
}
func (*recomputeCmd) SetFlags(*flag.FlagSet) {}

func (*recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return report(ctx, func(ctx context.Context, s *store.Store) (string, error) {
		sum, err := s.RecomputeHoldings(ctx)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "# Holdings recomputed\n\n%d active, %d closed.\n", sum.Active, sum.Inactive)
		if len(sum.Unpriced) > 0 {
			b.WriteString("\nNo market price, valued at the last trade price:\n\n")
			for _, isin := range sum.Unpriced {
				b.WriteString("- " + isin + "\n")
			}
		}
		return b.String(), nil
	})
}

// parseAmount reads a decimal flag value, empty meaning none.
func parseAmount(v string) (decimal.NullDecimal, error) {
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", v)
	}
	return decimal.NewNullDecimal(d), nil
}

package renderer

import (
	"io/fs"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/etnz/psw"
	"github.com/etnz/psw/date"
	"github.com/etnz/psw/store"
	"github.com/shopspring/decimal"
)

var en = Options{Format: "en"}

func decimalOf(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertLines checks that every line of want appears in got.
func assertLines(t *testing.T, got string, want ...string) {
	t.Helper()
	lines := make(map[string]bool)
	for _, l := range strings.Split(got, "\n") {
		lines[l] = true
	}
	for _, w := range want {
		if !lines[w] {
			t.Errorf("missing line %q in:\n%s", w, got)
		}
	}
}

func TestTemplatesParse(t *testing.T) {
	files, err := fs.Glob(templates, "*.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no template embedded")
	}
	for _, file := range files {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := template.New(file).Funcs(funcs(psw.NewFormatter("en"))).Parse(string(content)); err != nil {
			t.Errorf("%s: %v", file, err)
		}
	}
}

func TestRenderAllocation(t *testing.T) {
	a := psw.Allocate([]psw.Position{
		{ISIN: "SE0000115446", Name: "Volvo B", Sector: "Industrials", Currency: "SEK", Value: psw.SEK(decimalOf("75000"))},
		{ISIN: "US0378331005", Name: "Apple", Sector: "Technology", Currency: "USD", Value: psw.SEK(decimalOf("25000"))},
	})
	got := RenderAllocation(a, en)
	if strings.HasPrefix(got, "error") {
		t.Fatal(got)
	}
	assertLines(t, got,
		"# Portfolio allocation",
		"Total value 100,000.00 SEK in 2 positions.",
		"## By country",
		"| Country | Positions | Value | Weight |",
		"## By sector",
		"| Industrials | 1 | 75,000.00 SEK | 75.00 % |",
		"| Technology | 1 | 25,000.00 SEK | 25.00 % |",
		"## By size",
		"| Medium | 1 | 75,000.00 SEK | 75.00 % |",
		"| Small | 1 | 25,000.00 SEK | 25.00 % |",
	)
}

func TestRenderAllocationEmpty(t *testing.T) {
	got := RenderAllocation(psw.Allocate(nil), en)
	if strings.Contains(got, "## By") {
		t.Errorf("empty allocation renders tables:\n%s", got)
	}
	assertLines(t, got, "Total value 0.00 SEK in 0 positions.")
}

func TestRenderReconciliation(t *testing.T) {
	r := psw.Reconcile(
		[]psw.HeldCompany{
			{ISIN: "SE0000115446", Name: "Volvo B", Ticker: "VOLV B", Value: psw.SEK(decimalOf("1000"))},
			{ISIN: "GB0002634946", Name: "BAE Systems", Ticker: "BA.", Value: psw.SEK(decimalOf("2500.5"))},
			{ISIN: "FI0009000681", Name: "Nokia", Ticker: "NOKIA", Value: psw.SEK(decimalOf("10"))},
		},
		psw.NewSource(psw.SourceNordic, []string{"SE0000115446"}),
		psw.NewSource(psw.SourceManual, []string{"FI0009000681"}),
	)
	got := RenderReconciliation(r, en)
	assertLines(t, got,
		"# Data coverage",
		"3 companies checked, 1 unsupported, 1 covered by manual data.",
		"## Unsupported",
		"| GB0002634946 | BAE Systems | BA. | 2,500.50 SEK |",
		"## Manual data",
		"| FI0009000681 | Nokia | NOKIA | 10.00 SEK |",
	)
	if strings.Contains(got, "Volvo") {
		t.Errorf("supported company rendered:\n%s", got)
	}

	got = RenderReconciliation(psw.Reconcile(nil), en)
	assertLines(t, got, "Every company is covered by a data source.")
}

func TestRenderDividendSummary(t *testing.T) {
	s := store.DividendSummary{
		Payments:   3,
		Companies:  2,
		Currencies: 2,
		Total:      psw.SEK(decimalOf("1234.5")),
		Average:    psw.SEK(decimalOf("411.5")),
		Min:        psw.SEK(decimalOf("10")),
		Max:        psw.SEK(decimalOf("1000")),
		TaxSEK:     psw.SEK(decimalOf("300")),
		First:      date.New(2024, time.January, 5),
		Last:       date.New(2024, time.May, 16),
	}
	got := RenderDividendSummary(s, en)
	assertLines(t, got,
		"3 payments from 2 companies in 2 currencies, 01/05/2024 to 05/16/2024.",
		"| Total | 1,234.50 SEK |",
		"| Tax withheld | 300.00 SEK |",
	)

	got = RenderDividendSummary(store.DividendSummary{}, en)
	assertLines(t, got, "No dividend received.")
}

func TestRenderEstimate(t *testing.T) {
	e := psw.EstimateDividends([]psw.Payment{
		{PayDate: date.New(2023, time.March, 10), Amount: psw.SEK(decimalOf("100"))},
		{PayDate: date.New(2023, time.September, 10), Amount: psw.SEK(decimalOf("200"))},
		{PayDate: date.New(2024, time.March, 12), Amount: psw.SEK(decimalOf("150"))},
	}, date.New(2024, time.June, 15))
	got := RenderEstimate(e, en)
	if strings.HasPrefix(got, "error") {
		t.Fatal(got)
	}
	assertLines(t, got,
		"# Dividend estimate 2024",
		"| Run rate | 350.00 SEK |",
		"| Received this year | 150.00 SEK |",
		"| March * | 150.00 SEK | 150.00 SEK | 1 |",
		"| September | 0.00 SEK | 200.00 SEK | 1 |",
		"| Q1 * | 150.00 SEK | 150.00 SEK | 1 |",
	)
}

func TestRenderImport(t *testing.T) {
	got := RenderImport(store.ImportSummary{
		Batch:      "b1",
		Imported:   2,
		Duplicates: 1,
		Warnings:   []string{"Row 3: Currency code length is not 3 characters: EURO"},
	}, en)
	assertLines(t, got,
		"Batch `b1`: 2 imported, 1 duplicates skipped, 0 incomplete.",
		"## Warnings",
		"- Row 3: Currency code length is not 3 characters: EURO",
	)
	if strings.Contains(got, "## Errors") {
		t.Errorf("errors section without errors:\n%s", got)
	}
}

func TestFormatPreference(t *testing.T) {
	a := psw.Allocate([]psw.Position{{ISIN: "SE0000115446", Value: psw.SEK(decimalOf("1234.5"))}})
	got := RenderAllocation(a, Options{Format: "de"})
	assertLines(t, got, "Total value 1.234,50 SEK in 1 positions.")
}

func TestRenderHoldings(t *testing.T) {
	got := RenderHoldings([]store.Holding{
		{CompanyName: "Volvo B", Ticker: "VOLV B", ISIN: "SE0000115446", SharesHeld: decimalOf("120"), TotalCostSEK: decimalOf("24000"), CurrentValueSEK: decimalOf("31500.456")},
		{CompanyName: "BAE Systems", ISIN: "GB0002634946", SharesHeld: decimalOf("10.5"), TotalCostSEK: decimalOf("1500"), CurrentValueSEK: decimalOf("1800")},
	}, en)
	assertLines(t, got,
		"| Volvo B (VOLV B) | SE0000115446 | 120.00 | 24,000.00 SEK | 31,500.46 SEK |",
		"| BAE Systems | GB0002634946 | 10.50 | 1,500.00 SEK | 1,800.00 SEK |",
	)

	got = RenderHoldings(nil, en)
	assertLines(t, got, "No active holding.")
}

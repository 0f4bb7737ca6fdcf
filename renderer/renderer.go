// Package renderer renders the portfolio reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates, _ = fs.Sub(templateFS, "templates")

// Options holds the configuration of a rendering.
type Options struct {
	// Format is the number and date format preference, see [psw.FormatKeys].
	Format string
}

// bucketSection is one dimension of the allocation report.
type bucketSection struct {
	Title   string
	Buckets []psw.Bucket
}

func funcs(f psw.Formatter) template.FuncMap {
	return template.FuncMap{
		"money":  f.Money,
		"number": f.Number,
		"date":   f.Date,
		"lower":  strings.ToLower,
		"sek": func(d decimal.Decimal) string {
			return f.Money(psw.SEK(d))
		},
		"percent": func(p psw.Percent) string {
			return f.Number(decimal.NewFromFloat(float64(p)), 2) + " %"
		},
		"section": func(title string, b []psw.Bucket) bucketSection {
			return bucketSection{Title: title, Buckets: b}
		},
	}
}

// RenderAllocation renders the allocation tables of the portfolio.
func RenderAllocation(a psw.Allocation, opts Options) string {
	return renderTemplate("allocation", "allocation.md", map[string]string{
		"buckets": "allocation_buckets.md",
	}, a, opts)
}

// RenderHoldings renders the active holdings.
func RenderHoldings(h []store.Holding, opts Options) string {
	return renderTemplate("holdings", "holdings.md", nil, h, opts)
}

// RenderReconciliation renders the companies no data source covers.
func RenderReconciliation(r psw.Reconciliation, opts Options) string {
	return renderTemplate("reconciliation", "reconciliation.md", map[string]string{
		"companies": "reconciliation_companies.md",
	}, r, opts)
}

// RenderDividendSummary renders the totals of the dividend log.
func RenderDividendSummary(s store.DividendSummary, opts Options) string {
	return renderTemplate("dividendSummary", "dividend_summary.md", nil, s, opts)
}

// RenderEstimate renders the dividend forecast of the year.
func RenderEstimate(e psw.Estimate, opts Options) string {
	return renderTemplate("estimate", "estimate.md", map[string]string{
		"months":   "estimate_months.md",
		"quarters": "estimate_quarters.md",
	}, e, opts)
}

// RenderImport renders the outcome of a dividend statement import.
func RenderImport(s store.ImportSummary, opts Options) string {
	return renderTemplate("import", "import.md", nil, s, opts)
}

// renderTemplate renders a main template that depends on several partials.
// Errors are rendered in place of the report.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any, opts Options) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}
	tmpl, err := template.New(templateName).Funcs(funcs(psw.NewFormatter(opts.Format))).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}
	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

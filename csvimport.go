package psw

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed brokers.yaml
var brokersYAML []byte

// BrokerFormat describes the CSV layout of a broker dividend statement.
type BrokerFormat struct {
	Key               string            `yaml:"key" json:"key"`
	Name              string            `yaml:"name" json:"name"`
	Delimiter         string            `yaml:"delimiter" json:"delimiter"`
	PreambleRows      int               `yaml:"preamble_rows" json:"preamble_rows"`
	DateLayout        string            `yaml:"date_layout" json:"date_layout"`
	DecimalSeparator  string            `yaml:"decimal_separator" json:"decimal_separator"`
	ThousandSeparator string            `yaml:"thousand_separator" json:"thousand_separator"`
	Columns           map[string]string `yaml:"columns" json:"columns"`
	Required          []string          `yaml:"required" json:"required"`
}

// BrokerFormats decodes the built-in broker layouts.
func BrokerFormats() ([]BrokerFormat, error) {
	var formats []BrokerFormat
	if err := yaml.Unmarshal(brokersYAML, &formats); err != nil {
		return nil, fmt.Errorf("invalid broker layouts: %w", err)
	}
	return formats, nil
}

// LookupBrokerFormat returns the built-in layout of a broker key.
func LookupBrokerFormat(key string) (BrokerFormat, error) {
	formats, err := BrokerFormats()
	if err != nil {
		return BrokerFormat{}, err
	}
	for _, f := range formats {
		if strings.EqualFold(f.Key, key) {
			return f, nil
		}
	}
	return BrokerFormat{}, fmt.Errorf("unknown broker format %q", key)
}

// ImportedDividend is a parsed statement row. Optional amounts are null when
// the statement does not provide them.
type ImportedDividend struct {
	Row          int                 `json:"row"`
	PayDate      date.Date           `json:"payment_date"`
	ISIN         string              `json:"isin"`
	Ticker       string              `json:"ticker,omitempty"`
	Currency     string              `json:"currency_local,omitempty"`
	Shares       decimal.Decimal     `json:"shares_held"`
	AmountLocal  decimal.NullDecimal `json:"dividend_amount_local"`
	TaxLocal     decimal.NullDecimal `json:"tax_amount_local"`
	AmountSEK    decimal.NullDecimal `json:"dividend_amount_sek"`
	TaxSEK       decimal.NullDecimal `json:"tax_amount_sek"`
	NetSEK       decimal.NullDecimal `json:"net_dividend_sek"`
	FXRate       decimal.NullDecimal `json:"exchange_rate_used"`
	TaxRate      Percent             `json:"tax_rate_percent"`
	Incomplete   []string            `json:"incomplete_fields,omitempty"`
}

// IsComplete reports whether every SEK amount is known.
func (d ImportedDividend) IsComplete() bool { return len(d.Incomplete) == 0 }

// ImportResult is the outcome of parsing a statement.
type ImportResult struct {
	Dividends []ImportedDividend `json:"dividends"`
	Errors    []string           `json:"errors"`
	Warnings  []string           `json:"warnings"`
	Rows      int                `json:"total_rows"`
	GrossSEK  Money              `json:"total_dividend_sek"`
	TaxSEK    Money              `json:"total_tax_sek"`
}

var notNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ParseDividends reads a dividend statement in the given layout.
//
// Structural problems (no header, missing required columns) fail the whole
// parse. A row that cannot be parsed is reported in Errors and skipped;
// suspicious values (malformed ISIN, non 3-letter currency, missing SEK
// amounts) are reported in Warnings and the row is kept.
func ParseDividends(r io.Reader, f BrokerFormat) (ImportResult, error) {
	res := ImportResult{Errors: []string{}, Warnings: []string{}, GrossSEK: SEK(0), TaxSEK: SEK(0)}

	cr := csv.NewReader(r)
	if f.Delimiter != "" {
		cr.Comma = []rune(f.Delimiter)[0]
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	for i := 0; i < f.PreambleRows; i++ {
		if _, err := cr.Read(); err != nil {
			return res, fmt.Errorf("could not skip preamble: %w", err)
		}
	}
	header, err := cr.Read()
	if err != nil {
		return res, fmt.Errorf("could not read header row: %w", err)
	}
	index := make(map[string]int)
	for field, column := range f.Columns {
		for i, h := range header {
			if strings.TrimSpace(h) == column {
				index[field] = i
				break
			}
		}
	}
	var missing []string
	for _, field := range f.Required {
		if _, ok := index[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return res, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	rowNumber := f.PreambleRows + 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNumber++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", rowNumber, err))
			continue
		}
		if blank(record) {
			continue
		}
		res.Rows++
		d, warnings, err := parseDividendRow(record, index, f, rowNumber)
		res.Warnings = append(res.Warnings, warnings...)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", rowNumber, err))
			continue
		}
		res.Dividends = append(res.Dividends, d)
		if d.AmountSEK.Valid {
			res.GrossSEK = res.GrossSEK.Add(SEK(d.AmountSEK.Decimal))
		}
		if d.TaxSEK.Valid {
			res.TaxSEK = res.TaxSEK.Add(SEK(d.TaxSEK.Decimal))
		}
	}
	return res, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseDividendRow(record []string, index map[string]int, f BrokerFormat, row int) (ImportedDividend, []string, error) {
	d := ImportedDividend{Row: row}
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf("Row %d: ", row)+fmt.Sprintf(format, args...))
	}
	value := func(field string) string {
		i, ok := index[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(field string) (decimal.NullDecimal, error) {
		v := value(field)
		if v == "" {
			return decimal.NullDecimal{}, nil
		}
		n, err := parseLocalDecimal(v, f)
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("invalid numeric value in %s: %q", field, v)
		}
		return decimal.NewNullDecimal(n), nil
	}

	if v := value("payment_date"); v != "" {
		pay, err := date.ParseLayout(f.DateLayout, v)
		if err != nil {
			return d, warnings, fmt.Errorf("invalid date format: %s", v)
		}
		d.PayDate = pay
	}
	d.ISIN = NormalizeISIN(value("isin"))
	if len(d.ISIN) > MaxISINLength {
		// Would not fit the isin column.
		return d, warnings, fmt.Errorf("ISIN longer than %d characters: %s", MaxISINLength, d.ISIN)
	}
	if d.ISIN != "" {
		if len(d.ISIN) != 12 {
			warn("ISIN length is not 12 characters: %s", d.ISIN)
		}
		switch {
		case !isinRegex.MatchString(d.ISIN):
			warn("ISIN format may be invalid: %s", d.ISIN)
		case !CheckISIN(d.ISIN):
			warn("ISIN check digit does not match: %s", d.ISIN)
		}
	}
	d.Ticker = strings.ToUpper(value("ticker"))
	if d.Currency = strings.ToUpper(value("currency_local")); d.Currency != "" && len(d.Currency) != 3 {
		warn("Currency code length is not 3 characters: %s", d.Currency)
	}

	shares, err := number("shares_held")
	if err != nil {
		return d, warnings, err
	}
	targets := []struct {
		field string
		dst   *decimal.NullDecimal
	}{
		{"dividend_amount_local", &d.AmountLocal},
		{"tax_amount_local", &d.TaxLocal},
		{"dividend_amount_sek", &d.AmountSEK},
		{"tax_amount_sek", &d.TaxSEK},
		{"net_dividend_sek", &d.NetSEK},
		{"exchange_rate_used", &d.FXRate},
	}
	for _, t := range targets {
		if *t.dst, err = number(t.field); err != nil {
			return d, warnings, err
		}
	}
	if d.PayDate.IsZero() || d.ISIN == "" || !shares.Valid || shares.Decimal.IsZero() {
		return d, warnings, fmt.Errorf("missing required data in row")
	}
	d.Shares = shares.Decimal

	// derived fields
	if d.AmountLocal.Valid && d.TaxLocal.Valid && d.AmountLocal.Decimal.IsPositive() {
		d.TaxRate = PercentOf(d.TaxLocal.Decimal, d.AmountLocal.Decimal)
	}
	if !d.NetSEK.Valid && d.AmountSEK.Valid && d.TaxSEK.Valid {
		d.NetSEK = decimal.NewNullDecimal(d.AmountSEK.Decimal.Sub(d.TaxSEK.Decimal))
	}
	if !d.FXRate.Valid && d.AmountLocal.Valid && d.AmountSEK.Valid && d.AmountLocal.Decimal.IsPositive() {
		d.FXRate = decimal.NewNullDecimal(d.AmountSEK.Decimal.Div(d.AmountLocal.Decimal).Round(6))
	}
	if !d.AmountSEK.Valid || !d.AmountSEK.Decimal.IsPositive() {
		d.Incomplete = append(d.Incomplete, "dividend_amount_sek")
	}
	if !d.TaxSEK.Valid {
		d.Incomplete = append(d.Incomplete, "tax_amount_sek")
	}
	if !d.NetSEK.Valid {
		d.Incomplete = append(d.Incomplete, "net_dividend_sek")
	}
	if len(d.Incomplete) > 0 {
		warn("Incomplete data - missing: %s", strings.Join(d.Incomplete, ", "))
	}
	return d, warnings, nil
}

// parseLocalDecimal reads a number written with the format separators.
func parseLocalDecimal(v string, f BrokerFormat) (decimal.Decimal, error) {
	if f.ThousandSeparator != "" {
		v = strings.ReplaceAll(v, f.ThousandSeparator, "")
	}
	if f.DecimalSeparator != "" && f.DecimalSeparator != "." {
		v = strings.ReplaceAll(v, f.DecimalSeparator, ".")
	}
	// also drops currency symbols and non-breaking spaces.
	v = notNumeric.ReplaceAllString(v, "")
	return decimal.NewFromString(v)
}

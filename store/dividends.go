package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/psw"
	"github.com/etnz/psw/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DividendRequest is a dividend as entered by a user.
type DividendRequest struct {
	ExDate         date.Date       `json:"ex_date"`
	PayDate        date.Date       `json:"pay_date"`
	ISIN           string          `json:"isin"`
	Ticker         string          `json:"ticker"`
	Shares         decimal.Decimal `json:"shares"`
	PerShare       decimal.Decimal `json:"dividend_per_share_original_currency"`
	Total          decimal.Decimal `json:"dividend_total_original_currency"`
	Currency       string          `json:"original_currency"`
	TotalSEK       decimal.Decimal `json:"dividend_total_sek"`
	TaxPercent     float64         `json:"withholding_tax_percent"`
	TaxSEK         decimal.Decimal `json:"withholding_tax_sek"`
	BrokerID       *uint           `json:"broker_id"`
	AccountGroupID *uint           `json:"portfolio_account_group_id"`
	Notes          string          `json:"notes"`
}

// Input converts the request for the dividend calculator.
func (r DividendRequest) Input() psw.DividendInput {
	cur := strings.ToUpper(strings.TrimSpace(r.Currency))
	return psw.DividendInput{
		ExDate:   r.ExDate,
		PayDate:  r.PayDate,
		ISIN:     psw.NormalizeISIN(r.ISIN),
		Shares:   psw.Q(r.Shares),
		PerShare: psw.M(r.PerShare, cur),
		Total:    psw.M(r.Total, cur),
		TotalSEK: psw.SEK(r.TotalSEK),
		TaxSEK:   psw.SEK(r.TaxSEK),
		TaxRate:  psw.Percent(r.TaxPercent),
	}
}

// CreateDividend records a dividend. The net amount, the withholding tax rate
// and the exchange rate are derived from the amounts.
func (s *Store) CreateDividend(ctx context.Context, r DividendRequest) (Dividend, error) {
	in := r.Input()
	if err := in.Validate(); err != nil {
		return Dividend{}, err
	}
	a := psw.CalculateDividend(in)
	d := Dividend{
		ExDate:                  in.ExDate,
		PayDate:                 in.PayDate,
		ISIN:                    in.ISIN,
		Ticker:                  strings.ToUpper(strings.TrimSpace(r.Ticker)),
		SharesOnPayDate:         in.Shares.Decimal(),
		PerShareOriginal:        a.PerShare.Decimal(),
		TotalOriginal:           a.Total.Decimal(),
		OriginalCurrency:        a.Total.Currency(),
		DividendTotalSEK:        in.TotalSEK.Decimal(),
		WithholdingTaxPercent:   float64(a.TaxRate),
		WithholdingTaxSEK:       a.TaxSEK.Decimal(),
		NetDividendSEK:          a.NetSEK.Decimal(),
		BrokerID:                r.BrokerID,
		PortfolioAccountGroupID: r.AccountGroupID,
		IsComplete:              true,
		Notes:                   r.Notes,
	}
	if d.OriginalCurrency == "" {
		d.OriginalCurrency = psw.BaseCurrency
	}
	if !a.FXRate.IsZero() {
		d.FXRateToSEK = decimal.NewNullDecimal(a.FXRate)
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return d, fmt.Errorf("cannot record dividend: %w", err)
	}
	s.audit(ctx, "insert", "log_dividends", d.ID, zapISIN(d.ISIN))
	return d, nil
}

// DeleteDividend removes a dividend.
func (s *Store) DeleteDividend(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Dividend{}, "dividend_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "log_dividends", id)
	return nil
}

// DividendFilter narrows a dividend listing. Empty fields do not filter.
type DividendFilter struct {
	Year      int
	Company   string // name or ISIN
	Currency  string
	MinAmount decimal.NullDecimal // in SEK
	MaxAmount decimal.NullDecimal
	From, To  date.Date // payment dates
}

func (f DividendFilter) apply(q *gorm.DB) *gorm.DB {
	q = q.Where("log_dividends.dividend_total_sek > 0")
	if f.Year != 0 {
		q = q.Where("log_dividends.pay_date BETWEEN ? AND ?",
			date.New(f.Year, 1, 1), date.New(f.Year, 12, 31))
	}
	if f.Company != "" {
		p := like(f.Company)
		q = q.Where("LOWER(masterlist.name) LIKE ? ESCAPE '!' OR LOWER(log_dividends.isin) LIKE ? ESCAPE '!'", p, p)
	}
	if f.Currency != "" {
		q = q.Where("log_dividends.original_currency = ?", strings.ToUpper(f.Currency))
	}
	if f.MinAmount.Valid {
		q = q.Where("log_dividends.dividend_total_sek >= ?", f.MinAmount.Decimal)
	}
	if f.MaxAmount.Valid {
		q = q.Where("log_dividends.dividend_total_sek <= ?", f.MaxAmount.Decimal)
	}
	if !f.From.IsZero() {
		q = q.Where("log_dividends.pay_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("log_dividends.pay_date <= ?", f.To)
	}
	return q
}

func (s *Store) dividendQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Dividend{}).
		Select("log_dividends.*, masterlist.name AS company_name, masterlist.country AS country").
		Joins("LEFT JOIN masterlist ON masterlist.isin = log_dividends.isin")
}

var dividendSorts = map[string]string{
	"ex_date":            "log_dividends.ex_date",
	"pay_date":           "log_dividends.pay_date",
	"company_name":       "masterlist.name",
	"dividend_total_sek": "log_dividends.dividend_total_sek",
	"original_currency":  "log_dividends.original_currency",
}

// DefaultDividendSort lists the latest payments first.
var DefaultDividendSort = Sort{By: "pay_date", Desc: true}

// DividendPage is a page of the dividend log.
type DividendPage struct {
	Dividends  []Dividend `json:"dividends"`
	Pagination Pagination `json:"pagination"`
}

// ListDividends returns a page of the dividend log.
func (s *Store) ListDividends(ctx context.Context, f DividendFilter, sort Sort, p Page) (DividendPage, error) {
	var res DividendPage
	var total int64
	if err := f.apply(s.dividendQuery(ctx)).Count(&total).Error; err != nil {
		return res, fmt.Errorf("cannot count dividends: %w", err)
	}
	res.Dividends = []Dividend{}
	q := f.apply(s.dividendQuery(ctx)).Order(orderBy(sort, dividendSorts, DefaultDividendSort)).Order("log_dividends.dividend_id DESC")
	if err := p.apply(q).Find(&res.Dividends).Error; err != nil {
		return res, fmt.Errorf("cannot list dividends: %w", err)
	}
	res.Pagination = newPagination(p, total)
	return res, nil
}

// DividendSummary sums the dividends of a filter.
type DividendSummary struct {
	Payments   int       `json:"total_payments"`
	Companies  int       `json:"unique_companies"`
	Total      psw.Money `json:"total_amount_sek"`
	Average    psw.Money `json:"avg_amount_sek"`
	Min        psw.Money `json:"min_amount_sek"`
	Max        psw.Money `json:"max_amount_sek"`
	TaxSEK     psw.Money `json:"total_tax_sek"`
	Currencies int       `json:"currencies_count"`
	First      date.Date `json:"earliest_date"`
	Last       date.Date `json:"latest_date"`
}

// SummarizeDividends sums the dividends matching f.
func (s *Store) SummarizeDividends(ctx context.Context, f DividendFilter) (DividendSummary, error) {
	var list []Dividend
	if err := f.apply(s.dividendQuery(ctx)).Find(&list).Error; err != nil {
		return DividendSummary{}, fmt.Errorf("cannot summarize dividends: %w", err)
	}
	return summarizeDividends(list), nil
}

func summarizeDividends(list []Dividend) DividendSummary {
	sum := DividendSummary{Total: psw.SEK(0), Average: psw.SEK(0), Min: psw.SEK(0), Max: psw.SEK(0), TaxSEK: psw.SEK(0)}
	isins := map[string]bool{}
	currencies := map[string]bool{}
	for i, d := range list {
		amount := psw.SEK(d.DividendTotalSEK)
		sum.Payments++
		isins[d.ISIN] = true
		if d.OriginalCurrency != "" {
			currencies[d.OriginalCurrency] = true
		}
		sum.Total = sum.Total.Add(amount)
		sum.TaxSEK = sum.TaxSEK.Add(psw.SEK(d.WithholdingTaxSEK))
		if i == 0 || amount.LessThan(sum.Min) {
			sum.Min = amount
		}
		if i == 0 || amount.GreaterThan(sum.Max) {
			sum.Max = amount
		}
		if sum.First.IsZero() || d.PayDate.Before(sum.First) {
			sum.First = d.PayDate
		}
		if d.PayDate.After(sum.Last) {
			sum.Last = d.PayDate
		}
	}
	if sum.Payments > 0 {
		sum.Average = psw.SEK(sum.Total.Decimal().Div(decimal.NewFromInt(int64(sum.Payments)))).Round(2)
	}
	sum.Companies = len(isins)
	sum.Currencies = len(currencies)
	return sum
}

// DividendFilterOptions are the distinct values usable in a DividendFilter.
type DividendFilterOptions struct {
	Years      []int    `json:"years"`
	Currencies []string `json:"currencies"`
}

// DividendFilters returns the payment years, most recent first, and the currencies.
func (s *Store) DividendFilters(ctx context.Context) (DividendFilterOptions, error) {
	o := DividendFilterOptions{Years: []int{}, Currencies: []string{}}
	db := s.db.WithContext(ctx).Model(&Dividend{}).Where("dividend_total_sek > 0")
	var dates []date.Date
	if err := db.Session(&gorm.Session{}).Pluck("pay_date", &dates).Error; err != nil {
		return o, err
	}
	seen := map[int]bool{}
	for _, d := range dates {
		if !d.IsZero() && !seen[d.Year()] {
			seen[d.Year()] = true
			o.Years = append(o.Years, d.Year())
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(o.Years)))
	err := db.Session(&gorm.Session{}).Where("original_currency <> ''").Distinct().
		Order("original_currency").Pluck("original_currency", &o.Currencies).Error
	return o, err
}

// Payments returns every dividend received, in SEK.
func (s *Store) Payments(ctx context.Context) ([]psw.Payment, error) {
	var list []Dividend
	err := s.db.WithContext(ctx).Select("pay_date", "dividend_total_sek").
		Where("dividend_total_sek > 0").Order("pay_date").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("cannot load dividend payments: %w", err)
	}
	payments := make([]psw.Payment, 0, len(list))
	for _, d := range list {
		payments = append(payments, psw.Payment{PayDate: d.PayDate, Amount: psw.SEK(d.DividendTotalSEK)})
	}
	return payments, nil
}

// EstimateDividends forecasts the dividend income of the current year.
func (s *Store) EstimateDividends(ctx context.Context) (psw.Estimate, error) {
	payments, err := s.Payments(ctx)
	if err != nil {
		return psw.Estimate{}, err
	}
	return psw.EstimateDividends(payments, s.Today()), nil
}

// ImportSummary reports the outcome of ImportDividends.
type ImportSummary struct {
	Batch      string   `json:"batch_id"`
	Imported   int      `json:"imported"`
	Duplicates int      `json:"duplicates"`
	Incomplete int      `json:"incomplete"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

// ImportDividends stores the parsed rows of a broker statement in a single
// transaction. Rows already recorded with the same ISIN, payment date and
// amount are skipped.
func (s *Store) ImportDividends(ctx context.Context, res psw.ImportResult, brokerID, accountGroupID *uint) (ImportSummary, error) {
	sum := ImportSummary{Batch: uuid.NewString(), Errors: res.Errors, Warnings: res.Warnings}
	if sum.Errors == nil {
		sum.Errors = []string{}
	}
	if sum.Warnings == nil {
		sum.Warnings = []string{}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range res.Dividends {
			if len(row.ISIN) > psw.MaxISINLength {
				// Does not fit the isin column.
				sum.Errors = append(sum.Errors, fmt.Sprintf("Row %d: ISIN longer than %d characters: %s", row.Row, psw.MaxISINLength, row.ISIN))
				continue
			}
			d := importedDividend(row)
			d.BrokerID = brokerID
			d.PortfolioAccountGroupID = accountGroupID
			d.ImportBatch = sum.Batch

			var n int64
			err := tx.Model(&Dividend{}).
				Where("isin = ? AND pay_date = ? AND dividend_total_original_currency = ?", d.ISIN, d.PayDate, d.TotalOriginal).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				sum.Duplicates++
				continue
			}
			if err := tx.Create(&d).Error; err != nil {
				return fmt.Errorf("row %d: %w", row.Row, err)
			}
			sum.Imported++
			if !d.IsComplete {
				sum.Incomplete++
			}
		}
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("dividend import rolled back: %w", err)
	}
	s.audit(ctx, "import", "log_dividends", sum.Batch,
		zap.Int("imported", sum.Imported), zap.Int("duplicates", sum.Duplicates))
	return sum, nil
}

func importedDividend(row psw.ImportedDividend) Dividend {
	d := Dividend{
		PayDate:          row.PayDate,
		ISIN:             row.ISIN,
		Ticker:           row.Ticker,
		SharesOnPayDate:  row.Shares,
		OriginalCurrency: row.Currency,
		IsComplete:       row.IsComplete(),
		IncompleteFields: strings.Join(row.Incomplete, ","),
		FXRateToSEK:      row.FXRate,
		Notes:            fmt.Sprintf("imported from row %d", row.Row),
	}
	if d.OriginalCurrency == "" {
		d.OriginalCurrency = psw.BaseCurrency
	}
	if row.AmountLocal.Valid {
		d.TotalOriginal = row.AmountLocal.Decimal
		if !row.Shares.IsZero() {
			d.PerShareOriginal = row.AmountLocal.Decimal.Div(row.Shares).Round(6)
		}
	}
	if row.AmountSEK.Valid {
		d.DividendTotalSEK = row.AmountSEK.Decimal
	}
	if row.TaxSEK.Valid {
		d.WithholdingTaxSEK = row.TaxSEK.Decimal
	}
	if row.NetSEK.Valid {
		d.NetDividendSEK = row.NetSEK.Decimal
	}
	d.WithholdingTaxPercent = float64(row.TaxRate)
	return d
}

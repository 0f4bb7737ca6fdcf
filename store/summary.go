package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/psw"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SummaryListLength is the number of recent and upcoming dividends of the
// portfolio summary.
const SummaryListLength = 10

// PortfolioSummary is the overview of the portfolio and its income.
type PortfolioSummary struct {
	TotalValue            psw.Money   `json:"total_value"`
	TotalCost             psw.Money   `json:"total_cost"`
	DividendsYTD          psw.Money   `json:"total_dividends_ytd"`
	DividendsAllTime      psw.Money   `json:"total_dividends_all_time"`
	CurrentYield          psw.Percent `json:"current_yield"`
	ExpectedMonthlyIncome psw.Money   `json:"expected_monthly_income"`
	Holdings              int         `json:"total_holdings"`
	RecentDividends       []Dividend  `json:"recent_dividends"`
	UpcomingDividends     []Dividend  `json:"upcoming_dividends"`
}

// PortfolioSummary values the active holdings and sums the dividend income.
//
// The current yield and the expected monthly income derive from the
// dividends of the trailing twelve months. Upcoming dividends are those
// recorded with a payment date after today, earliest first.
func (s *Store) PortfolioSummary(ctx context.Context) (PortfolioSummary, error) {
	sum := PortfolioSummary{
		TotalValue:       psw.SEK(0),
		TotalCost:        psw.SEK(0),
		DividendsAllTime: psw.SEK(0),
	}
	holdings, err := s.ActiveHoldings(ctx)
	if err != nil {
		return sum, err
	}
	for _, h := range holdings {
		sum.TotalValue = sum.TotalValue.Add(psw.SEK(h.CurrentValueSEK))
		sum.TotalCost = sum.TotalCost.Add(psw.SEK(h.TotalCostSEK))
	}
	sum.TotalValue = sum.TotalValue.Round(2)
	sum.TotalCost = sum.TotalCost.Round(2)
	sum.Holdings = len(holdings)

	payments, err := s.Payments(ctx)
	if err != nil {
		return sum, err
	}
	today := s.Today()
	for _, p := range payments {
		if !p.PayDate.After(today) {
			sum.DividendsAllTime = sum.DividendsAllTime.Add(p.Amount)
		}
	}
	e := psw.EstimateDividends(payments, today)
	sum.DividendsYTD = e.YTD
	sum.CurrentYield = psw.PercentOf(e.RunRate.Decimal(), sum.TotalValue.Decimal())
	sum.ExpectedMonthlyIncome = psw.SEK(e.RunRate.Decimal().Div(decimal.NewFromInt(12)).Round(2))

	sum.RecentDividends = []Dividend{}
	err = s.dividendQuery(ctx).
		Where("log_dividends.dividend_total_sek > 0 AND log_dividends.pay_date <= ?", today).
		Order("log_dividends.pay_date DESC, log_dividends.dividend_id DESC").
		Limit(SummaryListLength).Find(&sum.RecentDividends).Error
	if err != nil {
		return sum, fmt.Errorf("cannot load recent dividends: %w", err)
	}
	sum.UpcomingDividends = []Dividend{}
	err = s.dividendQuery(ctx).
		Where("log_dividends.pay_date > ?", today).
		Order("log_dividends.pay_date ASC, log_dividends.dividend_id ASC").
		Limit(SummaryListLength).Find(&sum.UpcomingDividends).Error
	if err != nil {
		return sum, fmt.Errorf("cannot load upcoming dividends: %w", err)
	}
	return sum, nil
}

// CompanyDetail is everything recorded about one ISIN.
type CompanyDetail struct {
	ISIN           string      `json:"isin"`
	CompanyName    string      `json:"company_name"`
	Ticker         string      `json:"ticker"`
	Country        string      `json:"country"`
	Sector         string      `json:"sector"`
	Holding        *Holding    `json:"holding"`
	Trades         []Trade     `json:"trades"`
	Dividends      []Dividend  `json:"dividends"`
	TotalDividends psw.Money   `json:"total_dividends_sek"`
	YieldOnCost    psw.Percent `json:"yield_on_cost"`
}

// CompanyDetail returns the position of isin with its trades, oldest first,
// and its dividends, latest first. The yield on cost relates the dividends
// of the trailing twelve months to the cost of the shares held. It fails with
// ErrNotFound when nothing is recorded about isin.
func (s *Store) CompanyDetail(ctx context.Context, isin string) (CompanyDetail, error) {
	d := CompanyDetail{ISIN: psw.NormalizeISIN(isin), TotalDividends: psw.SEK(0)}

	var h Holding
	switch err := s.db.WithContext(ctx).Where("isin = ?", d.ISIN).Take(&h).Error; {
	case err == nil:
		d.Holding = &h
		d.CompanyName, d.Ticker, d.Sector = h.CompanyName, h.Ticker, h.Sector
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return d, fmt.Errorf("cannot load holding %s: %w", d.ISIN, err)
	}

	d.Trades = []Trade{}
	err := s.tradeQuery(ctx).Where("log_trades.isin = ?", d.ISIN).
		Order("log_trades.trade_date ASC, log_trades.trade_id ASC").Find(&d.Trades).Error
	if err != nil {
		return d, fmt.Errorf("cannot load trades of %s: %w", d.ISIN, err)
	}
	for i := range d.Trades {
		t := &d.Trades[i]
		t.BrokerFeesPercent = float64(psw.FeePercent(t.BrokerFeesSEK, t.TotalAmountSEK))
	}

	d.Dividends = []Dividend{}
	err = s.dividendQuery(ctx).Where("log_dividends.isin = ?", d.ISIN).
		Order("log_dividends.pay_date DESC, log_dividends.dividend_id DESC").Find(&d.Dividends).Error
	if err != nil {
		return d, fmt.Errorf("cannot load dividends of %s: %w", d.ISIN, err)
	}

	m, err := s.GetMasterlist(ctx, d.ISIN)
	switch {
	case err == nil:
		d.CompanyName, d.Country = m.Name, m.Country
		if m.Ticker != "" {
			d.Ticker = m.Ticker
		}
	case !errors.Is(err, ErrNotFound):
		return d, err
	case d.Holding == nil && len(d.Trades) == 0 && len(d.Dividends) == 0:
		return d, fmt.Errorf("company %s: %w", d.ISIN, ErrNotFound)
	}
	if d.Ticker == "" && len(d.Trades) > 0 {
		d.Ticker = d.Trades[len(d.Trades)-1].Ticker
	}

	today := s.Today()
	trailing := psw.SEK(0)
	for _, div := range d.Dividends {
		if div.PayDate.After(today) {
			continue
		}
		d.TotalDividends = d.TotalDividends.Add(psw.SEK(div.DividendTotalSEK))
		if div.PayDate.After(today.AddMonths(-12)) {
			trailing = trailing.Add(psw.SEK(div.DividendTotalSEK))
		}
	}
	if d.Holding != nil && d.Holding.IsActive {
		d.YieldOnCost = psw.PercentOf(trailing.Decimal(), d.Holding.TotalCostSEK)
	}
	return d, nil
}

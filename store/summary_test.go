package store

import (
	"context"
	"testing"

	"github.com/etnz/psw"
	"github.com/etnz/psw/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSummary(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	seedPortfolio(t, s)
	_, err := s.RecomputeHoldings(ctx)
	require.NoError(t, err)
	seedDividends(t, s)
	// announced, not paid yet.
	_, err = s.CreateDividend(ctx, dividend("2024-09-01", volvoISIN, "500"))
	require.NoError(t, err)
}

func TestPortfolioSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sum, err := s.PortfolioSummary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Holdings)
	assert.True(t, sum.TotalValue.IsZero())
	assert.Zero(t, sum.CurrentYield)
	assert.NotNil(t, sum.RecentDividends)
	assert.NotNil(t, sum.UpcomingDividends)

	seedSummary(t, s)
	sum, err = s.PortfolioSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Holdings)
	assertDecimal(t, "95000", sum.TotalValue.Decimal())
	assertDecimal(t, "84750", sum.TotalCost.Decimal())
	assertDecimal(t, "1450", sum.DividendsYTD.Decimal())
	assertDecimal(t, "2650", sum.DividendsAllTime.Decimal(), "the announced dividend is not counted")
	assertDecimal(t, "137.5", sum.ExpectedMonthlyIncome.Decimal())
	assert.True(t, psw.Percent(1.74).Equal(sum.CurrentYield), "current yield = %v", sum.CurrentYield)

	require.Len(t, sum.RecentDividends, 4)
	assert.Equal(t, date.MustParse("2024-05-16"), sum.RecentDividends[0].PayDate)
	assert.Equal(t, "Apple Inc", sum.RecentDividends[0].CompanyName)
	assert.Equal(t, date.MustParse("2023-04-05"), sum.RecentDividends[3].PayDate)
	require.Len(t, sum.UpcomingDividends, 1)
	assert.Equal(t, date.MustParse("2024-09-01"), sum.UpcomingDividends[0].PayDate)
}

func TestCompanyDetail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedSummary(t, s)

	d, err := s.CompanyDetail(ctx, " se0000115446")
	require.NoError(t, err)
	assert.Equal(t, volvoISIN, d.ISIN)
	assert.Equal(t, "Volvo B", d.CompanyName)
	assert.Equal(t, "VOLV B", d.Ticker)
	assert.Equal(t, "SE", d.Country)
	assert.Equal(t, "Industrials", d.Sector)
	require.NotNil(t, d.Holding)
	assertDecimal(t, "150", d.Holding.SharesHeld)

	require.Len(t, d.Trades, 3)
	assert.Equal(t, date.MustParse("2024-01-10"), d.Trades[0].TradeDate)
	assert.Equal(t, "SELL", d.Trades[2].TradeType)

	require.Len(t, d.Dividends, 3)
	assert.Equal(t, date.MustParse("2024-09-01"), d.Dividends[0].PayDate)
	assertDecimal(t, "2200", d.TotalDividends.Decimal())
	assert.True(t, psw.Percent(3.27).Equal(d.YieldOnCost), "yield on cost = %v", d.YieldOnCost)

	// a closed position keeps its history.
	d, err = s.CompanyDetail(ctx, ericssonISIN)
	require.NoError(t, err)
	require.NotNil(t, d.Holding)
	assert.False(t, d.Holding.IsActive)
	assert.Len(t, d.Trades, 2)
	assert.Empty(t, d.Dividends)
	assert.Zero(t, d.YieldOnCost)

	_, err = s.CompanyDetail(ctx, "FI0009000681")
	assert.ErrorIs(t, err, ErrNotFound)
}

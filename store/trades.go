package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/psw"
	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade defaults for manually entered trades.
const (
	StatusExecuted = "EXECUTED"
	SourceManual   = "MANUAL"
	SourceImport   = "IMPORT"
)

// TradeRequest is a trade as entered by a user.
type TradeRequest struct {
	TradeDate           date.Date       `json:"trade_date"`
	SettlementDate      date.Date       `json:"settlement_date"`
	ISIN                string          `json:"isin"`
	Ticker              string          `json:"ticker"`
	TradeType           string          `json:"trade_type"`
	Shares              decimal.Decimal `json:"shares_traded"`
	PriceLocal          decimal.Decimal `json:"price_per_share_local"`
	Currency            string          `json:"currency_local"`
	PriceSEK            decimal.Decimal `json:"price_per_share_sek"`
	ExchangeRate        decimal.Decimal `json:"exchange_rate_used"`
	FeesLocal           decimal.Decimal `json:"broker_fees_local"`
	FeesSEK             decimal.Decimal `json:"broker_fees_sek"`
	TaxLocal            decimal.Decimal `json:"tft_tax_local"`
	TaxSEK              decimal.Decimal `json:"tft_tax_sek"`
	BrokerID            *uint           `json:"broker_id"`
	AccountGroupID      *uint           `json:"portfolio_account_group_id"`
	BrokerTransactionID string          `json:"broker_transaction_id"`
	OrderType           string          `json:"order_type"`
	Notes               string          `json:"notes"`
}

// Input converts the request for the trade calculator.
func (r TradeRequest) Input() psw.TradeInput {
	cur := strings.ToUpper(strings.TrimSpace(r.Currency))
	return psw.TradeInput{
		TradeDate:      r.TradeDate,
		SettlementDate: r.SettlementDate,
		Type:           psw.TradeType(strings.ToUpper(strings.TrimSpace(r.TradeType))),
		ISIN:           psw.NormalizeISIN(r.ISIN),
		Shares:         psw.Q(r.Shares),
		PriceLocal:     psw.M(r.PriceLocal, cur),
		PriceSEK:       psw.SEK(r.PriceSEK),
		ExchangeRate:   r.ExchangeRate,
		FeesLocal:      psw.M(r.FeesLocal, cur),
		FeesSEK:        psw.SEK(r.FeesSEK),
		TaxLocal:       psw.M(r.TaxLocal, cur),
		TaxSEK:         psw.SEK(r.TaxSEK),
	}
}

// trade validates the request and builds the trade with its derived amounts.
func (r TradeRequest) trade() (Trade, error) {
	in := r.Input()
	if err := in.Validate(); err != nil {
		return Trade{}, err
	}
	a := psw.Calculate(in)
	return Trade{
		TradeDate:               in.TradeDate,
		SettlementDate:          a.SettlementDate,
		ISIN:                    in.ISIN,
		Ticker:                  strings.ToUpper(strings.TrimSpace(r.Ticker)),
		TradeType:               string(in.Type),
		SharesTraded:            in.Shares.Decimal(),
		PricePerShareLocal:      in.PriceLocal.Decimal(),
		TotalAmountLocal:        a.TotalLocal.Decimal(),
		CurrencyLocal:           in.PriceLocal.Currency(),
		PricePerShareSEK:        a.PriceSEK.Decimal(),
		TotalAmountSEK:          a.TotalSEK.Decimal(),
		ExchangeRateUsed:        a.ExchangeRate,
		BrokerFeesLocal:         in.FeesLocal.Decimal(),
		BrokerFeesSEK:           a.FeesSEK.Decimal(),
		TftTaxLocal:             in.TaxLocal.Decimal(),
		TftTaxSEK:               a.TaxSEK.Decimal(),
		NetAmountLocal:          a.NetLocal.Decimal(),
		NetAmountSEK:            a.NetSEK.Decimal(),
		BrokerID:                r.BrokerID,
		PortfolioAccountGroupID: r.AccountGroupID,
		BrokerTransactionID:     r.BrokerTransactionID,
		OrderType:               r.OrderType,
		Notes:                   r.Notes,
	}, nil
}

// CreateTrade records a trade. Settlement defaults to T+2 and the ticker to
// the masterlist ticker.
func (s *Store) CreateTrade(ctx context.Context, r TradeRequest) (Trade, error) {
	t, err := r.trade()
	if err != nil {
		return t, err
	}
	t.ExecutionStatus = StatusExecuted
	t.DataSource = SourceManual
	db := s.db.WithContext(ctx)
	if t.Ticker == "" {
		if m, err := s.GetMasterlist(ctx, t.ISIN); err == nil {
			t.Ticker = m.Ticker
		}
	}
	if err := db.Create(&t).Error; err != nil {
		return t, fmt.Errorf("cannot record trade: %w", err)
	}
	s.audit(ctx, "insert", "log_trades", t.ID, zapISIN(t.ISIN))
	return s.GetTrade(ctx, t.ID)
}

// UpdateTrade replaces a trade and recalculates its amounts.
func (s *Store) UpdateTrade(ctx context.Context, id uint, r TradeRequest) (Trade, error) {
	t, err := r.trade()
	if err != nil {
		return t, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old Trade
		if err := tx.First(&old, "trade_id = ?", id).Error; err != nil {
			return notFound(err)
		}
		t.ID = old.ID
		t.CreatedAt = old.CreatedAt
		t.ExecutionStatus = old.ExecutionStatus
		t.DataSource = old.DataSource
		if t.Ticker == "" {
			t.Ticker = old.Ticker
		}
		return tx.Save(&t).Error
	})
	if err != nil {
		return t, err
	}
	s.audit(ctx, "update", "log_trades", id, zapISIN(t.ISIN))
	return s.GetTrade(ctx, id)
}

// DeleteTrade removes a trade.
func (s *Store) DeleteTrade(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Trade{}, "trade_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "log_trades", id)
	return nil
}

func (s *Store) tradeQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Trade{}).
		Select("log_trades.*, masterlist.name AS company_name, brokers.broker_name AS broker_name, portfolio_account_groups.portfolio_group_name AS account_group_name").
		Joins("LEFT JOIN masterlist ON masterlist.isin = log_trades.isin").
		Joins("LEFT JOIN brokers ON brokers.broker_id = log_trades.broker_id").
		Joins("LEFT JOIN portfolio_account_groups ON portfolio_account_groups.portfolio_account_group_id = log_trades.portfolio_account_group_id")
}

// GetTrade returns a trade with its company, broker and account names.
func (s *Store) GetTrade(ctx context.Context, id uint) (Trade, error) {
	var t Trade
	err := s.tradeQuery(ctx).Where("log_trades.trade_id = ?", id).First(&t).Error
	if err != nil {
		return t, notFound(err)
	}
	t.BrokerFeesPercent = float64(psw.FeePercent(t.BrokerFeesSEK, t.TotalAmountSEK))
	return t, nil
}

// TradeFilter narrows a trade listing. Empty fields do not filter.
type TradeFilter struct {
	Search         string
	From, To       date.Date
	BrokerID       uint
	AccountGroupID uint
	TradeType      string
	Currency       string
}

func (f TradeFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Search != "" {
		p := like(f.Search)
		q = q.Where("LOWER(log_trades.isin) LIKE ? ESCAPE '!' OR LOWER(masterlist.name) LIKE ? ESCAPE '!' OR LOWER(log_trades.ticker) LIKE ? ESCAPE '!'", p, p, p)
	}
	if !f.From.IsZero() {
		q = q.Where("log_trades.trade_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("log_trades.trade_date <= ?", f.To)
	}
	if f.BrokerID != 0 {
		q = q.Where("log_trades.broker_id = ?", f.BrokerID)
	}
	if f.AccountGroupID != 0 {
		q = q.Where("log_trades.portfolio_account_group_id = ?", f.AccountGroupID)
	}
	if f.TradeType != "" {
		q = q.Where("log_trades.trade_type = ?", strings.ToUpper(f.TradeType))
	}
	if f.Currency != "" {
		q = q.Where("log_trades.currency_local = ?", strings.ToUpper(f.Currency))
	}
	return q
}

var tradeSorts = map[string]string{
	"trade_date":       "log_trades.trade_date",
	"isin":             "log_trades.isin",
	"ticker":           "log_trades.ticker",
	"company_name":     "masterlist.name",
	"shares_traded":    "log_trades.shares_traded",
	"total_amount_sek": "log_trades.total_amount_sek",
	"net_amount_sek":   "log_trades.net_amount_sek",
	"currency_local":   "log_trades.currency_local",
}

// DefaultTradeSort lists the latest trades first.
var DefaultTradeSort = Sort{By: "trade_date", Desc: true}

// TradePage is a page of the trade log.
type TradePage struct {
	Trades     []Trade    `json:"trades"`
	Pagination Pagination `json:"pagination"`
}

// ListTrades returns a page of the trade log.
func (s *Store) ListTrades(ctx context.Context, f TradeFilter, sort Sort, p Page) (TradePage, error) {
	var res TradePage
	var total int64
	if err := f.apply(s.tradeQuery(ctx)).Count(&total).Error; err != nil {
		return res, fmt.Errorf("cannot count trades: %w", err)
	}
	res.Trades = []Trade{}
	q := f.apply(s.tradeQuery(ctx)).Order(orderBy(sort, tradeSorts, DefaultTradeSort)).Order("log_trades.trade_id DESC")
	if err := p.apply(q).Find(&res.Trades).Error; err != nil {
		return res, fmt.Errorf("cannot list trades: %w", err)
	}
	for i := range res.Trades {
		t := &res.Trades[i]
		t.BrokerFeesPercent = float64(psw.FeePercent(t.BrokerFeesSEK, t.TotalAmountSEK))
	}
	res.Pagination = newPagination(p, total)
	return res, nil
}

// TradeSummary sums the trades of a filter.
type TradeSummary struct {
	Trades       int       `json:"total_trades"`
	Companies    int       `json:"unique_companies"`
	PurchasesSEK psw.Money `json:"total_purchases_sek"`
	SalesSEK     psw.Money `json:"total_sales_sek"`
	FeesSEK      psw.Money `json:"total_fees_sek"`
	TaxesSEK     psw.Money `json:"total_taxes_sek"`
	Currencies   int       `json:"currencies_count"`
	First        date.Date `json:"earliest_trade_date"`
	Last         date.Date `json:"latest_trade_date"`
}

// SummarizeTrades sums the trades matching f. Purchases and sales are net
// amounts in SEK.
func (s *Store) SummarizeTrades(ctx context.Context, f TradeFilter) (TradeSummary, error) {
	var trades []Trade
	if err := f.apply(s.tradeQuery(ctx)).Find(&trades).Error; err != nil {
		return TradeSummary{}, fmt.Errorf("cannot summarize trades: %w", err)
	}
	return summarizeTrades(trades), nil
}

func summarizeTrades(trades []Trade) TradeSummary {
	sum := TradeSummary{
		PurchasesSEK: psw.SEK(0),
		SalesSEK:     psw.SEK(0),
		FeesSEK:      psw.SEK(0),
		TaxesSEK:     psw.SEK(0),
	}
	isins := map[string]bool{}
	currencies := map[string]bool{}
	for _, t := range trades {
		sum.Trades++
		isins[t.ISIN] = true
		if t.CurrencyLocal != "" {
			currencies[t.CurrencyLocal] = true
		}
		typ := psw.TradeType(t.TradeType)
		switch {
		case typ.IsPurchase():
			sum.PurchasesSEK = sum.PurchasesSEK.Add(psw.SEK(t.NetAmountSEK))
		case typ.IsSale():
			sum.SalesSEK = sum.SalesSEK.Add(psw.SEK(t.NetAmountSEK))
		}
		sum.FeesSEK = sum.FeesSEK.Add(psw.SEK(t.BrokerFeesSEK))
		sum.TaxesSEK = sum.TaxesSEK.Add(psw.SEK(t.TftTaxSEK))
		if sum.First.IsZero() || t.TradeDate.Before(sum.First) {
			sum.First = t.TradeDate
		}
		if t.TradeDate.After(sum.Last) {
			sum.Last = t.TradeDate
		}
	}
	sum.Companies = len(isins)
	sum.Currencies = len(currencies)
	return sum
}

// TradeCurrencies lists the distinct currencies of the trade log.
func (s *Store) TradeCurrencies(ctx context.Context) ([]string, error) {
	list := []string{}
	err := s.db.WithContext(ctx).Model(&Trade{}).Where("currency_local <> ''").
		Distinct().Order("currency_local").Pluck("currency_local", &list).Error
	return list, err
}

package web

import (
	"net/http"
	"strings"

	"github.com/etnz/psw"
	"github.com/etnz/psw/date"
	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/go-fuego/fuego/param"
	"github.com/shopspring/decimal"
)

// TradeResources manages the trade log.
type TradeResources struct{ *Server }

func queryDate(c queryer, name string) (date.Date, error) {
	v := c.QueryParam(name)
	if v == "" {
		return date.Date{}, nil
	}
	d, err := date.Parse(v)
	if err != nil {
		return d, badRequest("invalid " + name + ": " + v)
	}
	return d, nil
}

func queryDecimal(c queryer, name string) (decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return d, badRequest("invalid " + name + ": " + v)
	}
	return d, nil
}

func tradeFilter(c queryer) (store.TradeFilter, error) {
	var f store.TradeFilter
	var err error
	if f.From, err = queryDate(c, "date_from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "date_to"); err != nil {
		return f, err
	}
	broker, err := queryInt(c, "broker_id")
	if err != nil {
		return f, err
	}
	group, err := queryInt(c, "account_group_id")
	if err != nil {
		return f, err
	}
	f.BrokerID, f.AccountGroupID = uint(broker), uint(group)
	f.Search = c.QueryParam("search")
	f.TradeType = strings.ToUpper(c.QueryParam("trade_type"))
	f.Currency = strings.ToUpper(c.QueryParam("currency"))
	return f, nil
}

func tradeFilterOptions() []func(*fuego.BaseRoute) {
	return []func(*fuego.BaseRoute){
		option.Query("search", "ISIN, ticker or company name"),
		option.Query("date_from", "First trade date, YYYY-MM-DD"),
		option.Query("date_to", "Last trade date, YYYY-MM-DD"),
		option.QueryInt("broker_id", "Broker"),
		option.QueryInt("account_group_id", "Portfolio account group"),
		option.Query("trade_type", "Trade type code"),
		option.Query("currency", "Local currency"),
	}
}

// List returns a filtered, sorted page of trades.
func (rs TradeResources) List(c fuego.ContextNoBody) (store.TradePage, error) {
	f, err := tradeFilter(c)
	if err != nil {
		return store.TradePage{}, err
	}
	p, err := rs.page(c)
	if err != nil {
		return store.TradePage{}, err
	}
	sort := store.ParseSort(c.QueryParam("sort"), c.QueryParam("order"))
	page, err := rs.Store.ListTrades(c.Request().Context(), f, sort, p)
	return page, fail(err)
}

// Summary sums the filtered trades.
func (rs TradeResources) Summary(c fuego.ContextNoBody) (store.TradeSummary, error) {
	f, err := tradeFilter(c)
	if err != nil {
		return store.TradeSummary{}, err
	}
	sum, err := rs.Store.SummarizeTrades(c.Request().Context(), f)
	return sum, fail(err)
}

// Calculation is the preview of the derived amounts of a trade.
type Calculation struct {
	SettlementDate date.Date       `json:"settlement_date"`
	PriceSEK       psw.Money       `json:"price_per_share_sek"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate_used"`
	TotalLocal     psw.Money       `json:"total_amount_local"`
	TotalSEK       psw.Money       `json:"total_amount_sek"`
	NetLocal       psw.Money       `json:"net_amount_local"`
	NetSEK         psw.Money       `json:"net_amount_sek"`
	FeePercent     psw.Percent     `json:"broker_fees_percent"`
}

// Calculate previews the amounts of a trade without recording it.
func (rs TradeResources) Calculate(c fuego.ContextNoBody) (Calculation, error) {
	var r store.TradeRequest
	var err error
	if r.TradeDate, err = queryDate(c, "trade_date"); err != nil {
		return Calculation{}, err
	}
	for name, dst := range map[string]*decimal.Decimal{
		"shares_traded":         &r.Shares,
		"price_per_share_local": &r.PriceLocal,
		"price_per_share_sek":   &r.PriceSEK,
		"exchange_rate_used":    &r.ExchangeRate,
		"broker_fees_local":     &r.FeesLocal,
		"broker_fees_sek":       &r.FeesSEK,
		"tft_tax_local":         &r.TaxLocal,
		"tft_tax_sek":           &r.TaxSEK,
	} {
		if *dst, err = queryDecimal(c, name); err != nil {
			return Calculation{}, err
		}
	}
	r.TradeType = c.QueryParam("trade_type")
	if r.TradeType == "" {
		r.TradeType = string(psw.Buy)
	}
	r.Currency = c.QueryParam("currency_local")
	if r.Currency == "" {
		r.Currency = psw.BaseCurrency
	}
	if r.TradeDate.IsZero() {
		r.TradeDate = rs.Store.Today()
	}
	in := r.Input()
	if !in.Shares.IsPositive() {
		return Calculation{}, badRequest("shares_traded must be positive")
	}
	if _, err := psw.ParseTradeType(r.TradeType); err != nil {
		return Calculation{}, badRequest(err.Error())
	}
	if in.PriceLocal.Currency() != psw.BaseCurrency && in.PriceSEK.IsZero() && in.ExchangeRate.IsZero() {
		errs := psw.ValidationError{}
		errs.Add("exchange_rate_used", "price in SEK or exchange rate is required for %s", in.PriceLocal.Currency())
		return Calculation{}, fail(errs.Err())
	}
	a := psw.Calculate(in)
	return Calculation{
		SettlementDate: a.SettlementDate,
		PriceSEK:       a.PriceSEK,
		ExchangeRate:   a.ExchangeRate,
		TotalLocal:     a.TotalLocal,
		TotalSEK:       a.TotalSEK,
		NetLocal:       a.NetLocal,
		NetSEK:         a.NetSEK,
		FeePercent:     a.FeePercent,
	}, nil
}

// Get returns a trade.
func (rs TradeResources) Get(c fuego.ContextNoBody) (store.Trade, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return store.Trade{}, err
	}
	t, err := rs.Store.GetTrade(c.Request().Context(), id)
	return t, fail(err)
}

// Create records a trade.
func (rs TradeResources) Create(c fuego.ContextWithBody[store.TradeRequest]) (store.Trade, error) {
	body, err := c.Body()
	if err != nil {
		return store.Trade{}, err
	}
	t, err := rs.Store.CreateTrade(c.Request().Context(), body)
	if err != nil {
		return t, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return t, nil
}

// Update replaces a trade and recalculates its amounts.
func (rs TradeResources) Update(c fuego.ContextWithBody[store.TradeRequest]) (store.Trade, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return store.Trade{}, err
	}
	body, err := c.Body()
	if err != nil {
		return store.Trade{}, err
	}
	t, err := rs.Store.UpdateTrade(c.Request().Context(), id, body)
	return t, fail(err)
}

// Delete removes a trade.
func (rs TradeResources) Delete(c fuego.ContextNoBody) (Message, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteTrade(c.Request().Context(), id); err != nil {
		return Message{}, fail(err)
	}
	return Message{"trade deleted"}, nil
}

// Routes registers /trades.
func (rs TradeResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/trades")
	listOptions := append(tradeFilterOptions(),
		option.Summary("List trades"),
		option.Query("sort", "Sort column", param.Default("trade_date")),
		option.Query("order", "ASC or DESC", param.Default("DESC")),
		option.QueryInt("page", "Page number", param.Default(1)),
		option.QueryInt("limit", "Page size"),
	)
	fuego.Get(g, "", rs.List, listOptions...)
	fuego.Post(g, "", rs.Create, option.Summary("Record a trade"))
	fuego.Get(g, "/summary", rs.Summary, append(tradeFilterOptions(), option.Summary("Sum trades"))...)
	fuego.Get(g, "/calculate", rs.Calculate,
		option.Summary("Preview trade amounts"),
		option.Query("trade_date", "Trade date"),
		option.Query("trade_type", "Trade type code"),
		option.Query("currency_local", "Local currency"),
		option.Query("shares_traded", "Shares"),
		option.Query("price_per_share_local", "Price in local currency"),
		option.Query("price_per_share_sek", "Price in SEK"),
		option.Query("exchange_rate_used", "SEK per local unit"),
		option.Query("broker_fees_local", "Fees in local currency"),
		option.Query("broker_fees_sek", "Fees in SEK"),
		option.Query("tft_tax_local", "Transaction tax in local currency"),
		option.Query("tft_tax_sek", "Transaction tax in SEK"),
	)
	fuego.Get(g, "/{id}", rs.Get, option.Summary("Get a trade"))
	fuego.Put(g, "/{id}", rs.Update, option.Summary("Update a trade"))
	fuego.Delete(g, "/{id}", rs.Delete, option.Summary("Delete a trade"))
}

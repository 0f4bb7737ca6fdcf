package web

import (
	"net/http"
	"strings"

	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/go-fuego/fuego/param"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxImportSize bounds the size of an uploaded dividend statement.
const MaxImportSize = 10 << 20

// DividendResources manages the dividend log.
type DividendResources struct{ *Server }

func dividendFilter(c queryer) (store.DividendFilter, error) {
	var f store.DividendFilter
	var err error
	if f.Year, err = queryInt(c, "year"); err != nil {
		return f, err
	}
	if f.From, err = queryDate(c, "date_from"); err != nil {
		return f, err
	}
	if f.To, err = queryDate(c, "date_to"); err != nil {
		return f, err
	}
	for name, dst := range map[string]*decimal.NullDecimal{"min_amount": &f.MinAmount, "max_amount": &f.MaxAmount} {
		if c.QueryParam(name) == "" {
			continue
		}
		v, err := queryDecimal(c, name)
		if err != nil {
			return f, err
		}
		*dst = decimal.NewNullDecimal(v)
	}
	f.Company = c.QueryParam("company")
	f.Currency = strings.ToUpper(c.QueryParam("currency"))
	return f, nil
}

func dividendFilterOptions() []func(*fuego.BaseRoute) {
	return []func(*fuego.BaseRoute){
		option.QueryInt("year", "Payment year"),
		option.Query("company", "Company name or ISIN"),
		option.Query("currency", "Original currency"),
		option.Query("min_amount", "Minimum amount in SEK"),
		option.Query("max_amount", "Maximum amount in SEK"),
		option.Query("date_from", "First payment date"),
		option.Query("date_to", "Last payment date"),
	}
}

// List returns a filtered, sorted page of dividends.
func (rs DividendResources) List(c fuego.ContextNoBody) (store.DividendPage, error) {
	f, err := dividendFilter(c)
	if err != nil {
		return store.DividendPage{}, err
	}
	p, err := rs.page(c)
	if err != nil {
		return store.DividendPage{}, err
	}
	sort := store.ParseSort(c.QueryParam("sort"), c.QueryParam("order"))
	page, err := rs.Store.ListDividends(c.Request().Context(), f, sort, p)
	return page, fail(err)
}

// Summary sums the filtered dividends.
func (rs DividendResources) Summary(c fuego.ContextNoBody) (store.DividendSummary, error) {
	f, err := dividendFilter(c)
	if err != nil {
		return store.DividendSummary{}, err
	}
	sum, err := rs.Store.SummarizeDividends(c.Request().Context(), f)
	return sum, fail(err)
}

// Filters lists the years, companies and currencies of the log.
func (rs DividendResources) Filters(c fuego.ContextNoBody) (store.DividendFilterOptions, error) {
	f, err := rs.Store.DividendFilters(c.Request().Context())
	return f, fail(err)
}

// Estimate projects the dividends of the current year.
func (rs DividendResources) Estimate(c fuego.ContextNoBody) (psw.Estimate, error) {
	e, err := rs.Store.EstimateDividends(c.Request().Context())
	return e, fail(err)
}

// Create records a dividend.
func (rs DividendResources) Create(c fuego.ContextWithBody[store.DividendRequest]) (store.Dividend, error) {
	body, err := c.Body()
	if err != nil {
		return store.Dividend{}, err
	}
	d, err := rs.Store.CreateDividend(c.Request().Context(), body)
	if err != nil {
		return d, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return d, nil
}

// Delete removes a dividend.
func (rs DividendResources) Delete(c fuego.ContextNoBody) (Message, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteDividend(c.Request().Context(), id); err != nil {
		return Message{}, fail(err)
	}
	return Message{"dividend deleted"}, nil
}

// Import parses a broker statement posted as the request body and records
// its valid rows.
func (rs DividendResources) Import(c fuego.ContextNoBody) (store.ImportSummary, error) {
	key := c.QueryParam("broker")
	if key == "" {
		key = "generic"
	}
	format, err := psw.LookupBrokerFormat(key)
	if err != nil {
		return store.ImportSummary{}, badRequest(err.Error())
	}
	var ids [2]*uint
	for i, name := range []string{"broker_id", "account_group_id"} {
		v, err := queryInt(c, name)
		if err != nil {
			return store.ImportSummary{}, err
		}
		if v > 0 {
			id := uint(v)
			ids[i] = &id
		}
	}
	body := http.MaxBytesReader(c.Response(), c.Request().Body, MaxImportSize)
	res, err := psw.ParseDividends(body, format)
	if err != nil {
		return store.ImportSummary{}, badRequest(err.Error())
	}
	sum, err := rs.Store.ImportDividends(c.Request().Context(), res, ids[0], ids[1])
	if err != nil {
		return sum, fail(err)
	}
	rs.Log.Info("dividends imported", zap.String("broker", format.Key), zap.String("batch", sum.Batch),
		zap.Int("imported", sum.Imported), zap.Int("duplicates", sum.Duplicates))
	return sum, nil
}

// Routes registers /dividends.
func (rs DividendResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/dividends")
	fuego.Get(g, "", rs.List, append(dividendFilterOptions(),
		option.Summary("List dividends"),
		option.Query("sort", "Sort column", param.Default("pay_date")),
		option.Query("order", "ASC or DESC", param.Default("DESC")),
		option.QueryInt("page", "Page number", param.Default(1)),
		option.QueryInt("limit", "Page size"),
	)...)
	fuego.Post(g, "", rs.Create, option.Summary("Record a dividend"))
	fuego.Get(g, "/summary", rs.Summary, append(dividendFilterOptions(), option.Summary("Sum dividends"))...)
	fuego.Get(g, "/filters", rs.Filters, option.Summary("Dividend filter values"))
	fuego.Get(g, "/estimate", rs.Estimate, option.Summary("Dividend estimate of the year"))
	fuego.Post(g, "/import", rs.Import,
		option.Summary("Import a broker statement"),
		option.Query("broker", "Broker layout: avanza, nordnet, seb, handelsbanken or generic", param.Default("generic")),
		option.QueryInt("broker_id", "Broker recorded on the rows"),
		option.QueryInt("account_group_id", "Account group recorded on the rows"),
		option.RequestContentType("text/csv"),
	)
	fuego.Delete(g, "/{id}", rs.Delete, option.Summary("Delete a dividend"))
}

package web

import (
	"net/http"

	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/go-fuego/fuego/param"
	"github.com/shopspring/decimal"
)

// NewCompanyResources manages the companies under evaluation.
type NewCompanyResources struct{ *Server }

// List returns a filtered page of new companies. The multi-value filters
// take comma separated values where "null" matches a missing value.
func (rs NewCompanyResources) List(c fuego.ContextNoBody) (store.NewCompanyPage, error) {
	p, err := rs.page(c)
	if err != nil {
		return store.NewCompanyPage{}, err
	}
	f := store.NewCompanyFilter{
		Search:         c.QueryParam("search"),
		Countries:      c.QueryParam("countries"),
		Statuses:       c.QueryParam("statuses"),
		StrategyGroups: c.QueryParam("strategy_groups"),
		Brokers:        c.QueryParam("brokers"),
	}
	for name, dst := range map[string]*decimal.NullDecimal{"yield_min": &f.YieldMin, "yield_max": &f.YieldMax} {
		if c.QueryParam(name) == "" {
			continue
		}
		v, err := queryDecimal(c, name)
		if err != nil {
			return store.NewCompanyPage{}, err
		}
		*dst = decimal.NewNullDecimal(v)
	}
	sort := store.ParseSort(c.QueryParam("sort"), c.QueryParam("order"))
	page, err := rs.Store.ListNewCompanies(c.Request().Context(), f, sort, p)
	return page, fail(err)
}

// Statistics summarises the yields of the new companies.
func (rs NewCompanyResources) Statistics(c fuego.ContextNoBody) (store.NewCompanyStatistics, error) {
	st, err := rs.Store.NewCompanyStatistics(c.Request().Context())
	return st, fail(err)
}

// ISINCheck tells whether an ISIN is already under evaluation.
type ISINCheck struct {
	ISIN   string `json:"isin"`
	Exists bool   `json:"exists"`
}

// ISINExists checks the isin path parameter.
func (rs NewCompanyResources) ISINExists(c fuego.ContextNoBody) (ISINCheck, error) {
	isin := c.PathParam("isin")
	ok, err := rs.Store.NewCompanyISINExists(c.Request().Context(), isin)
	return ISINCheck{ISIN: isin, Exists: ok}, fail(err)
}

// Create adds a company, looked up in Börsdata when borsdata_available is set.
func (rs NewCompanyResources) Create(c fuego.ContextWithBody[store.NewCompany]) (store.NewCompany, error) {
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.CreateNewCompany(c.Request().Context(), &body); err != nil {
		return body, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return body, nil
}

// Update replaces a company.
func (rs NewCompanyResources) Update(c fuego.ContextWithBody[store.NewCompany]) (store.NewCompany, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return store.NewCompany{}, err
	}
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.UpdateNewCompany(c.Request().Context(), id, &body); err != nil {
		return body, fail(err)
	}
	return body, nil
}

// Delete removes a company.
func (rs NewCompanyResources) Delete(c fuego.ContextNoBody) (Message, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteNewCompany(c.Request().Context(), id); err != nil {
		return Message{}, fail(err)
	}
	return Message{"company deleted"}, nil
}

// Routes registers /new-companies.
func (rs NewCompanyResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/new-companies")
	fuego.Get(g, "", rs.List,
		option.Summary("List new companies"),
		option.Query("search", "Company, ticker or ISIN"),
		option.Query("countries", "Comma separated countries, null for none"),
		option.Query("statuses", "Comma separated status ids"),
		option.Query("strategy_groups", "Comma separated strategy group ids"),
		option.Query("brokers", "Comma separated broker ids"),
		option.Query("yield_min", "Minimum yield"),
		option.Query("yield_max", "Maximum yield"),
		option.Query("sort", "Sort column", param.Default("company")),
		option.Query("order", "ASC or DESC", param.Default("ASC")),
		option.QueryInt("page", "Page number", param.Default(1)),
		option.QueryInt("limit", "Page size"),
	)
	fuego.Post(g, "", rs.Create, option.Summary("Add a new company"))
	fuego.Get(g, "/statistics", rs.Statistics, option.Summary("New companies statistics"))
	fuego.Get(g, "/isin/{isin}", rs.ISINExists, option.Summary("Check an ISIN"))
	fuego.Put(g, "/{id}", rs.Update, option.Summary("Update a new company"))
	fuego.Delete(g, "/{id}", rs.Delete, option.Summary("Delete a new company"))
}

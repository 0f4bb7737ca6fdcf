package web

import (
	"net/http"
	"strconv"

	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/go-fuego/fuego/param"
)

// SearchResources serves the ISIN autocomplete.
type SearchResources struct{ *Server }

// SearchISIN suggests masterlist companies for the q parameter.
func (rs SearchResources) SearchISIN(c fuego.ContextNoBody) ([]store.ISINSuggestion, error) {
	list, err := rs.Store.SearchISIN(c.Request().Context(), c.QueryParam("q"))
	return list, fail(err)
}

// Routes registers /search-isin.
func (rs SearchResources) Routes(s *fuego.Server) {
	fuego.Get(s, "/search-isin", rs.SearchISIN,
		option.Summary("ISIN autocomplete"),
		option.Query("q", "ISIN or company name, at least 2 characters"),
	)
}

// MasterlistResources manages the canonical list of companies.
type MasterlistResources struct{ *Server }

// List returns a filtered page of the masterlist.
func (rs MasterlistResources) List(c fuego.ContextNoBody) (store.MasterlistPage, error) {
	p, err := rs.page(c)
	if err != nil {
		return store.MasterlistPage{}, err
	}
	shareType, err := queryInt(c, "share_type")
	if err != nil {
		return store.MasterlistPage{}, err
	}
	f := store.MasterlistFilter{
		Country:   c.QueryParam("country"),
		Market:    c.QueryParam("market"),
		ShareType: shareType,
		Search:    c.QueryParam("search"),
	}
	if v := c.QueryParam("delisted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return store.MasterlistPage{}, badRequest("invalid delisted: " + v)
		}
		f.Delisted = &b
	}
	page, err := rs.Store.ListMasterlist(c.Request().Context(), f, p)
	return page, fail(err)
}

// Create adds a company.
func (rs MasterlistResources) Create(c fuego.ContextWithBody[store.MasterlistEntry]) (store.MasterlistEntry, error) {
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.CreateMasterlist(c.Request().Context(), &body); err != nil {
		return body, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return body, nil
}

// Update replaces the company of the isin path parameter.
func (rs MasterlistResources) Update(c fuego.ContextWithBody[store.MasterlistEntry]) (store.MasterlistEntry, error) {
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.UpdateMasterlist(c.Request().Context(), c.PathParam("isin"), &body); err != nil {
		return body, fail(err)
	}
	return body, nil
}

// Delete delists a company. Admin only.
func (rs MasterlistResources) Delete(c fuego.ContextNoBody) (Message, error) {
	if _, err := requireAdmin(c.Request()); err != nil {
		return Message{}, err
	}
	if err := rs.Store.DelistMasterlist(c.Request().Context(), c.PathParam("isin")); err != nil {
		return Message{}, fail(err)
	}
	return Message{"company delisted"}, nil
}

// Statistics counts the companies.
func (rs MasterlistResources) Statistics(c fuego.ContextNoBody) (store.MasterlistStatistics, error) {
	st, err := rs.Store.MasterlistStatistics(c.Request().Context())
	return st, fail(err)
}

// Filters lists the values the masterlist can be filtered on.
func (rs MasterlistResources) Filters(c fuego.ContextNoBody) (store.MasterlistFilterOptions, error) {
	f, err := rs.Store.MasterlistFilters(c.Request().Context())
	return f, fail(err)
}

// Routes registers /masterlist.
func (rs MasterlistResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/masterlist")
	fuego.Get(g, "", rs.List,
		option.Summary("List companies"),
		option.Query("country", "Country code"),
		option.Query("market", "Market"),
		option.QueryInt("share_type", "Share type id"),
		option.QueryBool("delisted", "Delisted status"),
		option.Query("search", "ISIN, ticker or name"),
		option.QueryInt("page", "Page number", param.Default(1)),
		option.QueryInt("limit", "Page size"),
	)
	fuego.Post(g, "", rs.Create, option.Summary("Add a company"))
	fuego.Get(g, "/statistics", rs.Statistics, option.Summary("Masterlist statistics"))
	fuego.Get(g, "/filters", rs.Filters, option.Summary("Masterlist filter values"))
	fuego.Put(g, "/{isin}", rs.Update, option.Summary("Update a company"))
	fuego.Delete(g, "/{isin}", rs.Delete, option.Summary("Delist a company"))
}

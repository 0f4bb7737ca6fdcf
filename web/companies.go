package web

import (
	"net/http"

	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// CompanyResources manages manual company data and reports the holdings no
// data source covers.
type CompanyResources struct{ *Server }

// Unsupported reconciles the holdings with the data sources.
func (rs CompanyResources) Unsupported(c fuego.ContextNoBody) (psw.Reconciliation, error) {
	r, err := rs.Store.Unsupported(c.Request().Context())
	return r, fail(err)
}

// Detail returns the position of an ISIN with its trades and dividends.
func (rs CompanyResources) Detail(c fuego.ContextNoBody) (store.CompanyDetail, error) {
	d, err := rs.Store.CompanyDetail(c.Request().Context(), c.PathParam("isin"))
	return d, fail(err)
}

// ListManual returns the manual companies.
func (rs CompanyResources) ListManual(c fuego.ContextNoBody) ([]store.ManualCompany, error) {
	list, err := rs.Store.ListManualCompanies(c.Request().Context())
	return list, fail(err)
}

// CreateManual adds a manual company.
func (rs CompanyResources) CreateManual(c fuego.ContextWithBody[store.ManualCompany]) (store.ManualCompany, error) {
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.CreateManualCompany(c.Request().Context(), &body); err != nil {
		return body, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return body, nil
}

// UpdateManual replaces a manual company.
func (rs CompanyResources) UpdateManual(c fuego.ContextWithBody[store.ManualCompany]) (store.ManualCompany, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return store.ManualCompany{}, err
	}
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.UpdateManualCompany(c.Request().Context(), id, &body); err != nil {
		return body, fail(err)
	}
	return body, nil
}

// DeleteManual removes a manual company.
func (rs CompanyResources) DeleteManual(c fuego.ContextNoBody) (Message, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteManualCompany(c.Request().Context(), id); err != nil {
		return Message{}, fail(err)
	}
	return Message{"manual company deleted"}, nil
}

// Routes registers /companies.
func (rs CompanyResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/companies")
	fuego.Get(g, "/unsupported", rs.Unsupported, option.Summary("Holdings without data source"))
	fuego.Get(g, "/{isin}", rs.Detail, option.Summary("Company position and history"))

	manual := fuego.Group(g, "/manual")
	fuego.Use(manual, rs.RequireAdmin)
	fuego.Get(manual, "", rs.ListManual, option.Summary("List manual companies"))
	fuego.Post(manual, "", rs.CreateManual, option.Summary("Add a manual company"))
	fuego.Put(manual, "/{id}", rs.UpdateManual, option.Summary("Update a manual company"))
	fuego.Delete(manual, "/{id}", rs.DeleteManual, option.Summary("Delete a manual company"))
}

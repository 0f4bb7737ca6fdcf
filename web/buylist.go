package web

import (
	"net/http"

	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/go-fuego/fuego/param"
)

// BuylistResources manages the watchlist of the current user.
type BuylistResources struct{ *Server }

// List returns a page of the user's buylist.
func (rs BuylistResources) List(c fuego.ContextNoBody) (store.BuylistPage, error) {
	sess, err := session(c.Request())
	if err != nil {
		return store.BuylistPage{}, err
	}
	p, err := rs.page(c)
	if err != nil {
		return store.BuylistPage{}, err
	}
	status, err := queryInt(c, "status_id")
	if err != nil {
		return store.BuylistPage{}, err
	}
	priority, err := queryInt(c, "priority")
	if err != nil {
		return store.BuylistPage{}, err
	}
	f := store.BuylistFilter{
		Search:   c.QueryParam("search"),
		StatusID: uint(status),
		Priority: priority,
		Country:  c.QueryParam("country"),
	}
	page, err := rs.Store.ListBuylist(c.Request().Context(), sess.UserID, f, p)
	return page, fail(err)
}

// Statistics summarises the user's buylist.
func (rs BuylistResources) Statistics(c fuego.ContextNoBody) (store.BuylistStatistics, error) {
	sess, err := session(c.Request())
	if err != nil {
		return store.BuylistStatistics{}, err
	}
	st, err := rs.Store.BuylistStatistics(c.Request().Context(), sess.UserID)
	return st, fail(err)
}

// Get returns an entry of the user's buylist.
func (rs BuylistResources) Get(c fuego.ContextNoBody) (store.BuylistEntry, error) {
	sess, err := session(c.Request())
	if err != nil {
		return store.BuylistEntry{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return store.BuylistEntry{}, err
	}
	b, err := rs.Store.GetBuylist(c.Request().Context(), sess.UserID, id)
	return b, fail(err)
}

// History lists the recorded changes of an entry.
func (rs BuylistResources) History(c fuego.ContextNoBody) ([]store.BuylistHistory, error) {
	sess, err := session(c.Request())
	if err != nil {
		return nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	h, err := rs.Store.BuylistHistoryOf(c.Request().Context(), sess.UserID, id)
	return h, fail(err)
}

// Create adds an entry to the user's buylist.
func (rs BuylistResources) Create(c fuego.ContextWithBody[store.BuylistEntry]) (store.BuylistEntry, error) {
	sess, err := session(c.Request())
	if err != nil {
		return store.BuylistEntry{}, err
	}
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.CreateBuylist(c.Request().Context(), sess.UserID, &body); err != nil {
		return body, fail(err)
	}
	c.SetStatus(http.StatusCreated)
	return body, nil
}

// Update replaces an entry and records the changed fields.
func (rs BuylistResources) Update(c fuego.ContextWithBody[store.BuylistEntry]) (store.BuylistEntry, error) {
	sess, err := session(c.Request())
	if err != nil {
		return store.BuylistEntry{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return store.BuylistEntry{}, err
	}
	body, err := c.Body()
	if err != nil {
		return body, err
	}
	if err := rs.Store.UpdateBuylist(c.Request().Context(), sess.UserID, id, &body); err != nil {
		return body, fail(err)
	}
	return body, nil
}

// Delete removes an entry of the user's buylist.
func (rs BuylistResources) Delete(c fuego.ContextNoBody) (Message, error) {
	sess, err := session(c.Request())
	if err != nil {
		return Message{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return Message{}, err
	}
	if err := rs.Store.DeleteBuylist(c.Request().Context(), sess.UserID, id); err != nil {
		return Message{}, fail(err)
	}
	return Message{"buylist entry deleted"}, nil
}

// PromoteResult tells what adding an entry to the masterlist did.
type PromoteResult struct {
	Action string `json:"action"`
}

// AddToMasterlist promotes an entry to the masterlist.
func (rs BuylistResources) AddToMasterlist(c fuego.ContextNoBody) (PromoteResult, error) {
	sess, err := session(c.Request())
	if err != nil {
		return PromoteResult{}, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return PromoteResult{}, err
	}
	action, err := rs.Store.AddBuylistToMasterlist(c.Request().Context(), sess.UserID, id)
	return PromoteResult{Action: action}, fail(err)
}

// Routes registers /buylist.
func (rs BuylistResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/buylist")
	fuego.Get(g, "", rs.List,
		option.Summary("List the buylist"),
		option.Query("search", "Company, ticker or ISIN"),
		option.QueryInt("status_id", "Status"),
		option.QueryInt("priority", "Priority 1 to 4"),
		option.Query("country", "Country code"),
		option.QueryInt("page", "Page number", param.Default(1)),
		option.QueryInt("limit", "Page size"),
	)
	fuego.Post(g, "", rs.Create, option.Summary("Add to the buylist"))
	fuego.Get(g, "/statistics", rs.Statistics, option.Summary("Buylist statistics"))
	fuego.Get(g, "/{id}", rs.Get, option.Summary("Get a buylist entry"))
	fuego.Get(g, "/{id}/history", rs.History, option.Summary("Changes of a buylist entry"))
	fuego.Put(g, "/{id}", rs.Update, option.Summary("Update a buylist entry"))
	fuego.Delete(g, "/{id}", rs.Delete, option.Summary("Remove from the buylist"))
	fuego.Post(g, "/{id}/masterlist", rs.AddToMasterlist, option.Summary("Add a buylist entry to the masterlist"))
}

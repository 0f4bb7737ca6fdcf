package web

import (
	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// PortfolioResources serves the holdings and their allocation.
type PortfolioResources struct{ *Server }

// Holdings returns the active holdings.
func (rs PortfolioResources) Holdings(c fuego.ContextNoBody) ([]store.Holding, error) {
	h, err := rs.Store.ActiveHoldings(c.Request().Context())
	return h, fail(err)
}

// Recompute rebuilds the holdings from the trade log.
func (rs PortfolioResources) Recompute(c fuego.ContextNoBody) (store.RecomputeSummary, error) {
	sum, err := rs.Store.RecomputeHoldings(c.Request().Context())
	return sum, fail(err)
}

// Allocation buckets the holdings by country, region, sector, currency and size.
func (rs PortfolioResources) Allocation(c fuego.ContextNoBody) (psw.Allocation, error) {
	a, err := rs.Store.Allocation(c.Request().Context())
	return a, fail(err)
}

// Summary returns the portfolio overview with the recent and upcoming dividends.
func (rs PortfolioResources) Summary(c fuego.ContextNoBody) (store.PortfolioSummary, error) {
	sum, err := rs.Store.PortfolioSummary(c.Request().Context())
	return sum, fail(err)
}

// Routes registers /holdings, /allocation and /portfolio.
func (rs PortfolioResources) Routes(s *fuego.Server) {
	fuego.Get(s, "/portfolio/summary", rs.Summary, option.Summary("Portfolio overview"))
	fuego.Get(s, "/holdings", rs.Holdings, option.Summary("Active holdings"))
	fuego.Post(s, "/holdings/recompute", rs.Recompute, option.Summary("Rebuild holdings from trades"))
	fuego.Get(s, "/allocation", rs.Allocation, option.Summary("Portfolio allocation"))
}

// ReferenceResources lists the reference tables.
type ReferenceResources struct{ *Server }

// Brokers lists the brokers.
func (rs ReferenceResources) Brokers(c fuego.ContextNoBody) ([]store.Broker, error) {
	l, err := rs.Store.Brokers(c.Request().Context())
	return l, fail(err)
}

// AccountGroups lists the portfolio account groups.
func (rs ReferenceResources) AccountGroups(c fuego.ContextNoBody) ([]store.AccountGroup, error) {
	l, err := rs.Store.AccountGroups(c.Request().Context())
	return l, fail(err)
}

// StrategyGroups lists the strategy groups.
func (rs ReferenceResources) StrategyGroups(c fuego.ContextNoBody) ([]store.StrategyGroup, error) {
	l, err := rs.Store.StrategyGroups(c.Request().Context())
	return l, fail(err)
}

// Statuses lists the new company statuses.
func (rs ReferenceResources) Statuses(c fuego.ContextNoBody) ([]store.NewCompanyStatus, error) {
	l, err := rs.Store.NewCompanyStatuses(c.Request().Context())
	return l, fail(err)
}

// BuylistStatuses lists the buylist statuses.
func (rs ReferenceResources) BuylistStatuses(c fuego.ContextNoBody) ([]store.BuylistStatus, error) {
	l, err := rs.Store.BuylistStatuses(c.Request().Context())
	return l, fail(err)
}

// Currencies lists the currencies of the trade log.
func (rs ReferenceResources) Currencies(c fuego.ContextNoBody) ([]string, error) {
	l, err := rs.Store.TradeCurrencies(c.Request().Context())
	return l, fail(err)
}

// Formats lists the number formats a user can choose.
func (rs ReferenceResources) Formats(c fuego.ContextNoBody) ([]FormatOption, error) {
	var out []FormatOption
	for _, k := range psw.FormatKeys() {
		out = append(out, FormatOption{Key: k, Label: psw.FormatLabel(k)})
	}
	return out, nil
}

// FormatOption is a number format.
type FormatOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Routes registers /reference.
func (rs ReferenceResources) Routes(s *fuego.Server) {
	g := fuego.Group(s, "/reference")
	fuego.Get(g, "/brokers", rs.Brokers, option.Summary("Brokers"))
	fuego.Get(g, "/account-groups", rs.AccountGroups, option.Summary("Portfolio account groups"))
	fuego.Get(g, "/strategy-groups", rs.StrategyGroups, option.Summary("Strategy groups"))
	fuego.Get(g, "/statuses", rs.Statuses, option.Summary("New company statuses"))
	fuego.Get(g, "/buylist-statuses", rs.BuylistStatuses, option.Summary("Buylist statuses"))
	fuego.Get(g, "/currencies", rs.Currencies, option.Summary("Trade currencies"))
	fuego.Get(g, "/formats", rs.Formats, option.Summary("Number formats"))
}

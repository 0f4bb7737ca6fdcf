package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/psw"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchLimit is the number of suggestions returned by SearchISIN.
const SearchLimit = 10

// ISINSuggestion is an autocomplete entry.
type ISINSuggestion struct {
	ISIN        string `json:"isin"`
	CompanyName string `json:"company_name"`
	Ticker      string `json:"ticker"`
	Country     string `json:"country"`
	Currency    string `json:"currency"`
	Market      string `json:"market"`
	ShareTypeID int    `json:"share_type_id"`
	DisplayText string `json:"display_text"`
	Label       string `json:"label"`
}

// SearchISIN suggests masterlist companies whose ISIN or name contains query.
//
// Exact ISIN matches come first, then ISIN prefixes, then name prefixes, then
// any other match, each group ordered by name. Queries shorter than two
// characters return nothing.
func (s *Store) SearchISIN(ctx context.Context, query string) ([]ISINSuggestion, error) {
	query = strings.TrimSpace(query)
	out := []ISINSuggestion{}
	if len([]rune(query)) < 2 {
		return out, nil
	}
	lower := strings.ToLower(query)
	var rows []MasterlistEntry
	err := s.db.WithContext(ctx).
		Where("isin IS NOT NULL AND isin <> ''").
		Where("LOWER(isin) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", like(query), like(query)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL: `CASE
				WHEN LOWER(isin) = ? THEN 1
				WHEN LOWER(isin) LIKE ? ESCAPE '!' THEN 2
				WHEN LOWER(name) LIKE ? ESCAPE '!' THEN 3
				ELSE 4 END, name ASC`,
			Vars:               []any{lower, likePrefix(query), likePrefix(query)},
			WithoutParentheses: true,
		}}).
		Limit(SearchLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cannot search ISIN %q: %w", query, err)
	}
	for _, m := range rows {
		sug := ISINSuggestion{
			ISIN:        m.ISIN,
			CompanyName: m.Name,
			Ticker:      m.Ticker,
			Country:     m.Country,
			Currency:    psw.BaseCurrency,
			Market:      m.Market,
			ShareTypeID: m.ShareTypeID,
			DisplayText: m.ISIN + " - " + m.Name,
		}
		sug.Label = sug.DisplayText
		if m.Ticker != "" {
			sug.Label += " (" + m.Ticker + ")"
		}
		out = append(out, sug)
	}
	return out, nil
}

// sourceTables are checked in order by FindDuplicateSource.
var sourceTables = []struct {
	name  string
	model any
}{
	{psw.SourceNordic, &NordicInstrument{}},
	{psw.SourceGlobal, &GlobalInstrument{}},
	{psw.SourceManual, &ManualCompany{}},
	{psw.SourceMasterlist, &MasterlistEntry{}},
}

// FindDuplicateSource returns the name of the first data source that already
// knows isin, or "" when none does.
func (s *Store) FindDuplicateSource(ctx context.Context, isin string) (string, error) {
	return findDuplicateSource(s.db.WithContext(ctx), isin)
}

func findDuplicateSource(tx *gorm.DB, isin string) (string, error) {
	isin = psw.NormalizeISIN(isin)
	if isin == "" {
		return "", nil
	}
	for _, src := range sourceTables {
		var n int64
		if err := tx.Model(src.model).Where("isin = ?", isin).Count(&n).Error; err != nil {
			return "", fmt.Errorf("cannot look up %s in %s: %w", isin, src.name, err)
		}
		if n > 0 {
			return src.name, nil
		}
	}
	return "", nil
}

// Sources loads the ISIN sets of every data source.
func (s *Store) Sources(ctx context.Context) ([]psw.Source, error) {
	db := s.db.WithContext(ctx)
	sources := make([]psw.Source, 0, len(sourceTables))
	for _, src := range sourceTables {
		var isins []string
		if err := db.Model(src.model).Where("isin IS NOT NULL AND isin <> ''").Pluck("isin", &isins).Error; err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", src.name, err)
		}
		sources = append(sources, psw.NewSource(src.name, isins))
	}
	return sources, nil
}

// Unsupported reconciles the active holdings with the three market data
// sources (Börsdata Nordic, Börsdata Global and manual data) and returns the
// companies none of them covers. Being listed in the masterlist does not make
// a company supported.
func (s *Store) Unsupported(ctx context.Context) (psw.Reconciliation, error) {
	holdings, err := s.ActiveHoldings(ctx)
	if err != nil {
		return psw.Reconciliation{}, err
	}
	sources, err := s.Sources(ctx)
	if err != nil {
		return psw.Reconciliation{}, err
	}
	sources = slices.DeleteFunc(sources, func(src psw.Source) bool { return src.Name == psw.SourceMasterlist })
	held := make([]psw.HeldCompany, 0, len(holdings))
	for _, h := range holdings {
		held = append(held, psw.HeldCompany{
			ISIN:   h.ISIN,
			Name:   h.CompanyName,
			Ticker: h.Ticker,
			Value:  psw.SEK(h.CurrentValueSEK),
		})
	}
	return psw.Reconcile(held, sources...), nil
}

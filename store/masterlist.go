package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/psw"
	"gorm.io/gorm"
)

// MasterlistFilter narrows a masterlist listing. Empty fields do not filter.
type MasterlistFilter struct {
	Country   string
	Market    string
	ShareType int
	Delisted  *bool
	Search    string
}

func (f MasterlistFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Country != "" {
		q = q.Where("country = ?", f.Country)
	}
	if f.Market != "" {
		q = q.Where("market = ?", f.Market)
	}
	if f.ShareType != 0 {
		q = q.Where("share_type_id = ?", f.ShareType)
	}
	if f.Delisted != nil {
		q = q.Where("delisted = ?", *f.Delisted)
	}
	if f.Search != "" {
		p := like(f.Search)
		q = q.Where("LOWER(isin) LIKE ? ESCAPE '!' OR LOWER(ticker) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", p, p, p)
	}
	return q
}

// MasterlistPage is a page of the masterlist.
type MasterlistPage struct {
	Companies  []MasterlistEntry `json:"companies"`
	Pagination Pagination        `json:"pagination"`
}

// ListMasterlist returns a page of companies ordered by name.
func (s *Store) ListMasterlist(ctx context.Context, f MasterlistFilter, p Page) (MasterlistPage, error) {
	var res MasterlistPage
	q := f.apply(s.db.WithContext(ctx).Model(&MasterlistEntry{})).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return res, fmt.Errorf("cannot count masterlist: %w", err)
	}
	res.Companies = []MasterlistEntry{}
	if err := p.apply(q.Order("name ASC")).Find(&res.Companies).Error; err != nil {
		return res, fmt.Errorf("cannot list masterlist: %w", err)
	}
	res.Pagination = newPagination(p, total)
	return res, nil
}

// GetMasterlist returns the company of an ISIN.
func (s *Store) GetMasterlist(ctx context.Context, isin string) (MasterlistEntry, error) {
	var m MasterlistEntry
	err := s.db.WithContext(ctx).First(&m, "isin = ?", psw.NormalizeISIN(isin)).Error
	return m, notFound(err)
}

func (m *MasterlistEntry) validate() error {
	errs := psw.ValidationError{}
	m.ISIN = psw.NormalizeISIN(m.ISIN)
	m.Ticker = strings.ToUpper(strings.TrimSpace(m.Ticker))
	m.Name = strings.TrimSpace(m.Name)
	if err := psw.ValidateISIN(m.ISIN); err != nil {
		errs.Add("isin", "%v", err)
	}
	if m.Name == "" {
		errs.Add("name", "company name is required")
	}
	if m.Ticker != "" {
		if err := psw.ValidateTicker(m.Ticker); err != nil {
			errs.Add("ticker", "%v", err)
		}
	}
	return errs.Err()
}

// CreateMasterlist adds a company. An existing ISIN is ErrDuplicate.
func (s *Store) CreateMasterlist(ctx context.Context, m *MasterlistEntry) error {
	if err := m.validate(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&MasterlistEntry{}).Where("isin = ?", m.ISIN).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("ISIN %s: %w", m.ISIN, ErrDuplicate)
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "insert", "masterlist", m.ISIN)
	return nil
}

// UpdateMasterlist replaces the fields of the company of isin.
func (s *Store) UpdateMasterlist(ctx context.Context, isin string, m *MasterlistEntry) error {
	m.ISIN = psw.NormalizeISIN(isin)
	if err := m.validate(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old MasterlistEntry
		if err := tx.First(&old, "isin = ?", m.ISIN).Error; err != nil {
			return notFound(err)
		}
		m.CreatedAt = old.CreatedAt
		return tx.Save(m).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "update", "masterlist", m.ISIN)
	return nil
}

// DelistMasterlist marks a company as delisted as of today. Companies are
// never removed, trades and dividends still refer to them.
func (s *Store) DelistMasterlist(ctx context.Context, isin string) error {
	isin = psw.NormalizeISIN(isin)
	res := s.db.WithContext(ctx).Model(&MasterlistEntry{}).Where("isin = ?", isin).
		Updates(map[string]any{"delisted": true, "delisted_date": s.Today()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delist", "masterlist", isin)
	return nil
}

// Count is a named number of records.
type Count struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// MasterlistStatistics summarises the masterlist.
type MasterlistStatistics struct {
	Total       int64   `json:"total_companies"`
	Active      int64   `json:"active_companies"`
	Delisted    int64   `json:"delisted_companies"`
	Countries   int64   `json:"total_countries"`
	Markets     int64   `json:"total_markets"`
	ByCountry   []Count `json:"by_country"`
	ByMarket    []Count `json:"by_market"`
	ByShareType []Count `json:"by_share_type"`
}

// countBy groups the rows of q by column, largest groups first.
func countBy(q *gorm.DB, column string) ([]Count, error) {
	counts := []Count{}
	err := q.Select(column + " AS name, COUNT(*) AS count").
		Where(column + " IS NOT NULL AND " + column + " <> ''").
		Group(column).Order("count DESC, name ASC").Scan(&counts).Error
	return counts, err
}

// MasterlistStatistics counts the companies by status, country, market and share type.
func (s *Store) MasterlistStatistics(ctx context.Context) (MasterlistStatistics, error) {
	var st MasterlistStatistics
	db := s.db.WithContext(ctx)
	model := func() *gorm.DB { return db.Model(&MasterlistEntry{}) }
	steps := []func() error{
		func() error { return model().Count(&st.Total).Error },
		func() error { return model().Where("delisted = ?", false).Count(&st.Active).Error },
		func() error { return model().Where("delisted = ?", true).Count(&st.Delisted).Error },
		func() error {
			return model().Where("country <> ''").Distinct("country").Count(&st.Countries).Error
		},
		func() error {
			return model().Where("market <> ''").Distinct("market").Count(&st.Markets).Error
		},
		func() (err error) { st.ByCountry, err = countBy(model(), "country"); return },
		func() (err error) { st.ByMarket, err = countBy(model(), "market"); return },
		func() error {
			st.ByShareType = []Count{}
			return model().Select("CAST(share_type_id AS CHAR) AS name, COUNT(*) AS count").
				Group("share_type_id").Order("share_type_id").Scan(&st.ByShareType).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return st, fmt.Errorf("cannot compute masterlist statistics: %w", err)
		}
	}
	return st, nil
}

// MasterlistFilterOptions are the distinct values usable in a MasterlistFilter.
type MasterlistFilterOptions struct {
	Countries  []string `json:"countries"`
	Markets    []string `json:"markets"`
	ShareTypes []int    `json:"share_types"`
}

// MasterlistFilters returns the distinct countries, markets and share types.
func (s *Store) MasterlistFilters(ctx context.Context) (MasterlistFilterOptions, error) {
	o := MasterlistFilterOptions{Countries: []string{}, Markets: []string{}, ShareTypes: []int{}}
	db := s.db.WithContext(ctx).Model(&MasterlistEntry{})
	if err := db.Session(&gorm.Session{}).Where("country <> ''").Distinct().Order("country").Pluck("country", &o.Countries).Error; err != nil {
		return o, err
	}
	if err := db.Session(&gorm.Session{}).Where("market <> ''").Distinct().Order("market").Pluck("market", &o.Markets).Error; err != nil {
		return o, err
	}
	err := db.Session(&gorm.Session{}).Where("share_type_id IS NOT NULL").Distinct().Order("share_type_id").Pluck("share_type_id", &o.ShareTypes).Error
	return o, err
}

// masterlistExists reports whether the masterlist knows the ISIN, or when the
// ISIN is empty, a company with the same name and ticker.
func masterlistExists(tx *gorm.DB, isin, name, ticker string) (bool, error) {
	q := tx.Model(&MasterlistEntry{})
	if isin != "" {
		q = q.Where("isin = ?", isin)
	} else {
		q = q.Where("LOWER(name) = ? AND UPPER(ticker) = ?", strings.ToLower(name), strings.ToUpper(ticker))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return n > 0, nil
}

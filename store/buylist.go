package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/psw"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Buylist defaults.
const (
	DefaultPriority  = int(psw.PriorityHigh)
	DefaultRiskLevel = 3
	DefaultMarketCap = "Mid"
)

// Actions logged when a buylist entry is promoted to the masterlist.
const (
	ActionAdded         = "added"
	ActionAlreadyExists = "already_exists"
)

// normalize uppercases codes, applies the defaults and validates the entry.
func (b *BuylistEntry) normalize() error {
	b.CompanyName = strings.TrimSpace(b.CompanyName)
	b.Ticker = strings.ToUpper(strings.TrimSpace(b.Ticker))
	b.ISIN = psw.NormalizeISIN(b.ISIN)
	b.Country = strings.ToUpper(strings.TrimSpace(b.Country))
	b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
	if b.Currency == "" {
		b.Currency = psw.BaseCurrency
	}
	if b.Priority == 0 {
		b.Priority = DefaultPriority
	}
	if b.RiskLevel == 0 {
		b.RiskLevel = DefaultRiskLevel
	}
	if b.MarketCap == "" {
		b.MarketCap = DefaultMarketCap
	}

	errs := psw.ValidationError{}
	if b.CompanyName == "" {
		errs.Add("company_name", "company name is required")
	}
	if b.Ticker == "" {
		errs.Add("ticker", "ticker is required")
	}
	if b.StatusID == 0 {
		errs.Add("status_id", "status is required")
	}
	if b.ISIN != "" {
		if err := psw.ValidateISIN(b.ISIN); err != nil {
			errs.Add("isin", "%v", err)
		}
	}
	if err := psw.ValidCurrency(b.Currency); err != nil {
		errs.Add("currency", "%v", err)
	}
	if !psw.Priority(b.Priority).Valid() {
		errs.Add("priority", "priority must be between 1 and 4")
	}
	if !psw.Risk(b.RiskLevel).Valid() {
		errs.Add("risk_level", "risk level must be between 1 and 3")
	}
	if !slices.Contains(psw.MarketCaps, b.MarketCap) {
		errs.Add("market_cap_category", "market cap must be one of %s", strings.Join(psw.MarketCaps, ", "))
	}
	if b.TargetPrice.Valid && b.TargetPrice.Decimal.IsNegative() {
		errs.Add("target_price", "target price cannot be negative")
	}
	if b.TargetQuantity < 0 {
		errs.Add("target_quantity", "target quantity cannot be negative")
	}
	return errs.Err()
}

// CreateBuylist adds an entry to the buylist of userID. The same company and
// ticker cannot be listed twice by a user.
func (s *Store) CreateBuylist(ctx context.Context, userID uint, b *BuylistEntry) error {
	b.ID = 0
	b.UserID = userID
	b.AddedToMasterlist = false
	if err := b.normalize(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := buylistDuplicate(tx, userID, 0, b); err != nil {
			return err
		}
		return tx.Create(b).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "insert", "buylist", b.ID, zapISIN(b.ISIN))
	return nil
}

// buylistDuplicate fails with ErrDuplicate when another entry than exceptID
// of userID has the company name and ticker of b.
func buylistDuplicate(tx *gorm.DB, userID, exceptID uint, b *BuylistEntry) error {
	var n int64
	err := tx.Model(&BuylistEntry{}).
		Where("user_id = ? AND company_name = ? AND ticker = ? AND buylist_id <> ?", userID, b.CompanyName, b.Ticker, exceptID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%s (%s) is already in the buylist: %w", b.CompanyName, b.Ticker, ErrDuplicate)
	}
	return nil
}

// GetBuylist returns an entry of the buylist of userID.
func (s *Store) GetBuylist(ctx context.Context, userID, id uint) (BuylistEntry, error) {
	var b BuylistEntry
	err := s.buylistQuery(ctx).Where("buylist.buylist_id = ?", id).Take(&b).Error
	if err != nil {
		return b, notFound(err)
	}
	if b.UserID != userID {
		return b, ErrForbidden
	}
	return b, nil
}

// buylistChanges lists the fields that differ between two versions of an entry.
func buylistChanges(old, b BuylistEntry) [][3]string {
	str := func(d decimal.NullDecimal) string {
		if !d.Valid {
			return ""
		}
		return d.Decimal.String()
	}
	fields := [][3]string{
		{"company_name", old.CompanyName, b.CompanyName},
		{"ticker", old.Ticker, b.Ticker},
		{"isin", old.ISIN, b.ISIN},
		{"country", old.Country, b.Country},
		{"currency", old.Currency, b.Currency},
		{"exchange", old.Exchange, b.Exchange},
		{"status_id", fmt.Sprint(old.StatusID), fmt.Sprint(b.StatusID)},
		{"priority", fmt.Sprint(old.Priority), fmt.Sprint(b.Priority)},
		{"risk_level", fmt.Sprint(old.RiskLevel), fmt.Sprint(b.RiskLevel)},
		{"market_cap_category", old.MarketCap, b.MarketCap},
		{"target_price", str(old.TargetPrice), str(b.TargetPrice)},
		{"target_quantity", fmt.Sprint(old.TargetQuantity), fmt.Sprint(b.TargetQuantity)},
		{"notes", old.Notes, b.Notes},
	}
	return slices.DeleteFunc(fields, func(f [3]string) bool { return f[1] == f[2] })
}

// UpdateBuylist replaces an entry of the buylist of userID and records every
// changed field in the buylist history.
func (s *Store) UpdateBuylist(ctx context.Context, userID, id uint, b *BuylistEntry) error {
	if err := b.normalize(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old BuylistEntry
		if err := tx.Where("buylist_id = ?", id).Take(&old).Error; err != nil {
			return notFound(err)
		}
		if old.UserID != userID {
			return ErrForbidden
		}
		b.ID, b.UserID, b.CreatedAt = old.ID, old.UserID, old.CreatedAt
		if err := buylistDuplicate(tx, userID, id, b); err != nil {
			return err
		}
		b.AddedToMasterlist, b.AddedToMasterlistDate = old.AddedToMasterlist, old.AddedToMasterlistDate
		for _, c := range buylistChanges(old, *b) {
			h := BuylistHistory{BuylistID: id, FieldName: c[0], OldValue: c[1], NewValue: c[2], ChangedBy: userID}
			if err := tx.Create(&h).Error; err != nil {
				return err
			}
		}
		return tx.Save(b).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "update", "buylist", id)
	return nil
}

// BuylistHistoryOf returns the recorded changes of an entry, latest first.
func (s *Store) BuylistHistoryOf(ctx context.Context, userID, id uint) ([]BuylistHistory, error) {
	if _, err := s.GetBuylist(ctx, userID, id); err != nil {
		return nil, err
	}
	list := []BuylistHistory{}
	err := s.db.WithContext(ctx).Where("buylist_id = ?", id).Order("changed_at DESC, id DESC").Find(&list).Error
	return list, err
}

// DeleteBuylist removes an entry of the buylist of userID.
func (s *Store) DeleteBuylist(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("buylist_id = ? AND user_id = ?", id, userID).Delete(&BuylistEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "buylist", id)
	return nil
}

// BuylistFilter narrows a buylist listing. Empty fields do not filter.
type BuylistFilter struct {
	Search   string
	StatusID uint
	Priority int
	Country  string
}

func (s *Store) buylistQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&BuylistEntry{}).
		Select("buylist.*, buylist_status.status_name AS status_name").
		Joins("LEFT JOIN buylist_status ON buylist_status.status_id = buylist.status_id")
}

// BuylistPage is a page of a user's buylist.
type BuylistPage struct {
	Entries    []BuylistEntry `json:"entries"`
	Pagination Pagination     `json:"pagination"`
}

// ListBuylist returns a page of the buylist of userID, highest priority first.
func (s *Store) ListBuylist(ctx context.Context, userID uint, f BuylistFilter, p Page) (BuylistPage, error) {
	var res BuylistPage
	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("buylist.user_id = ?", userID)
		if f.Search != "" {
			pat := like(f.Search)
			q = q.Where("LOWER(buylist.company_name) LIKE ? ESCAPE '!' OR LOWER(buylist.ticker) LIKE ? ESCAPE '!' OR LOWER(buylist.isin) LIKE ? ESCAPE '!'", pat, pat, pat)
		}
		if f.StatusID != 0 {
			q = q.Where("buylist.status_id = ?", f.StatusID)
		}
		if f.Priority != 0 {
			q = q.Where("buylist.priority = ?", f.Priority)
		}
		if f.Country != "" {
			q = q.Where("buylist.country = ?", strings.ToUpper(f.Country))
		}
		return q
	}
	var total int64
	if err := filter(s.buylistQuery(ctx)).Count(&total).Error; err != nil {
		return res, fmt.Errorf("cannot count buylist: %w", err)
	}
	res.Entries = []BuylistEntry{}
	q := filter(s.buylistQuery(ctx)).Order("buylist.priority DESC, buylist.company_name ASC")
	if err := p.apply(q).Find(&res.Entries).Error; err != nil {
		return res, fmt.Errorf("cannot list buylist: %w", err)
	}
	res.Pagination = newPagination(p, total)
	return res, nil
}

// BuylistStatistics summarises a user's buylist.
type BuylistStatistics struct {
	Total       int       `json:"total_entries"`
	ByStatus    []Count   `json:"by_status"`
	ByPriority  []Count   `json:"by_priority"`
	TargetValue psw.Money `json:"total_target_value"`
	InMaster    int       `json:"added_to_masterlist"`
}

// BuylistStatistics counts the entries of userID by status and priority and
// sums their target value (target price × target quantity).
func (s *Store) BuylistStatistics(ctx context.Context, userID uint) (BuylistStatistics, error) {
	st := BuylistStatistics{ByStatus: []Count{}, ByPriority: []Count{}, TargetValue: psw.SEK(0)}
	var list []BuylistEntry
	if err := s.buylistQuery(ctx).Where("buylist.user_id = ?", userID).Find(&list).Error; err != nil {
		return st, fmt.Errorf("cannot compute buylist statistics: %w", err)
	}
	byStatus := map[string]int64{}
	byPriority := map[string]int64{}
	for _, b := range list {
		st.Total++
		name := b.StatusName
		if name == "" {
			name = "Unknown"
		}
		byStatus[name]++
		byPriority[psw.Priority(b.Priority).String()]++
		if b.TargetPrice.Valid && b.TargetQuantity > 0 {
			value := b.TargetPrice.Decimal.Mul(decimal.NewFromInt(int64(b.TargetQuantity)))
			st.TargetValue = st.TargetValue.Add(psw.SEK(value))
		}
		if b.AddedToMasterlist {
			st.InMaster++
		}
	}
	st.ByStatus = sortedCounts(byStatus)
	st.ByPriority = sortedCounts(byPriority)
	return st, nil
}

// sortedCounts orders counts by decreasing count then name.
func sortedCounts(m map[string]int64) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Count: n})
	}
	slices.SortFunc(counts, func(a, b Count) int {
		if a.Count != b.Count {
			return int(b.Count - a.Count)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return counts
}

// AddBuylistToMasterlist promotes a buylist entry of userID to the masterlist.
//
// When the masterlist already knows the company the entry is only flagged and
// the action logged as already_exists. An entry without ISIN cannot be
// promoted.
func (s *Store) AddBuylistToMasterlist(ctx context.Context, userID, id uint) (string, error) {
	var action string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b BuylistEntry
		if err := tx.Where("buylist_id = ?", id).Take(&b).Error; err != nil {
			return notFound(err)
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if b.ISIN == "" {
			return psw.ValidationError{"isin": "an ISIN is required to add a company to the masterlist"}
		}
		exists, err := masterlistExists(tx, b.ISIN, b.CompanyName, b.Ticker)
		if err != nil {
			return err
		}
		action = ActionAlreadyExists
		if !exists {
			action = ActionAdded
			country := b.Country
			if country == "" {
				country = "SE"
			}
			m := MasterlistEntry{ISIN: b.ISIN, Ticker: b.Ticker, Name: b.CompanyName, Country: country, Market: b.Exchange, ShareTypeID: 1}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		err = tx.Model(&BuylistEntry{}).Where("buylist_id = ?", id).
			Updates(map[string]any{"added_to_masterlist": true, "added_to_masterlist_date": s.Today()}).Error
		if err != nil {
			return err
		}
		return tx.Create(&BuylistMasterlistLog{BuylistID: id, ISIN: b.ISIN, Action: action, UserID: userID}).Error
	})
	if err != nil {
		return "", err
	}
	s.audit(ctx, action, "masterlist", id)
	return action, nil
}

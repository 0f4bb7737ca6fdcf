package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/psw"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewCompanyFilter narrows the new companies listing.
//
// The multi-valued filters hold comma separated values where "null" selects
// the companies without a value.
type NewCompanyFilter struct {
	Search         string
	Countries      string
	Statuses       string
	StrategyGroups string
	Brokers        string
	YieldMin       decimal.NullDecimal
	YieldMax       decimal.NullDecimal
}

// anyOf builds the condition of a comma separated multi-value filter.
func anyOf(q *gorm.DB, column, values string, numeric bool) *gorm.DB {
	if strings.TrimSpace(values) == "" {
		return q
	}
	var conds []string
	var args []any
	var in []any
	for _, v := range strings.Split(values, ",") {
		v = strings.TrimSpace(v)
		switch {
		case v == "":
		case v == "null" && numeric:
			conds = append(conds, column+" IS NULL")
		case v == "null":
			conds = append(conds, column+" IS NULL OR "+column+" = ''")
		case numeric:
			if n, err := strconv.Atoi(v); err == nil {
				in = append(in, n)
			}
		default:
			in = append(in, v)
		}
	}
	if len(in) > 0 {
		conds = append(conds, column+" IN ?")
		args = append(args, in)
	}
	if len(conds) == 0 {
		return q
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func (f NewCompanyFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Search != "" {
		p := like(f.Search)
		q = q.Where("LOWER(new_companies.company) LIKE ? ESCAPE '!' OR LOWER(new_companies.ticker) LIKE ? ESCAPE '!' OR LOWER(new_companies.isin) LIKE ? ESCAPE '!'", p, p, p)
	}
	q = anyOf(q, "new_companies.country_name", f.Countries, false)
	q = anyOf(q, "new_companies.status_id", f.Statuses, true)
	q = anyOf(q, "new_companies.strategy_group_id", f.StrategyGroups, true)
	q = anyOf(q, "new_companies.broker_id", f.Brokers, true)
	if f.YieldMin.Valid {
		q = q.Where("new_companies.yield >= ?", f.YieldMin.Decimal)
	}
	if f.YieldMax.Valid {
		q = q.Where("new_companies.yield <= ?", f.YieldMax.Decimal)
	}
	return q
}

func (s *Store) newCompanyQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&NewCompany{}).
		Select("new_companies.*, new_companies_status.status AS status_name, portfolio_strategy_groups.strategy_name AS strategy_group_name, brokers.broker_name AS broker_name").
		Joins("LEFT JOIN new_companies_status ON new_companies_status.id = new_companies.status_id").
		Joins("LEFT JOIN portfolio_strategy_groups ON portfolio_strategy_groups.strategy_group_id = new_companies.strategy_group_id").
		Joins("LEFT JOIN brokers ON brokers.broker_id = new_companies.broker_id")
}

// NewCompanyPage is a page of the new companies.
type NewCompanyPage struct {
	Companies  []NewCompany `json:"companies"`
	Pagination Pagination   `json:"pagination"`
}

var newCompanySorts = map[string]string{
	"company":      "new_companies.company",
	"ticker":       "new_companies.ticker",
	"country_name": "new_companies.country_name",
	"yield":        "new_companies.yield",
	"created_at":   "new_companies.created_at",
}

// DefaultNewCompanySort lists the companies by name.
var DefaultNewCompanySort = Sort{By: "company"}

// ListNewCompanies returns a page of the companies under evaluation.
func (s *Store) ListNewCompanies(ctx context.Context, f NewCompanyFilter, sort Sort, p Page) (NewCompanyPage, error) {
	var res NewCompanyPage
	var total int64
	if err := f.apply(s.newCompanyQuery(ctx)).Count(&total).Error; err != nil {
		return res, fmt.Errorf("cannot count new companies: %w", err)
	}
	res.Companies = []NewCompany{}
	q := f.apply(s.newCompanyQuery(ctx)).Order(orderBy(sort, newCompanySorts, DefaultNewCompanySort)).Order("new_companies.new_company_id")
	if err := p.apply(q).Find(&res.Companies).Error; err != nil {
		return res, fmt.Errorf("cannot list new companies: %w", err)
	}
	res.Pagination = newPagination(p, total)
	return res, nil
}

// GetNewCompany returns a company under evaluation.
func (s *Store) GetNewCompany(ctx context.Context, id uint) (NewCompany, error) {
	var c NewCompany
	err := s.newCompanyQuery(ctx).Where("new_companies.new_company_id = ?", id).Take(&c).Error
	return c, notFound(err)
}

// NewCompanyISINExists reports whether a company under evaluation has isin.
func (s *Store) NewCompanyISINExists(ctx context.Context, isin string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&NewCompany{}).Where("isin = ?", psw.NormalizeISIN(isin)).Count(&n).Error
	return n > 0, err
}

// validStatus clears a status that does not exist.
func validStatus(tx *gorm.DB, id *uint) (*uint, error) {
	if id == nil {
		return nil, nil
	}
	var n int64
	if err := tx.Model(&NewCompanyStatus{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return id, nil
}

// lookupInstrument finds isin in the global instruments, then the Nordic ones.
func lookupInstrument(tx *gorm.DB, isin string) (Instrument, bool, error) {
	var ins Instrument
	for _, model := range []any{&GlobalInstrument{}, &NordicInstrument{}} {
		err := tx.Model(model).Where("isin = ?", isin).Take(&ins).Error
		if err == nil {
			return ins, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return ins, false, err
		}
	}
	return ins, false, nil
}

// CreateNewCompany adds a company under evaluation.
//
// With BorsdataAvailable the ISIN is required and identifies the company; its
// name, ticker and country are taken from the Börsdata instruments when
// known. Otherwise the company name is required and identifies the company.
func (s *Store) CreateNewCompany(ctx context.Context, c *NewCompany) error {
	c.ID = 0
	c.YieldData = YieldData{}
	c.Company = strings.TrimSpace(c.Company)
	c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
	c.ISIN = psw.NormalizeISIN(c.ISIN)
	c.CountryName = strings.TrimSpace(c.CountryName)

	errs := psw.ValidationError{}
	if c.BorsdataAvailable {
		if c.ISIN == "" {
			errs.Add("isin", "ISIN is required for Börsdata companies")
		} else if err := psw.ValidateISIN(c.ISIN); err != nil {
			errs.Add("isin", "%v", err)
		}
	} else {
		if c.Company == "" {
			errs.Add("company", "company name is required")
		}
		if c.ISIN != "" {
			if err := psw.ValidateISIN(c.ISIN); err != nil {
				errs.Add("isin", "%v", err)
			}
		}
	}
	if c.Yield.Valid && c.Yield.Decimal.IsNegative() {
		errs.Add("yield", "yield cannot be negative")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup := tx.Model(&NewCompany{})
		switch {
		case c.BorsdataAvailable:
			dup = dup.Where("isin = ?", c.ISIN)
		case c.Ticker != "":
			dup = dup.Where("LOWER(company) = ? AND ticker = ?", strings.ToLower(c.Company), c.Ticker)
		default:
			dup = dup.Where("LOWER(company) = ?", strings.ToLower(c.Company))
		}
		var n int64
		if err := dup.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("company already under evaluation: %w", ErrDuplicate)
		}
		var err error
		if c.StatusID, err = validStatus(tx, c.StatusID); err != nil {
			return err
		}
		if c.BorsdataAvailable {
			ins, ok, err := lookupInstrument(tx, c.ISIN)
			if err != nil {
				return err
			}
			if ok {
				c.Company = ins.Name
				if ins.Ticker != "" {
					c.Ticker = strings.ToUpper(ins.Ticker)
				}
				if ins.Country != "" {
					c.CountryName = ins.Country
				}
			} else if c.Company == "" {
				c.Company = "Pending Börsdata lookup"
			}
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "insert", "new_companies", c.ID, zapISIN(c.ISIN))
	return nil
}

// UpdateNewCompany replaces the fields of a company under evaluation.
func (s *Store) UpdateNewCompany(ctx context.Context, id uint, c *NewCompany) error {
	c.Company = strings.TrimSpace(c.Company)
	c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
	c.ISIN = psw.NormalizeISIN(c.ISIN)
	c.CountryName = strings.TrimSpace(c.CountryName)
	errs := psw.ValidationError{}
	if c.Company == "" {
		errs.Add("company", "company name is required")
	}
	if c.Yield.Valid && c.Yield.Decimal.IsNegative() {
		errs.Add("yield", "yield cannot be negative")
	}
	if c.ISIN != "" {
		if err := psw.ValidateISIN(c.ISIN); err != nil {
			errs.Add("isin", "%v", err)
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old NewCompany
		if err := tx.Where("new_company_id = ?", id).Take(&old).Error; err != nil {
			return notFound(err)
		}
		c.ID, c.CreatedAt = old.ID, old.CreatedAt
		// Only the Börsdata sync writes the yield history.
		c.YieldData = old.YieldData
		var err error
		if c.StatusID, err = validStatus(tx, c.StatusID); err != nil {
			return err
		}
		return tx.Save(c).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "update", "new_companies", id)
	return nil
}

// DeleteNewCompany removes a company under evaluation.
func (s *Store) DeleteNewCompany(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&NewCompany{}, "new_company_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "new_companies", id)
	return nil
}

// NewCompanyStatistics summarises the yields of the companies under evaluation.
type NewCompanyStatistics struct {
	Total        int64           `json:"total_companies"`
	AverageYield decimal.Decimal `json:"avg_yield"`
	MaxYield     decimal.Decimal `json:"max_yield"`
	MinYield     decimal.Decimal `json:"min_yield"`
}

// NewCompanyStatistics counts the companies and computes the average, maximum
// and minimum of the positive yields, rounded to 2 decimals.
func (s *Store) NewCompanyStatistics(ctx context.Context) (NewCompanyStatistics, error) {
	var st NewCompanyStatistics
	db := s.db.WithContext(ctx)
	if err := db.Model(&NewCompany{}).Count(&st.Total).Error; err != nil {
		return st, err
	}
	var yields []decimal.Decimal
	if err := db.Model(&NewCompany{}).Where("yield > 0").Pluck("yield", &yields).Error; err != nil {
		return st, err
	}
	if len(yields) == 0 {
		return st, nil
	}
	sum := decimal.Zero
	st.MaxYield, st.MinYield = yields[0], yields[0]
	for _, y := range yields {
		sum = sum.Add(y)
		st.MaxYield = decimal.Max(st.MaxYield, y)
		st.MinYield = decimal.Min(st.MinYield, y)
	}
	st.AverageYield = sum.Div(decimal.NewFromInt(int64(len(yields)))).Round(2)
	st.MaxYield = st.MaxYield.Round(2)
	st.MinYield = st.MinYield.Round(2)
	return st, nil
}

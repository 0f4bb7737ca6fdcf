package store

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/etnz/psw"
	"gorm.io/gorm"
)

// Manual company defaults.
const (
	DefaultCompanyType       = "stock"
	DefaultDividendFrequency = "quarterly"
)

// Sanitize trims and uppercases the codes and applies the defaults.
func (m *ManualCompany) Sanitize() {
	m.ISIN = psw.NormalizeISIN(m.ISIN)
	m.Ticker = strings.ToUpper(strings.TrimSpace(m.Ticker))
	m.CompanyName = strings.TrimSpace(m.CompanyName)
	m.Country = strings.TrimSpace(m.Country)
	m.Currency = strings.ToUpper(strings.TrimSpace(m.Currency))
	m.Sector = strings.TrimSpace(m.Sector)
	m.MarketExchange = strings.TrimSpace(m.MarketExchange)
	m.CompanyType = strings.ToLower(strings.TrimSpace(m.CompanyType))
	if m.CompanyType == "" {
		m.CompanyType = DefaultCompanyType
	}
	m.DividendFrequency = strings.ToLower(strings.TrimSpace(m.DividendFrequency))
	if m.DividendFrequency == "" {
		m.DividendFrequency = DefaultDividendFrequency
	}
}

// Validate checks every field of a manual company.
func (m ManualCompany) Validate() error {
	errs := psw.ValidationError{}
	if err := psw.ValidateISIN(m.ISIN); err != nil {
		errs.Add("isin", "%v", err)
	}
	if err := psw.ValidateCompanyName(m.CompanyName); err != nil {
		errs.Add("company_name", "%v", err)
	}
	if err := psw.ValidateCountry(m.Country); err != nil {
		errs.Add("country", "%v", err)
	}
	if m.Currency == "" {
		errs.Add("currency", "currency is required")
	} else if err := psw.ValidCurrency(m.Currency); err != nil {
		errs.Add("currency", "%v", err)
	}
	if err := psw.ValidateTicker(m.Ticker); err != nil {
		errs.Add("ticker", "%v", err)
	}
	if !slices.Contains(psw.CompanyTypes, m.CompanyType) {
		errs.Add("company_type", "invalid company type: %s", m.CompanyType)
	}
	if !slices.Contains(psw.DividendFrequencies, m.DividendFrequency) {
		errs.Add("dividend_frequency", "invalid dividend frequency: %s", m.DividendFrequency)
	}
	return errs.Err()
}

// ListManualCompanies returns the manual companies by name.
func (s *Store) ListManualCompanies(ctx context.Context) ([]ManualCompany, error) {
	list := []ManualCompany{}
	err := s.db.WithContext(ctx).Order("company_name").Find(&list).Error
	return list, err
}

// CreateManualCompany adds a company not covered by Börsdata. An ISIN already
// known to Börsdata or to the manual data is rejected as a duplicate.
func (s *Store) CreateManualCompany(ctx context.Context, m *ManualCompany) error {
	m.ID = 0
	m.Sanitize()
	if err := m.Validate(); err != nil {
		return err
	}
	m.CreatedBy = UserIDFrom(ctx)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		src, err := findDuplicateSource(tx, m.ISIN)
		if err != nil {
			return err
		}
		// being in the masterlist is expected.
		if src != "" && src != psw.SourceMasterlist {
			return fmt.Errorf("ISIN %s already exists in %s: %w", m.ISIN, src, ErrDuplicate)
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "insert", "manual_company_data", m.ID, zapISIN(m.ISIN))
	return nil
}

// UpdateManualCompany replaces the fields of a manual company.
func (s *Store) UpdateManualCompany(ctx context.Context, id uint, m *ManualCompany) error {
	m.Sanitize()
	if err := m.Validate(); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old ManualCompany
		if err := tx.Where("manual_id = ?", id).Take(&old).Error; err != nil {
			return notFound(err)
		}
		if m.ISIN != old.ISIN {
			var n int64
			if err := tx.Model(&ManualCompany{}).Where("isin = ?", m.ISIN).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("ISIN %s: %w", m.ISIN, ErrDuplicate)
			}
		}
		m.ID, m.CreatedAt, m.CreatedBy = old.ID, old.CreatedAt, old.CreatedBy
		return tx.Save(m).Error
	})
	if err != nil {
		return err
	}
	s.audit(ctx, "update", "manual_company_data", id, zapISIN(m.ISIN))
	return nil
}

// DeleteManualCompany removes a manual company.
func (s *Store) DeleteManualCompany(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&ManualCompany{}, "manual_id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.audit(ctx, "delete", "manual_company_data", id)
	return nil
}

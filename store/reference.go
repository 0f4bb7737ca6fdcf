package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/psw/date"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reference data created by Migrate.
var (
	defaultBrokers           = []string{"Avanza", "Nordnet", "SEB", "Handelsbanken", "Swedbank", "Interactive Brokers"}
	defaultAccountGroups     = []string{"ISK", "KF", "Depå", "Pension"}
	defaultStrategyGroups    = []string{"Dividend Growth", "High Yield", "Dividend Kings", "Value", "Speculative"}
	defaultNewCompanyStatus  = []string{"Under Review", "Approved", "Rejected", "On Hold"}
	defaultBuylistStatusList = []string{"Watching", "Researching", "Ready to Buy", "Bought", "Rejected"}
)

func (s *Store) seed(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range defaultBrokers {
			if err := tx.Where(Broker{Name: name}).FirstOrCreate(&Broker{}).Error; err != nil {
				return err
			}
		}
		for _, name := range defaultAccountGroups {
			if err := tx.Where(AccountGroup{Name: name}).FirstOrCreate(&AccountGroup{}).Error; err != nil {
				return err
			}
		}
		for _, name := range defaultStrategyGroups {
			if err := tx.Where(StrategyGroup{Name: name}).FirstOrCreate(&StrategyGroup{}).Error; err != nil {
				return err
			}
		}
		for _, name := range defaultNewCompanyStatus {
			if err := tx.Where(NewCompanyStatus{Status: name}).FirstOrCreate(&NewCompanyStatus{}).Error; err != nil {
				return err
			}
		}
		for _, name := range defaultBuylistStatusList {
			if err := tx.Where(BuylistStatus{Name: name}).FirstOrCreate(&BuylistStatus{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Brokers lists the brokers by name.
func (s *Store) Brokers(ctx context.Context) ([]Broker, error) {
	var list []Broker
	err := s.db.WithContext(ctx).Order("broker_name").Find(&list).Error
	return list, err
}

// AccountGroups lists the portfolio account groups by name.
func (s *Store) AccountGroups(ctx context.Context) ([]AccountGroup, error) {
	var list []AccountGroup
	err := s.db.WithContext(ctx).Order("portfolio_group_name").Find(&list).Error
	return list, err
}

// StrategyGroups lists the strategy groups by name.
func (s *Store) StrategyGroups(ctx context.Context) ([]StrategyGroup, error) {
	var list []StrategyGroup
	err := s.db.WithContext(ctx).Order("strategy_name").Find(&list).Error
	return list, err
}

// NewCompanyStatuses lists the statuses of the new companies evaluation.
func (s *Store) NewCompanyStatuses(ctx context.Context) ([]NewCompanyStatus, error) {
	var list []NewCompanyStatus
	err := s.db.WithContext(ctx).Order("id").Find(&list).Error
	return list, err
}

// BuylistStatuses lists the statuses of the buylist workflow.
func (s *Store) BuylistStatuses(ctx context.Context) ([]BuylistStatus, error) {
	var list []BuylistStatus
	err := s.db.WithContext(ctx).Order("status_id").Find(&list).Error
	return list, err
}

// Sectors lists the Börsdata sectors.
func (s *Store) Sectors(ctx context.Context) ([]Sector, error) {
	var list []Sector
	err := s.db.WithContext(ctx).Order("sector_name").Find(&list).Error
	return list, err
}

// SaveSectors inserts or renames sectors.
func (s *Store) SaveSectors(ctx context.Context, sectors []Sector) error {
	if len(sectors) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&sectors).Error
	if err != nil {
		return fmt.Errorf("cannot save sectors: %w", err)
	}
	s.audit(ctx, "upsert", "sectors", len(sectors))
	return nil
}

// SaveNordicInstruments inserts or updates Börsdata Nordic instruments.
func (s *Store) SaveNordicInstruments(ctx context.Context, list []NordicInstrument) error {
	if len(list) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&list, 500).Error
	if err != nil {
		return fmt.Errorf("cannot save nordic instruments: %w", err)
	}
	s.audit(ctx, "upsert", "nordic_instruments", len(list))
	return nil
}

// SaveGlobalInstruments inserts or updates Börsdata global instruments.
func (s *Store) SaveGlobalInstruments(ctx context.Context, list []GlobalInstrument) error {
	if len(list) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&list, 500).Error
	if err != nil {
		return fmt.Errorf("cannot save global instruments: %w", err)
	}
	s.audit(ctx, "upsert", "global_instruments", len(list))
	return nil
}

// SavePrices inserts or updates the latest instrument prices.
func (s *Store) SavePrices(ctx context.Context, prices []LatestPrice) error {
	if len(prices) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&prices, 500).Error
	if err != nil {
		return fmt.Errorf("cannot save prices: %w", err)
	}
	s.audit(ctx, "upsert", "latest_prices", len(prices))
	return nil
}

// SaveFXRates inserts or updates exchange rates, keyed by pair and date.
func (s *Store) SaveFXRates(ctx context.Context, rates []FXRate) error {
	if len(rates) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base"}, {Name: "target"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "provider"}),
	}).Create(&rates).Error
	if err != nil {
		return fmt.Errorf("cannot save exchange rates: %w", err)
	}
	s.audit(ctx, "upsert", "fx_rates", len(rates))
	return nil
}

// LatestFXRate returns the most recent rate of base in target on or before on.
func (s *Store) LatestFXRate(ctx context.Context, base, target string, on date.Date) (FXRate, error) {
	var r FXRate
	q := s.db.WithContext(ctx).Where("base = ? AND target = ?", base, target)
	if !on.IsZero() {
		q = q.Where("date <= ?", on)
	}
	err := q.Order("date DESC").First(&r).Error
	return r, notFound(err)
}

// ToSEKRate returns the number of SEK for one unit of currency, using the
// stored rates in either direction. SEK converts at 1.
func (s *Store) ToSEKRate(ctx context.Context, currency string, on date.Date) (FXRate, error) {
	if currency == "SEK" || currency == "" {
		return FXRate{Base: "SEK", Target: "SEK", Date: on, Rate: one}, nil
	}
	r, err := s.LatestFXRate(ctx, currency, "SEK", on)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return r, err
	}
	inv, err := s.LatestFXRate(ctx, "SEK", currency, on)
	if err != nil {
		return inv, err
	}
	if inv.Rate.IsZero() {
		return inv, ErrNotFound
	}
	return FXRate{Base: currency, Target: "SEK", Date: inv.Date, Rate: one.Div(inv.Rate).Round(8), Provider: inv.Provider}, nil
}

// NordicInstruments lists the stored Börsdata Nordic instruments.
func (s *Store) NordicInstruments(ctx context.Context) ([]NordicInstrument, error) {
	var list []NordicInstrument
	err := s.db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

// GlobalInstruments lists the stored Börsdata global instruments.
func (s *Store) GlobalInstruments(ctx context.Context) ([]GlobalInstrument, error) {
	var list []GlobalInstrument
	err := s.db.WithContext(ctx).Order("name").Find(&list).Error
	return list, err
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/etnz/psw"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var one = decimal.NewFromInt(1)

// ActiveHoldings returns the active positions, largest first.
func (s *Store) ActiveHoldings(ctx context.Context) ([]Holding, error) {
	list := []Holding{}
	err := s.db.WithContext(ctx).Where("is_active = ? AND shares_held > 0", true).
		Order("current_value_sek DESC, company_name ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("cannot load holdings: %w", err)
	}
	return list, nil
}

// Allocation breaks the active holdings down by country, region, sector,
// currency and size.
func (s *Store) Allocation(ctx context.Context) (psw.Allocation, error) {
	holdings, err := s.ActiveHoldings(ctx)
	if err != nil {
		return psw.Allocation{}, err
	}
	positions := make([]psw.Position, 0, len(holdings))
	for _, h := range holdings {
		positions = append(positions, psw.Position{
			ISIN:     h.ISIN,
			Name:     h.CompanyName,
			Sector:   h.Sector,
			Currency: h.CurrencyLocal,
			Value:    psw.SEK(h.CurrentValueSEK),
		})
	}
	return psw.Allocate(positions), nil
}

// position accumulates the trades of one ISIN.
type position struct {
	isin, ticker, currency string
	shares, cost           decimal.Decimal
	lastPrice              decimal.Decimal
}

func (p *position) apply(t Trade) {
	if t.Ticker != "" {
		p.ticker = t.Ticker
	}
	if t.CurrencyLocal != "" {
		p.currency = t.CurrencyLocal
	}
	if !t.PricePerShareLocal.IsZero() {
		p.lastPrice = t.PricePerShareLocal
	}
	typ := psw.TradeType(t.TradeType)
	switch {
	case typ.IsPurchase():
		p.shares = p.shares.Add(t.SharesTraded)
		p.cost = p.cost.Add(t.NetAmountSEK)
	case typ.IsSale():
		if p.shares.IsPositive() {
			avg := p.cost.Div(p.shares)
			p.cost = p.cost.Sub(avg.Mul(decimal.Min(t.SharesTraded, p.shares)))
		}
		p.shares = p.shares.Sub(t.SharesTraded)
		if !p.shares.IsPositive() {
			p.shares = decimal.Zero
			p.cost = decimal.Zero
		}
	}
}

// RecomputeSummary reports the outcome of RecomputeHoldings.
type RecomputeSummary struct {
	Active   int      `json:"active"`
	Inactive int      `json:"inactive"`
	Unpriced []string `json:"unpriced"`
}

// RecomputeHoldings rebuilds the portfolio from the trade log.
//
// Purchases add shares at their net SEK cost, sales remove shares at the
// average cost. Positions are valued with the latest stored price of their
// Börsdata instrument (or the last traded price) and the latest exchange rate.
// Positions without shares are kept inactive.
func (s *Store) RecomputeHoldings(ctx context.Context) (RecomputeSummary, error) {
	sum := RecomputeSummary{Unpriced: []string{}}
	db := s.db.WithContext(ctx)

	var trades []Trade
	if err := db.Order("trade_date ASC, trade_id ASC").Find(&trades).Error; err != nil {
		return sum, fmt.Errorf("cannot load trades: %w", err)
	}
	var order []string
	positions := map[string]*position{}
	for _, t := range trades {
		p, ok := positions[t.ISIN]
		if !ok {
			p = &position{isin: t.ISIN}
			positions[t.ISIN] = p
			order = append(order, t.ISIN)
		}
		p.apply(t)
	}

	rows := make([]Holding, 0, len(order))
	for _, isin := range order {
		p := positions[isin]
		h := Holding{
			ISIN:          isin,
			Ticker:        p.ticker,
			CompanyName:   p.ticker,
			SharesHeld:    p.shares,
			TotalCostSEK:  p.cost.Round(2),
			CurrencyLocal: p.currency,
			IsActive:      p.shares.IsPositive(),
		}
		if p.shares.IsPositive() {
			h.AverageCostSEK = p.cost.Div(p.shares).Round(4)
		}
		if m, err := s.GetMasterlist(ctx, isin); err == nil {
			h.CompanyName = m.Name
			if m.Ticker != "" {
				h.Ticker = m.Ticker
			}
		}
		price, sector, err := s.instrumentPrice(ctx, isin)
		if err != nil {
			return sum, err
		}
		h.Sector = sector
		if price.IsZero() {
			price = p.lastPrice
			if h.IsActive {
				sum.Unpriced = append(sum.Unpriced, isin)
			}
		}
		h.LatestPriceLocal = price
		rate, err := s.ToSEKRate(ctx, h.CurrencyLocal, s.Today())
		switch {
		case err == nil:
			h.FXRate = rate.Rate
			h.CurrentValueSEK = p.shares.Mul(price).Mul(rate.Rate).Round(2)
		case errors.Is(err, ErrNotFound):
			// without a rate, value the position at cost.
			h.CurrentValueSEK = h.TotalCostSEK
		default:
			return sum, err
		}
		if h.IsActive {
			sum.Active++
		} else {
			sum.Inactive++
		}
		rows = append(rows, h)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		isins := make([]string, 0, len(rows))
		for _, h := range rows {
			isins = append(isins, h.ISIN)
			var old Holding
			err := tx.Where("isin = ?", h.ISIN).First(&old).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&h).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				h.ID = old.ID
				if err := tx.Save(&h).Error; err != nil {
					return err
				}
			}
		}
		q := tx.Model(&Holding{})
		if len(isins) > 0 {
			q = q.Where("isin NOT IN ?", isins)
		} else {
			q = q.Where("1 = 1")
		}
		return q.Updates(map[string]any{"is_active": false, "shares_held": decimal.Zero, "current_value_sek": decimal.Zero}).Error
	})
	if err != nil {
		return sum, fmt.Errorf("cannot save holdings: %w", err)
	}
	s.audit(ctx, "recompute", "portfolio", len(rows), zap.Int("active", sum.Active))
	return sum, nil
}

// instrumentPrice returns the latest close and the sector name of the
// Börsdata instrument of isin, Nordic first. Both are zero when unknown.
func (s *Store) instrumentPrice(ctx context.Context, isin string) (decimal.Decimal, string, error) {
	db := s.db.WithContext(ctx)
	var ins Instrument
	err := db.Model(&NordicInstrument{}).Where("isin = ?", isin).Take(&ins).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Model(&GlobalInstrument{}).Where("isin = ?", isin).Take(&ins).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, "", nil
	}
	if err != nil {
		return decimal.Zero, "", err
	}
	var sector Sector
	if ins.SectorID != 0 {
		if err := db.Where("sector_id = ?", ins.SectorID).Limit(1).Find(&sector).Error; err != nil {
			return decimal.Zero, "", err
		}
	}
	var price LatestPrice
	if err := db.Where("ins_id = ?", ins.InsID).Limit(1).Find(&price).Error; err != nil {
		return decimal.Zero, "", err
	}
	return price.Close, sector.Name, nil
}

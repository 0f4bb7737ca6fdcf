package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// YieldSource marks the yield history synced from Börsdata.
const YieldSource = "borsdata"

// YieldKPI is one dividend yield figure of a Börsdata instrument.
type YieldKPI struct {
	InsID       int
	Global      bool
	Period      string // last, 1year, 3year, 5year or 10year
	Calculation string // latest, mean or cagr
	Value       decimal.Decimal
}

// yieldColumns maps a period and calculation to the new_companies column.
var yieldColumns = map[string]string{
	"last/latest": "yield_current",
	"1year/mean":  "yield_1y_avg",
	"1year/cagr":  "yield_1y_cagr",
	"3year/mean":  "yield_3y_avg",
	"3year/cagr":  "yield_3y_cagr",
	"5year/mean":  "yield_5y_avg",
	"5year/cagr":  "yield_5y_cagr",
	"10year/mean": "yield_10y_avg",
	"10year/cagr": "yield_10y_cagr",
}

type instrumentKey struct {
	id     int
	global bool
}

// SaveYields writes the yield figures to the new companies with the ISIN of
// the instrument, and returns the number of companies updated. Figures of
// unknown instruments or of another period are ignored. Columns without a
// figure keep their value.
func (s *Store) SaveYields(ctx context.Context, kpis []YieldKPI) (int, error) {
	updates := map[instrumentKey]map[string]any{}
	for _, k := range kpis {
		col, ok := yieldColumns[k.Period+"/"+k.Calculation]
		if !ok {
			continue
		}
		key := instrumentKey{k.InsID, k.Global}
		if updates[key] == nil {
			updates[key] = map[string]any{}
		}
		updates[key][col] = k.Value.Round(4)
	}
	if len(updates) == 0 {
		return 0, nil
	}

	isins, err := s.instrumentISINs(ctx, slices.Collect(maps.Keys(updates)))
	if err != nil {
		return 0, err
	}
	now := time.Now()
	var updated int
	for key, cols := range updates {
		isin := isins[key]
		if isin == "" {
			continue
		}
		cols["yield_data_updated_at"] = now
		cols["yield_source"] = YieldSource
		res := s.db.WithContext(ctx).Model(&NewCompany{}).Where("isin = ?", isin).Updates(cols)
		if res.Error != nil {
			return updated, fmt.Errorf("cannot save yields of %s: %w", isin, res.Error)
		}
		updated += int(res.RowsAffected)
	}
	if updated > 0 {
		s.audit(ctx, "update", "new_companies", updated)
	}
	return updated, nil
}

// instrumentISINs returns the ISIN of the Nordic and global instruments.
func (s *Store) instrumentISINs(ctx context.Context, keys []instrumentKey) (map[instrumentKey]string, error) {
	var nordic, global []int
	for _, k := range keys {
		if k.global {
			global = append(global, k.id)
		} else {
			nordic = append(nordic, k.id)
		}
	}
	out := map[instrumentKey]string{}
	for _, q := range []struct {
		model  any
		ids    []int
		global bool
	}{
		{&NordicInstrument{}, nordic, false},
		{&GlobalInstrument{}, global, true},
	} {
		if len(q.ids) == 0 {
			continue
		}
		var rows []Instrument
		err := s.db.WithContext(ctx).Model(q.model).
			Select("ins_id, isin").
			Where("ins_id IN ? AND isin <> ''", q.ids).
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("cannot read instrument ISINs: %w", err)
		}
		for _, r := range rows {
			out[instrumentKey{r.InsID, q.global}] = r.ISIN
		}
	}
	return out, nil
}

package marketdata

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/etnz/psw/store"
	"go.uber.org/zap"
)

// Saver stores fetched market data. *store.Store implements it.
type Saver interface {
	SaveFXRates(ctx context.Context, rates []store.FXRate) error
	SaveSectors(ctx context.Context, sectors []store.Sector) error
	SaveNordicInstruments(ctx context.Context, list []store.NordicInstrument) error
	SaveGlobalInstruments(ctx context.Context, list []store.GlobalInstrument) error
	SavePrices(ctx context.Context, prices []store.LatestPrice) error
	SaveYields(ctx context.Context, kpis []store.YieldKPI) (int, error)
}

// SyncSummary counts what a sync saved.
type SyncSummary struct {
	Rates       int
	Sectors     int
	Nordic      int
	Global      int
	Prices      int
	Yields      int // yield figures fetched
	Companies   int // new companies given a yield history
	FailedBases []string
}

// SyncFX fetches the rates of every pair and saves them. A failing base
// currency is reported and the others are still saved.
func SyncFX(ctx context.Context, f *FreeCurrency, s Saver, pairs map[string][]string, log *zap.Logger) (SyncSummary, error) {
	var sum SyncSummary
	for _, base := range slices.Sorted(maps.Keys(pairs)) {
		rates, err := f.Latest(ctx, base, pairs[base])
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			log.Warn("fx fetch failed", zap.String("base", base), zap.Error(err))
			sum.FailedBases = append(sum.FailedBases, base)
			continue
		}
		if err := s.SaveFXRates(ctx, rates); err != nil {
			return sum, fmt.Errorf("cannot save %s rates: %w", base, err)
		}
		sum.Rates += len(rates)
	}
	if len(sum.FailedBases) == len(pairs) && len(pairs) > 0 {
		return sum, fmt.Errorf("no exchange rate could be fetched")
	}
	return sum, nil
}

// SyncBorsdata refreshes sectors, instruments and last prices.
func SyncBorsdata(ctx context.Context, b *Borsdata, s Saver, log *zap.Logger) (SyncSummary, error) {
	var sum SyncSummary
	sectors, err := b.Sectors(ctx)
	if err != nil {
		return sum, err
	}
	if err := s.SaveSectors(ctx, sectors); err != nil {
		return sum, fmt.Errorf("cannot save sectors: %w", err)
	}
	sum.Sectors = len(sectors)

	countries, err := b.Countries(ctx)
	if err != nil {
		// instruments are still useful without a country.
		log.Warn("börsdata countries unavailable", zap.Error(err))
	}

	nordic, err := b.Instruments(ctx, countries)
	if err != nil {
		return sum, err
	}
	if err := s.SaveNordicInstruments(ctx, nordic); err != nil {
		return sum, fmt.Errorf("cannot save nordic instruments: %w", err)
	}
	sum.Nordic = len(nordic)

	global, err := b.GlobalInstruments(ctx, countries)
	if err != nil {
		return sum, err
	}
	if err := s.SaveGlobalInstruments(ctx, global); err != nil {
		return sum, fmt.Errorf("cannot save global instruments: %w", err)
	}
	sum.Global = len(global)

	for _, fetch := range []func(context.Context) ([]store.LatestPrice, error){b.LastPrices, b.GlobalLastPrices} {
		prices, err := fetch(ctx)
		if err != nil {
			return sum, err
		}
		if err := s.SavePrices(ctx, prices); err != nil {
			return sum, fmt.Errorf("cannot save prices: %w", err)
		}
		sum.Prices += len(prices)
	}

	yields, err := b.Yields(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		return sum, ctx.Err()
	case err != nil:
		// the KPI endpoints need a higher subscription.
		log.Warn("börsdata yields unavailable", zap.Error(err))
	default:
		sum.Yields = len(yields)
		if sum.Companies, err = s.SaveYields(ctx, yields); err != nil {
			return sum, fmt.Errorf("cannot save yields: %w", err)
		}
	}
	log.Info("börsdata synced", zap.Int("sectors", sum.Sectors), zap.Int("nordic", sum.Nordic),
		zap.Int("global", sum.Global), zap.Int("prices", sum.Prices),
		zap.Int("yields", sum.Yields), zap.Int("companies", sum.Companies))
	return sum, nil
}

package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/etnz/psw/date"
	"github.com/etnz/psw/store"
	"github.com/shopspring/decimal"
)

// Borsdata reads instruments and prices from the Börsdata API.
type Borsdata struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Attempts uint
}

// NewBorsdata returns a client for the public API.
func NewBorsdata(apiKey string, client *http.Client) *Borsdata {
	return &Borsdata{
		APIKey:   apiKey,
		BaseURL:  "https://apiservice.borsdata.se/v1",
		Client:   client,
		Attempts: 5,
	}
}

// Börsdata names countries in Swedish.
var countryNames = map[string]string{
	"Sverige":   "Sweden",
	"Norge":     "Norway",
	"Finland":   "Finland",
	"Danmark":   "Denmark",
	"Tyskland":  "Germany",
	"USA":       "United States",
	"Kanada":    "Canada",
	"England":   "United Kingdom",
	"Frankrike": "France",
	"Schweiz":   "Switzerland",
}

func (b *Borsdata) get(ctx context.Context, path string) (any, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("börsdata key is not set")
	}
	q := url.Values{}
	q.Set("authKey", b.APIKey)
	v, err := getJSON(ctx, b.Client, b.BaseURL+path+"?"+q.Encode(), b.Attempts)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch börsdata %s: %w", path, err)
	}
	return v, nil
}

// Sectors returns the sectors instruments refer to.
func (b *Borsdata) Sectors(ctx context.Context) ([]store.Sector, error) {
	v, err := b.get(ctx, "/sectors")
	if err != nil {
		return nil, err
	}
	list, err := items("$.sectors", v)
	if err != nil {
		return nil, err
	}
	var out []store.Sector
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, err := num(obj, "id")
		if err != nil {
			return nil, fmt.Errorf("invalid sector: %w", err)
		}
		out = append(out, store.Sector{ID: uint(id), Name: str(obj, "name")})
	}
	return out, nil
}

// Countries maps a Börsdata country id to an English country name.
func (b *Borsdata) Countries(ctx context.Context) (map[int]string, error) {
	v, err := b.get(ctx, "/countries")
	if err != nil {
		return nil, err
	}
	list, err := items("$.countries", v)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(list))
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, err := num(obj, "id")
		if err != nil {
			return nil, fmt.Errorf("invalid country: %w", err)
		}
		name := str(obj, "name")
		if en, ok := countryNames[name]; ok {
			name = en
		}
		out[int(id)] = name
	}
	return out, nil
}

func (b *Borsdata) instruments(ctx context.Context, path string, countries map[int]string) ([]store.Instrument, error) {
	v, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, err := items("$.instruments", v)
	if err != nil {
		return nil, err
	}
	out := make([]store.Instrument, 0, len(list))
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, err := num(obj, "insId")
		if err != nil {
			return nil, fmt.Errorf("invalid instrument: %w", err)
		}
		sector, _ := num(obj, "sectorId")
		country, _ := num(obj, "countryId")
		out = append(out, store.Instrument{
			InsID:    int(id),
			Name:     str(obj, "name"),
			Ticker:   str(obj, "ticker"),
			ISIN:     str(obj, "isin"),
			SectorID: int(sector),
			Country:  countries[int(country)],
			Currency: str(obj, "stockPriceCurrency"),
		})
	}
	return out, nil
}

// Instruments returns the Nordic instruments. countries may be nil.
func (b *Borsdata) Instruments(ctx context.Context, countries map[int]string) ([]store.NordicInstrument, error) {
	list, err := b.instruments(ctx, "/instruments", countries)
	if err != nil {
		return nil, err
	}
	out := make([]store.NordicInstrument, len(list))
	for i, in := range list {
		out[i] = store.NordicInstrument{Instrument: in}
	}
	return out, nil
}

// GlobalInstruments returns the instruments of the global markets.
func (b *Borsdata) GlobalInstruments(ctx context.Context, countries map[int]string) ([]store.GlobalInstrument, error) {
	list, err := b.instruments(ctx, "/instruments/global", countries)
	if err != nil {
		return nil, err
	}
	out := make([]store.GlobalInstrument, len(list))
	for i, in := range list {
		out[i] = store.GlobalInstrument{Instrument: in}
	}
	return out, nil
}

func (b *Borsdata) lastPrices(ctx context.Context, path string) ([]store.LatestPrice, error) {
	v, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, err := items("$.stockPricesList[*]", v)
	if err != nil {
		return nil, err
	}
	out := make([]store.LatestPrice, 0, len(list))
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, err := num(obj, "i")
		if err != nil {
			return nil, fmt.Errorf("invalid price: %w", err)
		}
		c, err := num(obj, "c")
		if err != nil {
			return nil, fmt.Errorf("invalid price of %v: %w", id, err)
		}
		d := str(obj, "d")
		if len(d) > 10 {
			d = d[:10] // drop a time part
		}
		day, err := date.Parse(d)
		if err != nil {
			return nil, fmt.Errorf("invalid price date of %v: %w", id, err)
		}
		out = append(out, store.LatestPrice{InsID: int(id), Date: day, Close: decimal.NewFromFloat(c)})
	}
	return out, nil
}

// LastPrices returns the last close of every Nordic instrument.
func (b *Borsdata) LastPrices(ctx context.Context) ([]store.LatestPrice, error) {
	return b.lastPrices(ctx, "/instruments/stockprices/last")
}

// GlobalLastPrices returns the last close of every global instrument.
func (b *Borsdata) GlobalLastPrices(ctx context.Context) ([]store.LatestPrice, error) {
	return b.lastPrices(ctx, "/instruments/stockprices/global/last")
}

// DividendYieldKPI is the Börsdata KPI id of the dividend yield.
const DividendYieldKPI = 1

// YieldSeries are the periods and calculations of the dividend yield synced
// to the new companies.
var YieldSeries = [][2]string{
	{"last", "latest"},
	{"1year", "mean"}, {"1year", "cagr"},
	{"3year", "mean"}, {"3year", "cagr"},
	{"5year", "mean"}, {"5year", "cagr"},
	{"10year", "mean"}, {"10year", "cagr"},
}

func (b *Borsdata) kpi(ctx context.Context, global bool, period, calc string) ([]store.YieldKPI, error) {
	path := fmt.Sprintf("/instruments/kpis/%d/%s/%s", DividendYieldKPI, period, calc)
	if global {
		path = fmt.Sprintf("/instruments/global/kpis/%d/%s/%s", DividendYieldKPI, period, calc)
	}
	v, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, err := items("$.values[*]", v)
	if err != nil {
		return nil, err
	}
	out := make([]store.YieldKPI, 0, len(list))
	for _, it := range list {
		obj, _ := it.(map[string]any)
		id, err := num(obj, "i")
		if err != nil {
			return nil, fmt.Errorf("invalid kpi value: %w", err)
		}
		n, err := num(obj, "n")
		if errors.Is(err, errMissing) {
			continue // no figure for the period
		}
		if err != nil {
			return nil, fmt.Errorf("invalid kpi value of %v: %w", id, err)
		}
		out = append(out, store.YieldKPI{
			InsID:       int(id),
			Global:      global,
			Period:      period,
			Calculation: calc,
			Value:       decimal.NewFromFloat(n),
		})
	}
	return out, nil
}

// Yields returns the dividend yield series of every Nordic and global
// instrument. A series Börsdata does not serve (404) is skipped.
func (b *Borsdata) Yields(ctx context.Context) ([]store.YieldKPI, error) {
	var out []store.YieldKPI
	for _, global := range []bool{false, true} {
		for _, s := range YieldSeries {
			list, err := b.kpi(ctx, global, s[0], s[1])
			var serr *StatusError
			if errors.As(err, &serr) && serr.Code == http.StatusNotFound {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, list...)
		}
	}
	return out, nil
}

package marketdata

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/etnz/psw/date"
	"github.com/etnz/psw/store"
	"github.com/shopspring/decimal"
)

// FreeCurrencyProvider names the rates fetched from freecurrencyapi.com.
const FreeCurrencyProvider = "freecurrencyapi"

// DefaultPairs are the currency pairs kept up to date, by base currency.
var DefaultPairs = map[string][]string{
	"AUD": {"SEK"},
	"CAD": {"SEK"},
	"CHF": {"SEK"},
	"CZK": {"SEK"},
	"DKK": {"NOK", "SEK"},
	"EUR": {"NOK", "SEK"},
	"GBP": {"SEK", "USD"},
	"NOK": {"SEK"},
	"PLN": {"EUR", "SEK"},
	"SGD": {"SEK"},
	"USD": {"CAD", "CHF", "DKK", "NOK", "SEK"},
}

// FreeCurrency reads the latest exchange rates of api.freecurrencyapi.com.
type FreeCurrency struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Attempts uint
	Today    func() date.Date
}

// NewFreeCurrency returns a client for the public API.
func NewFreeCurrency(apiKey string, client *http.Client) *FreeCurrency {
	return &FreeCurrency{
		APIKey:   apiKey,
		BaseURL:  "https://api.freecurrencyapi.com/v1",
		Client:   client,
		Attempts: 3,
		Today:    date.Today,
	}
}

// Latest returns the value of one base unit in each target currency.
func (f *FreeCurrency) Latest(ctx context.Context, base string, targets []string) ([]store.FXRate, error) {
	if f.APIKey == "" {
		return nil, fmt.Errorf("freecurrencyapi key is not set")
	}
	q := url.Values{}
	q.Set("apikey", f.APIKey)
	q.Set("base_currency", base)
	q.Set("currencies", strings.Join(targets, ","))
	v, err := getJSON(ctx, f.Client, f.BaseURL+"/latest?"+q.Encode(), f.Attempts)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s rates: %w", base, err)
	}
	data, err := lookup("$.data", v)
	if err != nil {
		if msg, merr := lookup("$.message", v); merr == nil {
			return nil, fmt.Errorf("freecurrencyapi: %v", msg)
		}
		return nil, err
	}
	rates, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("freecurrencyapi: unexpected data %v", data)
	}
	today := f.Today()
	var out []store.FXRate
	for _, target := range slices.Sorted(maps.Keys(rates)) {
		r, ok := rates[target].(float64)
		if !ok || r <= 0 {
			return nil, fmt.Errorf("freecurrencyapi: invalid %s/%s rate %v", base, target, rates[target])
		}
		out = append(out, store.FXRate{
			Base:     base,
			Target:   target,
			Date:     today,
			Rate:     decimal.NewFromFloat(r),
			Provider: FreeCurrencyProvider,
		})
	}
	return out, nil
}

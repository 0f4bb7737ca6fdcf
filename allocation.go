package psw

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Position is a held security as seen by the allocation report.
type Position struct {
	ISIN     string
	Name     string
	Sector   string
	Currency string
	Value    Money // current value in SEK
}

// Bucket aggregates the positions sharing one characteristic.
type Bucket struct {
	Name      string  `json:"name"`
	Positions int     `json:"positions"`
	Value     Money   `json:"value_sek"`
	Weight    Percent `json:"weight_percent"`
}

// Allocation splits a portfolio along several dimensions.
type Allocation struct {
	Total      Money    `json:"total_value_sek"`
	Positions  int      `json:"positions"`
	ByCountry  []Bucket `json:"by_country"`
	ByRegion   []Bucket `json:"by_region"`
	BySector   []Bucket `json:"by_sector"`
	ByCurrency []Bucket `json:"by_currency"`
	BySize     []Bucket `json:"by_size"`
}

// Position size thresholds, in SEK.
var (
	smallPosition  = decimal.NewFromInt(50_000)
	mediumPosition = decimal.NewFromInt(150_000)
	largePosition  = decimal.NewFromInt(300_000)
)

// SizeOf returns the position size category of a value in SEK.
func SizeOf(value Money) string {
	v := value.Decimal()
	switch {
	case v.LessThan(smallPosition):
		return "Small"
	case v.LessThan(mediumPosition):
		return "Medium"
	case v.LessThan(largePosition):
		return "Large"
	default:
		return "Extra Large"
	}
}

// Allocate buckets positions by country, region, sector, currency and size.
// Positions with no sector fall in "Unknown", with no currency in SEK.
func Allocate(positions []Position) Allocation {
	total := SEK(0)
	for _, p := range positions {
		total = total.Add(p.Value)
	}
	a := Allocation{Total: total, Positions: len(positions)}
	a.ByCountry = bucketize(positions, total, func(p Position) string { return CountryOfISIN(p.ISIN) })
	a.ByRegion = bucketize(positions, total, func(p Position) string { return RegionOfISIN(p.ISIN) })
	a.BySector = bucketize(positions, total, func(p Position) string {
		if s := strings.TrimSpace(p.Sector); s != "" {
			return s
		}
		return "Unknown"
	})
	a.ByCurrency = bucketize(positions, total, func(p Position) string {
		if c := strings.ToUpper(strings.TrimSpace(p.Currency)); c != "" {
			return c
		}
		return BaseCurrency
	})
	a.BySize = bucketize(positions, total, func(p Position) string { return SizeOf(p.Value) })
	return a
}

// bucketize groups positions by key, largest value first, ties by name.
func bucketize(positions []Position, total Money, key func(Position) string) []Bucket {
	index := make(map[string]int)
	buckets := []Bucket{}
	for _, p := range positions {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Name: k, Value: SEK(0)})
		}
		buckets[i].Positions++
		buckets[i].Value = buckets[i].Value.Add(p.Value)
	}
	for i := range buckets {
		buckets[i].Weight = PercentOf(buckets[i].Value.Decimal(), total.Decimal())
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if !buckets[i].Value.Equal(buckets[j].Value) {
			return buckets[i].Value.GreaterThan(buckets[j].Value)
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

package psw

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// SupportedCountries are the countries a manually entered company may be from.
var SupportedCountries = []string{
	"Austria", "Belgium", "Canada", "Czech Republic", "Denmark", "Finland",
	"France", "Germany", "Ireland", "Italy", "Netherlands", "Norway",
	"Poland", "Spain", "Sweden", "Switzerland", "United Kingdom", "United States",
	"Australia", "Japan", "South Korea", "Singapore", "Hong Kong",
}

// CompanyTypes are the kinds of security of manual company data.
var CompanyTypes = []string{"stock", "etf", "closed_end_fund", "reit", "other"}

// DividendFrequencies are the payout schedules of manual company data.
var DividendFrequencies = []string{"annual", "semi_annual", "quarterly", "monthly", "irregular", "none"}

// MarketCaps are the market capitalisation categories of the buylist.
var MarketCaps = []string{"Small", "Mid", "Large", "Mega"}

var (
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	tickerRe   = regexp.MustCompile(`^[A-Z0-9.\- ]+$`)
)

// ValidateCompanyName checks a company name: 2 to 255 characters, not only digits.
func ValidateCompanyName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("company name is required")
	case len(name) < 2:
		return fmt.Errorf("company name must be at least 2 characters")
	case len(name) > 255:
		return fmt.Errorf("company name must not exceed 255 characters")
	case digitsOnly.MatchString(name):
		return fmt.Errorf("company name cannot be only numbers")
	}
	return nil
}

// ValidateCountry checks that country is one of [SupportedCountries].
func ValidateCountry(country string) error {
	country = strings.TrimSpace(country)
	if country == "" {
		return fmt.Errorf("country is required")
	}
	if !slices.Contains(SupportedCountries, country) {
		return fmt.Errorf("unsupported country: %s, please contact an admin to add it", country)
	}
	return nil
}

// ValidateTicker checks an optional ticker symbol.
func ValidateTicker(ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil
	}
	if len(ticker) > 20 {
		return fmt.Errorf("ticker must not exceed 20 characters")
	}
	if !tickerRe.MatchString(ticker) {
		return fmt.Errorf("ticker can only contain letters, numbers, dots, hyphens, and spaces")
	}
	return nil
}

// Priority of a buylist entry.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityCritical }

// Risk level of a buylist entry, from 1 (low) to 3 (high).
type Risk int

func (r Risk) Valid() bool { return r >= 1 && r <= 3 }

func (r Risk) String() string {
	switch r {
	case 1:
		return "Low"
	case 2:
		return "Medium"
	case 3:
		return "High"
	default:
		return fmt.Sprintf("Risk(%d)", int(r))
	}
}

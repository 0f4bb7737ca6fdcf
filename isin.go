package psw

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxISINLength is the length of an ISIN, and the size of every isin column.
const MaxISINLength = 12

var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// isoCountries are the ISO 3166 alpha-2 codes accepted as ISIN prefix.
var isoCountries = toSet(strings.Fields(`
	AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ
	BL BM BN BO BQ BR BS BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR
	CU CV CW CX CY CZ DE DJ DK DM DO DZ EC EE EG EH ER ES ET FI FJ FK FM FO FR
	GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY HK HM HN HR HT HU
	ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI KM KN KP KR KW KY KZ
	LA LB LC LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ
	MR MS MT MU MV MW MX MY MZ NA NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF
	PG PH PK PL PM PN PR PS PT PW PY QA RE RO RS RU RW SA SB SC SD SE SG SH SI
	SJ SK SL SM SN SO SR SS ST SV SX SY SZ TC TD TF TG TH TJ TK TL TM TN TO TR
	TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW
	XS EU`))

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// NormalizeISIN trims and upper-cases an ISIN.
func NormalizeISIN(isin string) string { return strings.ToUpper(strings.TrimSpace(isin)) }

// ValidateISIN checks if a string conforms to the ISIN format and starts with
// a known country code. The input is trimmed and upper-cased first. It does
// not verify the check digit, see [CheckISIN]: broker files routinely carry
// ISINs with a wrong check digit that are still the right security.
func ValidateISIN(isin string) error {
	isin = NormalizeISIN(isin)
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}
	if !isoCountries[isin[:2]] {
		return fmt.Errorf("invalid country code: %s", isin[:2])
	}
	return nil
}

// CheckISIN reports whether the last digit of a well formed ISIN is the
// expected Luhn check digit.
func CheckISIN(isin string) bool {
	isin = NormalizeISIN(isin)
	if !isinRegex.MatchString(isin) {
		return false
	}
	// Convert letters to numbers for check digit calculation
	var numericStr strings.Builder
	for _, char := range isin[:11] {
		if char >= 'A' && char <= 'Z' {
			numericStr.WriteString(strconv.Itoa(int(char - 'A' + 10)))
		} else {
			numericStr.WriteRune(char)
		}
	}

	sum := 0
	isSecond := true
	digits := numericStr.String()
	for i := len(digits) - 1; i >= 0; i-- {
		digit := int(digits[i] - '0')
		if isSecond {
			digit *= 2
		}
		sum += (digit / 10) + (digit % 10)
		isSecond = !isSecond
	}

	expected := (10 - (sum % 10)) % 10
	return expected == int(isin[11]-'0')
}

var isinCountries = map[string]string{
	"SE": "Sweden",
	"US": "United States",
	"DK": "Denmark",
	"NO": "Norway",
	"FI": "Finland",
	"DE": "Germany",
	"FR": "France",
	"GB": "United Kingdom",
	"NL": "Netherlands",
	"CH": "Switzerland",
	"CA": "Canada",
	"AU": "Australia",
	"JP": "Japan",
	"HK": "Hong Kong",
	"SG": "Singapore",
}

// Other is the bucket name for anything not explicitly classified.
const Other = "Other"

// CountryOfISIN returns the country name of the ISIN prefix, or [Other].
func CountryOfISIN(isin string) string {
	if len(isin) < 2 {
		return Other
	}
	if c, ok := isinCountries[strings.ToUpper(isin[:2])]; ok {
		return c
	}
	return Other
}

var isinRegions = map[string]string{
	"SE": "Nordic", "DK": "Nordic", "NO": "Nordic", "FI": "Nordic",
	"DE": "Europe", "FR": "Europe", "GB": "Europe", "NL": "Europe", "CH": "Europe", "IT": "Europe", "ES": "Europe",
	"US": "North America", "CA": "North America",
	"AU": "Asia-Pacific", "JP": "Asia-Pacific", "HK": "Asia-Pacific", "SG": "Asia-Pacific", "KR": "Asia-Pacific", "CN": "Asia-Pacific", "IN": "Asia-Pacific",
	"BR": "Latin America", "MX": "Latin America", "AR": "Latin America", "CL": "Latin America",
	"ZA": "Africa", "NG": "Africa", "EG": "Africa",
}

// RegionOfISIN returns the geographical region of the ISIN prefix, or [Other].
func RegionOfISIN(isin string) string {
	if len(isin) < 2 {
		return Other
	}
	if r, ok := isinRegions[strings.ToUpper(isin[:2])]; ok {
		return r
	}
	return Other
}

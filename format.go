package psw

import (
	"sort"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type formatSpec struct {
	tag        language.Tag
	dateLayout string
	label      string
}

var formats = map[string]formatSpec{
	"sv": {language.Swedish, "2006-01-02", "Svenska (1 234,56 / 2006-01-02)"},
	"en": {language.AmericanEnglish, "01/02/2006", "English (1,234.56 / 01/02/2006)"},
	"de": {language.German, "02.01.2006", "Deutsch (1.234,56 / 02.01.2006)"},
}

// DefaultFormat is the format key used when a user has no preference.
const DefaultFormat = "sv"

// FormatKeys returns the available format preference keys.
func FormatKeys() []string {
	keys := make([]string, 0, len(formats))
	for k := range formats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatLabel describes a format preference key.
func FormatLabel(key string) string { return formats[key].label }

// ValidFormat reports whether key is a known format preference.
func ValidFormat(key string) bool {
	_, ok := formats[key]
	return ok
}

// Formatter renders numbers, amounts and dates following a user's format preference.
type Formatter struct {
	p          *message.Printer
	dateLayout string
}

// NewFormatter returns the formatter of a preference key, falling back to [DefaultFormat].
func NewFormatter(key string) Formatter {
	layout, ok := formats[key]
	if !ok {
		layout = formats[DefaultFormat]
	}
	return Formatter{p: message.NewPrinter(layout.tag), dateLayout: layout.dateLayout}
}

// Number formats x with exactly decimals fraction digits and locale separators.
func (f Formatter) Number(x decimal.Decimal, decimals int) string {
	return f.p.Sprint(number.Decimal(x.Round(int32(decimals)).InexactFloat64(), number.Scale(decimals)))
}

// Money formats an amount followed by its currency code.
func (f Formatter) Money(m Money) string {
	s := f.Number(m.Decimal(), 2)
	if m.Currency() != "" {
		s += " " + m.Currency()
	}
	return s
}

// Date formats d with the preference date layout.
func (f Formatter) Date(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(f.dateLayout)
}

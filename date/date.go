// Package date implements a day-granularity Date used for trade, settlement,
// ex-dividend and payment dates.
package date

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

// Date represents a date with day-level granularity. The zero value means "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Of returns the Date of t in t's location.
func Of(t time.Time) Date { return New(t.Date()) }

// Today returns the current date.
func Today() Date { return Of(time.Now()) }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns midnight UTC of that day.
func (d Date) Time() time.Time { return d.time() }

func (d Date) Year() int                { return d.y }
func (d Date) Month() time.Month        { return d.m }
func (d Date) Day() int                 { return d.d }
func (d Date) Weekday() time.Weekday    { return d.time().Weekday() }
func (d Date) ISOWeek() (year, week int) { return d.time().ISOWeek() }
func (d Date) IsZero() bool             { return d == Date{} }

// Quarter returns the quarter (1 to 4) of the date.
func (d Date) Quarter() int { return int(d.m-1)/3 + 1 }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Equal reports whether d and x are the same day.
func (d Date) Equal(x Date) bool { return d == x }

// Add returns a new Date with the given number of days added.
func (d Date) Add(days int) Date { return New(d.y, d.m, d.d+days) }

// AddMonths returns a new Date with the given number of months added.
func (d Date) AddMonths(months int) Date { return New(d.y, d.m+time.Month(months), d.d) }

// AddBusinessDays moves n working days forward, skipping Saturdays and
// Sundays. Bank holidays are not taken into account.
func (d Date) AddBusinessDays(n int) Date {
	for n > 0 {
		d = d.Add(1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return d
}

// Format returns a textual representation of the date, see [time.Time.Format].
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// String format the date in its standard format, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateFormat)
}

// Parse parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func Parse(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, strings.TrimSpace(str))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return Of(on), nil
}

// ParseLayout parses a Date using a [time.Parse] layout, for instance the
// "02.01.2006" layout of some broker exports.
func ParseLayout(layout, str string) (Date, error) {
	on, err := time.Parse(layout, strings.TrimSpace(str))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, layout, err)
	}
	return Of(on), nil
}

// MustParse is like Parse but panics on error.
func MustParse(str string) Date {
	d, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// StartOf returns the first day of the period containing d.
func (d Date) StartOf(p Period) Date {
	switch p {
	case Weekly:
		offset := (int(d.Weekday()) + 6) % 7 // monday based
		return d.Add(-offset)
	case Monthly:
		return New(d.y, d.m, 1)
	case Quarterly:
		return New(d.y, time.Month((d.Quarter()-1)*3+1), 1)
	case Yearly:
		return New(d.y, time.January, 1)
	default:
		return d
	}
}

// EndOf returns the last day of the period containing d.
func (d Date) EndOf(p Period) Date {
	switch p {
	case Weekly:
		return d.StartOf(Weekly).Add(6)
	case Monthly:
		return New(d.y, d.m+1, 0)
	case Quarterly:
		return d.StartOf(Quarterly).AddMonths(3).Add(-1)
	case Yearly:
		return New(d.y, time.December, 31)
	default:
		return d
	}
}

// UnmarshalJSON implements the json specific way to unmarshall a date from a json string.
// Empty strings and null decode to the zero date.
func (j *Date) UnmarshalJSON(bytes []byte) error {
	var str *string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	if str == nil || *str == "" {
		*j = Date{}
		return nil
	}
	d, err := Parse(*str)
	if err != nil {
		return err
	}
	*j = d
	return nil
}

func (j Date) MarshalJSON() ([]byte, error) {
	if j.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(j.String())
}

// Scan implements sql.Scanner. Drivers return DATE columns as time.Time,
// string or []byte depending on their configuration.
func (j *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*j = Date{}
		return nil
	case time.Time:
		*j = Of(v)
		return nil
	case string:
		return j.scanString(v)
	case []byte:
		return j.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into a date", src)
	}
}

func (j *Date) scanString(s string) error {
	if s == "" {
		*j = Date{}
		return nil
	}
	if len(s) > len(DateFormat) {
		// datetime representations, keep the day part.
		s = s[:len(DateFormat)]
	}
	d, err := Parse(s)
	if err != nil {
		return err
	}
	*j = d
	return nil
}

// Value implements driver.Valuer. The zero date is stored as NULL.
func (j Date) Value() (driver.Value, error) {
	if j.IsZero() {
		return nil, nil
	}
	return j.String(), nil
}

// GormDataType declares the column type used by the ORM migrations.
func (Date) GormDataType() string { return "date" }

// check that a Date pointer is a valid json and sql type.
var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
var _ driver.Valuer = Date{}

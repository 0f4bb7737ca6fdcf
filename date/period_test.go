package date

import (
	"testing"
	"time"
)

func TestRange_Contains(t *testing.T) {
	r := NewRange(New(2025, time.May, 20), Quarterly)
	testCases := []struct {
		in   Date
		want bool
	}{
		{New(2025, time.April, 1), true},
		{New(2025, time.June, 30), true},
		{New(2025, time.March, 31), false},
		{New(2025, time.July, 1), false},
	}
	for _, tc := range testCases {
		if got := r.Contains(tc.in); got != tc.want {
			t.Errorf("%v.Contains(%v) = %v, want %v", r, tc.in, got, tc.want)
		}
	}

	open := Range{From: New(2025, time.January, 1)}
	if !open.Contains(New(2099, time.January, 1)) {
		t.Errorf("open ended range must contain future dates")
	}
}

func TestRange_Identifier(t *testing.T) {
	testCases := []struct {
		name string
		in   Range
		want string
	}{
		{"Daily", NewRange(New(2025, time.September, 8), Daily), "2025-09-08"},
		{"Monthly", NewRange(New(2025, time.September, 1), Monthly), "2025-09"},
		{"Quarterly", NewRange(New(2025, time.July, 1), Quarterly), "2025-Q3"},
		{"Yearly", NewRange(New(2025, time.January, 1), Yearly), "2025"},
		{"Custom", Range{From: New(2025, time.September, 2), To: New(2025, time.September, 10)}, "2025-09-02_2025-09-10"},
		{"Multi year", Range{From: New(2025, time.January, 1), To: New(2026, time.December, 31)}, "2025-01-01_2026-12-31"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Identifier(); got != tc.want {
				t.Errorf("Identifier() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"day", Daily, false},
		{"week", Weekly, false},
		{"Monthly", Monthly, false},
		{"quarter", Quarterly, false},
		{"year", Yearly, false},
		{"unknown", Daily, true},
	}
	for _, tc := range testCases {
		got, err := ParsePeriod(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-01", New(2025, time.July, 1), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{" 2024-02-29 ", New(2024, time.February, 29), false},
		{"2025/07/01", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseLayout(t *testing.T) {
	got, err := ParseLayout("02.01.2006", "15.03.2024")
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if want := New(2024, time.March, 15); got != want {
		t.Errorf("ParseLayout() = %v, want %v", got, want)
	}
}

func TestAddBusinessDays(t *testing.T) {
	testCases := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"Monday T+2", New(2025, time.September, 8), 2, New(2025, time.September, 10)},
		{"Thursday T+2", New(2025, time.September, 11), 2, New(2025, time.September, 15)},
		{"Friday T+2", New(2025, time.September, 12), 2, New(2025, time.September, 16)},
		{"Saturday T+2", New(2025, time.September, 13), 2, New(2025, time.September, 16)},
		{"T+0", New(2025, time.September, 13), 0, New(2025, time.September, 13)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.AddBusinessDays(tc.n); got != tc.want {
				t.Errorf("AddBusinessDays(%d) = %v, want %v", tc.n, got, tc.want)
			}
		})
	}
}

func TestStartEndOf(t *testing.T) {
	d := New(2024, time.May, 20) // a Monday
	testCases := []struct {
		p          Period
		start, end Date
	}{
		{Daily, d, d},
		{Weekly, New(2024, time.May, 20), New(2024, time.May, 26)},
		{Monthly, New(2024, time.May, 1), New(2024, time.May, 31)},
		{Quarterly, New(2024, time.April, 1), New(2024, time.June, 30)},
		{Yearly, New(2024, time.January, 1), New(2024, time.December, 31)},
	}
	for _, tc := range testCases {
		t.Run(tc.p.String(), func(t *testing.T) {
			if got := d.StartOf(tc.p); got != tc.start {
				t.Errorf("StartOf(%v) = %v, want %v", tc.p, got, tc.start)
			}
			if got := d.EndOf(tc.p); got != tc.end {
				t.Errorf("EndOf(%v) = %v, want %v", tc.p, got, tc.end)
			}
		})
	}
	if got, want := New(2024, time.February, 10).EndOf(Monthly), New(2024, time.February, 29); got != want {
		t.Errorf("EndOf(Monthly) in a leap year = %v, want %v", got, want)
	}
}

func TestDateJSON(t *testing.T) {
	type row struct {
		Pay Date `json:"pay"`
		Ex  Date `json:"ex"`
	}
	b, err := json.Marshal(row{Pay: New(2025, time.March, 5)})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if want := `{"pay":"2025-03-05","ex":null}`; string(b) != want {
		t.Errorf("json.Marshal() = %s, want %s", b, want)
	}

	var r row
	if err := json.Unmarshal([]byte(`{"pay":"2025-3-5","ex":""}`), &r); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if r.Pay != New(2025, time.March, 5) || !r.Ex.IsZero() {
		t.Errorf("json.Unmarshal() = %+v", r)
	}
}

func TestDateScan(t *testing.T) {
	testCases := []struct {
		name string
		src  any
		want Date
	}{
		{"nil", nil, Date{}},
		{"time", time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), New(2025, time.March, 5)},
		{"string", "2025-03-05", New(2025, time.March, 5)},
		{"datetime string", "2025-03-05 00:00:00+00:00", New(2025, time.March, 5)},
		{"bytes", []byte("2025-03-05"), New(2025, time.March, 5)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tc.src); err != nil {
				t.Fatalf("Scan(%v) error = %v", tc.src, err)
			}
			if d != tc.want {
				t.Errorf("Scan(%v) = %v, want %v", tc.src, d, tc.want)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Errorf("Scan(42) want an error")
	}
}

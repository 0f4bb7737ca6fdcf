package psw

import (
	"testing"
	"time"

	"github.com/etnz/psw/date"
)

func TestCalculateDividend(t *testing.T) {
	in := DividendInput{
		PayDate:  date.New(2025, time.March, 12),
		ISIN:     "US0378331005",
		Shares:   Q(100),
		PerShare: USD(0.25),
		TotalSEK: SEK(262.5),
		TaxRate:  15,
	}
	got := CalculateDividend(in)

	if !got.Total.Equal(USD(25)) {
		t.Errorf("Total = %v, want 25 USD", got.Total.Decimal())
	}
	if !got.TaxSEK.Decimal().Equal(dec("39.38")) {
		t.Errorf("TaxSEK = %v, want 39.38", got.TaxSEK.Decimal())
	}
	if !got.NetSEK.Decimal().Equal(dec("223.12")) {
		t.Errorf("NetSEK = %v, want 223.12", got.NetSEK.Decimal())
	}
	if !got.FXRate.Equal(dec("10.5")) {
		t.Errorf("FXRate = %v, want 10.5", got.FXRate)
	}
	if !got.TaxRate.Equal(15) {
		t.Errorf("TaxRate = %v, want 15%%", got.TaxRate)
	}
}

func TestCalculateDividendFromTotal(t *testing.T) {
	got := CalculateDividend(DividendInput{
		Shares:   Q(40),
		Total:    USD(10),
		TotalSEK: SEK(100),
		TaxSEK:   SEK(30),
	})
	if !got.PerShare.Equal(USD(0.25)) {
		t.Errorf("PerShare = %v, want 0.25", got.PerShare.Decimal())
	}
	if !got.TaxRate.Equal(30) {
		t.Errorf("TaxRate = %v, want 30%%", got.TaxRate)
	}
	if !got.NetSEK.Decimal().Equal(dec("70")) {
		t.Errorf("NetSEK = %v, want 70", got.NetSEK.Decimal())
	}
}

func TestDividendInputValidate(t *testing.T) {
	in := DividendInput{
		ExDate:   date.New(2025, time.March, 20),
		PayDate:  date.New(2025, time.March, 12),
		ISIN:     "XX",
		TotalSEK: SEK(0),
		Total:    M(1, "ABC"),
	}
	err := in.Validate()
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("Validate() = %v, want a ValidationError", err)
	}
	for _, field := range []string{"pay_date", "isin", "dividend_total_sek", "original_currency"} {
		if _, ok := verr[field]; !ok {
			t.Errorf("Validate() = %v, want an error on %q", err, field)
		}
	}
}

func TestEstimateDividends(t *testing.T) {
	payments := []Payment{
		{date.New(2023, time.March, 10), SEK(300)},
		{date.New(2024, time.March, 10), SEK(500)},
		{date.New(2024, time.June, 20), SEK(200)},
		{date.New(2024, time.November, 5), SEK(100)},
		{date.New(2025, time.March, 12), SEK(600)},
		{date.New(2025, time.May, 2), SEK(50)},
		{date.New(2025, time.June, 1), SEK(999)}, // announced, not received yet
	}
	e := EstimateDividends(payments, date.New(2025, time.May, 15))

	money := []struct {
		name string
		got  Money
		want string
	}{
		{"RunRate", e.RunRate, "950"},
		{"YTD", e.YTD, "650"},
		{"Remaining", e.Remaining, "300"},
		{"PreviousYear", e.PreviousYear, "800"},
		{"March actual", e.Months[2].Actual, "600"},
		{"June estimate", e.Months[5].Estimated, "100"},
		{"July estimate", e.Months[6].Estimated, "0"},
		{"November estimate", e.Months[10].Estimated, "50"},
		{"Q1 actual", e.Quarters[0].Actual, "600"},
		{"Q2 estimate", e.Quarters[1].Estimated, "150"},
		{"Q4 estimate", e.Quarters[3].Estimated, "50"},
	}
	for _, m := range money {
		if !m.got.Decimal().Equal(dec(m.want)) {
			t.Errorf("%s = %v, want %s", m.name, m.got.Decimal(), m.want)
		}
	}
	if !e.Growth.Equal(18.75) {
		t.Errorf("Growth = %v, want 18.75%%", e.Growth)
	}
	if !e.Months[4].IsActual || e.Months[5].IsActual {
		t.Errorf("May must be actual and June estimated, got %v and %v", e.Months[4].IsActual, e.Months[5].IsActual)
	}
	if e.Months[5].Payments != 1 {
		t.Errorf("June payments = %d, want 1", e.Months[5].Payments)
	}
	if !e.Quarters[0].IsComplete || e.Quarters[1].IsComplete {
		t.Errorf("only Q1 must be complete, got %+v", e.Quarters[:2])
	}
	if e.Quarters[0].Quarter != "Q1" || e.Quarters[3].Quarter != "Q4" {
		t.Errorf("quarter names = %q..%q", e.Quarters[0].Quarter, e.Quarters[3].Quarter)
	}
}

func TestEstimateDividendsNoHistory(t *testing.T) {
	e := EstimateDividends(nil, date.New(2025, time.May, 15))
	if !e.RunRate.IsZero() || !e.Remaining.IsZero() || e.Growth != 0 {
		t.Errorf("EstimateDividends(nil) = %+v, want zeros", e)
	}
	if len(e.Months) != 12 || len(e.Quarters) != 4 {
		t.Errorf("EstimateDividends(nil) must still return 12 months and 4 quarters")
	}
}

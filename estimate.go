package psw

import (
	"time"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
)

// Payment is a dividend received, in SEK.
type Payment struct {
	PayDate date.Date
	Amount  Money
}

// MonthEstimate is the dividend income of one month of the estimated year.
type MonthEstimate struct {
	Month     int    `json:"month"`
	Name      string `json:"month_name"`
	Actual    Money  `json:"actual_amount"`
	Estimated Money  `json:"estimated_amount"`
	Payments  int    `json:"payment_count"`
	IsActual  bool   `json:"is_actual"`
}

// QuarterEstimate sums three months of the estimated year.
type QuarterEstimate struct {
	Quarter    string `json:"quarter"`
	Actual     Money  `json:"actual_amount"`
	Estimated  Money  `json:"estimated_amount"`
	Payments   int    `json:"payment_count"`
	IsComplete bool   `json:"is_complete"`
}

// Estimate is the dividend income forecast for the current year.
type Estimate struct {
	Year         int               `json:"year"`
	RunRate      Money             `json:"current_year_estimate"`
	YTD          Money             `json:"ytd_actual"`
	Remaining    Money             `json:"remaining_estimate"`
	PreviousYear Money             `json:"previous_year_actual"`
	Growth       Percent           `json:"growth_estimate"`
	Months       []MonthEstimate   `json:"monthly_breakdown"`
	Quarters     []QuarterEstimate `json:"quarterly_summary"`
}

// EstimateDividends forecasts the dividend income of today's year.
//
// The run rate is the income of the trailing twelve months. Months up to the
// current one report what was actually received; later months are estimated
// with the average income of the same month over the previous years of
// history.
func EstimateDividends(payments []Payment, today date.Date) Estimate {
	year := today.Year()
	e := Estimate{
		Year:         year,
		RunRate:      SEK(0),
		YTD:          SEK(0),
		PreviousYear: SEK(0),
	}

	trailing := date.Range{From: today.AddMonths(-12).Add(1), To: today}
	ytd := date.Range{From: today.StartOf(date.Yearly), To: today}
	var actual, history [12]decimal.Decimal
	var actualCount, historyCount [12]int
	firstYear := year
	for _, p := range payments {
		if p.PayDate.IsZero() || p.PayDate.After(today) {
			continue
		}
		v := p.Amount.Decimal()
		if trailing.Contains(p.PayDate) {
			e.RunRate = e.RunRate.Add(SEK(v))
		}
		if ytd.Contains(p.PayDate) {
			e.YTD = e.YTD.Add(SEK(v))
		}
		m := int(p.PayDate.Month()) - 1
		switch y := p.PayDate.Year(); {
		case y == year:
			actual[m] = actual[m].Add(v)
			actualCount[m]++
		case y < year:
			history[m] = history[m].Add(v)
			historyCount[m]++
			if y == year-1 {
				e.PreviousYear = e.PreviousYear.Add(SEK(v))
			}
			firstYear = min(firstYear, y)
		}
	}
	e.Remaining = SEK(decimal.Max(decimal.Zero, e.RunRate.Decimal().Sub(e.YTD.Decimal())))
	e.Growth = PercentOf(e.RunRate.Decimal().Sub(e.PreviousYear.Decimal()), e.PreviousYear.Decimal())

	years := int64(year - firstYear)
	for m := range 12 {
		me := MonthEstimate{
			Month:    m + 1,
			Name:     time.Month(m + 1).String(),
			Actual:   SEK(actual[m]),
			Payments: actualCount[m],
			IsActual: m+1 <= int(today.Month()),
		}
		me.Estimated = me.Actual
		if !me.IsActual && years > 0 {
			me.Estimated = SEK(history[m].Div(decimal.NewFromInt(years)).Round(2))
			me.Payments = int((int64(historyCount[m]) + years/2) / years)
		}
		e.Months = append(e.Months, me)
	}

	for q := range 4 {
		qe := QuarterEstimate{
			Quarter:    "Q" + string(rune('1'+q)),
			Actual:     SEK(0),
			Estimated:  SEK(0),
			IsComplete: today.After(date.New(year, time.Month(q*3+3), 1).EndOf(date.Monthly)),
		}
		for _, me := range e.Months[q*3 : q*3+3] {
			qe.Actual = qe.Actual.Add(me.Actual)
			qe.Estimated = qe.Estimated.Add(me.Estimated)
			qe.Payments += me.Payments
		}
		e.Quarters = append(e.Quarters, qe)
	}
	return e
}

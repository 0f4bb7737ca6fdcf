package psw

import (
	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
)

// DividendInput holds the figures of a received dividend. Zero amounts mean
// "not provided".
type DividendInput struct {
	ExDate   date.Date
	PayDate  date.Date
	ISIN     string
	Shares   Quantity
	PerShare Money // in the original currency
	Total    Money // in the original currency
	TotalSEK Money
	TaxSEK   Money   // withholding tax
	TaxRate  Percent // withholding tax rate, used when TaxSEK is unknown
}

// Validate checks the required fields of a dividend.
func (in DividendInput) Validate() error {
	errs := ValidationError{}
	if in.PayDate.IsZero() {
		errs.Add("pay_date", "payment date is required")
	}
	if !in.ExDate.IsZero() && !in.PayDate.IsZero() && in.PayDate.Before(in.ExDate) {
		errs.Add("pay_date", "payment cannot precede the ex-dividend date")
	}
	if err := ValidateISIN(in.ISIN); err != nil {
		errs.Add("isin", "%v", err)
	}
	if !in.TotalSEK.IsPositive() {
		errs.Add("dividend_total_sek", "the amount in SEK must be positive")
	}
	cur := in.Total.Currency()
	if cur == "" {
		cur = in.PerShare.Currency()
	}
	if cur != "" {
		if err := ValidCurrency(cur); err != nil {
			errs.Add("original_currency", "%v", err)
		}
	}
	return errs.Err()
}

// DividendAmounts are the amounts derived from a DividendInput.
type DividendAmounts struct {
	Total    Money // in the original currency
	PerShare Money
	TaxSEK   Money
	TaxRate  Percent
	NetSEK   Money
	FXRate   decimal.Decimal // SEK per unit of original currency
}

// CalculateDividend derives the total, withholding tax, net amount and the
// exchange rate implied by the original and SEK amounts.
func CalculateDividend(in DividendInput) DividendAmounts {
	out := DividendAmounts{Total: in.Total, PerShare: in.PerShare, TaxSEK: in.TaxSEK}
	if out.Total.IsZero() && !in.PerShare.IsZero() {
		out.Total = in.PerShare.Mul(in.Shares).Round(2)
	}
	if out.PerShare.IsZero() && !out.Total.IsZero() && in.Shares.IsPositive() {
		out.PerShare = out.Total.Div(in.Shares).Round(6)
	}
	if out.TaxSEK.IsZero() && in.TaxRate != 0 {
		rate := decimal.NewFromFloat(float64(in.TaxRate)).Div(decimal.NewFromInt(100))
		out.TaxSEK = SEK(in.TotalSEK.Decimal().Mul(rate)).Round(2)
	}
	out.TaxRate = PercentOf(out.TaxSEK.Decimal(), in.TotalSEK.Decimal())
	out.NetSEK = SEK(in.TotalSEK.Decimal().Sub(out.TaxSEK.Decimal())).Round(2)
	if !out.Total.IsZero() {
		out.FXRate = in.TotalSEK.Decimal().Div(out.Total.Decimal()).Round(6)
	}
	return out
}

package psw

import (
	"fmt"
	"strings"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
)

// TradeType is the kind of a trade in the trade log.
type TradeType string

const (
	Buy              TradeType = "BUY"
	Sell             TradeType = "SELL"
	Dividend         TradeType = "DIVIDEND"
	DividendReinvest TradeType = "DIVIDEND_REINVEST"
	TransferIn       TradeType = "TRANSFER_IN"
	TransferOut      TradeType = "TRANSFER_OUT"
	RightsIssue      TradeType = "RIGHTS_ISSUE"
	BonusIssue       TradeType = "BONUS_ISSUE"
)

// TradeTypes lists every known trade type.
var TradeTypes = []TradeType{Buy, Sell, Dividend, DividendReinvest, TransferIn, TransferOut, RightsIssue, BonusIssue}

// ParseTradeType parses a trade type code, case insensitive.
func ParseTradeType(s string) (TradeType, error) {
	t := TradeType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range TradeTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown trade type %q", s)
}

// IsPurchase reports whether the trade brings shares into the portfolio.
func (t TradeType) IsPurchase() bool {
	switch t {
	case Buy, DividendReinvest, TransferIn, RightsIssue, BonusIssue:
		return true
	}
	return false
}

// IsSale reports whether the trade takes shares out of the portfolio.
func (t TradeType) IsSale() bool { return t == Sell || t == TransferOut }

// SettlementDays is the standard settlement delay in business days.
const SettlementDays = 2

// DefaultSettlement returns the settlement date of a trade executed on d.
func DefaultSettlement(d date.Date) date.Date { return d.AddBusinessDays(SettlementDays) }

// TradeInput holds the figures entered for a trade. Zero amounts mean "not provided".
type TradeInput struct {
	TradeDate      date.Date
	SettlementDate date.Date
	Type           TradeType
	ISIN           string
	Shares         Quantity
	PriceLocal     Money           // price per share in the security currency
	PriceSEK       Money           // price per share in SEK
	ExchangeRate   decimal.Decimal // SEK per unit of local currency
	FeesLocal      Money
	FeesSEK        Money
	TaxLocal       Money
	TaxSEK         Money
}

// Validate checks the required fields of a trade.
func (in TradeInput) Validate() error {
	errs := ValidationError{}
	if in.TradeDate.IsZero() {
		errs.Add("trade_date", "trade date is required")
	}
	if in.Type == "" {
		errs.Add("trade_type", "trade type is required")
	} else if _, err := ParseTradeType(string(in.Type)); err != nil {
		errs.Add("trade_type", "%v", err)
	}
	if in.ISIN == "" {
		errs.Add("isin", "ISIN is required")
	} else if err := ValidateISIN(in.ISIN); err != nil {
		errs.Add("isin", "%v", err)
	}
	if !in.Shares.IsPositive() {
		errs.Add("shares_traded", "shares traded must be positive")
	}
	if in.PriceLocal.IsNegative() || in.PriceLocal.IsZero() {
		errs.Add("price_per_share_local", "price per share is required")
	}
	if in.PriceLocal.Currency() == "" {
		errs.Add("currency_local", "currency is required")
	} else if err := ValidCurrency(in.PriceLocal.Currency()); err != nil {
		errs.Add("currency_local", "%v", err)
	}
	if in.PriceSEK.IsZero() && in.ExchangeRate.IsZero() && in.PriceLocal.Currency() != BaseCurrency {
		errs.Add("price_per_share_sek", "price in SEK or exchange rate is required")
	}
	if !in.SettlementDate.IsZero() && in.SettlementDate.Before(in.TradeDate) {
		errs.Add("settlement_date", "settlement cannot precede the trade date")
	}
	return errs.Err()
}

// TradeAmounts are the amounts derived from a TradeInput.
type TradeAmounts struct {
	SettlementDate date.Date
	PriceSEK       Money
	ExchangeRate   decimal.Decimal
	TotalLocal     Money
	TotalSEK       Money
	FeesSEK        Money
	TaxSEK         Money
	NetLocal       Money
	NetSEK         Money
	FeePercent     Percent
}

// Calculate derives the trade amounts.
//
// Totals are shares × price rounded to 2 decimals. The exchange rate, when not
// provided, is inferred as price_sek / price_local (6 decimals), and the SEK
// price inferred from the rate when only the rate is known. Fees and taxes
// increase the net amount of a purchase and decrease the net amount of
// anything else.
func Calculate(in TradeInput) TradeAmounts {
	local := in.PriceLocal.Currency()
	out := TradeAmounts{
		SettlementDate: in.SettlementDate,
		PriceSEK:       in.PriceSEK,
		ExchangeRate:   in.ExchangeRate,
	}
	if out.SettlementDate.IsZero() && !in.TradeDate.IsZero() {
		out.SettlementDate = DefaultSettlement(in.TradeDate)
	}

	switch {
	case local == BaseCurrency && out.ExchangeRate.IsZero():
		out.ExchangeRate = decimal.NewFromInt(1)
		if out.PriceSEK.IsZero() {
			out.PriceSEK = SEK(in.PriceLocal.Decimal())
		}
	case out.ExchangeRate.IsZero() && !in.PriceLocal.IsZero():
		out.ExchangeRate = in.PriceSEK.Decimal().Div(in.PriceLocal.Decimal()).Round(6)
	case out.PriceSEK.IsZero():
		out.PriceSEK = in.PriceLocal.Convert(out.ExchangeRate, BaseCurrency).Round(4)
	}

	out.TotalLocal = in.PriceLocal.Mul(in.Shares).Round(2)
	out.TotalSEK = SEK(out.PriceSEK.Decimal()).Mul(in.Shares).Round(2)

	out.FeesSEK = in.FeesSEK
	if out.FeesSEK.IsZero() && !in.FeesLocal.IsZero() {
		out.FeesSEK = in.FeesLocal.Convert(out.ExchangeRate, BaseCurrency).Round(2)
	}
	out.TaxSEK = in.TaxSEK
	if out.TaxSEK.IsZero() && !in.TaxLocal.IsZero() {
		out.TaxSEK = in.TaxLocal.Convert(out.ExchangeRate, BaseCurrency).Round(2)
	}

	costsLocal := M(in.FeesLocal.Decimal().Add(in.TaxLocal.Decimal()), local)
	costsSEK := SEK(out.FeesSEK.Decimal().Add(out.TaxSEK.Decimal()))
	if in.Type.IsPurchase() {
		out.NetLocal = out.TotalLocal.Add(costsLocal).Round(2)
		out.NetSEK = out.TotalSEK.Add(costsSEK).Round(2)
	} else {
		out.NetLocal = out.TotalLocal.Sub(costsLocal).Round(2)
		out.NetSEK = out.TotalSEK.Sub(costsSEK).Round(2)
	}
	out.FeePercent = FeePercent(out.FeesSEK.Decimal(), out.TotalSEK.Decimal())
	return out
}

// FeePercent returns the broker fees as a percentage of the traded amount.
func FeePercent(fees, total decimal.Decimal) Percent { return PercentOf(fees, total) }

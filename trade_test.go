package psw

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/psw/date"
	"github.com/shopspring/decimal"
)

func TestCalculate(t *testing.T) {
	monday := date.New(2025, time.September, 8)
	testCases := []struct {
		name string
		in   TradeInput
		want TradeAmounts
	}{
		{
			name: "buy in USD with fees",
			in: TradeInput{
				TradeDate:  monday,
				Type:       Buy,
				ISIN:       "US0378331005",
				Shares:     Q(10),
				PriceLocal: USD(150),
				PriceSEK:   SEK(1575),
				FeesLocal:  USD(1),
				FeesSEK:    SEK(10.5),
			},
			want: TradeAmounts{
				SettlementDate: date.New(2025, time.September, 10),
				PriceSEK:       SEK(1575),
				ExchangeRate:   dec("10.5"),
				TotalLocal:     USD(1500),
				TotalSEK:       SEK(15750),
				FeesSEK:        SEK(10.5),
				NetLocal:       USD(1501),
				NetSEK:         SEK(15760.5),
				FeePercent:     0.07,
			},
		},
		{
			name: "sell with tax",
			in: TradeInput{
				TradeDate:      monday,
				SettlementDate: monday.Add(3),
				Type:           Sell,
				ISIN:           "US0378331005",
				Shares:         Q(4),
				PriceLocal:     USD(200),
				PriceSEK:       SEK(2000),
				FeesSEK:        SEK(20),
				TaxSEK:         SEK(100),
			},
			want: TradeAmounts{
				SettlementDate: monday.Add(3),
				PriceSEK:       SEK(2000),
				ExchangeRate:   dec("10"),
				TotalLocal:     USD(800),
				TotalSEK:       SEK(8000),
				FeesSEK:        SEK(20),
				TaxSEK:         SEK(100),
				NetLocal:       USD(800),
				NetSEK:         SEK(7880),
				FeePercent:     0.25,
			},
		},
		{
			name: "price in SEK inferred from the rate",
			in: TradeInput{
				TradeDate:    monday,
				Type:         Buy,
				ISIN:         "US0378331005",
				Shares:       Q(3),
				PriceLocal:   USD(10),
				ExchangeRate: dec("10.25"),
				FeesLocal:    USD(2),
			},
			want: TradeAmounts{
				SettlementDate: date.New(2025, time.September, 10),
				PriceSEK:       SEK(102.5),
				ExchangeRate:   dec("10.25"),
				TotalLocal:     USD(30),
				TotalSEK:       SEK(307.5),
				FeesSEK:        SEK(20.5),
				NetLocal:       USD(32),
				NetSEK:         SEK(328),
				FeePercent:     6.67,
			},
		},
		{
			name: "swedish security",
			in: TradeInput{
				TradeDate:  monday,
				Type:       Buy,
				ISIN:       "SE0000108656",
				Shares:     Q(100),
				PriceLocal: SEK(85.42),
			},
			want: TradeAmounts{
				SettlementDate: date.New(2025, time.September, 10),
				PriceSEK:       SEK(85.42),
				ExchangeRate:   decimal.NewFromInt(1),
				TotalLocal:     SEK(8542),
				TotalSEK:       SEK(8542),
				NetLocal:       SEK(8542),
				NetSEK:         SEK(8542),
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.in)
			if got.SettlementDate != tc.want.SettlementDate {
				t.Errorf("SettlementDate = %v, want %v", got.SettlementDate, tc.want.SettlementDate)
			}
			if !got.ExchangeRate.Equal(tc.want.ExchangeRate) {
				t.Errorf("ExchangeRate = %v, want %v", got.ExchangeRate, tc.want.ExchangeRate)
			}
			checks := []struct {
				field     string
				got, want Money
			}{
				{"PriceSEK", got.PriceSEK, tc.want.PriceSEK},
				{"TotalLocal", got.TotalLocal, tc.want.TotalLocal},
				{"TotalSEK", got.TotalSEK, tc.want.TotalSEK},
				{"FeesSEK", got.FeesSEK, tc.want.FeesSEK},
				{"TaxSEK", got.TaxSEK, tc.want.TaxSEK},
				{"NetLocal", got.NetLocal, tc.want.NetLocal},
				{"NetSEK", got.NetSEK, tc.want.NetSEK},
			}
			for _, c := range checks {
				if !c.got.Decimal().Equal(c.want.Decimal()) {
					t.Errorf("%s = %v, want %v", c.field, c.got.Decimal(), c.want.Decimal())
				}
			}
			if !got.FeePercent.Equal(tc.want.FeePercent) {
				t.Errorf("FeePercent = %v, want %v", got.FeePercent, tc.want.FeePercent)
			}
		})
	}
}

func TestTradeInputValidate(t *testing.T) {
	valid := TradeInput{
		TradeDate:  date.New(2025, time.September, 8),
		Type:       Buy,
		ISIN:       "US0378331005",
		Shares:     Q(1),
		PriceLocal: USD(10),
		PriceSEK:   SEK(100),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	testCases := []struct {
		name  string
		edit  func(*TradeInput)
		field string
	}{
		{"no date", func(in *TradeInput) { in.TradeDate = date.Date{} }, "trade_date"},
		{"bad type", func(in *TradeInput) { in.Type = "GIFT" }, "trade_type"},
		{"bad isin", func(in *TradeInput) { in.ISIN = "US03783310" }, "isin"},
		{"no shares", func(in *TradeInput) { in.Shares = Q(0) }, "shares_traded"},
		{"no price", func(in *TradeInput) { in.PriceLocal = USD(0) }, "price_per_share_local"},
		{"bad currency", func(in *TradeInput) { in.PriceLocal = M(10, "XYZ") }, "currency_local"},
		{"no sek price", func(in *TradeInput) { in.PriceSEK = SEK(0) }, "price_per_share_sek"},
		{"early settlement", func(in *TradeInput) { in.SettlementDate = in.TradeDate.Add(-1) }, "settlement_date"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.edit(&in)
			err := in.Validate()
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want a ValidationError", err)
			}
			if _, ok := verr[tc.field]; !ok {
				t.Errorf("Validate() = %v, want an error on %q", err, tc.field)
			}
		})
	}
}

func TestTradeTypeClassification(t *testing.T) {
	for _, tt := range TradeTypes {
		if tt.IsPurchase() && tt.IsSale() {
			t.Errorf("%s is both a purchase and a sale", tt)
		}
	}
	if !DividendReinvest.IsPurchase() || !TransferOut.IsSale() || Dividend.IsPurchase() || Dividend.IsSale() {
		t.Errorf("unexpected trade type classification")
	}
	if got, err := ParseTradeType(" sell "); err != nil || got != Sell {
		t.Errorf("ParseTradeType(\" sell \") = %v, %v", got, err)
	}
}

package psw

import "github.com/shopspring/decimal"

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// dec is a helper for test to create decimals from strings.
func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

package psw

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Percent float64

// PercentOf returns part/total × 100, or 0 when total is zero.
func PercentOf(part, total decimal.Decimal) Percent {
	if total.IsZero() {
		return 0
	}
	return Percent(part.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

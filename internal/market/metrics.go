package market

import (
	"github.com/shopspring/decimal"

	"cryptodash/internal/model"
)

// hundred is the percentage scale factor.
var hundred = decimal.NewFromInt(100)

// ComputeMetrics derives the summary snapshot from a table's last two rows.
//
// With fewer than two rows there is no previous observation to diff against,
// so the delta fields stay zero and HasChange is false. The same guard
// applies when the previous price is zero, which would make the percentage
// change undefined.
func ComputeMetrics(t model.Table) model.Metrics {
	m := model.Metrics{RowCount: t.Len()}

	last, ok := t.Last()
	if !ok {
		return m
	}

	m.LatestPrice = last.Price
	m.LatestVolume = last.Volume

	if t.Len() < 2 {
		return m
	}

	prev := t[t.Len()-2]
	m.PreviousPrice = prev.Price

	if prev.Price.IsZero() {
		return m
	}

	m.PriceChange = last.Price.Sub(prev.Price)
	m.PriceChangePct = m.PriceChange.Div(prev.Price).Mul(hundred)
	m.HasChange = true

	return m
}

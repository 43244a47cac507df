// Package chart builds renderer-neutral figure view models from market
// tables.
//
// The service does not draw anything itself: the browser page hands these
// figure specs to its charting library. Each builder mirrors one of the
// dashboard's three panels — price line, volume bars, price histogram — and
// carries the layout affordances the panels share: a horizontal range
// selector, a consistent visual template, and unified hover grouped by
// x-value.
package chart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cryptodash/internal/model"
)

// Kind identifies the trace type of a figure.
type Kind string

const (
	KindLine      Kind = "line"
	KindBar       Kind = "bar"
	KindHistogram Kind = "histogram"
)

// Template is the shared visual theme for all dashboard figures.
const Template = "plotly_white"

// Trace colors per panel, matching the dashboard's fixed palette.
const (
	priceColor     = "royalblue"
	volumeColor    = "lightseagreen"
	histogramColor = "mediumpurple"
)

// Figure is a single-trace chart specification.
//
// For line and bar figures X holds the row timestamps and Y the series
// values. For histograms only X is populated (the sample values); bucketing
// is left to the renderer's default.
type Figure struct {
	Kind         Kind              `json:"kind"`
	Title        string            `json:"title"`
	XAxisTitle   string            `json:"x_axis_title"`
	YAxisTitle   string            `json:"y_axis_title"`
	TraceName    string            `json:"trace_name"`
	Color        string            `json:"color"`
	Template     string            `json:"template"`
	RangeSlider  bool              `json:"range_slider"`
	UnifiedHover bool              `json:"unified_hover"`
	X            []time.Time       `json:"x,omitempty"`
	Samples      []decimal.Decimal `json:"samples,omitempty"`
	Y            []decimal.Decimal `json:"y,omitempty"`
}

// PriceTrend builds the price line figure: one point per row, rendered as a
// continuous line with a range selector.
func PriceTrend(ticker string, days int, t model.Table) Figure {
	x, prices, _ := split(t)
	return Figure{
		Kind:         KindLine,
		Title:        fmt.Sprintf("%s Price Trend Over the Last %d Days", ticker, days),
		XAxisTitle:   "Date",
		YAxisTitle:   "Price (USD)",
		TraceName:    "Price",
		Color:        priceColor,
		Template:     Template,
		RangeSlider:  true,
		UnifiedHover: true,
		X:            x,
		Y:            prices,
	}
}

// Volume builds the trading volume figure: one bar per row.
func Volume(ticker string, t model.Table) Figure {
	x, _, volumes := split(t)
	return Figure{
		Kind:         KindBar,
		Title:        fmt.Sprintf("%s Trading Volume", ticker),
		XAxisTitle:   "Date",
		YAxisTitle:   "Volume (USD)",
		TraceName:    "Volume",
		Color:        volumeColor,
		Template:     Template,
		RangeSlider:  true,
		UnifiedHover: true,
		X:            x,
		Y:            volumes,
	}
}

// PriceDistribution builds the histogram over the price column. The bucket
// count is left to the renderer.
func PriceDistribution(ticker string, t model.Table) Figure {
	_, prices, _ := split(t)
	return Figure{
		Kind:         KindHistogram,
		Title:        fmt.Sprintf("%s Price Distribution", ticker),
		XAxisTitle:   "Price (USD)",
		YAxisTitle:   "Frequency",
		TraceName:    "Price Distribution",
		Color:        histogramColor,
		Template:     Template,
		UnifiedHover: true,
		Samples:      prices,
	}
}

// split decomposes a table into its timestamp, price and volume columns.
func split(t model.Table) (x []time.Time, prices, volumes []decimal.Decimal) {
	x = make([]time.Time, t.Len())
	prices = make([]decimal.Decimal, t.Len())
	volumes = make([]decimal.Decimal, t.Len())
	for i, row := range t {
		x[i] = row.Timestamp
		prices[i] = row.Price
		volumes[i] = row.Volume
	}
	return x, prices, volumes
}

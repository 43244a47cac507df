// Package model defines core data types for the market dashboard service.
//
// This package contains the fundamental structures shared across the
// fetch/transform/present pipeline: time-indexed market rows, the table
// derived from a provider payload, and the metrics snapshot computed from
// that table. All monetary values use decimal.Decimal for precise financial
// calculations to avoid floating-point precision issues common in financial
// applications.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is a single time-indexed observation of a coin's market state.
//
// Rows are produced by the transformer from one index position of the
// provider's parallel `prices` and `total_volumes` sequences. The timestamp
// is the table's ordering key and keeps millisecond resolution, matching the
// epoch-millisecond timestamps the provider supplies.
type Row struct {
	Timestamp time.Time       `json:"timestamp"` // Observation time (millisecond resolution)
	Price     decimal.Decimal `json:"price"`     // Price in quote currency (precise decimal)
	Volume    decimal.Decimal `json:"volume"`    // Trading volume in quote currency (precise decimal)
}

// Table is an ordered sequence of market rows.
//
// Row order equals the provider's input order (chronological, ascending).
// The table performs no deduplication and no gap-filling; it is derived
// fresh from each raw payload and never mutated in place.
type Table []Row

// Len returns the number of rows in the table.
func (t Table) Len() int { return len(t) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t) == 0 }

// Last returns the final row of the table. The second return value is false
// when the table is empty.
func (t Table) Last() (Row, bool) {
	if len(t) == 0 {
		return Row{}, false
	}
	return t[len(t)-1], true
}

// Metrics is the summary snapshot derived from a market table's last rows.
//
// Price deltas require at least two rows. When the table has fewer than two
// rows, or the previous price is zero, HasChange is false and the delta
// fields hold zero values; consumers must render the delta only when
// HasChange is true.
type Metrics struct {
	LatestPrice    decimal.Decimal `json:"latest_price"`     // Price of the last row
	PreviousPrice  decimal.Decimal `json:"previous_price"`   // Price of the second-to-last row
	PriceChange    decimal.Decimal `json:"price_change"`     // LatestPrice - PreviousPrice
	PriceChangePct decimal.Decimal `json:"price_change_pct"` // PriceChange / PreviousPrice * 100
	LatestVolume   decimal.Decimal `json:"latest_volume"`    // Volume of the last row
	RowCount       int             `json:"row_count"`        // Number of rows in the table
	HasChange      bool            `json:"has_change"`       // Whether the delta fields are defined
}

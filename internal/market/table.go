// Package market reshapes raw provider payloads into time-indexed tables and
// derives summary metrics from them.
//
// The transform is intentionally dumb: one row per provider price point,
// paired by index with the volume series, in input order. No deduplication,
// no gap-filling, no sorting beyond what the provider already supplies.
package market

import (
	"errors"
	"fmt"
	"time"

	"cryptodash/internal/coingecko"
	"cryptodash/internal/model"
)

// ErrUnalignedSeries reports a payload whose price and volume sequences have
// different lengths. The pairing is positional, so a length mismatch means
// the rows cannot be built without inventing or dropping data.
var ErrUnalignedSeries = errors.New("price and volume series have different lengths")

// BuildTable converts a raw market payload into a table with one row per
// price point.
//
// A nil or empty payload produces an empty table and no error; absence of
// data is a valid (if unhelpful) provider answer and is reported to the user
// as a warning by the presenter, not as a failure here.
func BuildTable(payload *coingecko.MarketChart) (model.Table, error) {
	if payload == nil || len(payload.Prices) == 0 {
		return model.Table{}, nil
	}

	if len(payload.Prices) != len(payload.TotalVolumes) {
		return nil, fmt.Errorf("%w: %d prices vs %d volumes",
			ErrUnalignedSeries, len(payload.Prices), len(payload.TotalVolumes))
	}

	table := make(model.Table, 0, len(payload.Prices))
	for i, p := range payload.Prices {
		table = append(table, model.Row{
			Timestamp: time.UnixMilli(p.Timestamp),
			Price:     p.Value,
			Volume:    payload.TotalVolumes[i].Value,
		})
	}

	return table, nil
}

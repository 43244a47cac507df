package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/coingecko"
)

func point(ts int64, value int64) coingecko.Point {
	return coingecko.Point{Timestamp: ts, Value: decimal.NewFromInt(value)}
}

// Test_BuildTable tests payload-to-table conversion
func Test_BuildTable(t *testing.T) {
	tests := []struct {
		name        string
		payload     *coingecko.MarketChart
		expectRows  int
		expectError error
		description string
	}{
		{
			name:        "Nil payload",
			payload:     nil,
			expectRows:  0,
			description: "Absent payload yields an empty table without error",
		},
		{
			name:        "Empty payload",
			payload:     &coingecko.MarketChart{},
			expectRows:  0,
			description: "Empty payload yields an empty table without error",
		},
		{
			name: "Aligned series",
			payload: &coingecko.MarketChart{
				Prices:       []coingecko.Point{point(1000, 100), point(2000, 110), point(3000, 105)},
				TotalVolumes: []coingecko.Point{point(1000, 10), point(2000, 20), point(3000, 30)},
			},
			expectRows:  3,
			description: "N aligned pairs produce exactly N rows",
		},
		{
			name: "Mismatched lengths",
			payload: &coingecko.MarketChart{
				Prices:       []coingecko.Point{point(1000, 100), point(2000, 110)},
				TotalVolumes: []coingecko.Point{point(1000, 10)},
			},
			expectError: ErrUnalignedSeries,
			description: "Positional pairing cannot proceed with unequal lengths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := BuildTable(tt.payload)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError, tt.description)
				return
			}

			require.NoError(t, err, tt.description)
			assert.Equal(t, tt.expectRows, table.Len(), tt.description)
		})
	}
}

// Test_BuildTable_OrderAndValues verifies order preservation and the
// millisecond timestamp conversion.
func Test_BuildTable_OrderAndValues(t *testing.T) {
	payload := &coingecko.MarketChart{
		Prices: []coingecko.Point{
			{Timestamp: 1700000000000, Value: decimal.RequireFromString("100.5")},
			{Timestamp: 1700000000500, Value: decimal.RequireFromString("101.25")},
		},
		TotalVolumes: []coingecko.Point{
			{Timestamp: 1700000000000, Value: decimal.NewFromInt(1000)},
			{Timestamp: 1700000000500, Value: decimal.NewFromInt(2000)},
		},
	}

	table, err := BuildTable(payload)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, time.UnixMilli(1700000000000), table[0].Timestamp,
		"epoch millis convert at millisecond resolution")
	assert.Equal(t, time.UnixMilli(1700000000500), table[1].Timestamp,
		"sub-second timestamps survive the conversion")
	assert.True(t, table[0].Timestamp.Before(table[1].Timestamp),
		"row order equals input order")

	assert.True(t, table[0].Price.Equal(decimal.RequireFromString("100.5")))
	assert.True(t, table[0].Volume.Equal(decimal.NewFromInt(1000)))
	assert.True(t, table[1].Price.Equal(decimal.RequireFromString("101.25")))
	assert.True(t, table[1].Volume.Equal(decimal.NewFromInt(2000)))
}

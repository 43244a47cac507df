package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"cryptodash/internal/chart"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/coins"
	"cryptodash/internal/market"
)

// Service builds dashboard views by running the fetch/transform/present
// pipeline for one coin selection at a time.
type Service struct {
	registry *coins.Registry
	fetcher  coingecko.Fetcher
	days     int
	now      func() time.Time
}

// NewService creates a presenter over the given registry and fetcher. The
// lookback window is fixed per service instance.
func NewService(registry *coins.Registry, fetcher coingecko.Fetcher, days int) *Service {
	return &Service{
		registry: registry,
		fetcher:  fetcher,
		days:     days,
		now:      time.Now,
	}
}

// Registry returns the coin registry the service resolves tickers against.
func (s *Service) Registry() *coins.Registry { return s.registry }

// Snapshot runs the full pipeline for a ticker and returns the resulting
// view.
//
// Pipeline failures never surface as errors: a failed fetch produces an
// error-banner view and a data-shape problem a warning-banner view, matching
// the dashboard's two-tier failure display. The only error return is an
// unknown ticker, which is a caller mistake rather than a pipeline outcome.
func (s *Service) Snapshot(ctx context.Context, ticker string, tick uint64) (*View, error) {
	coinID, err := s.registry.Resolve(ticker)
	if err != nil {
		return nil, err
	}

	view := &View{
		Ticker:      ticker,
		CoinID:      coinID,
		Days:        s.days,
		GeneratedAt: s.now(),
		Tick:        tick,
		Source:      sourceAttribution,
	}

	payload, err := s.fetcher.FetchMarketChart(ctx, coinID, s.days)
	if err != nil {
		log.Error().Err(err).Str("coin", coinID).Msg("market data fetch failed")
		if errors.Is(err, coingecko.ErrBadPayload) {
			// Data arrived but is unusable: the processing warning, not the
			// fetch error.
			view.Banner = &Banner{Level: BannerWarning, Message: msgProcessFailed}
		} else {
			view.Banner = &Banner{Level: BannerError, Message: msgFetchFailed}
		}
		return view, nil
	}

	table, err := market.BuildTable(payload)
	if err != nil {
		log.Error().Err(err).Str("coin", coinID).Msg("market data transform failed")
		view.Banner = &Banner{Level: BannerWarning, Message: msgProcessFailed}
		return view, nil
	}

	if table.Empty() {
		log.Warn().Str("coin", coinID).Msg("market data payload produced an empty table")
		view.Banner = &Banner{Level: BannerWarning, Message: msgProcessFailed}
		return view, nil
	}

	metrics := market.ComputeMetrics(table)
	view.Metrics = &metrics
	view.Figures = []chart.Figure{
		chart.PriceTrend(ticker, s.days, table),
		chart.Volume(ticker, table),
		chart.PriceDistribution(ticker, table),
	}

	return view, nil
}

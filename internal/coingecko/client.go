// Package coingecko provides the market-data client for the CoinGecko REST API.
//
// The client fetches the /coins/{id}/market_chart endpoint and decodes the
// provider's parallel [timestamp, value] pair arrays into typed points with
// decimal values. It validates the decoded payload using struct tags and
// validator, applies an explicit request timeout, and retries transient
// failures with capped exponential backoff.
//
// Error taxonomy:
//   - ErrRequestFailed wraps transport-level failures
//   - StatusError carries a non-2xx HTTP status
//   - ErrBadPayload wraps undecodable or schema-invalid bodies
//
// Callers that do not care about the distinction can treat any error as a
// single "fetch failed" outcome; callers that do can branch with errors.Is
// and errors.As.
package coingecko

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Error definitions for fetch failures.
var (
	ErrInvalidArgs   = errors.New("invalid fetch arguments")
	ErrRequestFailed = errors.New("market data request failed")
	ErrBadPayload    = errors.New("malformed market data payload")
	ErrInvalidConfig = errors.New("invalid client configuration")
)

// StatusError reports a non-2xx response from the provider.
type StatusError struct {
	Code int // HTTP status code returned by the provider
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("market data request returned status %d", e.Code)
}

// Point is one [timestamp, value] pair from a provider series.
//
// The provider encodes each observation as a two-element JSON array holding
// an epoch-millisecond timestamp and a numeric value. Values decode through
// decimal to preserve precision.
type Point struct {
	Timestamp int64           // Observation time in epoch milliseconds
	Value     decimal.Decimal // Price or volume in the quote currency
}

// UnmarshalJSON decodes the provider's two-element array form.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("point must be a numeric array: %w", err)
	}

	if len(raw) != 2 {
		return fmt.Errorf("point must have exactly 2 elements, got %d", len(raw))
	}

	// Timestamps are integral millis but some providers serialize them with
	// a fractional part, so go through float first.
	tsFloat, err := raw[0].Float64()
	if err != nil {
		return fmt.Errorf("invalid point timestamp %q: %w", raw[0], err)
	}

	value, err := decimal.NewFromString(raw[1].String())
	if err != nil {
		return fmt.Errorf("invalid point value %q: %w", raw[1], err)
	}

	p.Timestamp = int64(tsFloat)
	p.Value = value
	return nil
}

// MarketChart is the raw market payload for one (coin, lookback) selection.
//
// Prices and TotalVolumes are index-aligned parallel sequences in the order
// the provider supplied them (chronological, ascending). The payload is
// consumed immediately by the transformer and never persisted.
type MarketChart struct {
	Prices       []Point `json:"prices" validate:"required,min=1"`
	TotalVolumes []Point `json:"total_volumes" validate:"required,min=1"`
}

// Fetcher is the interface the rest of the system consumes market data
// through. It is satisfied by Client and by CachingClient.
type Fetcher interface {
	// FetchMarketChart returns the raw market payload for a provider coin id
	// over a lookback window in days.
	FetchMarketChart(ctx context.Context, coinID string, days int) (*MarketChart, error)
}

// ClientConfig holds configuration parameters for the CoinGecko client.
type ClientConfig struct {
	BaseURL     string        // Provider base URL
	VsCurrency  string        // Quote currency for prices and volumes
	Timeout     time.Duration // Per-request HTTP timeout
	MaxAttempts int           // Total attempts per fetch (1 = no retry)
	BackoffBase time.Duration // First retry delay, doubled per attempt
	BackoffCap  time.Duration // Upper bound on a single retry delay
}

// defaultClientConfig provides sensible default configuration values.
var defaultClientConfig = ClientConfig{
	BaseURL:     "https://api.coingecko.com",
	VsCurrency:  "usd",
	Timeout:     10 * time.Second,
	MaxAttempts: 3,
	BackoffBase: 500 * time.Millisecond,
	BackoffCap:  5 * time.Second,
}

// Client fetches market chart data from the CoinGecko REST API.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	validate   *validator.Validate
}

// NewClient creates a CoinGecko client. A nil configuration selects the
// defaults; zero-valued fields of a partial configuration are filled from
// the defaults.
func NewClient(cfg *ClientConfig) (*Client, error) {
	merged := defaultClientConfig
	if cfg != nil {
		if cfg.BaseURL != "" {
			merged.BaseURL = cfg.BaseURL
		}
		if cfg.VsCurrency != "" {
			merged.VsCurrency = cfg.VsCurrency
		}
		if cfg.Timeout > 0 {
			merged.Timeout = cfg.Timeout
		}
		if cfg.MaxAttempts > 0 {
			merged.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.BackoffBase > 0 {
			merged.BackoffBase = cfg.BackoffBase
		}
		if cfg.BackoffCap > 0 {
			merged.BackoffCap = cfg.BackoffCap
		}
	}

	if merged.BackoffCap < merged.BackoffBase {
		return nil, fmt.Errorf("%w: backoff cap below base", ErrInvalidConfig)
	}

	return &Client{
		cfg: merged,
		httpClient: &http.Client{
			Timeout: merged.Timeout,
		},
		validate: validator.New(),
	}, nil
}

// FetchMarketChart fetches the market payload for coinID over the trailing
// `days` days.
//
// Transport errors, 5xx statuses and 429 are retried up to the configured
// attempt count with capped exponential backoff. Other 4xx statuses and
// payload errors fail immediately; retrying a request the provider has
// already rejected cannot succeed.
func (c *Client) FetchMarketChart(ctx context.Context, coinID string, days int) (*MarketChart, error) {
	if coinID == "" {
		return nil, fmt.Errorf("%w: empty coin id", ErrInvalidArgs)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidArgs, days)
	}

	url := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?vs_currency=%s&days=%d",
		c.cfg.BaseURL, coinID, c.cfg.VsCurrency, days)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			log.Info().Str("coin", coinID).Int("attempt", attempt+1).
				Dur("delay", delay).Msg("retrying market data fetch")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrRequestFailed, ctx.Err())
			case <-time.After(delay):
			}
		}

		chart, err := c.doFetch(ctx, url, coinID, days)
		if err == nil {
			return chart, nil
		}

		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		log.Warn().Err(err).Str("coin", coinID).Int("attempt", attempt+1).
			Msg("market data fetch attempt failed")
	}

	return nil, lastErr
}

// doFetch performs a single request/decode/validate round.
func (c *Client) doFetch(ctx context.Context, url, coinID string, days int) (*MarketChart, error) {
	log.Info().Str("coin", coinID).Int("days", days).Msg("fetching latest market data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var chart MarketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	if err := c.validate.Struct(&chart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	return &chart, nil
}

// backoff returns the delay before retry number n (0-based): base * 2^n,
// capped at the configured maximum.
func (c *Client) backoff(n int) time.Duration {
	if n < 0 {
		return c.cfg.BackoffBase
	}
	if n > 30 {
		return c.cfg.BackoffCap
	}

	d := c.cfg.BackoffBase * time.Duration(1<<n)
	if d > c.cfg.BackoffCap {
		return c.cfg.BackoffCap
	}
	return d
}

// retryable reports whether a failed attempt is worth repeating.
func retryable(err error) bool {
	if errors.Is(err, ErrRequestFailed) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	return false
}

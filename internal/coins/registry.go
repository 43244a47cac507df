// Package coins maps display tickers to the market-data provider's canonical
// coin identifiers.
//
// The provider addresses coins by slug ("bitcoin", "ripple"), while the
// dashboard presents short tickers ("BTC", "XRP"). The registry keeps that
// mapping in display order and guards against silently losing an entry to a
// duplicate ticker, which a plain map would allow.
package coins

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Error definitions for registry construction and lookup.
var (
	ErrNoEntries       = errors.New("registry needs at least one entry")
	ErrDuplicateTicker = errors.New("duplicate ticker with conflicting coin id")
	ErrUnknownTicker   = errors.New("unknown ticker")
	ErrInvalidEntry    = errors.New("invalid registry entry")
)

// Entry is one ticker-to-identifier mapping in display order.
type Entry struct {
	Ticker string `yaml:"ticker" validate:"required"` // Display label, e.g. "BTC"
	ID     string `yaml:"id" validate:"required"`     // Provider slug, e.g. "bitcoin"
}

// Registry is an ordered, duplicate-guarded ticker-to-coin-id mapping.
//
// The first entry is the dashboard's default selection. Lookups are
// case-insensitive on the ticker.
type Registry struct {
	order    []Entry
	byTicker map[string]string
}

// NewRegistry builds a registry from the given entries, preserving order.
//
// An entry whose ticker repeats an earlier one with the same id is dropped
// with a warning (the repeat is harmless but worth surfacing). A repeat with
// a different id returns ErrDuplicateTicker: accepting it would silently lose
// one of the two mappings.
func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	r := &Registry{
		order:    make([]Entry, 0, len(entries)),
		byTicker: make(map[string]string, len(entries)),
	}

	for i, e := range entries {
		ticker := strings.ToUpper(strings.TrimSpace(e.Ticker))
		id := strings.TrimSpace(e.ID)

		if ticker == "" || id == "" {
			return nil, fmt.Errorf("%w: entry %d (%q -> %q)", ErrInvalidEntry, i, e.Ticker, e.ID)
		}

		if existing, ok := r.byTicker[ticker]; ok {
			if existing == id {
				log.Warn().Str("ticker", ticker).Str("id", id).
					Msg("duplicate registry entry ignored")
				continue
			}
			return nil, fmt.Errorf("%w: %s maps to both %q and %q",
				ErrDuplicateTicker, ticker, existing, id)
		}

		r.byTicker[ticker] = id
		r.order = append(r.order, Entry{Ticker: ticker, ID: id})
	}

	return r, nil
}

// Resolve returns the provider coin id for a ticker. The lookup is
// case-insensitive.
func (r *Registry) Resolve(ticker string) (string, error) {
	id, ok := r.byTicker[strings.ToUpper(strings.TrimSpace(ticker))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTicker, ticker)
	}
	return id, nil
}

// Tickers returns the display labels in registration order.
func (r *Registry) Tickers() []string {
	out := make([]string, len(r.order))
	for i, e := range r.order {
		out[i] = e.Ticker
	}
	return out
}

// Default returns the first registered ticker, the dashboard's initial
// selection.
func (r *Registry) Default() string {
	return r.order[0].Ticker
}

// Len returns the number of distinct tickers.
func (r *Registry) Len() int { return len(r.order) }

// DefaultEntries returns the built-in coin mapping used when no coin map is
// configured. BTC is first and therefore the default selection.
func DefaultEntries() []Entry {
	return []Entry{
		{Ticker: "BTC", ID: "bitcoin"},
		{Ticker: "ETH", ID: "ethereum"},
		{Ticker: "DOGE", ID: "dogecoin"},
		{Ticker: "XRP", ID: "ripple"},
		{Ticker: "TETH", ID: "tether"},
		{Ticker: "BNB", ID: "binancecoin"},
		{Ticker: "SOL", ID: "solana"},
		{Ticker: "USDC", ID: "usd-coin"},
		{Ticker: "STETH", ID: "staked-ether"},
		{Ticker: "TRON", ID: "tron"},
		{Ticker: "CARD", ID: "cardano"},
		{Ticker: "WSTE", ID: "wrapped-steth"},
		{Ticker: "CHAI", ID: "chainlink"},
		{Ticker: "PI", ID: "pi-network"},
	}
}

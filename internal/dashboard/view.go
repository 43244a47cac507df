// Package dashboard assembles and distributes the dashboard view.
//
// The presenter runs the full fetch → transform → metrics → figures pipeline
// as one pure snapshot call, and the dispatcher re-runs it for every
// subscriber on a refresh tick or a coin-selection change. This makes the
// source dashboard's rerun-the-whole-script model explicit: one event loop,
// one side-effect-isolated pipeline call per event.
package dashboard

import (
	"time"

	"cryptodash/internal/chart"
	"cryptodash/internal/model"
)

// BannerLevel distinguishes the two user-visible failure displays.
type BannerLevel string

const (
	// BannerError is shown when the fetch itself failed; nothing else renders.
	BannerError BannerLevel = "error"

	// BannerWarning is shown when data arrived but could not be processed
	// into a non-empty table.
	BannerWarning BannerLevel = "warning"
)

// User-visible failure messages. Kept to two deliberately: the underlying
// cause is in the logs, the banner only tells the user which stage gave up.
const (
	msgFetchFailed    = "Failed to fetch data from the API. Please try again later."
	msgProcessFailed  = "Could not process the fetched data."
	sourceAttribution = "Data sourced from CoinGecko."
)

// Banner is a user-visible failure notice rendered instead of (error) or
// above (warning) the chart panels.
type Banner struct {
	Level   BannerLevel `json:"level"`
	Message string      `json:"message"`
}

// View is one complete dashboard rendering for a selected coin.
//
// Exactly one of two shapes is produced: a populated view (Metrics set,
// three Figures) or a banner view (Banner set, no figures). GeneratedAt and
// Tick feed the footer's live-updating timestamp and the diagnostic
// auto-refresh counter.
type View struct {
	Ticker      string         `json:"ticker"`
	CoinID      string         `json:"coin_id"`
	Days        int            `json:"days"`
	GeneratedAt time.Time      `json:"generated_at"`
	Tick        uint64         `json:"tick"`
	Metrics     *model.Metrics `json:"metrics,omitempty"`
	Figures     []chart.Figure `json:"figures,omitempty"`
	Banner      *Banner        `json:"banner,omitempty"`
	Source      string         `json:"source"`
}

/*
Package main implements the cryptocurrency market dashboard server.

The server fetches market data from the CoinGecko API, reshapes it into a
time-indexed price/volume table, computes summary metrics, and serves a live
dashboard (three chart panels plus a metrics row) over HTTP and WebSocket.
Connected clients receive a fresh view every refresh tick and whenever they
change the selected coin; fetches are memoized for the configured TTL so
rapid refreshes do not hammer the provider.

Usage:

	go run main.go -addr=:8080 -refresh=15 -ttl=600 -days=60

An optional YAML file (-config) can replace the built-in coin map and any of
the defaults; flags win over the file.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cryptodash/internal/coingecko"
	"cryptodash/internal/coins"
	"cryptodash/internal/config"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/server"
)

// Command-line flags. Negative numeric values mean "not set" so a flag only
// overrides the config file when the operator actually passed it.
var (
	configPath = flag.String("config", "", "Path to an optional YAML config file")
	addr       = flag.String("addr", "", "Listen address (overrides config)")
	refresh    = flag.Int("refresh", -1, "Refresh interval in seconds (overrides config)")
	ttl        = flag.Int("ttl", -1, "Fetch cache TTL in seconds (overrides config)")
	days       = flag.Int("days", -1, "Lookback window in days (overrides config)")
	timeout    = flag.Int("timeout", -1, "Provider HTTP timeout in seconds (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
)

func main() {
	flag.Parse()

	// Structured console logging, like every other service we run.
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := loadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, dispatcher, err := newDashboardServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dashboard server")
	}

	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start dispatcher")
	}
	defer dispatcher.Stop()

	// Graceful shutdown on Ctrl+C / SIGTERM: stop the refresh loop first so
	// no new views are produced, then drain the HTTP server.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("initiating graceful shutdown")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Int("refresh_sec", cfg.RefreshIntervalSec).
		Int("cache_ttl_sec", cfg.CacheTTLSec).
		Int("lookback_days", cfg.LookbackDays).
		Msg("dashboard server starting")

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to serve")
	}
}

// loadSettings layers flag overrides on top of the (optional) config file.
func loadSettings() (*config.Settings, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *refresh >= 0 {
		cfg.RefreshIntervalSec = *refresh
	}
	if *ttl >= 0 {
		cfg.CacheTTLSec = *ttl
	}
	if *days >= 0 {
		cfg.LookbackDays = *days
	}
	if *timeout >= 0 {
		cfg.HTTPTimeoutSec = *timeout
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDashboardServer wires the pipeline: registry → client → TTL cache →
// presenter → dispatcher → HTTP server.
func newDashboardServer(cfg *config.Settings) (*server.Server, *dashboard.Dispatcher, error) {
	registry, err := coins.NewRegistry(cfg.CoinEntries())
	if err != nil {
		return nil, nil, err
	}

	client, err := coingecko.NewClient(&coingecko.ClientConfig{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	fetcher := coingecko.NewCachingClient(client, cfg.CacheTTL())
	svc := dashboard.NewService(registry, fetcher, cfg.LookbackDays)
	dispatcher := dashboard.NewDispatcher(dashboard.DispatcherConfig{
		RefreshInterval: cfg.RefreshInterval(),
	}, svc)

	return server.New(cfg.ListenAddr, svc, dispatcher), dispatcher, nil
}

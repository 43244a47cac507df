// Package config loads and validates the service's startup settings.
//
// Settings come from an optional YAML file layered over built-in defaults;
// command-line flags in main may override individual values afterwards. The
// dashboard's three tunables from the source system — refresh interval,
// cache TTL and lookback window — live here together with the ambient server
// and logging settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"cryptodash/internal/coins"
)

// Settings holds every startup-configurable value.
type Settings struct {
	ListenAddr         string        `yaml:"listen_addr" validate:"required"`
	RefreshIntervalSec int           `yaml:"refresh_interval_sec" validate:"gt=0"`
	CacheTTLSec        int           `yaml:"cache_ttl_sec" validate:"gte=0"`
	LookbackDays       int           `yaml:"lookback_days" validate:"gt=0"`
	HTTPTimeoutSec     int           `yaml:"http_timeout_sec" validate:"gt=0"`
	APIBaseURL         string        `yaml:"api_base_url" validate:"required,url"`
	LogLevel           string        `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	Coins              []coins.Entry `yaml:"coins" validate:"omitempty,dive"`
}

// Default returns the built-in settings: 15 s refresh, 600 s cache TTL, a
// 60-day lookback window and the public CoinGecko endpoint.
func Default() Settings {
	return Settings{
		ListenAddr:         ":8080",
		RefreshIntervalSec: 15,
		CacheTTLSec:        600,
		LookbackDays:       60,
		HTTPTimeoutSec:     10,
		APIBaseURL:         "https://api.coingecko.com",
		LogLevel:           "info",
	}
}

// Load reads a YAML settings file over the defaults. An empty path returns
// the defaults unchanged. The result is validated before it is returned.
func Load(path string) (*Settings, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity, including that a configured coin
// map builds a registry (which rejects conflicting duplicate tickers).
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return err
	}

	if len(s.Coins) > 0 {
		if _, err := coins.NewRegistry(s.Coins); err != nil {
			return fmt.Errorf("coin map: %w", err)
		}
	}

	return nil
}

// CoinEntries returns the configured coin map, or the built-in default when
// the file did not set one.
func (s *Settings) CoinEntries() []coins.Entry {
	if len(s.Coins) > 0 {
		return s.Coins
	}
	return coins.DefaultEntries()
}

// RefreshInterval returns the refresh tick period as a duration.
func (s *Settings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSec) * time.Second
}

// CacheTTL returns the fetch memo time-to-live as a duration.
func (s *Settings) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSec) * time.Second
}

// HTTPTimeout returns the per-request provider timeout as a duration.
func (s *Settings) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSec) * time.Second
}

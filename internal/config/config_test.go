package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// Test_Load_Defaults tests loading without a file
func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 15*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 600*time.Second, cfg.CacheTTL())
	assert.Equal(t, 60, cfg.LookbackDays)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "https://api.coingecko.com", cfg.APIBaseURL)
	assert.Len(t, cfg.CoinEntries(), 14, "defaults carry the built-in coin map")
}

// Test_Load_File tests layering a YAML file over the defaults
func Test_Load_File(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
refresh_interval_sec: 30
cache_ttl_sec: 120
log_level: debug
coins:
  - ticker: BTC
    id: bitcoin
  - ticker: ETH
    id: ethereum
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval())
	assert.Equal(t, 120*time.Second, cfg.CacheTTL())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60, cfg.LookbackDays, "unset fields keep their defaults")
	assert.Len(t, cfg.CoinEntries(), 2, "a configured coin map replaces the default")
}

// Test_Load_Invalid tests rejection of bad settings
func Test_Load_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		description string
	}{
		{
			name:        "Non-positive refresh interval",
			body:        "refresh_interval_sec: 0",
			description: "A zero refresh interval would stop the dashboard updating",
		},
		{
			name:        "Negative cache TTL",
			body:        "cache_ttl_sec: -1",
			description: "Negative TTLs are meaningless; zero disables the memo",
		},
		{
			name:        "Bad log level",
			body:        "log_level: loud",
			description: "Only zerolog's level names are accepted",
		},
		{
			name: "Conflicting coin map",
			body: `
coins:
  - ticker: XRP
    id: ripple
  - ticker: XRP
    id: ripple-classic
`,
			description: "A conflicting duplicate ticker must not be silently collapsed",
		},
		{
			name: "Coin entry without id",
			body: `
coins:
  - ticker: BTC
    id: ""
`,
			description: "Coin entries need both a ticker and a provider id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err, tt.description)
		})
	}
}

// Test_Load_MissingFile tests the explicit-path-but-absent case
func Test_Load_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicitly named config file must exist")
}

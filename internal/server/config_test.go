package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdem.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, account.DriverMemory, cfg.Accounts.Mode)
	assert.Equal(t, "local", cfg.Cards.Source)

	tc := cfg.TableConfig()
	assert.Equal(t, 10, tc.SmallBlind)
	assert.Equal(t, 20, tc.BigBlind)
	assert.Equal(t, table.DefaultCountdown, tc.Countdown)
	assert.Equal(t, 5*time.Second, tc.NextHandDelay)
	assert.Equal(t, 30*time.Second, tc.ActionTimeout)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

table {
  small_blind       = 25
  big_blind         = 50
  max_seats         = 4
  starting_chips    = 2000
  countdown_seconds = 20
  lock_seconds      = 3
}

accounts {
  mode = "sqlite"
  dsn  = "data/holdem.db"
}

cards {
  source     = "remote"
  api_url    = "http://cards.local"
  timeout_ms = 500
  seed       = 42
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.GetServerAddress())
	assert.Equal(t, account.Config{Driver: "sqlite", DSN: "data/holdem.db", StartingChips: 2000}, cfg.AccountConfig())

	tc := cfg.TableConfig()
	assert.Equal(t, 4, tc.MaxSeats)
	assert.Equal(t, table.Countdown{Duration: 20 * time.Second, Lock: 3 * time.Second}, tc.Countdown)
	assert.Equal(t, 5*time.Second, tc.NextHandDelay, "unset values keep their defaults")

	assert.IsType(t, &deck.RemoteSource{}, cfg.CardSource(testLogger()))
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `server {`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `table { big_blind = "lots" }`))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown log level", func(c *Config) { c.Server.LogLevel = "chatty" }},
		{"big blind not above small", func(c *Config) { c.Table.BigBlind = c.Table.SmallBlind }},
		{"one seat", func(c *Config) { c.Table.MaxSeats = 1 }},
		{"too many seats", func(c *Config) { c.Table.MaxSeats = table.MaxSeats + 1 }},
		{"starting chips below big blind", func(c *Config) { c.Table.StartingChips = 5 }},
		{"lock longer than countdown", func(c *Config) { c.Table.LockSeconds = 40 }},
		{"unknown account mode", func(c *Config) { c.Accounts.Mode = "redis" }},
		{"unknown card source", func(c *Config) { c.Cards.Source = "sleeve" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCardSourceDefaultsToLocal(t *testing.T) {
	cfg := DefaultConfig()
	assert.IsType(t, &deck.LocalSource{}, cfg.CardSource(testLogger()))
}

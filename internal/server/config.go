package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/table"
)

// Config represents the complete server configuration. Every block is
// optional; missing values fall back to the defaults.
type Config struct {
	Server   *ServerSettings  `hcl:"server,block"`
	Table    *TableSettings   `hcl:"table,block"`
	Accounts *AccountSettings `hcl:"accounts,block"`
	Cards    *CardSettings    `hcl:"cards,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableSettings are shared by every table the lobby opens
type TableSettings struct {
	SmallBlind           int `hcl:"small_blind,optional"`
	BigBlind             int `hcl:"big_blind,optional"`
	MaxSeats             int `hcl:"max_seats,optional"`
	StartingChips        int `hcl:"starting_chips,optional"`
	CountdownSeconds     int `hcl:"countdown_seconds,optional"`
	LockSeconds          int `hcl:"lock_seconds,optional"`
	NextHandDelayMS      int `hcl:"next_hand_delay_ms,optional"`
	ActionTimeoutSeconds int `hcl:"action_timeout_seconds,optional"`
}

// AccountSettings selects where player profiles live
type AccountSettings struct {
	Mode string `hcl:"mode,optional"`
	DSN  string `hcl:"dsn,optional"`
}

// CardSettings selects the card source
type CardSettings struct {
	Source    string `hcl:"source,optional"`
	APIURL    string `hcl:"api_url,optional"`
	TimeoutMS int    `hcl:"timeout_ms,optional"`
	Seed      int64  `hcl:"seed,optional"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Table == nil {
		c.Table = &TableSettings{}
	}
	if c.Accounts == nil {
		c.Accounts = &AccountSettings{}
	}
	if c.Cards == nil {
		c.Cards = &CardSettings{}
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	t := c.Table
	if t.SmallBlind == 0 {
		t.SmallBlind = 10
	}
	if t.BigBlind == 0 {
		t.BigBlind = 2 * t.SmallBlind
	}
	if t.MaxSeats == 0 {
		t.MaxSeats = table.MaxSeats
	}
	if t.StartingChips == 0 {
		t.StartingChips = account.DefaultStartingChips
	}
	if t.CountdownSeconds == 0 {
		t.CountdownSeconds = int(table.DefaultCountdown.Duration / time.Second)
	}
	if t.LockSeconds == 0 {
		t.LockSeconds = int(table.DefaultCountdown.Lock / time.Second)
	}
	if t.NextHandDelayMS == 0 {
		t.NextHandDelayMS = 5000
	}
	if t.ActionTimeoutSeconds == 0 {
		t.ActionTimeoutSeconds = 30
	}

	if c.Accounts.Mode == "" {
		c.Accounts.Mode = account.DriverMemory
	}

	if c.Cards.Source == "" {
		c.Cards.Source = "local"
	}
	if c.Cards.APIURL == "" {
		c.Cards.APIURL = deck.DefaultAPIURL
	}
	if c.Cards.TimeoutMS == 0 {
		c.Cards.TimeoutMS = 3000
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := log.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	t := c.Table
	if t.SmallBlind <= 0 {
		return fmt.Errorf("table: small blind must be positive")
	}
	if t.BigBlind <= t.SmallBlind {
		return fmt.Errorf("table: big blind must be greater than small blind")
	}
	if t.MaxSeats < 2 || t.MaxSeats > table.MaxSeats {
		return fmt.Errorf("table: max seats must be between 2 and %d", table.MaxSeats)
	}
	if t.StartingChips < t.BigBlind {
		return fmt.Errorf("table: starting chips must cover the big blind")
	}
	if t.CountdownSeconds <= 0 {
		return fmt.Errorf("table: countdown must be positive")
	}
	if t.LockSeconds < 0 || t.LockSeconds >= t.CountdownSeconds {
		return fmt.Errorf("table: lock window must be shorter than the countdown")
	}
	if t.NextHandDelayMS < 0 || t.ActionTimeoutSeconds < 0 {
		return fmt.Errorf("table: delays must not be negative")
	}

	switch strings.ToLower(c.Accounts.Mode) {
	case account.DriverMemory, account.DriverSQLite, account.DriverPostgres:
	default:
		return fmt.Errorf("accounts: invalid mode %s", c.Accounts.Mode)
	}

	switch c.Cards.Source {
	case "local", "remote":
	default:
		return fmt.Errorf("cards: invalid source %s", c.Cards.Source)
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TableConfig converts the table block into per-table settings
func (c *Config) TableConfig() table.Config {
	t := c.Table
	return table.Config{
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		MaxSeats:   t.MaxSeats,
		Countdown: table.Countdown{
			Duration: time.Duration(t.CountdownSeconds) * time.Second,
			Lock:     time.Duration(t.LockSeconds) * time.Second,
		},
		NextHandDelay: time.Duration(t.NextHandDelayMS) * time.Millisecond,
		ActionTimeout: time.Duration(t.ActionTimeoutSeconds) * time.Second,
	}
}

// AccountConfig converts the accounts block into store settings
func (c *Config) AccountConfig() account.Config {
	return account.Config{
		Driver:        c.Accounts.Mode,
		DSN:           c.Accounts.DSN,
		StartingChips: c.Table.StartingChips,
	}
}

// CardSource builds the configured card source. A zero seed shuffles from
// system entropy.
func (c *Config) CardSource(logger *log.Logger) deck.Source {
	rng := deck.NewEntropyRand()
	if c.Cards.Seed != 0 {
		rng = deck.NewRand(c.Cards.Seed)
	}
	local := deck.NewLocalSource(rng)
	if c.Cards.Source != "remote" {
		return local
	}
	timeout := time.Duration(c.Cards.TimeoutMS) * time.Millisecond
	return deck.NewRemoteSource(c.Cards.APIURL, timeout, local, logger)
}

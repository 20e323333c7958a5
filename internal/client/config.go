package client

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the client configuration
type Config struct {
	Server *ServerConnection `hcl:"server,block"`
	Player *PlayerSettings   `hcl:"player,block"`
	UI     *UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL            string `hcl:"url,optional"`
	ConnectTimeout int    `hcl:"connect_timeout,optional"`
}

// PlayerSettings identify the player
type PlayerSettings struct {
	ID    string `hcl:"id,optional"`
	Name  string `hcl:"name,optional"`
	Table string `hcl:"table,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel         string `hcl:"log_level,optional"`
	LogFile          string `hcl:"log_file,optional"`
	ResultTTLSeconds int    `hcl:"result_ttl_seconds,optional"`
}

// DefaultConfig returns default client configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads client configuration from an HCL file. A missing file
// yields the defaults.
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
		c.Server = &ServerConnection{}
	}
	if c.Player == nil {
		c.Player = &PlayerSettings{}
	}
	if c.UI == nil {
		c.UI = &UISettings{}
	}

	if c.Server.URL == "" {
		c.Server.URL = "ws://localhost:8080/ws"
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = 10
	}
	if c.UI.LogLevel == "" {
		c.UI.LogLevel = "warn"
	}
	if c.UI.LogFile == "" {
		c.UI.LogFile = "holdem-client.log"
	}
	if c.UI.ResultTTLSeconds == 0 {
		c.UI.ResultTTLSeconds = int(DefaultResultTTL / time.Second)
	}
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if _, err := websocketURL(c.Server.URL); err != nil {
		return err
	}
	if c.Player.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.UI.ResultTTLSeconds <= 0 {
		return fmt.Errorf("result ttl must be positive")
	}
	if _, err := log.ParseLevel(c.UI.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}
	return nil
}

// ConnectTimeout returns the dial timeout
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeout) * time.Second
}

// ResultTTL returns how long a hand result stays on screen
func (c *Config) ResultTTL() time.Duration {
	return time.Duration(c.UI.ResultTTLSeconds) * time.Second
}

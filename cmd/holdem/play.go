package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"
	"github.com/lox/holdemtable/internal/client"
	"github.com/lox/holdemtable/internal/table"
	"github.com/lox/holdemtable/internal/tui"
)

// PlayCmd connects to a server and runs the terminal table view
type PlayCmd struct {
	Config    string        `short:"c" default:"holdem-client.hcl" help:"Path to HCL configuration file"`
	Server    string        `short:"s" help:"Server URL to connect to (overrides config)"`
	ID        string        `help:"Player id (overrides config)"`
	Name      string        `short:"n" help:"Nickname shown at the table (overrides config)"`
	Table     string        `short:"t" help:"Table id to join, empty for any open table"`
	LogLevel  string        `short:"l" help:"Log level (overrides config)"`
	LogFile   string        `help:"Log file path (overrides config)"`
	Countdown time.Duration `default:"30s" help:"Pre-hand countdown configured on the server"`
	Lock      time.Duration `default:"5s" help:"Lock window at the end of the countdown"`
}

func (c *PlayCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// the terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := setupLogger(logFile, cfg.UI.LogLevel)

	conn := client.NewClient(cfg.Server.URL, logger)
	view := client.NewView(cfg.Player.ID, table.Countdown{Duration: c.Countdown, Lock: c.Lock})
	model := tui.NewModel(view, client.NewResultFeed(cfg.ResultTTL()), conn, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	bridge := tui.NewBridge(conn, program, logger)

	dialCtx, cancelDial := context.WithTimeout(context.Background(), cfg.ConnectTimeout())
	err = conn.Connect(dialCtx)
	cancelDial()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Server.URL, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Hello(cfg.Player.ID, cfg.Player.Name); err != nil {
		return err
	}
	if err := conn.JoinTable(cfg.Player.Table); err != nil {
		return err
	}

	model.AddLogEntry("Welcome to Texas Hold'em!")
	model.AddLogEntry(fmt.Sprintf("Connected to %s as %s", cfg.Server.URL, nonEmpty(cfg.Player.Name, cfg.Player.ID)))
	model.AddLogEntry("Commands: fold, check, call, raise N, join [table], leave, tables, quit")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticker := client.NewTicker(quartz.NewReal(), func(now time.Time) {
		program.Send(tui.TickMsg(now))
	})
	go bridge.Watch(ctx, ticker)

	logger.Info("Starting table view", "player", cfg.Player.ID, "server", cfg.Server.URL)
	_, err = program.Run()
	return err
}

func (c *PlayCmd) applyOverrides(cfg *client.Config) {
	if c.Server != "" {
		cfg.Server.URL = c.Server
	}
	if c.ID != "" {
		cfg.Player.ID = c.ID
	}
	if c.Name != "" {
		cfg.Player.Name = c.Name
	}
	if c.Table != "" {
		cfg.Player.Table = c.Table
	}
	if c.LogLevel != "" {
		cfg.UI.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.UI.LogFile = c.LogFile
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

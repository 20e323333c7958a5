package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/coder/quartz"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/lobby"
	"github.com/lox/holdemtable/internal/server"
	"github.com/lox/holdemtable/internal/store"
	"github.com/lox/holdemtable/internal/table"
)

// ServeCmd runs the WebSocket server and the lobby behind it
type ServeCmd struct {
	Config   string `short:"c" default:"holdem.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address host:port (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Seed     *int64 `help:"Deterministic shuffle seed (overrides config)"`
	Accounts string `help:"Account driver: memory, sqlite or postgres (overrides config)"`
	DSN      string `help:"Account database DSN (overrides config)"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := c.applyOverrides(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := setupLogger(os.Stderr, cfg.Server.LogLevel)

	accounts, err := account.Open(cfg.AccountConfig())
	if err != nil {
		return err
	}
	defer func() {
		if err := accounts.Close(); err != nil {
			logger.Error("Failed to close account store", "error", err)
		}
	}()

	clock := quartz.NewReal()
	st := store.NewMemory(logger)
	l := lobby.New(cfg.TableConfig(), table.Options{
		Clock:  clock,
		Logger: logger,
		Cards:  cfg.CardSource(logger),
		Store:  st,
	}, accounts)
	defer l.Close()

	logger.Info("Starting holdem server",
		"addr", cfg.GetServerAddress(),
		"stakes", fmt.Sprintf("$%d/$%d", cfg.Table.SmallBlind, cfg.Table.BigBlind),
		"maxSeats", cfg.Table.MaxSeats,
		"accounts", cfg.Accounts.Mode,
		"cards", cfg.Cards.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg.GetServerAddress(), l, st, logger, server.WithClock(clock))
	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func (c *ServeCmd) applyOverrides(cfg *server.Config) error {
	if c.Addr != "" {
		host, port, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("invalid --addr %q: %w", c.Addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port in --addr %q", c.Addr)
		}
		cfg.Server.Address = host
		cfg.Server.Port = p
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Seed != nil {
		cfg.Cards.Seed = *c.Seed
	}
	if c.Accounts != "" {
		cfg.Accounts.Mode = c.Accounts
	}
	if c.DSN != "" {
		cfg.Accounts.DSN = c.DSN
	}
	return nil
}

// Package account persists player profiles: the chip balance a player brings
// to a table and their running hand statistics.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultStartingChips is the balance of a new profile
const DefaultStartingChips = 1000

var (
	ErrNotFound  = errors.New("account: profile not found")
	ErrInvalidID = errors.New("account: invalid profile id")
)

// Stats are the per-player game counters
type Stats struct {
	HandsPlayed int `json:"handsPlayed"`
	HandsWon    int `json:"handsWon"`
}

// Profile is a player's persisted record
type Profile struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Chips    int    `json:"chips"`
	Stats    Stats  `json:"stats"`
}

// Store loads profiles when players sit down and settles them after each hand
type Store interface {
	// Load returns the profile for id, creating it with the starting balance
	// if needed. A profile with no chips left is topped back up.
	Load(ctx context.Context, id, nickname string) (Profile, error)
	// Settle records the balance a player finished a hand with
	Settle(ctx context.Context, id string, chips int, won bool) error
	Close() error
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a Store
type Config struct {
	Driver        string
	DSN           string
	StartingChips int
}

// Open creates the Store named by cfg.Driver
func Open(cfg Config) (Store, error) {
	if cfg.StartingChips <= 0 {
		cfg.StartingChips = DefaultStartingChips
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory, "mem":
		return NewMemory(cfg.StartingChips), nil
	case DriverSQLite, "sqlite3":
		return NewSQLite(cfg.DSN, cfg.StartingChips)
	case DriverPostgres, "postgresql":
		return NewPostgres(cfg.DSN, cfg.StartingChips)
	default:
		return nil, fmt.Errorf("account: unknown driver %q (supported: %s, %s, %s)",
			cfg.Driver, DriverMemory, DriverSQLite, DriverPostgres)
	}
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return nil
}

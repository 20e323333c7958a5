// Package lobby seats players at tables. It finds or creates a table for a
// quick join, resumes players who are already seated and forgets tables once
// they empty.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/table"
)

// joinAttempts bounds retries when a chosen table closes or fills underneath us
const joinAttempts = 3

var (
	ErrTableNotFound = errors.New("lobby: table not found")
	ErrAlreadySeated = errors.New("lobby: already seated at another table")
)

// Summary is the lobby listing entry for one table
type Summary struct {
	ID         string       `json:"id"`
	Status     table.Status `json:"status"`
	Round      table.Round  `json:"round"`
	Locked     bool         `json:"locked"`
	Seated     int          `json:"seated"`
	MaxSeats   int          `json:"maxSeats"`
	SmallBlind int          `json:"smallBlind"`
	BigBlind   int          `json:"bigBlind"`
	HandNumber int          `json:"handNumber"`
}

// Lobby manages all tables and player assignments
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	// joinMu serializes seat assignment so a uid sits at one table at most
	joinMu sync.Mutex

	cfg      table.Config
	opts     table.Options
	accounts account.Store
	logger   *log.Logger
}

// New creates a lobby whose tables share cfg and the collaborators in opts.
// Chips are read from and settled into accounts.
func New(cfg table.Config, opts table.Options, accounts account.Store) *Lobby {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	l := &Lobby{
		tables:   make(map[string]*table.Table),
		cfg:      cfg,
		opts:     opts,
		accounts: accounts,
		logger:   opts.Logger.WithPrefix("lobby"),
	}
	l.opts.Ledger = accounts
	l.opts.OnEmpty = l.forget
	return l
}

// Profile loads (or creates) the account for uid
func (l *Lobby) Profile(ctx context.Context, uid, nickname string) (account.Profile, error) {
	return l.accounts.Load(ctx, uid, nickname)
}

// QuickJoin seats uid at any open table, creating one if none is open.
// A player who is already seated gets their current table back.
func (l *Lobby) QuickJoin(ctx context.Context, uid, nickname string) (*table.Table, error) {
	l.joinMu.Lock()
	defer l.joinMu.Unlock()

	if t := l.TableOf(uid); t != nil {
		return t, nil
	}

	profile, err := l.accounts.Load(ctx, uid, nickname)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for range joinAttempts {
		t, err := l.pick(ctx)
		if err != nil {
			return nil, err
		}

		err = t.Join(uid, profile.Nickname, profile.Chips)
		switch {
		case err == nil:
			l.logger.Info("Player seated", "uid", uid, "table", t.ID(), "chips", profile.Chips)
			return t, nil
		case errors.Is(err, table.ErrTableClosed),
			errors.Is(err, table.ErrTableFull),
			errors.Is(err, table.ErrTableLocked):
			lastErr = err
			continue
		default:
			return nil, err
		}
	}
	return nil, lastErr
}

// JoinTable seats uid at a specific table
func (l *Lobby) JoinTable(ctx context.Context, id, uid, nickname string) (*table.Table, error) {
	l.joinMu.Lock()
	defer l.joinMu.Unlock()

	if current := l.TableOf(uid); current != nil {
		if current.ID() == id {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrAlreadySeated, current.ID())
	}

	t := l.Get(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}

	profile, err := l.accounts.Load(ctx, uid, nickname)
	if err != nil {
		return nil, err
	}
	if err := t.Join(uid, profile.Nickname, profile.Chips); err != nil {
		return nil, err
	}
	l.logger.Info("Player seated", "uid", uid, "table", id, "chips", profile.Chips)
	return t, nil
}

// Leave removes uid from their table. It fails with table.ErrTableLocked
// during the lock window.
func (l *Lobby) Leave(uid string) error {
	t := l.TableOf(uid)
	if t == nil {
		return table.ErrNotSeated
	}
	return t.Leave(uid)
}

// Disconnect is the best-effort cleanup for a dropped player
func (l *Lobby) Disconnect(uid string) {
	t := l.TableOf(uid)
	if t == nil {
		return
	}
	if err := t.Disconnect(uid); err != nil && !errors.Is(err, table.ErrTableClosed) {
		l.logger.Warn("Disconnect cleanup failed", "uid", uid, "table", t.ID(), "error", err)
	}
}

// Act forwards a betting decision to the player's table
func (l *Lobby) Act(uid string, action table.Action, amount int) error {
	t := l.TableOf(uid)
	if t == nil {
		return table.ErrNotSeated
	}
	return t.Act(uid, action, amount)
}

// TableOf returns the table uid is seated at, or nil
func (l *Lobby) TableOf(uid string) *table.Table {
	for _, t := range l.list() {
		if _, ok := t.Snapshot().Player(uid); ok {
			return t
		}
	}
	return nil
}

// Get returns a table by id, or nil
func (l *Lobby) Get(id string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[id]
}

// Tables summarises every live table, ordered by id
func (l *Lobby) Tables() []Summary {
	tables := l.list()
	out := make([]Summary, 0, len(tables))
	for _, t := range tables {
		s := t.Snapshot()
		out = append(out, Summary{
			ID:         s.ID,
			Status:     s.Status,
			Round:      s.Round,
			Locked:     s.Locked,
			Seated:     s.Seated(),
			MaxSeats:   s.MaxSeats,
			SmallBlind: s.SmallBlind,
			BigBlind:   s.BigBlind,
			HandNumber: s.HandNumber,
		})
	}
	return out
}

// Close stops every table
func (l *Lobby) Close() {
	l.mu.Lock()
	tables := l.tables
	l.tables = make(map[string]*table.Table)
	l.mu.Unlock()

	for _, t := range tables {
		t.Stop()
	}
}

// pick returns the fullest open table or a new one. It fails with
// table.ErrTableLocked when the only tables with room are about to deal.
func (l *Lobby) pick(ctx context.Context) (*table.Table, error) {
	var (
		best       *table.Table
		bestSeated = -1
		locked     bool
	)
	for _, t := range l.list() {
		s := t.Snapshot()
		if s.Status == table.StatusPlaying || s.Seated() >= s.MaxSeats {
			continue
		}
		if s.Locked {
			locked = true
			continue
		}
		if s.Seated() > bestSeated {
			best, bestSeated = t, s.Seated()
		}
	}

	switch {
	case best != nil:
		return best, nil
	case locked:
		return nil, table.ErrTableLocked
	default:
		return l.create(ctx)
	}
}

func (l *Lobby) create(ctx context.Context) (*table.Table, error) {
	id := uuid.NewString()
	t, err := table.New(ctx, id, l.cfg, l.opts)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.tables[id] = t
	l.mu.Unlock()

	l.logger.Info("Created table", "table", id)
	return t, nil
}

func (l *Lobby) forget(id string) {
	l.mu.Lock()
	delete(l.tables, id)
	l.mu.Unlock()
	l.logger.Info("Removed empty table", "table", id)
}

// list returns the live tables ordered by id without holding the lock
// while callers talk to them
func (l *Lobby) list() []*table.Table {
	l.mu.RLock()
	out := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		out = append(out, t)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

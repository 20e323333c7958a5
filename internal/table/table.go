package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/store"
)

const (
	storeTimeout  = 5 * time.Second
	drawTimeout   = 10 * time.Second
	settleTimeout = 5 * time.Second
)

// Ledger records chip balances once a hand is paid out
type Ledger interface {
	Settle(ctx context.Context, uid string, chips int, won bool) error
}

// Config holds the per-table settings
type Config struct {
	SmallBlind    int
	BigBlind      int
	MaxSeats      int
	Countdown     Countdown
	NextHandDelay time.Duration
	ActionTimeout time.Duration
	Tick          time.Duration
}

// DefaultConfig returns 10/20 blinds, six seats and the standard timings
func DefaultConfig() Config {
	return Config{
		SmallBlind:    10,
		BigBlind:      20,
		MaxSeats:      MaxSeats,
		Countdown:     DefaultCountdown,
		NextHandDelay: 5 * time.Second,
		ActionTimeout: 30 * time.Second,
		Tick:          500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SmallBlind <= 0 {
		c.SmallBlind = d.SmallBlind
	}
	if c.BigBlind <= 0 {
		c.BigBlind = max(d.BigBlind, 2*c.SmallBlind)
	}
	if c.MaxSeats <= 0 || c.MaxSeats > MaxSeats {
		c.MaxSeats = d.MaxSeats
	}
	if c.Countdown.Duration <= 0 {
		c.Countdown = d.Countdown
	}
	if c.NextHandDelay <= 0 {
		c.NextHandDelay = d.NextHandDelay
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = d.ActionTimeout
	}
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	return c
}

// Options are the collaborators a table runs against
type Options struct {
	Clock  quartz.Clock
	Logger *log.Logger
	Cards  deck.Source
	Store  store.Store
	// Ledger is optional
	Ledger Ledger
	// OnEmpty is called on its own goroutine once the last player leaves
	OnEmpty func(id string)
}

// EventType identifies a request to the table actor
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventDisconnect
	EventAction
)

// Event is a message to the table actor
type Event struct {
	Type     EventType
	UID      string
	Nickname string
	Chips    int
	Action   Action
	Amount   int
	Response chan error
}

// errUnchanged marks a transition that left the document as it was
var errUnchanged = errors.New("table: unchanged")

// Table owns one State. All transitions run on the actor goroutine and are
// published to the store before they become visible through Snapshot.
type Table struct {
	id      string
	cfg     Config
	clock   quartz.Clock
	logger  *log.Logger
	cards   deck.Source
	store   store.Store
	ledger  Ledger
	onEmpty func(id string)

	mu       sync.RWMutex
	state    *State
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}
	ticker *quartz.Ticker

	// actor-owned
	closing        bool
	shoe           deck.Shoe
	dealt          []deck.Card
	nextHandAt     time.Time
	actionDeadline time.Time
	handStart      map[string]int
}

// New publishes an empty table document and starts the actor
func New(ctx context.Context, id string, cfg Config, opts Options) (*Table, error) {
	cfg = cfg.withDefaults()
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cards == nil {
		opts.Cards = deck.NewLocalSource(nil)
	}
	if opts.Store == nil {
		return nil, errors.New("table: store is required")
	}

	t := &Table{
		id:        id,
		cfg:       cfg,
		clock:     opts.Clock,
		logger:    opts.Logger.WithPrefix("table").With("id", id),
		cards:     opts.Cards,
		store:     opts.Store,
		ledger:    opts.Ledger,
		onEmpty:   opts.OnEmpty,
		state:     NewState(id, cfg.SmallBlind, cfg.BigBlind, cfg.MaxSeats),
		events:    make(chan Event, 256),
		done:      make(chan struct{}),
		handStart: make(map[string]int),
	}
	t.state.ServerTime = stamp(t.clock.Now())

	doc, err := Encode(t.state)
	if err != nil {
		return nil, err
	}
	if err := t.store.Create(ctx, id, doc); err != nil {
		return nil, fmt.Errorf("table: create document: %w", err)
	}

	t.ticker = t.clock.NewTicker(cfg.Tick, "table", "tick")
	go t.run()

	t.logger.Info("Table created",
		"blinds", fmt.Sprintf("%d/%d", cfg.SmallBlind, cfg.BigBlind),
		"seats", cfg.MaxSeats)
	return t, nil
}

// ID returns the table id
func (t *Table) ID() string { return t.id }

// Snapshot returns a copy of the last committed state
func (t *Table) Snapshot() *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Closed reports whether the table stopped accepting events
func (t *Table) Closed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Done is closed once the actor has exited
func (t *Table) Done() <-chan struct{} { return t.done }

// Join seats uid with chips brought from their account
func (t *Table) Join(uid, nickname string, chips int) error {
	return t.SubmitEvent(Event{Type: EventJoin, UID: uid, Nickname: nickname, Chips: chips})
}

// Leave removes uid. It fails with ErrTableLocked during the lock window.
func (t *Table) Leave(uid string) error {
	return t.SubmitEvent(Event{Type: EventLeave, UID: uid})
}

// Disconnect is the best-effort leave for a dropped connection. While the
// table is locked the seat is queued and removed when the hand ends.
func (t *Table) Disconnect(uid string) error {
	return t.SubmitEvent(Event{Type: EventDisconnect, UID: uid})
}

// Act submits a betting decision
func (t *Table) Act(uid string, action Action, amount int) error {
	return t.SubmitEvent(Event{Type: EventAction, UID: uid, Action: action, Amount: amount})
}

// SubmitEvent sends an event to the actor and waits for its outcome
func (t *Table) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	if t.Closed() {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		select {
		case err := <-e.Response:
			return err
		default:
			return ErrTableClosed
		}
	}
}

// Stop shuts the actor down without touching the document
func (t *Table) Stop() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Table) run() {
	defer t.ticker.Stop()

	for {
		select {
		case e := <-t.events:
			err := t.handleEvent(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-t.ticker.C:
			t.tick()
		case <-t.done:
			t.logger.Debug("Actor stopped")
			return
		}

		if t.closing {
			t.shutdown()
			return
		}
	}
}

func (t *Table) handleEvent(e Event) error {
	switch e.Type {
	case EventJoin:
		return t.mutate(func(s *State, now time.Time) error {
			joined, err := s.Join(e.UID, e.Nickname, e.Chips, now)
			if err != nil {
				return err
			}
			if !joined {
				return errUnchanged
			}
			t.logger.Info("Player joined", "uid", e.UID, "chips", e.Chips)
			return nil
		})

	case EventLeave:
		return t.leave(e.UID)

	case EventDisconnect:
		if t.state.Locked {
			return t.mutate(func(s *State, _ time.Time) error {
				if _, ok := s.Player(e.UID); !ok || s.Pending(e.UID) {
					return errUnchanged
				}
				s.QueueLeave(e.UID)
				t.logger.Info("Queued leave for disconnected player", "uid", e.UID)
				return nil
			})
		}
		if err := t.leave(e.UID); err != nil && !errors.Is(err, ErrNotSeated) {
			return err
		}
		return nil

	case EventAction:
		return t.mutate(func(s *State, now time.Time) error {
			return s.Act(e.UID, e.Action, e.Amount, t.dealer(now))
		})

	default:
		return fmt.Errorf("table: unknown event type %d", e.Type)
	}
}

func (t *Table) leave(uid string) error {
	return t.mutate(func(s *State, _ time.Time) error {
		if _, err := s.Leave(uid); err != nil {
			return err
		}
		t.logger.Info("Player left", "uid", uid)
		return nil
	})
}

func (t *Table) tick() {
	now := t.clock.Now()
	s := t.state

	switch {
	case s.Status == StatusStarting:
		t.tickCountdown(now)

	case s.Status == StatusPlaying && s.Round == RoundShowdown:
		if !t.nextHandAt.IsZero() && !now.Before(t.nextHandAt) {
			t.nextHand()
		}

	case s.Status == StatusPlaying && s.Round.Betting():
		if !t.actionDeadline.IsZero() && !now.Before(t.actionDeadline) {
			t.timeout(now)
		}
	}
}

func (t *Table) tickCountdown(now time.Time) {
	preview := t.state.Clone()
	res := preview.Tick(t.cfg.Countdown, now)

	if !res.Start {
		if res.Changed {
			t.publishLock(now)
		}
		return
	}

	t.resetShoe()
	err := t.mutate(func(s *State, now time.Time) error {
		s.Tick(t.cfg.Countdown, now)
		return s.StartGame(t.dealer(now))
	})
	switch {
	case errors.Is(err, ErrNotEnoughPlayers):
		t.logger.Info("Not enough players, restarting countdown", "seated", t.state.Seated())
		var removed []string
		if err := t.mutate(func(s *State, now time.Time) error {
			removed = s.RestartCountdown(now)
			return nil
		}); err != nil {
			t.logger.Error("Failed to restart countdown", "error", err)
			return
		}
		if len(removed) > 0 {
			t.logger.Info("Removed queued leavers", "uids", removed)
		}
	case err != nil:
		t.logger.Error("Failed to start hand", "error", err)
	}
}

// publishLock writes only the lock fields. Nothing else changes while the
// countdown runs so a partial merge is enough.
func (t *Table) publishLock(now time.Time) {
	next := t.state.Clone()
	next.Locked = true
	next.Version++
	next.ServerTime = stamp(now)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	patch := map[string]any{
		"locked":     next.Locked,
		"version":    next.Version,
		"serverTime": next.ServerTime,
	}
	if err := t.store.Update(ctx, t.id, patch); err != nil {
		t.logger.Error("Failed to publish lock", "error", err)
		return
	}

	t.mu.Lock()
	t.state = next
	t.mu.Unlock()
	t.logger.Debug("Table locked for start")
}

func (t *Table) nextHand() {
	t.resetShoe()
	var removed []string
	err := t.mutate(func(s *State, now time.Time) error {
		gone, _, err := s.NextHand(t.dealer(now))
		removed = gone
		return err
	})
	if err != nil {
		t.logger.Error("Failed to deal next hand", "error", err)
		return
	}
	if len(removed) > 0 {
		t.logger.Info("Removed players between hands", "uids", removed)
	}
}

func (t *Table) timeout(now time.Time) {
	uid, action, ok := t.state.TimeoutAction()
	if !ok {
		t.actionDeadline = time.Time{}
		return
	}

	t.logger.Info("Action timed out", "uid", uid, "action", action)
	if err := t.mutate(func(s *State, now time.Time) error {
		return s.Act(uid, action, 0, t.dealer(now))
	}); err != nil {
		t.logger.Error("Failed to apply timeout action", "uid", uid, "error", err)
		t.actionDeadline = now.Add(t.cfg.ActionTimeout)
	}
}

// mutate applies fn to a copy of the state and commits the copy only when
// fn succeeds
func (t *Table) mutate(fn func(s *State, now time.Time) error) error {
	now := t.clock.Now()
	next := t.state.Clone()
	if err := fn(next, now); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	return t.commit(next, now)
}

func (t *Table) commit(next *State, now time.Time) error {
	prev := t.state
	next.Version = prev.Version + 1
	next.ServerTime = stamp(now)

	doc, err := Encode(next)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := t.store.Set(ctx, t.id, doc); err != nil {
		return fmt.Errorf("table: publish: %w", err)
	}

	t.mu.Lock()
	t.state = next
	t.mu.Unlock()

	t.afterCommit(prev, next, now)
	return nil
}

func (t *Table) afterCommit(prev, next *State, now time.Time) {
	if next.HandNumber != prev.HandNumber {
		clear(t.handStart)
		for _, p := range next.Players {
			if len(p.Cards) == 0 {
				continue
			}
			if before, ok := prev.Player(p.UID); ok {
				t.handStart[p.UID] = before.Chips
			} else {
				t.handStart[p.UID] = p.Chips + p.TotalContribution
			}
		}
		t.logger.Info("Hand started",
			"hand", next.HandNumber,
			"dealer", next.DealerSeat(),
			"players", len(t.handStart))
	}

	switch {
	case next.Round == RoundShowdown && prev.Round != RoundShowdown:
		t.actionDeadline = time.Time{}
		t.nextHandAt = now.Add(t.cfg.NextHandDelay)
		t.settle(next)

	case next.Status == StatusPlaying && next.Round.Betting():
		if next.CurrentPlayerIndex != prev.CurrentPlayerIndex ||
			next.Round != prev.Round ||
			next.HandNumber != prev.HandNumber {
			t.actionDeadline = now.Add(t.cfg.ActionTimeout)
		}

	default:
		t.actionDeadline = time.Time{}
		if next.Round != RoundShowdown {
			t.nextHandAt = time.Time{}
		}
	}

	if len(next.Players) == 0 && len(prev.Players) > 0 {
		t.closing = true
	}
}

// settle pays the hand into the ledger and logs the result
func (t *Table) settle(s *State) {
	if res := s.LastResult; res != nil {
		for _, w := range res.Winners {
			t.logger.Info("Pot awarded",
				"hand", res.HandNumber,
				"uid", w.UID,
				"amount", w.Amount,
				"byFold", res.ByFold)
		}
	}

	if t.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	for uid, start := range t.handStart {
		p, ok := s.Player(uid)
		if !ok {
			continue
		}
		won := s.LastResult != nil && s.LastResult.Won(uid) > 0
		if err := t.ledger.Settle(ctx, uid, p.Chips, won); err != nil {
			t.logger.Error("Failed to settle chips", "uid", uid, "error", err)
			continue
		}
		t.logger.Debug("Settled", "uid", uid, "chips", p.Chips, "net", p.Chips-start)
	}
}

// shutdown deletes the document of an empty table and stops the actor
func (t *Table) shutdown() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := t.store.Delete(ctx, t.id); err != nil && !errors.Is(err, store.ErrNotFound) {
		t.logger.Error("Failed to delete table document", "error", err)
	}
	t.logger.Info("Table empty, closed")

	t.stopOnce.Do(func() {
		close(t.done)
	})
	if t.onEmpty != nil {
		go t.onEmpty(t.id)
	}
}

func (t *Table) dealer(now time.Time) Dealer {
	return Dealer{Draw: t.draw, Now: now}
}

func (t *Table) resetShoe() {
	t.shoe = nil
	t.dealt = nil
}

// draw takes n cards from the current hand's shoe. An exhausted shoe is
// replaced by a fresh one that skips every card already dealt this hand.
func (t *Table) draw(n int) ([]deck.Card, error) {
	ctx, cancel := context.WithTimeout(context.Background(), drawTimeout)
	defer cancel()

	if t.shoe == nil {
		shoe, err := t.cards.NewShoe(ctx)
		if err != nil {
			return nil, fmt.Errorf("table: open shoe: %w", err)
		}
		t.shoe = shoe
	}

	cards, err := t.shoe.Draw(ctx, n)
	if errors.Is(err, deck.ErrDeckExhausted) {
		t.logger.Warn("Shoe exhausted, rebuilding", "dealt", len(t.dealt), "want", n)
		cards, err = t.redraw(ctx, n)
	}
	if err != nil {
		return nil, err
	}

	t.dealt = append(t.dealt, cards...)
	return cards, nil
}

func (t *Table) redraw(ctx context.Context, n int) ([]deck.Card, error) {
	shoe, err := t.cards.NewShoe(ctx)
	if err != nil {
		return nil, fmt.Errorf("table: rebuild shoe: %w", err)
	}
	t.shoe = shoe

	seen := make(map[deck.Card]bool, len(t.dealt))
	for _, c := range t.dealt {
		seen[c] = true
	}

	var out []deck.Card
	for len(out) < n {
		next, err := shoe.Draw(ctx, 1)
		if err != nil {
			return nil, err
		}
		if !seen[next[0]] {
			seen[next[0]] = true
			out = append(out, next[0])
		}
	}
	return out, nil
}

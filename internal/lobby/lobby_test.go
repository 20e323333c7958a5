package lobby

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/store"
	"github.com/lox/holdemtable/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestLobby(t *testing.T) (*Lobby, *quartz.Mock, *account.Memory) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	clock := quartz.NewMock(t)
	accounts := account.NewMemory(1000)

	cfg := table.DefaultConfig()
	cfg.Tick = time.Second

	l := New(cfg, table.Options{
		Clock:  clock,
		Logger: logger,
		Cards:  deck.NewLocalSource(deck.NewRand(1)),
		Store:  store.NewMemory(logger),
	}, accounts)
	t.Cleanup(l.Close)
	return l, clock, accounts
}

func advance(t *testing.T, clock *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for ; d > 0; d -= time.Second {
		clock.Advance(time.Second).MustWait(ctx)
	}
}

func TestQuickJoinFillsOneTable(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	first, err := l.QuickJoin(ctx, "alice", "Alice")
	require.NoError(t, err)
	second, err := l.QuickJoin(ctx, "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())

	s := first.Snapshot()
	require.Len(t, s.Players, 2)
	alice, _ := s.Player("alice")
	bob, _ := s.Player("bob")
	assert.Equal(t, 0, alice.Seat)
	assert.Equal(t, 1, bob.Seat)
	assert.Equal(t, 1000, alice.Chips)
	assert.Equal(t, "Alice", alice.Nickname)
}

func TestQuickJoinResumes(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	first, err := l.QuickJoin(ctx, "alice", "Alice")
	require.NoError(t, err)
	again, err := l.QuickJoin(ctx, "alice", "Alice")
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.Len(t, first.Snapshot().Players, 1)
	assert.Len(t, l.Tables(), 1)
}

func TestConcurrentJoinsSeatPlayerOnce(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	var g errgroup.Group
	seatedAt := make([]*table.Table, 4)
	for i := range seatedAt {
		g.Go(func() error {
			tbl, err := l.QuickJoin(ctx, "alice", "Alice")
			seatedAt[i] = tbl
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, tbl := range seatedAt[1:] {
		assert.Same(t, seatedAt[0], tbl)
	}
	assert.Len(t, l.Tables(), 1)

	other, err := l.QuickJoin(ctx, "bob", "Bob")
	require.NoError(t, err)
	_, err = l.JoinTable(ctx, other.ID(), "alice", "Alice")
	require.NoError(t, err, "same table is a no-op")
	seats := 0
	for _, tbl := range l.list() {
		if _, ok := tbl.Snapshot().Player("alice"); ok {
			seats++
		}
	}
	assert.Equal(t, 1, seats)
}

func TestQuickJoinOpensSecondTableWhenFull(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	var first *table.Table
	for i := range table.MaxSeats {
		tbl, err := l.QuickJoin(ctx, fmt.Sprintf("p%d", i), "")
		require.NoError(t, err)
		if first == nil {
			first = tbl
		}
		assert.Equal(t, first.ID(), tbl.ID())
	}

	overflow, err := l.QuickJoin(ctx, "late", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), overflow.ID())
	assert.Len(t, l.Tables(), 2)
}

func TestQuickJoinRefusedDuringLock(t *testing.T) {
	l, clock, _ := newTestLobby(t)
	ctx := context.Background()

	tbl, err := l.QuickJoin(ctx, "alice", "")
	require.NoError(t, err)
	_, err = l.QuickJoin(ctx, "bob", "")
	require.NoError(t, err)

	advance(t, clock, 25*time.Second)
	require.Eventually(t, func() bool { return tbl.Snapshot().Locked }, 2*time.Second, 5*time.Millisecond)

	_, err = l.QuickJoin(ctx, "carol", "")
	assert.ErrorIs(t, err, table.ErrTableLocked)
	assert.ErrorIs(t, l.Leave("alice"), table.ErrTableLocked)
}

func TestJoinTable(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	_, err := l.JoinTable(ctx, "missing", "alice", "")
	assert.ErrorIs(t, err, ErrTableNotFound)

	tbl, err := l.QuickJoin(ctx, "alice", "")
	require.NoError(t, err)

	joined, err := l.JoinTable(ctx, tbl.ID(), "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID(), joined.ID())

	again, err := l.JoinTable(ctx, tbl.ID(), "bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID(), again.ID())

	_, err = l.JoinTable(ctx, "elsewhere", "bob", "Bob")
	assert.ErrorIs(t, err, ErrAlreadySeated)
}

func TestLeaveForgetsEmptyTable(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	_, err := l.QuickJoin(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, l.Tables(), 1)

	require.NoError(t, l.Leave("alice"))
	require.Eventually(t, func() bool { return len(l.Tables()) == 0 }, 2*time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, l.Leave("alice"), table.ErrNotSeated)
	assert.ErrorIs(t, l.Act("alice", table.Fold, 0), table.ErrNotSeated)
	assert.Nil(t, l.TableOf("alice"))
}

func TestHandSettlesIntoAccounts(t *testing.T) {
	l, clock, accounts := newTestLobby(t)
	ctx := context.Background()

	tbl, err := l.QuickJoin(ctx, "alice", "")
	require.NoError(t, err)
	_, err = l.QuickJoin(ctx, "bob", "")
	require.NoError(t, err)

	advance(t, clock, 30*time.Second)
	require.Eventually(t, func() bool {
		return tbl.Snapshot().Status == table.StatusPlaying
	}, 2*time.Second, 5*time.Millisecond)

	// heads-up: alice is on the button and folds her small blind
	require.NoError(t, l.Act("alice", table.Fold, 0))

	require.Eventually(t, func() bool {
		p, _ := accounts.Load(ctx, "bob", "")
		return p.Stats.HandsPlayed == 1
	}, 2*time.Second, 5*time.Millisecond)

	alice, err := accounts.Load(ctx, "alice", "")
	require.NoError(t, err)
	bob, err := accounts.Load(ctx, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, 990, alice.Chips)
	assert.Equal(t, 1010, bob.Chips)
	assert.Equal(t, 1, bob.Stats.HandsWon)
}

func TestTablesSummary(t *testing.T) {
	l, _, _ := newTestLobby(t)
	ctx := context.Background()

	tbl, err := l.QuickJoin(ctx, "alice", "")
	require.NoError(t, err)

	got := l.Tables()
	require.Len(t, got, 1)
	assert.Equal(t, Summary{
		ID:         tbl.ID(),
		Status:     table.StatusStarting,
		Round:      table.RoundWaiting,
		Seated:     1,
		MaxSeats:   table.MaxSeats,
		SmallBlind: 10,
		BigBlind:   20,
	}, got[0])
}

package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/holdemtable/internal/client"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/evaluator"
	"github.com/lox/holdemtable/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

type sent struct {
	action string
	amount int
}

type fakeActions struct {
	acts   []sent
	joins  []string
	leaves int
	lists  int
	err    error
}

func (f *fakeActions) Act(action string, amount int) error {
	f.acts = append(f.acts, sent{action, amount})
	return f.err
}

func (f *fakeActions) JoinTable(id string) error {
	f.joins = append(f.joins, id)
	return f.err
}

func (f *fakeActions) LeaveTable() error {
	f.leaves++
	return f.err
}

func (f *fakeActions) ListTables() error {
	f.lists++
	return f.err
}

func newTestModel(t *testing.T) (*Model, *fakeActions) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	actions := &fakeActions{}
	m := NewModel(client.NewView("alice", table.DefaultCountdown), client.NewResultFeed(5*time.Second), actions, logger)
	m.now = func() time.Time { return t0 }
	return m, actions
}

func typeLine(m *Model, line string) tea.Cmd {
	m.actionInput.SetValue(line)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func headsUp(version uint64) *table.State {
	s := table.NewState("table-1234567890", 10, 20, 6)
	s.Version = version
	s.ServerTime = t0
	s.Status = table.StatusPlaying
	s.Round = table.RoundPreflop
	s.HandNumber = 1
	s.CurrentBet = 20
	s.Pot = 30
	s.Players = []table.Seat{
		{UID: "alice", Nickname: "Alice", Seat: 0, Chips: 990, Bet: 10, IsDealer: true, Cards: deck.MustParseCards("AS", "KH")},
		{UID: "bob", Nickname: "Bob", Seat: 1, Chips: 980, Bet: 20},
	}
	s.CurrentPlayerIndex = 0
	return s
}

func joined(m *Model) string {
	return strings.Join(m.Log(), "\n")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"fold", Command{Kind: CommandFold}},
		{"  CHECK ", Command{Kind: CommandCheck}},
		{"c", Command{Kind: CommandCall}},
		{"raise 40", Command{Kind: CommandRaise, Amount: 40}},
		{"r $60", Command{Kind: CommandRaise, Amount: 60}},
		{"join", Command{Kind: CommandJoin}},
		{"join Table-A", Command{Kind: CommandJoin, TableID: "Table-A"}},
		{"leave", Command{Kind: CommandLeave}},
		{"tables", Command{Kind: CommandTables}},
		{"quit", Command{Kind: CommandQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "raise", "raise lots", "raise -5", "dance"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseCommand(bad)
			assert.Error(t, err)
		})
	}
}

func TestBettingCommandsNeedYourTurn(t *testing.T) {
	m, actions := newTestModel(t)

	typeLine(m, "call")
	assert.Empty(t, actions.acts)
	assert.Contains(t, joined(m), "not your turn")

	m.Update(SnapshotMsg{State: headsUp(1), ReceivedAt: t0})
	typeLine(m, "raise 40")
	typeLine(m, "call")
	assert.Equal(t, []sent{{"raise", 40}, {"call", 0}}, actions.acts)
	assert.Empty(t, m.actionInput.Value())
}

func TestLobbyCommands(t *testing.T) {
	m, actions := newTestModel(t)

	typeLine(m, "join abc")
	typeLine(m, "tables")
	typeLine(m, "leave")
	assert.Equal(t, []string{"abc"}, actions.joins)
	assert.Equal(t, 1, actions.lists)
	assert.Equal(t, 1, actions.leaves)

	actions.err = errors.New("send buffer full")
	typeLine(m, "leave")
	assert.Contains(t, joined(m), "send buffer full")

	cmd := typeLine(m, "quit")
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestSnapshotsNarrateTheHand(t *testing.T) {
	m, _ := newTestModel(t)

	s := headsUp(1)
	m.Update(SnapshotMsg{State: s, ReceivedAt: t0})
	log := joined(m)
	assert.Contains(t, log, "Seated at table")
	assert.Contains(t, log, "Hand #1")
	assert.Contains(t, log, "Your cards")

	flop := s.Clone()
	flop.Version = 2
	flop.Round = table.RoundFlop
	flop.CommunityCards = deck.MustParseCards("2C", "7D", "JS")
	m.Update(SnapshotMsg{State: flop, ReceivedAt: t0})
	assert.Contains(t, joined(m), "*** FLOP ***")

	// a stale snapshot changes nothing
	before := len(m.Log())
	m.Update(SnapshotMsg{State: s, ReceivedAt: t0})
	assert.Len(t, m.Log(), before)

	done := flop.Clone()
	done.Version = 3
	done.Round = table.RoundShowdown
	done.LastResult = &table.Result{
		HandNumber: 1,
		Pot:        40,
		Winners:    []table.Award{{UID: "alice", Nickname: "Alice", Seat: 0, Amount: 40}},
		Hands: []table.ShownHand{{
			UID: "alice", Seat: 0, Cards: deck.MustParseCards("AS", "KH"),
			Hand: evaluator.Hand{Category: evaluator.HighCard, Label: "Ace High"},
		}},
		At: t0,
	}
	m.Update(SnapshotMsg{State: done, ReceivedAt: t0})
	assert.Contains(t, joined(m), "Alice wins $40 with Ace High")

	// the same result is never repeated
	again := done.Clone()
	again.Version = 4
	before = len(m.Log())
	m.Update(SnapshotMsg{State: again, ReceivedAt: t0})
	assert.Len(t, m.Log(), before)
}

func TestSeatChangesAreLogged(t *testing.T) {
	m, _ := newTestModel(t)

	s := table.NewState("t1", 10, 20, 6)
	s.Version = 1
	s.Status = table.StatusStarting
	start := t0
	s.CountdownStart = &start
	s.ServerTime = t0
	s.Players = []table.Seat{{UID: "alice", Nickname: "Alice", Seat: 0, Chips: 1000}}
	m.Update(SnapshotMsg{State: s, ReceivedAt: t0})

	next := s.Clone()
	next.Version = 2
	next.Players = append(next.Players, table.Seat{UID: "bob", Nickname: "Bob", Seat: 1, Chips: 1000})
	m.Update(SnapshotMsg{State: next, ReceivedAt: t0})
	assert.Contains(t, joined(m), "Bob sat down")

	locked := next.Clone()
	locked.Version = 3
	locked.Locked = true
	locked.Players = locked.Players[:1]
	m.Update(SnapshotMsg{State: locked, ReceivedAt: t0})
	assert.Contains(t, joined(m), "Bob left")
	assert.Contains(t, joined(m), "Table locked")
}

func TestViewRendersTable(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(SnapshotMsg{State: headsUp(1), ReceivedAt: t0})

	out := m.View()
	assert.Contains(t, out, "Table table-12")
	assert.Contains(t, out, "Alice (you) (D)")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "Your turn")
	assert.Contains(t, out, "[call $10]")
	assert.Contains(t, out, "[raise 30+]")
}

func TestServerMessagesAreLogged(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(ServerErrorMsg{Code: "table_locked", Message: "table: table locked"})
	m.Update(TableListMsg{})
	m.Update(SnapshotMsg{State: headsUp(1), ReceivedAt: t0})
	m.Update(TableLeftMsg{TableID: "t1"})

	log := joined(m)
	assert.Contains(t, log, "table_locked")
	assert.Contains(t, log, "No tables open")
	assert.Contains(t, log, "Left table t1")
	assert.Nil(t, m.view.State())

	_, cmd := m.Update(DisconnectedMsg{Err: errors.New("read: EOF")})
	require.NotNil(t, cmd)
	assert.Contains(t, joined(m), "Disconnected")
}

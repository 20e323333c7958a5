package client

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/lobby"
	"github.com/lox/holdemtable/internal/server"
	"github.com/lox/holdemtable/internal/store"
	"github.com/lox/holdemtable/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T) string {
	t.Helper()
	logger := testLogger()
	st := store.NewMemory(logger)
	clock := quartz.NewMock(t)
	l := lobby.New(table.DefaultConfig(), table.Options{
		Clock:  clock,
		Logger: logger,
		Cards:  deck.NewLocalSource(deck.NewRand(3)),
		Store:  st,
	}, account.NewMemory(1000))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.NewServer(ln.Addr().String(), l, st, logger, server.WithClock(clock))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		l.Close()
	})
	return "http://" + ln.Addr().String()
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://poker.example.com/", "wss://poker.example.com/ws"},
		{"ws://localhost:8080/ws", "ws://localhost:8080/ws"},
		{"wss://host/custom", "wss://host/custom"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := websocketURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := websocketURL("ftp://host")
	assert.Error(t, err)
}

func TestClientJoinsAndReceivesSnapshots(t *testing.T) {
	url := startServer(t)

	c := NewClient(url, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	defer c.Close()

	view := NewView("alice", table.DefaultCountdown)
	var applied atomic.Int32
	c.AddEventHandler(server.MessageTypeTableSnapshot, func(msg *server.Message) {
		var data server.TableSnapshotData
		if json.Unmarshal(msg.Data, &data) == nil && view.ApplySnapshot(data.Table, time.Now()) {
			applied.Add(1)
		}
	})

	inbox := make(chan *server.Message, 16)
	for _, typ := range []server.MessageType{server.MessageTypeWelcome, server.MessageTypeError, server.MessageTypeTableLeft} {
		c.AddEventHandler(typ, func(msg *server.Message) { inbox <- msg })
	}
	next := func(typ server.MessageType, out any) {
		t.Helper()
		select {
		case msg := <-inbox:
			require.Equal(t, typ, msg.Type)
			if out != nil {
				require.NoError(t, json.Unmarshal(msg.Data, out))
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for %s", typ)
		}
	}

	require.NoError(t, c.Hello("alice", "Alice"))
	var w server.WelcomeData
	next(server.MessageTypeWelcome, &w)
	assert.Equal(t, 1000, w.Profile.Chips)
	assert.Equal(t, "alice", c.PlayerID())

	require.NoError(t, c.JoinTable(""))
	require.Eventually(t, func() bool { return applied.Load() > 0 }, 3*time.Second, 5*time.Millisecond)

	me, ok := view.Me()
	require.True(t, ok)
	assert.Equal(t, "Alice", me.Nickname)
	_, counting := view.CountdownRemaining(time.Now())
	assert.True(t, counting)

	require.NoError(t, c.Act("check", 0))
	var e server.ErrorData
	next(server.MessageTypeError, &e)
	assert.Equal(t, "hand_not_in_progress", e.Code)

	require.NoError(t, c.LeaveTable())
	next(server.MessageTypeTableLeft, nil)
}

func TestWaitForMessageTimesOut(t *testing.T) {
	url := startServer(t)

	c := NewClient(url, testLogger())
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	_, err := c.WaitForMessage(server.MessageTypeTableList, 50*time.Millisecond)
	assert.Error(t, err)

	require.NoError(t, c.ListTables())
	// the reply may already be gone; a fresh request is answered in time
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = c.ListTables()
	}()
	msg, err := c.WaitForMessage(server.MessageTypeTableList, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, server.MessageTypeTableList, msg.Type)
}

func TestClientCloseEndsConnection(t *testing.T) {
	url := startServer(t)

	c := NewClient(url, testLogger())
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Close())
	select {
	case <-c.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("connection did not shut down")
	}
	assert.False(t, c.IsConnected())
	assert.NoError(t, c.Err())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.Server.URL)
	assert.Equal(t, DefaultResultTTL, cfg.ResultTTL())
	assert.Error(t, cfg.Validate(), "player id is required")

	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(`
server {
  url = "http://cards.example:9000"
}
player {
  id   = "alice"
  name = "Alice"
}
ui {
  log_level          = "debug"
  result_ttl_seconds = 8
}
`)), 0o644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "alice", cfg.Player.ID)
	assert.Equal(t, 8*time.Second, cfg.ResultTTL())
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout())
}

// Package client is the player side of the table protocol: a WebSocket
// connection plus the local view that reconciles pushed snapshots.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/holdemtable/internal/server"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// EventHandler handles one incoming message. Handlers run in arrival order.
type EventHandler func(*server.Message)

// Client represents a WebSocket client for the table server
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	playerID  string
	closeOnce sync.Once
	done      chan struct{}
	err       error

	eventHandlers map[server.MessageType][]EventHandler
}

// NewClient creates a new WebSocket client
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// websocketURL turns an http(s) or ws(s) address into the /ws endpoint
func websocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL scheme: %q", u.Scheme)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	target, err := websocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", target)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	// either pump ending takes the other down with it
	pumpCtx, stop := context.WithCancel(c.ctx)
	g, gctx := errgroup.WithContext(pumpCtx)
	g.Go(func() error {
		defer stop()
		return c.readPump(gctx)
	})
	g.Go(func() error {
		defer stop()
		return c.writePump(gctx)
	})
	go func() {
		err := g.Wait()
		stop()
		c.mu.Lock()
		c.connected = false
		c.err = err
		c.mu.Unlock()
		_ = conn.Close()
		close(c.done)
	}()

	c.logger.Info("Connected to server")
	return nil
}

// Close closes the WebSocket connection
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// Done is closed once the connection has shut down
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns why the connection ended, nil for a clean close
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// SendMessage queues a message for the server
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) readPump(ctx context.Context) error {
	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		c.logger.Debug("Received message", "type", msg.Type)
		c.dispatch(&msg)
	}
}

func (c *Client) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return fmt.Errorf("write: %w", err)
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}

		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// unblock the reader
			_ = c.conn.Close()
			return nil
		}
	}
}

// dispatch hands msg to its handlers on the read goroutine
func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, handler := range handlers {
		handler(msg)
	}
}

// AddEventHandler adds an event handler for a specific message type
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

func (c *Client) sendTyped(messageType server.MessageType, data any) error {
	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		return err
	}
	return c.SendMessage(msg)
}

// Hello identifies the player to the server
func (c *Client) Hello(playerID, nickname string) error {
	c.mu.Lock()
	c.playerID = playerID
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeHello, server.HelloData{PlayerID: playerID, Nickname: nickname})
}

// JoinTable asks for a seat. An empty tableID takes any open table.
func (c *Client) JoinTable(tableID string) error {
	return c.sendTyped(server.MessageTypeJoinTable, server.JoinTableData{TableID: strings.TrimSpace(tableID)})
}

// LeaveTable gives up the current seat
func (c *Client) LeaveTable() error {
	return c.sendTyped(server.MessageTypeLeaveTable, struct{}{})
}

// ListTables requests a list of live tables
func (c *Client) ListTables() error {
	return c.sendTyped(server.MessageTypeListTables, struct{}{})
}

// Act sends a betting decision
func (c *Client) Act(action string, amount int) error {
	return c.sendTyped(server.MessageTypeAction, server.ActionData{Action: action, Amount: amount})
}

// PlayerID returns the id sent in Hello
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// WaitForMessage waits for a specific message type with timeout
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.AddEventHandler(messageType, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

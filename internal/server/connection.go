package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/lobby"
	"github.com/lox/holdemtable/internal/store"
	"github.com/lox/holdemtable/internal/table"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	tableID   string
	cancelSub func()
	lobby     *lobby.Lobby
	store     store.Store
	logger    *log.Logger
	clock     quartz.Clock
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, clock quartz.Clock, l *lobby.Lobby, st store.Store) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		lobby:  l,
		store:  st,
		logger: logger.WithPrefix("conn"),
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "player", c.GetPlayer())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// GetTable returns the table whose snapshots this connection receives
func (c *Connection) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Time allowed for a lobby call that touches the account store
	requestTimeout = 5 * time.Second
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse hello data")
			return
		}
		c.handleHello(data)

	case MessageTypeJoinTable:
		var data JoinTableData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("invalid_message", "Failed to parse join table data")
				return
			}
		}
		c.handleJoinTable(data)

	case MessageTypeLeaveTable:
		c.handleLeaveTable()

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse action data")
			return
		}
		c.handleAction(data)

	case MessageTypeListTables:
		c.reply(MessageTypeTableList, TableListData{Tables: c.lobby.Tables()})

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleHello(data HelloData) {
	if current := c.GetPlayer(); current != "" && current != data.PlayerID {
		c.sendError("already_identified", "Connection already belongs to "+current)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	profile, err := c.lobby.Profile(ctx, data.PlayerID, data.Nickname)
	if err != nil {
		c.sendFailure(err)
		return
	}

	c.SetPlayer(profile.ID)
	c.logger.Info("Player identified", "player", profile.ID, "chips", profile.Chips)
	c.reply(MessageTypeWelcome, WelcomeData{Profile: profile})

	// a reconnecting player picks up their table where they left it
	if t := c.lobby.TableOf(profile.ID); t != nil {
		c.watch(t.ID())
	}
}

func (c *Connection) handleJoinTable(data JoinTableData) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_identified", "Say hello first")
		return
	}
	c.logger.Info("Join table request", "tableId", data.TableID, "player", playerID)

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()

	var (
		t   *table.Table
		err error
	)
	if data.TableID == "" {
		t, err = c.lobby.QuickJoin(ctx, playerID, "")
	} else {
		t, err = c.lobby.JoinTable(ctx, data.TableID, playerID, "")
	}
	if err != nil {
		c.sendFailure(err)
		return
	}

	c.watch(t.ID())
}

func (c *Connection) handleLeaveTable() {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_identified", "Say hello first")
		return
	}
	c.logger.Info("Leave table request", "tableId", c.GetTable(), "player", playerID)

	if err := c.lobby.Leave(playerID); err != nil {
		c.sendFailure(err)
		return
	}

	tableID := c.GetTable()
	c.unwatch()
	c.reply(MessageTypeTableLeft, TableLeftData{TableID: tableID})
}

func (c *Connection) handleAction(data ActionData) {
	playerID := c.GetPlayer()
	if playerID == "" {
		c.sendError("not_identified", "Say hello first")
		return
	}
	c.logger.Debug("Player action", "player", playerID, "action", data.Action, "amount", data.Amount)

	action, err := table.ParseAction(data.Action)
	if err != nil {
		c.sendFailure(err)
		return
	}
	if err := c.lobby.Act(playerID, action, data.Amount); err != nil {
		c.sendFailure(err)
	}
}

// watch subscribes to a table's document, replacing any earlier subscription
func (c *Connection) watch(tableID string) {
	c.mu.Lock()
	if c.tableID == tableID && c.cancelSub != nil {
		c.mu.Unlock()
		return
	}
	previous := c.cancelSub
	c.tableID = tableID
	c.cancelSub = c.store.Subscribe(tableID, c.onChange)
	c.mu.Unlock()

	if previous != nil {
		previous()
	}
}

func (c *Connection) unwatch() {
	c.mu.Lock()
	cancel := c.cancelSub
	c.cancelSub = nil
	c.tableID = ""
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// onChange pushes a table document to the client as this player may see it
func (c *Connection) onChange(change store.Change) {
	if change.Deleted {
		c.mu.Lock()
		if c.tableID == change.ID {
			c.tableID = ""
		}
		c.mu.Unlock()
		return
	}

	state, err := table.Decode(change.Doc)
	if err != nil {
		c.logger.Error("Failed to decode table document", "tableId", change.ID, "error", err)
		return
	}
	snap := Redact(state, c.GetPlayer())
	// serverTime on the wire is the send time, the document keeps its commit time
	snap.ServerTime = c.clock.Now().UTC().Round(0)
	c.reply(MessageTypeTableSnapshot, TableSnapshotData{Table: snap})
}

func (c *Connection) reply(messageType MessageType, data any) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	_ = c.SendMessage(msg) // Ignore send errors
}

// sendFailure reports err with its stable wire code
func (c *Connection) sendFailure(err error) {
	c.sendError(errorCode(err), err.Error())
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.reply(MessageTypeError, ErrorData{Code: code, Message: message})
}

func errorCode(err error) string {
	if code := table.Code(err); code != "" {
		return code
	}
	switch {
	case errors.Is(err, lobby.ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, lobby.ErrAlreadySeated):
		return "already_seated"
	case errors.Is(err, account.ErrInvalidID):
		return "invalid_player"
	default:
		return "internal_error"
	}
}

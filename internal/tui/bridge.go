package tui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/holdemtable/internal/client"
	"github.com/lox/holdemtable/internal/server"
)

// Sender is the part of tea.Program the bridge feeds
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge turns client messages into model messages
type Bridge struct {
	client *client.Client
	out    Sender
	logger *log.Logger
	now    func() time.Time
}

// NewBridge registers handlers on c that forward to out
func NewBridge(c *client.Client, out Sender, logger *log.Logger) *Bridge {
	b := &Bridge{
		client: c,
		out:    out,
		logger: logger.WithPrefix("bridge"),
		now:    time.Now,
	}
	b.setupEventHandlers()
	return b
}

func (b *Bridge) setupEventHandlers() {
	b.client.AddEventHandler(server.MessageTypeWelcome, b.handleWelcome)
	b.client.AddEventHandler(server.MessageTypeTableSnapshot, b.handleSnapshot)
	b.client.AddEventHandler(server.MessageTypeTableLeft, b.handleTableLeft)
	b.client.AddEventHandler(server.MessageTypeTableList, b.handleTableList)
	b.client.AddEventHandler(server.MessageTypeError, b.handleError)
}

// Watch forwards redraw ticks and the end of the connection until ctx is done
func (b *Bridge) Watch(ctx context.Context, ticker *client.Ticker) {
	go ticker.Run(ctx)

	select {
	case <-b.client.Done():
		b.out.Send(DisconnectedMsg{Err: b.client.Err()})
	case <-ctx.Done():
	}
}

func (b *Bridge) handleWelcome(msg *server.Message) {
	var data server.WelcomeData
	if b.decode(msg, &data) {
		b.out.Send(WelcomeMsg{Profile: data.Profile})
	}
}

func (b *Bridge) handleSnapshot(msg *server.Message) {
	receivedAt := b.now()
	var data server.TableSnapshotData
	if b.decode(msg, &data) && data.Table != nil {
		b.out.Send(SnapshotMsg{State: data.Table, ReceivedAt: receivedAt})
	}
}

func (b *Bridge) handleTableLeft(msg *server.Message) {
	var data server.TableLeftData
	if b.decode(msg, &data) {
		b.out.Send(TableLeftMsg{TableID: data.TableID})
	}
}

func (b *Bridge) handleTableList(msg *server.Message) {
	var data server.TableListData
	if b.decode(msg, &data) {
		b.out.Send(TableListMsg{Tables: data.Tables})
	}
}

func (b *Bridge) handleError(msg *server.Message) {
	var data server.ErrorData
	if b.decode(msg, &data) {
		b.out.Send(ServerErrorMsg{Code: data.Code, Message: data.Message})
	}
}

func (b *Bridge) decode(msg *server.Message, out any) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		b.logger.Error("Failed to decode message", "type", msg.Type, "error", err)
		return false
	}
	return true
}

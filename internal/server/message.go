package server

import (
	"encoding/json"
	"time"

	"github.com/lox/holdemtable/internal/account"
	"github.com/lox/holdemtable/internal/lobby"
	"github.com/lox/holdemtable/internal/table"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type HelloData struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname,omitempty"`
}

// JoinTableData asks for a seat. An empty TableID means any open table.
type JoinTableData struct {
	TableID string `json:"tableId,omitempty"`
}

type ActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// Server → Client Messages

type WelcomeData struct {
	Profile account.Profile `json:"profile"`
}

type TableSnapshotData struct {
	Table *table.State `json:"table"`
}

type TableLeftData struct {
	TableID string `json:"tableId"`
}

type TableListData struct {
	Tables []lobby.Summary `json:"tables"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Redact returns a copy of s as viewer may see it. Other seats' hole cards
// are hidden unless they were shown down.
func Redact(s *table.State, viewer string) *table.State {
	out := s.Clone()
	shown := out.Round == table.RoundShowdown && out.LastResult != nil && !out.LastResult.ByFold
	for i := range out.Players {
		p := &out.Players[i]
		if p.UID == viewer {
			continue
		}
		if shown && p.Status != table.SeatFolded {
			continue
		}
		p.Cards = nil
	}
	return out
}

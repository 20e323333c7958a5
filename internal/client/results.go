package client

import (
	"sync"
	"time"

	"github.com/lox/holdemtable/internal/table"
)

// DefaultResultTTL is how long a hand result stays worth showing
const DefaultResultTTL = 5 * time.Second

// ResultFeed surfaces each table result once, and only while it is fresh
type ResultFeed struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]int
}

// NewResultFeed creates a feed that drops results older than ttl
func NewResultFeed(ttl time.Duration) *ResultFeed {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultFeed{ttl: ttl, seen: make(map[string]int)}
}

// Next returns the snapshot's result if it has not been returned before
// and is no older than the ttl at serverNow
func (f *ResultFeed) Next(s *table.State, serverNow time.Time) (*table.Result, bool) {
	if s == nil || s.LastResult == nil {
		return nil, false
	}
	r := s.LastResult

	f.mu.Lock()
	defer f.mu.Unlock()

	if last, ok := f.seen[s.ID]; ok && r.HandNumber <= last {
		return nil, false
	}
	f.seen[s.ID] = r.HandNumber

	if serverNow.Sub(r.At) > f.ttl {
		return nil, false
	}
	return r, true
}

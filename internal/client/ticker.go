package client

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// Ticker calls fn once a second so countdowns redraw between snapshots
type Ticker struct {
	clock quartz.Clock
	every time.Duration
	fn    func(time.Time)
}

// NewTicker creates a one second redraw ticker
func NewTicker(clock quartz.Clock, fn func(time.Time)) *Ticker {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Ticker{clock: clock, every: time.Second, fn: fn}
}

// Run ticks until ctx is done
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(t.every, "client", "redraw")
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			t.fn(now)
		case <-ctx.Done():
			return
		}
	}
}

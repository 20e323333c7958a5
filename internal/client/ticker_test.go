package client

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerRedrawsEverySecond(t *testing.T) {
	clock := quartz.NewMock(t)
	trap := clock.Trap().NewTicker("client", "redraw")
	defer trap.Close()

	ticks := make(chan time.Time, 4)
	ticker := NewTicker(clock, func(now time.Time) { ticks <- now })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker.Run(runCtx)
	}()

	call := trap.MustWait(ctx)
	assert.Equal(t, time.Second, call.Duration)
	call.MustRelease(ctx)

	for range 3 {
		clock.Advance(time.Second).MustWait(ctx)
		select {
		case <-ticks:
		case <-ctx.Done():
			require.FailNow(t, "tick not delivered")
		}
	}

	stop()
	<-done
}

package client

import (
	"testing"
	"time"

	"github.com/lox/holdemtable/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withResult(hand int, at time.Time) *table.State {
	s := snapshot(uint64(hand), at)
	s.LastResult = &table.Result{HandNumber: hand, Pot: 40, At: at}
	return s
}

func TestResultFeedShowsEachResultOnce(t *testing.T) {
	feed := NewResultFeed(5 * time.Second)

	s := withResult(1, t0)
	r, ok := feed.Next(s, t0.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, 1, r.HandNumber)

	_, ok = feed.Next(s, t0.Add(2*time.Second))
	assert.False(t, ok, "already shown")

	r, ok = feed.Next(withResult(2, t0.Add(time.Minute)), t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, 2, r.HandNumber)
}

func TestResultFeedDropsStaleResults(t *testing.T) {
	feed := NewResultFeed(0)

	_, ok := feed.Next(withResult(1, t0), t0.Add(DefaultResultTTL+time.Millisecond))
	assert.False(t, ok)

	r, ok := feed.Next(withResult(2, t0), t0.Add(DefaultResultTTL))
	require.True(t, ok, "exactly at the ttl is still fresh")
	assert.Equal(t, 2, r.HandNumber)
}

func TestResultFeedIgnoresSnapshotsWithoutResult(t *testing.T) {
	feed := NewResultFeed(time.Second)
	_, ok := feed.Next(snapshot(1, t0), t0)
	assert.False(t, ok)
	_, ok = feed.Next(nil, t0)
	assert.False(t, ok)
}

package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownRemaining(t *testing.T) {
	c := DefaultCountdown
	assert.Equal(t, 30, c.Remaining(t0, t0))
	assert.Equal(t, 30, c.Remaining(t0, t0.Add(999*time.Millisecond)))
	assert.Equal(t, 29, c.Remaining(t0, t0.Add(1900*time.Millisecond)))
	assert.Equal(t, 0, c.Remaining(t0, t0.Add(30*time.Second)))
	assert.Equal(t, -5, c.Remaining(t0, t0.Add(35*time.Second)))
}

func TestTickLocksThenStarts(t *testing.T) {
	s := seated(t, 1000, 1000)

	res := s.Tick(DefaultCountdown, t0.Add(24*time.Second))
	assert.Equal(t, TickResult{}, res)
	assert.False(t, s.Locked)

	res = s.Tick(DefaultCountdown, t0.Add(25*time.Second))
	assert.Equal(t, TickResult{Changed: true}, res)
	assert.True(t, s.Locked)

	// a second observer of the lock window changes nothing
	res = s.Tick(DefaultCountdown, t0.Add(26*time.Second))
	assert.Equal(t, TickResult{}, res)
	assert.True(t, s.Locked)

	res = s.Tick(DefaultCountdown, t0.Add(30*time.Second))
	assert.True(t, res.Start)
}

func TestTickIgnoresOtherStates(t *testing.T) {
	s := NewState("t1", 10, 20, MaxSeats)
	assert.Equal(t, TickResult{}, s.Tick(DefaultCountdown, t0.Add(time.Hour)))

	s = seated(t, 1000, 1000)
	require.NoError(t, s.StartGame(shuffled(1)))
	assert.Equal(t, TickResult{}, s.Tick(DefaultCountdown, t0.Add(time.Hour)))

	_, ok := s.CountdownRemaining(DefaultCountdown, t0)
	assert.False(t, ok)
}

func TestCountdownRemainingClamps(t *testing.T) {
	s := seated(t, 1000)

	left, ok := s.CountdownRemaining(DefaultCountdown, t0.Add(12*time.Second))
	require.True(t, ok)
	assert.Equal(t, 18, left)

	left, ok = s.CountdownRemaining(DefaultCountdown, t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, 0, left)
}

func TestRestartCountdown(t *testing.T) {
	s := seated(t, 1000)
	s.Locked = true

	s.QueueLeave("p0")

	later := t0.Add(31 * time.Second)
	removed := s.RestartCountdown(later)

	assert.Equal(t, []string{"p0"}, removed)
	assert.Empty(t, s.Players)
	assert.Empty(t, s.PendingLeaves)
	assert.Equal(t, StatusStarting, s.Status)
	assert.False(t, s.Locked)
	require.NotNil(t, s.CountdownStart)
	assert.Equal(t, later, *s.CountdownStart)
}

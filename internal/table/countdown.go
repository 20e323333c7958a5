package table

import "time"

// Countdown timing for the pre-hand window
type Countdown struct {
	Duration time.Duration
	Lock     time.Duration
}

// DefaultCountdown is the 30 second countdown locked for its last 5 seconds
var DefaultCountdown = Countdown{Duration: 30 * time.Second, Lock: 5 * time.Second}

// Remaining returns whole seconds left: duration - floor((now - start) / 1s)
func (c Countdown) Remaining(start, now time.Time) int {
	return int(c.Duration/time.Second) - int(now.Sub(start)/time.Second)
}

// TickResult reports what a countdown tick changed
type TickResult struct {
	Changed bool
	Start   bool
}

// Tick applies the countdown rules at now. It sets the lock once the
// remaining time enters the lock window and asks for a start at zero.
func (s *State) Tick(c Countdown, now time.Time) TickResult {
	var res TickResult
	if s.Status != StatusStarting || s.CountdownStart == nil {
		return res
	}

	remaining := c.Remaining(*s.CountdownStart, now)
	if remaining <= int(c.Lock/time.Second) && !s.Locked {
		s.Locked = true
		res.Changed = true
	}
	if remaining <= 0 {
		res.Start = true
	}
	return res
}

// CountdownRemaining returns the seconds left on an active countdown
func (s *State) CountdownRemaining(c Countdown, now time.Time) (int, bool) {
	if s.Status != StatusStarting || s.CountdownStart == nil {
		return 0, false
	}
	return max(c.Remaining(*s.CountdownStart, now), 0), true
}

// RestartCountdown puts the table back into the countdown from now. The
// table unlocks, so leaves queued during the lock are applied and returned.
func (s *State) RestartCountdown(now time.Time) (removed []string) {
	removed = s.flushLeaves()
	s.startCountdown(now)
	return removed
}

func (s *State) startCountdown(now time.Time) {
	start := stamp(now)
	s.Status = StatusStarting
	s.Round = RoundWaiting
	s.CountdownStart = &start
	s.Locked = false
	s.CurrentPlayerIndex = NoSeat
}

// stamp normalises a clock reading for the document
func stamp(t time.Time) time.Time {
	return t.UTC().Round(0)
}

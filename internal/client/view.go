package client

import (
	"sync"
	"time"

	"github.com/lox/holdemtable/internal/table"
)

// View is the local picture of one table, rebuilt from full snapshots.
// It never edits the table itself; every derived value comes from the last
// accepted snapshot.
type View struct {
	mu        sync.RWMutex
	playerID  string
	countdown table.Countdown
	state     *table.State
	// offset is serverTime, stamped by the server as it sends the snapshot,
	// minus the local clock when the snapshot arrived
	offset time.Duration
}

// NewView creates an empty view for playerID
func NewView(playerID string, countdown table.Countdown) *View {
	if countdown.Duration <= 0 {
		countdown = table.DefaultCountdown
	}
	return &View{playerID: playerID, countdown: countdown}
}

// ApplySnapshot accepts s unless it is older than the current snapshot.
// An equal version is accepted again so a re-render is harmless.
func (v *View) ApplySnapshot(s *table.State, receivedAt time.Time) bool {
	if s == nil {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != nil && v.state.ID == s.ID && s.Version < v.state.Version {
		return false
	}
	v.state = s
	if !s.ServerTime.IsZero() {
		v.offset = s.ServerTime.Sub(receivedAt)
	}
	return true
}

// Clear forgets the table, after leaving it
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = nil
	v.offset = 0
}

// State returns the last accepted snapshot, or nil
func (v *View) State() *table.State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// PlayerID returns the viewing player
func (v *View) PlayerID() string { return v.playerID }

// Me returns the viewer's seat, if seated
func (v *View) Me() (*table.Seat, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return nil, false
	}
	return v.state.Player(v.playerID)
}

// IsMyTurn reports whether the viewer is due to act
func (v *View) IsMyTurn() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil || !v.state.Round.Betting() {
		return false
	}
	current, ok := v.state.Current()
	return ok && current.UID == v.playerID
}

// ToCall returns the chips the viewer needs to match the current bet
func (v *View) ToCall() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return 0
	}
	return v.state.ToCall(v.playerID)
}

// MinRaise returns the smallest raise the viewer may make
func (v *View) MinRaise() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return 0
	}
	return v.state.MinRaise(v.playerID)
}

// ServerNow estimates the server clock from the local one
func (v *View) ServerNow(localNow time.Time) time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return localNow.Add(v.offset)
}

// CountdownRemaining returns whole seconds before the next hand starts
func (v *View) CountdownRemaining(localNow time.Time) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return 0, false
	}
	return v.state.CountdownRemaining(v.countdown, localNow.Add(v.offset))
}

package table

import (
	"slices"
	"time"

	"github.com/thoas/go-funk"
)

// Join seats uid at the lowest free slot. Joining again is a no-op and
// reports joined=false. The first player to sit at a waiting table starts
// the countdown.
func (s *State) Join(uid, nickname string, chips int, now time.Time) (joined bool, err error) {
	if uid == "" {
		return false, ErrInvalidPlayer
	}
	if _, ok := s.Player(uid); ok {
		return false, nil
	}
	if s.Locked {
		return false, ErrTableLocked
	}
	if chips <= 0 {
		return false, ErrInsufficientChips
	}

	s.resolveUnassigned()

	slot := s.freeSeat()
	if slot == NoSeat {
		return false, ErrTableFull
	}

	if nickname == "" {
		nickname = uid
	}
	s.Players = append(s.Players, Seat{
		UID:      uid,
		Nickname: nickname,
		Seat:     slot,
		Chips:    chips,
		Status:   SeatActive,
	})

	if s.Status == StatusWaiting {
		s.startCountdown(now)
	}
	return true, nil
}

// Leave removes uid from the table. It is refused while the table is locked.
func (s *State) Leave(uid string) (empty bool, err error) {
	if _, ok := s.Player(uid); !ok {
		return len(s.Players) == 0, ErrNotSeated
	}
	if s.Locked {
		return false, ErrTableLocked
	}

	s.remove(uid)
	return len(s.Players) == 0, nil
}

// QueueLeave records that uid should be removed as soon as the table unlocks
func (s *State) QueueLeave(uid string) {
	if _, ok := s.Player(uid); !ok {
		return
	}
	if !slices.Contains(s.PendingLeaves, uid) {
		s.PendingLeaves = append(s.PendingLeaves, uid)
	}
}

// Pending reports whether uid is queued to leave
func (s *State) Pending(uid string) bool {
	return slices.Contains(s.PendingLeaves, uid)
}

// flushLeaves drops queued leavers and seats with no chips left. It returns
// the uids removed.
func (s *State) flushLeaves() []string {
	var gone []string
	for _, p := range s.Players {
		if p.Chips <= 0 || slices.Contains(s.PendingLeaves, p.UID) {
			gone = append(gone, p.UID)
		}
	}
	for _, uid := range gone {
		s.remove(uid)
	}
	s.PendingLeaves = nil
	return gone
}

func (s *State) remove(uid string) {
	s.Players = funk.Filter(s.Players, func(p Seat) bool {
		return p.UID != uid
	}).([]Seat)
	s.PendingLeaves = funk.FilterString(s.PendingLeaves, func(id string) bool {
		return id != uid
	})
}

// freeSeat returns the lowest slot no seat record holds
func (s *State) freeSeat() int {
	taken := s.Occupied()
	for n := 0; n < s.MaxSeats; n++ {
		if !funk.ContainsInt(taken, n) {
			return n
		}
	}
	return NoSeat
}

// resolveUnassigned gives every Unseated record the lowest free slot. Records
// that cannot be placed are dropped.
func (s *State) resolveUnassigned() {
	var overflow []string
	for i := range s.Players {
		if s.Players[i].Seat != Unseated {
			continue
		}
		slot := s.freeSeat()
		if slot == NoSeat {
			overflow = append(overflow, s.Players[i].UID)
			continue
		}
		s.Players[i].Seat = slot
	}
	for _, uid := range overflow {
		s.remove(uid)
	}
}

// Seated returns the number of seat records at the table
func (s *State) Seated() int {
	return len(s.Players)
}

// Open reports whether a new player could sit down right now
func (s *State) Open() bool {
	return !s.Locked && s.Status != StatusPlaying && len(s.Players) < s.MaxSeats
}

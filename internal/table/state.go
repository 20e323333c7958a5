// Package table holds the Hold'em table document and the rules that move it
// from one state to the next.
//
// State transitions are plain methods on *State. They are deterministic
// given the cards they are handed, so they can be exercised without any
// goroutines. Table wraps a State in a single-writer actor: every change is
// computed on a clone and committed only when the whole transition succeeds.
package table

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/evaluator"
)

const (
	// MaxSeats is the largest number of seats a table can hold
	MaxSeats = 6

	// Unseated marks a seat record that has not been given a slot yet
	Unseated = -1

	// NoSeat is the currentPlayerIndex when nobody is due to act
	NoSeat = -1
)

// Seat is one joined player's slot plus its per-hand and per-round fields
type Seat struct {
	UID               string      `json:"uid"`
	Nickname          string      `json:"nickname"`
	Seat              int         `json:"seat"`
	Chips             int         `json:"chips"`
	Cards             []deck.Card `json:"cards"`
	Bet               int         `json:"bet"`
	TotalContribution int         `json:"totalContribution"`
	Status            SeatStatus  `json:"status"`
	IsDealer          bool        `json:"isDealer"`
	IsSmallBlind      bool        `json:"isSmallBlind"`
	IsBigBlind        bool        `json:"isBigBlind"`
	HasActed          bool        `json:"hasActed"`
}

// InHand reports whether the seat holds cards and has not folded
func (s *Seat) InHand() bool {
	return s.Status != SeatFolded && len(s.Cards) == 2
}

// CanAct reports whether the seat still makes betting decisions this hand
func (s *Seat) CanAct() bool {
	return s.Status == SeatActive && len(s.Cards) == 2
}

// Award is a share of a pot paid to one seat
type Award struct {
	UID      string `json:"uid"`
	Nickname string `json:"nickname"`
	Seat     int    `json:"seat"`
	Amount   int    `json:"amount"`
}

// ShownHand is a contender's evaluated hand at showdown
type ShownHand struct {
	UID   string         `json:"uid"`
	Seat  int            `json:"seat"`
	Cards []deck.Card    `json:"cards"`
	Hand  evaluator.Hand `json:"hand"`
}

// Result is the showdown notification published with the table
type Result struct {
	HandNumber int         `json:"handNumber"`
	ByFold     bool        `json:"byFold"`
	Pot        int         `json:"pot"`
	Board      []deck.Card `json:"board"`
	Winners    []Award     `json:"winners"`
	Hands      []ShownHand `json:"hands,omitempty"`
	At         time.Time   `json:"at"`
}

// Won returns the total amount uid collected
func (r *Result) Won(uid string) int {
	total := 0
	for _, w := range r.Winners {
		if w.UID == uid {
			total += w.Amount
		}
	}
	return total
}

// State is the shared table document
type State struct {
	ID                 string      `json:"id"`
	Version            uint64      `json:"version"`
	Status             Status      `json:"status"`
	Locked             bool        `json:"locked"`
	CountdownStart     *time.Time  `json:"countdownStart"`
	Round              Round       `json:"round"`
	CommunityCards     []deck.Card `json:"communityCards"`
	Pot                int         `json:"pot"`
	CurrentBet         int         `json:"currentBet"`
	DealerPosition     int         `json:"dealerPosition"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	SmallBlind         int         `json:"smallBlind"`
	BigBlind           int         `json:"bigBlind"`
	MaxSeats           int         `json:"maxSeats"`
	HandNumber         int         `json:"handNumber"`
	Players            []Seat      `json:"players"`
	PendingLeaves      []string    `json:"pendingLeaves,omitempty"`
	LastResult         *Result     `json:"lastResult,omitempty"`
	ServerTime         time.Time   `json:"serverTime"`
}

// NewState returns an empty waiting table
func NewState(id string, smallBlind, bigBlind, maxSeats int) *State {
	if maxSeats <= 0 || maxSeats > MaxSeats {
		maxSeats = MaxSeats
	}
	return &State{
		ID:                 id,
		Status:             StatusWaiting,
		Round:              RoundWaiting,
		CurrentPlayerIndex: NoSeat,
		SmallBlind:         smallBlind,
		BigBlind:           bigBlind,
		MaxSeats:           maxSeats,
		Players:            []Seat{},
	}
}

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	c := *s
	if s.CountdownStart != nil {
		t := *s.CountdownStart
		c.CountdownStart = &t
	}
	c.CommunityCards = slices.Clone(s.CommunityCards)
	c.PendingLeaves = slices.Clone(s.PendingLeaves)
	c.Players = make([]Seat, len(s.Players))
	for i, p := range s.Players {
		p.Cards = slices.Clone(p.Cards)
		c.Players[i] = p
	}
	if s.LastResult != nil {
		r := *s.LastResult
		r.Board = slices.Clone(r.Board)
		r.Winners = slices.Clone(r.Winners)
		r.Hands = slices.Clone(r.Hands)
		for i, h := range r.Hands {
			h.Cards = slices.Clone(h.Cards)
			h.Hand.Tiebreak = slices.Clone(h.Hand.Tiebreak)
			h.Hand.Best = slices.Clone(h.Hand.Best)
			r.Hands[i] = h
		}
		c.LastResult = &r
	}
	return &c
}

// Encode serialises the document
func Encode(s *State) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a document produced by Encode
func Decode(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Players == nil {
		s.Players = []Seat{}
	}
	return &s, nil
}

// Player returns the seat record for uid
func (s *State) Player(uid string) (*Seat, bool) {
	for i := range s.Players {
		if s.Players[i].UID == uid {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// AtSeat returns the seat record occupying slot n
func (s *State) AtSeat(n int) (*Seat, bool) {
	if n < 0 {
		return nil, false
	}
	for i := range s.Players {
		if s.Players[i].Seat == n {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// Current returns the seat whose action is awaited
func (s *State) Current() (*Seat, bool) {
	return s.AtSeat(s.CurrentPlayerIndex)
}

// Occupied returns the assigned seat numbers in ascending order
func (s *State) Occupied() []int {
	seats := make([]int, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Seat >= 0 {
			seats = append(seats, p.Seat)
		}
	}
	sort.Ints(seats)
	return seats
}

// DealerSeat returns the seat holding the button, or NoSeat
func (s *State) DealerSeat() int {
	for _, p := range s.Players {
		if p.IsDealer {
			return p.Seat
		}
	}
	return NoSeat
}

// nextSeat walks the slots clockwise after from and returns the first
// seat matching ok, or NoSeat. from itself is checked last.
func (s *State) nextSeat(from int, ok func(*Seat) bool) int {
	for i := 1; i <= s.MaxSeats; i++ {
		n := (from + i) % s.MaxSeats
		if n < 0 {
			n += s.MaxSeats
		}
		if p, found := s.AtSeat(n); found && ok(p) {
			return n
		}
	}
	return NoSeat
}

// contenders returns the seats still in the hand, in seat order
func (s *State) contenders() []*Seat {
	var out []*Seat
	for _, n := range s.Occupied() {
		p, _ := s.AtSeat(n)
		if p.InHand() {
			out = append(out, p)
		}
	}
	return out
}

func (s *State) actors() []*Seat {
	var out []*Seat
	for i := range s.Players {
		if s.Players[i].CanAct() {
			out = append(out, &s.Players[i])
		}
	}
	return out
}

// PotTotal returns the sum of every seat's contribution this hand
func (s *State) PotTotal() int {
	total := 0
	for _, p := range s.Players {
		total += p.TotalContribution
	}
	return total
}

// ToCall returns the chips uid needs to match the current bet
func (s *State) ToCall(uid string) int {
	p, ok := s.Player(uid)
	if !ok {
		return 0
	}
	return max(s.CurrentBet-p.Bet, 0)
}

// MinRaise returns the smallest legal raise for uid
func (s *State) MinRaise(uid string) int {
	return max(s.BigBlind, s.ToCall(uid)+s.BigBlind)
}

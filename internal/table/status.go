package table

import "fmt"

// Status is the table lifecycle state
type Status int

const (
	StatusWaiting Status = iota
	StatusStarting
	StatusPlaying
)

var statusNames = map[Status]string{
	StatusWaiting:  "waiting",
	StatusStarting: "starting",
	StatusPlaying:  "playing",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("table: invalid status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("table: unknown status %q", text)
}

// Round is the betting phase of the current hand
type Round int

const (
	RoundWaiting Round = iota
	RoundPreflop
	RoundFlop
	RoundTurn
	RoundRiver
	RoundShowdown
)

var roundNames = map[Round]string{
	RoundWaiting:  "waiting",
	RoundPreflop:  "preflop",
	RoundFlop:     "flop",
	RoundTurn:     "turn",
	RoundRiver:    "river",
	RoundShowdown: "showdown",
}

func (r Round) String() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r Round) MarshalText() ([]byte, error) {
	name, ok := roundNames[r]
	if !ok {
		return nil, fmt.Errorf("table: invalid round %d", int(r))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Round) UnmarshalText(text []byte) error {
	for k, v := range roundNames {
		if v == string(text) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("table: unknown round %q", text)
}

// Betting reports whether the round takes player actions
func (r Round) Betting() bool {
	return r >= RoundPreflop && r <= RoundRiver
}

// boardSize is the number of community cards showing during r
func (r Round) boardSize() int {
	switch r {
	case RoundFlop:
		return 3
	case RoundTurn:
		return 4
	case RoundRiver, RoundShowdown:
		return 5
	default:
		return 0
	}
}

// SeatStatus is a seat's standing in the current hand
type SeatStatus int

const (
	SeatActive SeatStatus = iota
	SeatFolded
	SeatAllIn
)

var seatStatusNames = map[SeatStatus]string{
	SeatActive: "active",
	SeatFolded: "folded",
	SeatAllIn:  "allin",
}

func (s SeatStatus) String() string {
	if name, ok := seatStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SeatStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s SeatStatus) MarshalText() ([]byte, error) {
	name, ok := seatStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("table: invalid seat status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SeatStatus) UnmarshalText(text []byte) error {
	for k, v := range seatStatusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("table: unknown seat status %q", text)
}

// Action is a betting decision
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
)

var actionNames = map[Action]string{
	Fold:  "fold",
	Check: "check",
	Call:  "call",
	Raise: "raise",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction converts a wire action name into an Action
func ParseAction(name string) (Action, error) {
	for k, v := range actionNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

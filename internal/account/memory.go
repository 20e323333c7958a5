package account

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps profiles in process
type Memory struct {
	mu            sync.Mutex
	profiles      map[string]*Profile
	startingChips int
}

// NewMemory creates an empty in-memory store
func NewMemory(startingChips int) *Memory {
	if startingChips <= 0 {
		startingChips = DefaultStartingChips
	}
	return &Memory{
		profiles:      make(map[string]*Profile),
		startingChips: startingChips,
	}
}

func (m *Memory) Load(_ context.Context, id, nickname string) (Profile, error) {
	if err := validID(id); err != nil {
		return Profile{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		p = &Profile{ID: id, Nickname: id, Chips: m.startingChips}
		m.profiles[id] = p
	}
	if nickname != "" {
		p.Nickname = nickname
	}
	if p.Chips <= 0 {
		p.Chips = m.startingChips
	}
	return *p, nil
}

func (m *Memory) Settle(_ context.Context, id string, chips int, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.Chips = chips
	p.Stats.HandsPlayed++
	if won {
		p.Stats.HandsWon++
	}
	return nil
}

func (m *Memory) Close() error { return nil }

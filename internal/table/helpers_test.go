package table

import (
	"fmt"
	rand "math/rand/v2"
	"testing"
	"time"

	"github.com/lox/holdemtable/internal/deck"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

// seated returns a starting table with one player per stack, uids p0..pn
// in seats 0..n
func seated(t *testing.T, chips ...int) *State {
	t.Helper()
	s := NewState("t1", 10, 20, MaxSeats)
	for i, c := range chips {
		joined, err := s.Join(fmt.Sprintf("p%d", i), fmt.Sprintf("Player %d", i), c, t0)
		require.NoError(t, err)
		require.True(t, joined)
	}
	return s
}

// stacked deals exactly the listed cards in order
func stacked(codes ...string) Dealer {
	cards := deck.MustParseCards(codes...)
	return Dealer{
		Now: t0,
		Draw: func(n int) ([]deck.Card, error) {
			if n > len(cards) {
				return nil, deck.ErrDeckExhausted
			}
			out := cards[:n]
			cards = cards[n:]
			return out, nil
		},
	}
}

// shuffled deals from seeded decks, starting a new deck when one runs out
func shuffled(seed int64) Dealer {
	rng := deck.NewRand(seed)
	d := deck.New(rng)
	return Dealer{
		Now: t0,
		Draw: func(n int) ([]deck.Card, error) {
			if d.Remaining() < n {
				d = deck.New(rng)
			}
			return d.Draw(n)
		},
	}
}

func act(t *testing.T, s *State, d Dealer, uid string, action Action, amount int) {
	t.Helper()
	require.NoError(t, s.Act(uid, action, amount, d), "%s %s %d", uid, action, amount)
}

func totalChips(s *State) int {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Chips
	}
	return total
}

// randomAction picks a plausible decision for the seat to act
func randomAction(rng *rand.Rand, s *State, p *Seat) (Action, int) {
	switch n := rng.IntN(10); {
	case n == 0:
		return Fold, 0
	case n < 6:
		if s.ToCall(p.UID) == 0 {
			return Check, 0
		}
		return Call, 0
	case n < 9:
		return Raise, min(s.MinRaise(p.UID), p.Chips)
	default:
		return Raise, p.Chips
	}
}

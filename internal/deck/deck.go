package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrDeckExhausted is returned when a draw asks for more cards than remain
var ErrDeckExhausted = errors.New("deck: exhausted")

// Deck is an ordered, shuffled run of unique cards. Not safe for concurrent use.
type Deck struct {
	cards []Card
}

// Standard returns the 52 cards in suit then rank order
func Standard() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// New builds a standard deck and shuffles it with rng
func New(rng *rand.Rand) *Deck {
	return NewFrom(Standard(), rng)
}

// NewFrom builds a deck from cards (copied) and shuffles it with rng
func NewFrom(cards []Card, rng *rand.Rand) *Deck {
	d := &Deck{cards: append([]Card(nil), cards...)}
	d.Shuffle(rng)
	return d
}

// Shuffle applies a Fisher–Yates permutation to the remaining cards
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top n cards
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deck: negative draw %d", n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, len(d.cards))
	}

	drawn := make([]Card, n)
	copy(drawn, d.cards[:n])
	d.cards = d.cards[n:]
	return drawn, nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Without returns the cards of all that are not in exclude
func Without(all, exclude []Card) []Card {
	skip := make(map[Card]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}

	kept := make([]Card, 0, len(all))
	for _, c := range all {
		if _, ok := skip[c]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}

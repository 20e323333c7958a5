package deck

import (
	"context"
	rand "math/rand/v2"
	"sync"
)

// Source hands out shoes. A table takes a fresh shoe for every hand so no
// card can leak from one hand into the next.
type Source interface {
	NewShoe(ctx context.Context) (Shoe, error)
}

// Shoe deals cards without replacement for the lifetime of one hand
type Shoe interface {
	Draw(ctx context.Context, n int) ([]Card, error)
}

// LocalSource shuffles decks in process
type LocalSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalSource creates a source backed by rng. A nil rng uses runtime entropy.
func NewLocalSource(rng *rand.Rand) *LocalSource {
	if rng == nil {
		rng = NewEntropyRand()
	}
	return &LocalSource{rng: rng}
}

// NewShoe returns a freshly shuffled 52-card shoe
func (s *LocalSource) NewShoe(context.Context) (Shoe, error) {
	return s.shoeWithout(nil), nil
}

// shoeWithout shuffles every standard card not listed in dealt
func (s *LocalSource) shoeWithout(dealt []Card) *localShoe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &localShoe{deck: NewFrom(Without(Standard(), dealt), s.rng)}
}

type localShoe struct {
	deck *Deck
}

func (s *localShoe) Draw(_ context.Context, n int) ([]Card, error) {
	return s.deck.Draw(n)
}

// Package evaluator ranks Texas Hold'em hands.
//
// Evaluate picks the best five cards out of five to seven and returns a
// category plus a tiebreak vector. Two hands compare lexicographically over
// [category, tiebreak...]; equal vectors are an exact tie.
package evaluator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/holdemtable/internal/deck"
)

var (
	ErrCardCount     = errors.New("evaluator: need 5 to 7 cards")
	ErrDuplicateCard = errors.New("evaluator: duplicate card")
	ErrInvalidCard   = errors.New("evaluator: invalid card")
)

// Evaluate returns the best five-card hand that can be made from cards
func Evaluate(cards []deck.Card) (Hand, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return Hand{}, fmt.Errorf("%w: got %d", ErrCardCount, len(cards))
	}

	seen := make(map[deck.Card]bool, len(cards))
	for _, c := range cards {
		if !c.Valid() {
			return Hand{}, fmt.Errorf("%w: %+v", ErrInvalidCard, c)
		}
		if seen[c] {
			return Hand{}, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = true
	}

	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b deck.Card) int {
		if a.Rank != b.Rank {
			return int(b.Rank) - int(a.Rank)
		}
		return int(a.Suit) - int(b.Suit)
	})

	counts := make(map[deck.Rank]int)
	bySuit := make(map[deck.Suit][]deck.Card)
	for _, c := range sorted {
		counts[c.Rank]++
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	var flush []deck.Card
	for _, s := range deck.Suits {
		if len(bySuit[s]) >= 5 {
			flush = bySuit[s]
		}
	}

	if flush != nil {
		if high := straightHigh(flush); high > 0 {
			return build(StraightFlush, []int{high}, straightCards(flush, high)), nil
		}
	}

	var quads, trips, pairs []deck.Rank
	for r := deck.Ace; r >= deck.Two; r-- {
		switch counts[r] {
		case 4:
			quads = append(quads, r)
		case 3:
			trips = append(trips, r)
		case 2:
			pairs = append(pairs, r)
		}
	}

	if len(quads) > 0 {
		q := quads[0]
		kick := kickers(sorted, 1, q)
		best := append(ofRank(sorted, q, 4), kick...)
		return build(FourOfAKind, ranks(kick...).prepend(int(q)), best), nil
	}

	if len(trips) > 0 && (len(trips) > 1 || len(pairs) > 0) {
		t := trips[0]
		var p deck.Rank
		if len(trips) > 1 {
			p = trips[1]
		}
		if len(pairs) > 0 && pairs[0] > p {
			p = pairs[0]
		}
		best := append(ofRank(sorted, t, 3), ofRank(sorted, p, 2)...)
		return build(FullHouse, []int{int(t), int(p)}, best), nil
	}

	if flush != nil {
		best := flush[:5]
		return build(Flush, ranks(best...), best), nil
	}

	if high := straightHigh(sorted); high > 0 {
		return build(Straight, []int{high}, straightCards(sorted, high)), nil
	}

	if len(trips) > 0 {
		t := trips[0]
		kick := kickers(sorted, 2, t)
		best := append(ofRank(sorted, t, 3), kick...)
		return build(ThreeOfAKind, ranks(kick...).prepend(int(t)), best), nil
	}

	if len(pairs) >= 2 {
		hi, lo := pairs[0], pairs[1]
		kick := kickers(sorted, 1, hi, lo)
		best := append(append(ofRank(sorted, hi, 2), ofRank(sorted, lo, 2)...), kick...)
		return build(TwoPair, ranks(kick...).prepend(int(hi), int(lo)), best), nil
	}

	if len(pairs) == 1 {
		p := pairs[0]
		kick := kickers(sorted, 3, p)
		best := append(ofRank(sorted, p, 2), kick...)
		return build(OnePair, ranks(kick...).prepend(int(p)), best), nil
	}

	best := sorted[:5]
	return build(HighCard, ranks(best...), best), nil
}

// MustEvaluate is Evaluate that panics on error. Intended for tests.
func MustEvaluate(cards []deck.Card) Hand {
	h, err := Evaluate(cards)
	if err != nil {
		panic(err)
	}
	return h
}

func build(c Category, tiebreak []int, best []deck.Card) Hand {
	return Hand{
		Category: c,
		Tiebreak: tiebreak,
		Label:    label(c, tiebreak),
		Best:     slices.Clone(best),
	}
}

type rankList []int

func ranks(cards ...deck.Card) rankList {
	out := make(rankList, len(cards))
	for i, c := range cards {
		out[i] = int(c.Rank)
	}
	return out
}

func (l rankList) prepend(head ...int) []int {
	return append(head, l...)
}

// straightHigh returns the top rank of the highest five-card run in cards,
// counting the ace as both 14 and 1, or 0 when there is none.
func straightHigh(cards []deck.Card) int {
	var present [15]bool
	for _, c := range cards {
		present[c.Rank] = true
		if c.Rank == deck.Ace {
			present[1] = true
		}
	}

	for high := int(deck.Ace); high >= 5; high-- {
		run := true
		for r := high; r > high-5; r-- {
			if !present[r] {
				run = false
				break
			}
		}
		if run {
			return high
		}
	}
	return 0
}

// straightCards picks one card per rank of the run ending at high.
// cards must be sorted by descending rank.
func straightCards(cards []deck.Card, high int) []deck.Card {
	out := make([]deck.Card, 0, 5)
	for r := high; r > high-5; r-- {
		want := deck.Rank(r)
		if r == 1 {
			want = deck.Ace
		}
		for _, c := range cards {
			if c.Rank == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func ofRank(cards []deck.Card, r deck.Rank, n int) []deck.Card {
	out := make([]deck.Card, 0, n)
	for _, c := range cards {
		if c.Rank == r && len(out) < n {
			out = append(out, c)
		}
	}
	return out
}

// kickers returns the n highest cards whose rank is not excluded
func kickers(cards []deck.Card, n int, exclude ...deck.Rank) []deck.Card {
	out := make([]deck.Card, 0, n)
	for _, c := range cards {
		if len(out) == n {
			break
		}
		if !slices.Contains(exclude, c.Rank) {
			out = append(out, c)
		}
	}
	return out
}

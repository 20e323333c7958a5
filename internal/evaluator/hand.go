package evaluator

import (
	"fmt"
	"strings"

	"github.com/lox/holdemtable/internal/deck"
)

// Category is the class of a five-card poker hand. Higher is stronger.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the string representation of a category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// Hand is the evaluation of the best five cards out of five to seven
type Hand struct {
	Category Category    `json:"category"`
	Tiebreak []int       `json:"tiebreak"`
	Label    string      `json:"label"`
	Best     []deck.Card `json:"best"`
}

// Vector returns [category, tiebreak...], the full ordering key of the hand
func (h Hand) Vector() []int {
	return append([]int{int(h.Category)}, h.Tiebreak...)
}

// String returns a string representation of the hand
func (h Hand) String() string {
	return fmt.Sprintf("%s [%s]", h.Label, strings.Join(deck.Codes(h.Best), " "))
}

// Compare orders two hands lexicographically over their vectors:
// -1 if a is weaker than b
//
//	0 if a ties b
//	1 if a is stronger than b
func Compare(a, b Hand) int {
	va, vb := a.Vector(), b.Vector()
	for i := 0; i < len(va) && i < len(vb); i++ {
		switch {
		case va[i] < vb[i]:
			return -1
		case va[i] > vb[i]:
			return 1
		}
	}
	switch {
	case len(va) < len(vb):
		return -1
	case len(va) > len(vb):
		return 1
	}
	return 0
}

// Beats reports whether h is strictly stronger than other
func (h Hand) Beats(other Hand) bool {
	return Compare(h, other) > 0
}

var rankNames = map[deck.Rank][2]string{
	deck.Two:   {"Two", "Twos"},
	deck.Three: {"Three", "Threes"},
	deck.Four:  {"Four", "Fours"},
	deck.Five:  {"Five", "Fives"},
	deck.Six:   {"Six", "Sixes"},
	deck.Seven: {"Seven", "Sevens"},
	deck.Eight: {"Eight", "Eights"},
	deck.Nine:  {"Nine", "Nines"},
	deck.Ten:   {"Ten", "Tens"},
	deck.Jack:  {"Jack", "Jacks"},
	deck.Queen: {"Queen", "Queens"},
	deck.King:  {"King", "Kings"},
	deck.Ace:   {"Ace", "Aces"},
}

func one(r int) string  { return rankNames[deck.Rank(r)][0] }
func many(r int) string { return rankNames[deck.Rank(r)][1] }

func label(c Category, tb []int) string {
	switch c {
	case StraightFlush:
		if tb[0] == int(deck.Ace) {
			return "Royal Flush"
		}
		return fmt.Sprintf("Straight Flush, %s High", one(tb[0]))
	case FourOfAKind:
		return "Four of a Kind, " + many(tb[0])
	case FullHouse:
		return fmt.Sprintf("Full House, %s over %s", many(tb[0]), many(tb[1]))
	case Flush:
		return fmt.Sprintf("Flush, %s High", one(tb[0]))
	case Straight:
		return fmt.Sprintf("Straight, %s High", one(tb[0]))
	case ThreeOfAKind:
		return "Three of a Kind, " + many(tb[0])
	case TwoPair:
		return fmt.Sprintf("Two Pair, %s and %s", many(tb[0]), many(tb[1]))
	case OnePair:
		return "Pair of " + many(tb[0])
	default:
		return "High Card, " + one(tb[0])
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/lox/holdemtable/internal/deck"
	"github.com/lox/holdemtable/internal/evaluator"
)

// EvalCmd prints the best hand made from the given cards
type EvalCmd struct {
	Cards  []string `arg:"" help:"Card codes such as AS KD 10H 2C"`
	Images bool     `help:"Also print the deck API image for each card of the best hand"`
	APIURL string   `name:"api-url" default:"${deck_api}" help:"Deck API base URL for --images"`
}

func (c *EvalCmd) Run() error {
	cards, err := deck.ParseCards(c.Cards...)
	if err != nil {
		return err
	}
	hand, err := evaluator.Evaluate(cards)
	if err != nil {
		return err
	}

	fmt.Println(formatEval(hand))
	if c.Images {
		fmt.Println(formatImages(c.APIURL, hand.Best))
	}
	return nil
}

func formatEval(h evaluator.Hand) string {
	vector := make([]string, len(h.Vector()))
	for i, v := range h.Vector() {
		vector[i] = fmt.Sprint(v)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", h.Category)
	fmt.Fprintf(&b, "Hand:     %s\n", h.Label)
	fmt.Fprintf(&b, "Best:     %s\n", strings.Join(deck.Codes(h.Best), " "))
	fmt.Fprintf(&b, "Tiebreak: [%s]", strings.Join(vector, " "))
	return b.String()
}

func formatImages(apiURL string, cards []deck.Card) string {
	lines := make([]string, len(cards))
	for i, card := range cards {
		lines[i] = fmt.Sprintf("%-3s %s", card, deck.ImageURL(apiURL, card))
	}
	return strings.Join(lines, "\n")
}

package table

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/lox/holdemtable/internal/evaluator"
)

// Pot is one layer of the pot and the seats that can win it
type Pot struct {
	Amount   int
	Eligible []*Seat
}

// Pots splits the chips committed this hand into contribution-capped
// layers. Each layer is contested only by the seats that covered it.
// Chips from folded seats above the top layer go to the last pot.
func (s *State) Pots() []Pot {
	alive := s.contenders()

	var levels []int
	for _, p := range alive {
		if p.TotalContribution > 0 && !slices.Contains(levels, p.TotalContribution) {
			levels = append(levels, p.TotalContribution)
		}
	}
	sort.Ints(levels)

	var pots []Pot
	prev, collected := 0, 0
	for _, level := range levels {
		amount := 0
		for _, p := range s.Players {
			amount += min(max(p.TotalContribution-prev, 0), level-prev)
		}

		var eligible []*Seat
		for _, p := range alive {
			if p.TotalContribution >= level {
				eligible = append(eligible, p)
			}
		}

		pots = append(pots, Pot{Amount: amount, Eligible: eligible})
		collected += amount
		prev = level
	}

	if rest := s.PotTotal() - collected; rest > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += rest
	}
	return pots
}

// showdown settles the hand: a lone survivor takes everything, otherwise
// each pot goes to its best eligible hands. Odd chips go one at a time to
// the winners closest to the left of the button.
func (s *State) showdown(now time.Time) error {
	res := &Result{
		HandNumber: s.HandNumber,
		Pot:        s.Pot,
		Board:      slices.Clone(s.CommunityCards),
		At:         stamp(now),
	}

	alive := s.contenders()
	if len(alive) == 1 {
		res.ByFold = true
		s.pay(res, alive[0], s.Pot)
	} else {
		hands := make(map[string]evaluator.Hand, len(alive))
		for _, p := range alive {
			h, err := evaluator.Evaluate(append(slices.Clone(p.Cards), s.CommunityCards...))
			if err != nil {
				return fmt.Errorf("table: evaluate seat %d: %w", p.Seat, err)
			}
			hands[p.UID] = h
			res.Hands = append(res.Hands, ShownHand{
				UID:   p.UID,
				Seat:  p.Seat,
				Cards: slices.Clone(p.Cards),
				Hand:  h,
			})
		}

		for _, pot := range s.Pots() {
			winners := bestHands(pot.Eligible, hands)
			s.orderFromButton(winners)

			share, odd := pot.Amount/len(winners), pot.Amount%len(winners)
			for i, w := range winners {
				amount := share
				if i < odd {
					amount++
				}
				s.pay(res, w, amount)
			}
		}
	}

	s.Round = RoundShowdown
	s.CurrentPlayerIndex = NoSeat
	s.Locked = false
	s.Pot = 0
	s.CurrentBet = 0
	for i := range s.Players {
		s.Players[i].Bet = 0
		s.Players[i].TotalContribution = 0
	}
	s.LastResult = res
	return nil
}

func bestHands(eligible []*Seat, hands map[string]evaluator.Hand) []*Seat {
	var best []*Seat
	for _, p := range eligible {
		if len(best) == 0 {
			best = []*Seat{p}
			continue
		}
		switch evaluator.Compare(hands[p.UID], hands[best[0].UID]) {
		case 1:
			best = []*Seat{p}
		case 0:
			best = append(best, p)
		}
	}
	return best
}

// orderFromButton sorts seats clockwise starting left of the dealer
func (s *State) orderFromButton(seats []*Seat) {
	button := s.DealerSeat()
	distance := func(p *Seat) int {
		return (p.Seat - button - 1 + 2*s.MaxSeats) % s.MaxSeats
	}
	sort.SliceStable(seats, func(i, j int) bool {
		return distance(seats[i]) < distance(seats[j])
	})
}

func (s *State) pay(res *Result, p *Seat, amount int) {
	if amount <= 0 {
		return
	}
	p.Chips += amount
	for i := range res.Winners {
		if res.Winners[i].UID == p.UID {
			res.Winners[i].Amount += amount
			return
		}
	}
	res.Winners = append(res.Winners, Award{
		UID:      p.UID,
		Nickname: p.Nickname,
		Seat:     p.Seat,
		Amount:   amount,
	})
}

package table

import (
	"slices"
	"time"

	"github.com/lox/holdemtable/internal/deck"
)

// Dealer supplies the cards and the clock reading a transition needs
type Dealer struct {
	Draw func(n int) ([]deck.Card, error)
	Now  time.Time
}

// StartGame begins a hand: seats the button and blinds from dealerPosition,
// posts blinds, deals two cards to every seat and sets the first actor.
// It is valid from the countdown or from a finished showdown.
func (s *State) StartGame(d Dealer) error {
	switch {
	case s.Status == StatusPlaying && s.Round.Betting():
		return ErrHandInProgress
	case s.Status == StatusWaiting:
		return ErrNotEnoughPlayers
	}

	s.resolveUnassigned()
	occupied := s.Occupied()
	n := len(occupied)
	if n < 2 {
		return ErrNotEnoughPlayers
	}

	s.clearHand()

	s.DealerPosition = ((s.DealerPosition % n) + n) % n
	dealer := occupied[s.DealerPosition]
	sb := occupied[(s.DealerPosition+1)%n]
	bb := occupied[(s.DealerPosition+2)%n]
	if n == 2 {
		// heads-up: the button posts the small blind
		sb, bb = dealer, occupied[(s.DealerPosition+1)%n]
	}

	cards, err := d.Draw(2 * n)
	if err != nil {
		return err
	}
	for i := 1; i <= n; i++ {
		p, _ := s.AtSeat(occupied[(s.DealerPosition+i)%n])
		p.Cards = slices.Clone(cards[2*(i-1) : 2*i])
	}

	button, _ := s.AtSeat(dealer)
	button.IsDealer = true
	small, _ := s.AtSeat(sb)
	small.IsSmallBlind = true
	big, _ := s.AtSeat(bb)
	big.IsBigBlind = true

	s.commit(small, min(s.SmallBlind, small.Chips))
	s.commit(big, min(s.BigBlind, big.Chips))
	s.recomputeCurrentBet()

	s.Status = StatusPlaying
	s.Round = RoundPreflop
	s.Locked = true
	s.CountdownStart = nil
	s.HandNumber++
	s.CurrentPlayerIndex = s.nextSeat(bb, (*Seat).CanAct)

	return s.progress(d)
}

// Act applies one betting decision from uid. raise amounts are the chips
// added to the seat's bet, at least max(bigBlind, toCall+bigBlind). A raise
// of the whole stack is accepted below the minimum as an all-in.
func (s *State) Act(uid string, action Action, amount int, d Dealer) error {
	if s.Status != StatusPlaying || !s.Round.Betting() {
		return ErrHandNotInProgress
	}
	p, ok := s.Player(uid)
	if !ok {
		return ErrNotSeated
	}
	if p.Seat != s.CurrentPlayerIndex || !p.CanAct() {
		return ErrNotYourTurn
	}

	toCall := max(s.CurrentBet-p.Bet, 0)

	switch action {
	case Fold:
		p.Status = SeatFolded

	case Check:
		if toCall > 0 {
			return ErrIllegalCheck
		}

	case Call:
		s.commit(p, min(toCall, p.Chips))

	case Raise:
		if amount <= 0 {
			return ErrInvalidRaiseAmount
		}
		if amount > p.Chips {
			return ErrInsufficientChips
		}
		shove := amount == p.Chips && amount > toCall
		if amount < max(s.BigBlind, toCall+s.BigBlind) && !shove {
			return ErrInvalidRaiseAmount
		}
		s.commit(p, amount)
		for i := range s.Players {
			if other := &s.Players[i]; other.UID != uid && other.CanAct() {
				other.HasActed = false
			}
		}

	default:
		return ErrUnknownAction
	}

	p.HasActed = true
	s.recomputeCurrentBet()
	s.CurrentPlayerIndex = s.nextSeat(p.Seat, (*Seat).CanAct)

	return s.progress(d)
}

// TimeoutAction is what the table plays for a seat that runs out of time:
// check when free, fold otherwise.
func (s *State) TimeoutAction() (uid string, action Action, ok bool) {
	if s.Status != StatusPlaying || !s.Round.Betting() {
		return "", Fold, false
	}
	p, found := s.Current()
	if !found || !p.CanAct() {
		return "", Fold, false
	}
	if p.Bet >= s.CurrentBet {
		return p.UID, Check, true
	}
	return p.UID, Fold, true
}

// RoundComplete reports whether every seat that can still act has acted
// and matched the current bet. It does not change the state.
func (s *State) RoundComplete() bool {
	for _, p := range s.actors() {
		if !p.HasActed || p.Bet != s.CurrentBet {
			return false
		}
	}
	return true
}

// bettingClosed reports whether no further decisions are possible: nobody
// can act, or only one seat can and it already covers the bet.
func (s *State) bettingClosed() bool {
	actors := s.actors()
	switch len(actors) {
	case 0:
		return true
	case 1:
		return actors[0].Bet >= s.CurrentBet
	default:
		return false
	}
}

// progress moves the hand forward until a decision is needed or it ends
func (s *State) progress(d Dealer) error {
	for {
		if len(s.contenders()) <= 1 {
			return s.showdown(d.Now)
		}
		if !s.RoundComplete() && !s.bettingClosed() {
			if p, ok := s.Current(); !ok || !p.CanAct() {
				s.CurrentPlayerIndex = s.nextSeat(s.CurrentPlayerIndex, (*Seat).CanAct)
			}
			return nil
		}
		if s.Round == RoundRiver {
			return s.showdown(d.Now)
		}
		if err := s.advance(d); err != nil {
			return err
		}
	}
}

// advance deals the next street and opens a fresh betting round
func (s *State) advance(d Dealer) error {
	next := s.Round + 1
	need := next.boardSize() - len(s.CommunityCards)
	if need > 0 {
		cards, err := d.Draw(need)
		if err != nil {
			return err
		}
		s.CommunityCards = append(s.CommunityCards, cards...)
	}

	s.Round = next
	for i := range s.Players {
		s.Players[i].Bet = 0
		s.Players[i].HasActed = false
	}
	s.CurrentBet = 0
	s.CurrentPlayerIndex = s.nextSeat(s.DealerSeat(), (*Seat).CanAct)
	return nil
}

// NextHand closes a finished hand. Queued leavers and busted seats are
// removed; with two or more seats left the button moves one seat and a new
// hand is dealt, otherwise the countdown restarts.
func (s *State) NextHand(d Dealer) (removed []string, started bool, err error) {
	if s.Status != StatusPlaying || s.Round != RoundShowdown {
		return nil, false, ErrHandInProgress
	}

	removed = s.flushLeaves()
	s.clearHand()

	if len(s.Players) < 2 {
		removed = append(removed, s.RestartCountdown(d.Now)...)
		return removed, false, nil
	}

	s.DealerPosition++
	if err := s.StartGame(d); err != nil {
		return removed, false, err
	}
	return removed, true, nil
}

// commit moves amount from the seat's stack into its bet and the pot
func (s *State) commit(p *Seat, amount int) {
	if amount <= 0 {
		return
	}
	p.Chips -= amount
	p.Bet += amount
	p.TotalContribution += amount
	s.Pot += amount
	if p.Chips == 0 {
		p.Status = SeatAllIn
	}
}

func (s *State) recomputeCurrentBet() {
	best := 0
	for _, p := range s.Players {
		if p.Status != SeatFolded && p.Bet > best {
			best = p.Bet
		}
	}
	s.CurrentBet = best
}

// clearHand resets every per-hand field
func (s *State) clearHand() {
	for i := range s.Players {
		p := &s.Players[i]
		p.Cards = nil
		p.Bet = 0
		p.TotalContribution = 0
		p.Status = SeatActive
		p.IsDealer = false
		p.IsSmallBlind = false
		p.IsBigBlind = false
		p.HasActed = false
	}
	s.CommunityCards = nil
	s.Pot = 0
	s.CurrentBet = 0
	s.CurrentPlayerIndex = NoSeat
}

package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidePots(t *testing.T) {
	s := seated(t, 100, 300, 300)
	d := stacked(
		"KH", "KD", // seat 1
		"QH", "QD", // seat 2
		"AH", "AD", // seat 0, the button
		"2C", "7D", "9H",
		"JS",
		"3C",
	)
	require.NoError(t, s.StartGame(d))

	act(t, s, d, "p0", Raise, 100)
	act(t, s, d, "p1", Raise, 200)
	act(t, s, d, "p2", Call, 0)
	require.Equal(t, RoundFlop, s.Round)

	pots := s.Pots()
	require.Len(t, pots, 2)
	assert.Equal(t, 300, pots[0].Amount)
	assert.Len(t, pots[0].Eligible, 3)
	assert.Equal(t, 220, pots[1].Amount)
	assert.Len(t, pots[1].Eligible, 2)
	assert.Equal(t, s.Pot, pots[0].Amount+pots[1].Amount)

	for s.Round != RoundShowdown {
		p, _ := s.Current()
		act(t, s, d, p.UID, Check, 0)
	}

	chips := map[string]int{}
	for _, p := range s.Players {
		chips[p.UID] = p.Chips
	}
	assert.Equal(t, map[string]int{"p0": 300, "p1": 310, "p2": 90}, chips)
	assert.Equal(t, 300, s.LastResult.Won("p0"))
	assert.Equal(t, 220, s.LastResult.Won("p1"))
	assert.Zero(t, s.LastResult.Won("p2"))
}

func TestFoldedChipsStayInPot(t *testing.T) {
	s := seated(t, 1000, 1000, 50, 1000)
	d := shuffled(12)
	require.NoError(t, s.StartGame(d))

	// p1 folds its small blind, p2 calls all in from the big blind
	act(t, s, d, "p3", Raise, 200)
	act(t, s, d, "p0", Call, 0)
	act(t, s, d, "p1", Fold, 0)
	act(t, s, d, "p2", Call, 0)
	require.Equal(t, RoundFlop, s.Round)
	require.Equal(t, 3, s.CurrentPlayerIndex)

	pots := s.Pots()
	require.Len(t, pots, 2)
	assert.Equal(t, 160, pots[0].Amount)
	assert.Len(t, pots[0].Eligible, 3)
	assert.Equal(t, 300, pots[1].Amount)
	assert.Len(t, pots[1].Eligible, 2)
	assert.Equal(t, 460, s.Pot)
}

func TestOddChipGoesLeftOfButton(t *testing.T) {
	s := NewState("odd", 5, 10, MaxSeats)
	for _, uid := range []string{"p0", "p1", "p2"} {
		_, err := s.Join(uid, uid, 1000, t0)
		require.NoError(t, err)
	}
	d := stacked(
		"2C", "3D", // seat 1
		"4C", "5D", // seat 2
		"6C", "7D", // seat 0, the button
		"AS", "KS", "QS",
		"JS",
		"10S",
	)
	require.NoError(t, s.StartGame(d))

	act(t, s, d, "p0", Call, 0)
	act(t, s, d, "p1", Fold, 0)
	act(t, s, d, "p2", Check, 0)
	for s.Round != RoundShowdown {
		p, _ := s.Current()
		act(t, s, d, p.UID, Check, 0)
	}

	res := s.LastResult
	require.Equal(t, 25, res.Pot)
	require.Len(t, res.Winners, 2)
	assert.Equal(t, Award{UID: "p2", Nickname: "p2", Seat: 2, Amount: 13}, res.Winners[0])
	assert.Equal(t, Award{UID: "p0", Nickname: "p0", Seat: 0, Amount: 12}, res.Winners[1])
	assert.Equal(t, 3000, totalChips(s))
}

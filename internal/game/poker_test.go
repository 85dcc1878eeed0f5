// internal/game/poker_test.go
package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPokerGame(t *testing.T, seed int64) (*PokerGame, *PokerPlayer, *PokerPlayer) {
	t.Helper()
	g := NewPokerGame(
		PokerSeat{ID: uuid.New(), Nickname: "alice"},
		PokerSeat{ID: uuid.New(), Nickname: "bob"},
		rand.New(rand.NewSource(seed)),
	)
	return g, g.Players[0], g.Players[1]
}

// chipsInPlay sums every chip on the table. The total never changes while a
// match runs.
func chipsInPlay(g *PokerGame) int {
	return g.Players[0].Chips + g.Players[1].Chips + g.Pot
}

func setCards(g *PokerGame, v0, v1 int) {
	g.Players[0].CurrentCard = &Card{Suit: "hearts", Rank: "t", Value: v0}
	g.Players[1].CurrentCard = &Card{Suit: "spades", Rank: "t", Value: v1}
}

func better(g *PokerGame) *PokerPlayer {
	for _, p := range g.Players {
		if p.ID == g.CurrentBetterID {
			return p
		}
	}
	return nil
}

func opponent(g *PokerGame) *PokerPlayer {
	for _, p := range g.Players {
		if p.ID != g.CurrentBetterID {
			return p
		}
	}
	return nil
}

func TestNewPokerGame_DealsFirstRound(t *testing.T) {
	g, a, b := setupPokerGame(t, 1)

	assert.Equal(t, RoundBetting, g.Status)
	assert.Equal(t, 29, a.Chips)
	assert.Equal(t, 29, b.Chips)
	assert.Equal(t, 2, g.Pot)
	assert.NotNil(t, a.CurrentCard)
	assert.NotNil(t, b.CurrentCard)
	assert.Contains(t, []uuid.UUID{a.ID, b.ID}, g.CurrentBetterID)
	assert.Equal(t, g.FirstBetterID, g.CurrentBetterID)
	assert.Equal(t, 60, chipsInPlay(g))
}

func TestPokerPlaceBet_TurnAndAmountValidation(t *testing.T) {
	g, _, _ := setupPokerGame(t, 2)
	opp := opponent(g)

	assert.ErrorIs(t, g.PlaceBet(opp.ID, 3), ErrNotYourTurn)
	assert.ErrorIs(t, g.PlaceBet(g.CurrentBetterID, 0), ErrInvalidBet)

	// The bet must leave the actor's cumulative total strictly above the
	// opponent's; both sit at the ante here so nothing to add fails.
	first := better(g)
	require.NoError(t, g.PlaceBet(first.ID, 5))
	assert.Equal(t, 6, first.TotalBet)
	assert.Equal(t, 6, g.CurrentBetAmount)
	assert.Equal(t, opp.ID, g.CurrentBetterID)
	assert.Equal(t, 60, chipsInPlay(g))

	// Matching without exceeding is a call, not a bet.
	assert.ErrorIs(t, g.PlaceBet(opp.ID, 5), ErrInvalidBet)
	require.NoError(t, g.PlaceBet(opp.ID, 6))
	assert.Equal(t, 7, opp.TotalBet)
}

func TestPokerPlaceBet_AllInCap(t *testing.T) {
	g, _, _ := setupPokerGame(t, 3)
	p := better(g)

	chips := p.Chips
	require.NoError(t, g.PlaceBet(p.ID, 1000))
	assert.Zero(t, p.Chips)
	assert.Equal(t, ante+chips, p.TotalBet)
	assert.Equal(t, 60, chipsInPlay(g))

	// A capped raise that cannot exceed the opponent's total is rejected.
	opp := better(g)
	opp.Chips = 0
	assert.ErrorIs(t, g.PlaceBet(opp.ID, 1000), ErrInvalidBet)
}

func TestPokerCall_HigherCardTakesPot(t *testing.T) {
	g, a, b := setupPokerGame(t, 4)
	setCards(g, 9, 4)

	p := better(g)
	require.NoError(t, g.PlaceBet(p.ID, 5))

	caller := better(g)
	res, err := g.Call(caller.ID)
	require.NoError(t, err)

	assert.Equal(t, RoundReveal, g.Status)
	assert.Equal(t, a.ID, res.WinnerID)
	assert.False(t, res.IsDraw)
	assert.Zero(t, g.Pot)
	assert.Len(t, res.Cards, 2)
	assert.Zero(t, a.TotalBet)
	assert.Zero(t, b.TotalBet)
	assert.Equal(t, 60, chipsInPlay(g))

	// The round winner opens the next round.
	require.NoError(t, g.StartRound())
	assert.Equal(t, a.ID, g.FirstBetterID)
}

func TestPokerCall_DrawCarriesPot(t *testing.T) {
	g, a, b := setupPokerGame(t, 5)
	setCards(g, 6, 6)

	p := better(g)
	require.NoError(t, g.PlaceBet(p.ID, 3))

	res, err := g.Call(better(g).ID)
	require.NoError(t, err)

	assert.True(t, res.IsDraw)
	assert.Equal(t, uuid.Nil, res.WinnerID)
	potCarried := g.Pot
	assert.Positive(t, potCarried)
	assert.Equal(t, 60, chipsInPlay(g))

	// The carried pot grows by the next round's antes.
	require.NoError(t, g.StartRound())
	assert.Equal(t, potCarried+2*ante, g.Pot)
	assert.Equal(t, RoundBetting, g.Status)
	_ = a
	_ = b
}

func TestPokerDie_OpponentTakesPot(t *testing.T) {
	g, _, _ := setupPokerGame(t, 6)
	setCards(g, 5, 7)

	folder := better(g)
	opp := opponent(g)
	if folder.CurrentCard.Value == 10 {
		folder.CurrentCard.Value = 5
	}
	oppChips := opp.Chips
	pot := g.Pot

	res, err := g.Die(folder.ID)
	require.NoError(t, err)

	assert.Equal(t, opp.ID, res.WinnerID)
	assert.Zero(t, res.Penalty)
	assert.Zero(t, g.Pot)
	assert.Equal(t, oppChips+pot, opp.Chips)
	assert.Equal(t, RoundReveal, g.Status)
	assert.Equal(t, 60, chipsInPlay(g))
}

func TestPokerDie_TenPenalty(t *testing.T) {
	g, _, _ := setupPokerGame(t, 7)

	folder := better(g)
	opp := opponent(g)
	folder.CurrentCard = &Card{Suit: "hearts", Rank: "10", Value: 10}
	opp.CurrentCard = &Card{Suit: "spades", Rank: "2", Value: 2}

	folderChips := folder.Chips
	res, err := g.Die(folder.ID)
	require.NoError(t, err)

	// Folding on the best card costs 10 chips on top of the pot.
	assert.Equal(t, 10, res.Penalty)
	assert.Equal(t, folderChips-10, folder.Chips)
	assert.Equal(t, 60, chipsInPlay(g))
}

func TestPokerDie_PenaltyCappedByChips(t *testing.T) {
	g, _, _ := setupPokerGame(t, 8)

	folder := better(g)
	opp := opponent(g)
	folder.CurrentCard = &Card{Suit: "hearts", Rank: "10", Value: 10}
	folder.Chips = 4

	res, err := g.Die(folder.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Penalty)
	assert.Zero(t, folder.Chips)

	// Draining the folder below the ante ends the match on the spot.
	assert.True(t, res.GameOver)
	assert.Equal(t, opp.ID, res.MatchWinnerID)
	assert.Equal(t, opp.ID, g.MatchWinnerID)
	assert.Equal(t, RoundFinished, g.Status)
}

func TestPokerStartRound_Idempotent(t *testing.T) {
	g, _, _ := setupPokerGame(t, 9)
	setCards(g, 8, 3)

	_, err := g.Call(better(g).ID)
	require.NoError(t, err)

	require.NoError(t, g.StartRound())
	a0, b0 := g.Players[0].Chips, g.Players[1].Chips
	pot0 := g.Pot
	card0 := *g.Players[0].CurrentCard

	// The racing duplicate sees the round already dealt and changes nothing.
	require.NoError(t, g.StartRound())
	assert.Equal(t, a0, g.Players[0].Chips)
	assert.Equal(t, b0, g.Players[1].Chips)
	assert.Equal(t, pot0, g.Pot)
	assert.Equal(t, card0, *g.Players[0].CurrentCard)
}

func TestPokerStartRound_AnteShortfallEndsMatch(t *testing.T) {
	g, a, b := setupPokerGame(t, 10)
	setCards(g, 8, 3)
	_, err := g.Call(better(g).ID)
	require.NoError(t, err)

	b.Chips = 0
	require.NoError(t, g.StartRound())

	assert.Equal(t, RoundFinished, g.Status)
	assert.Equal(t, a.ID, g.MatchWinnerID)
}

func TestPokerMatchEnd_SixtyChipsWins(t *testing.T) {
	g, a, b := setupPokerGame(t, 11)
	setCards(g, 9, 2)

	// Stack the table so the pot pushes the winner past the threshold.
	a.Chips = 55
	b.Chips = 2
	g.Pot = 8

	res, err := g.Call(better(g).ID)
	require.NoError(t, err)

	assert.True(t, res.GameOver)
	assert.Equal(t, a.ID, res.MatchWinnerID)
	assert.Equal(t, RoundFinished, g.Status)
	require.NotNil(t, g.MatchWinner())
	assert.Equal(t, "alice", g.MatchWinner().Nickname)

	assert.ErrorIs(t, g.StartRound(), ErrInvalidState)
	_, err = g.Call(a.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestPokerView_HidesOwnCardShowsOpponents(t *testing.T) {
	g, a, b := setupPokerGame(t, 12)

	va := g.View(a.ID)
	require.NotNil(t, va.OpponentCard)
	assert.Equal(t, *b.CurrentCard, *va.OpponentCard)
	assert.Nil(t, va.MyCard)
	assert.Equal(t, a.Chips, va.MyChips)
	assert.Equal(t, b.Chips, va.OpponentChips)
	assert.Empty(t, va.RevealedCards)

	// A spectator is outside the asymmetry and sees both cards.
	vs := g.View(uuid.New())
	assert.Len(t, vs.RevealedCards, 2)
	assert.Nil(t, vs.OpponentCard)
}

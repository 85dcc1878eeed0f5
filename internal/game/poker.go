// internal/game/poker.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// RoundStatus is the Indian Poker round state machine:
// betting -> (bet) betting -> (call|die) reveal -> betting | finished.
type RoundStatus string

const (
	RoundBetting  RoundStatus = "betting"
	RoundReveal   RoundStatus = "reveal"
	RoundFinished RoundStatus = "finished"
)

const (
	startingChips = 30
	winningChips  = 60
	ante          = 1
	foldPenalty   = 10 // extra chips paid for folding on a rank-10 card
)

// PokerPlayer is the per-player state owned by a PokerGame.
type PokerPlayer struct {
	ID          uuid.UUID
	Nickname    string
	Chips       int
	CurrentCard *Card
	TotalBet    int // cumulative chips this player has put in this round
}

// PokerGame holds the authoritative state for one Indian Poker match.
// Access is serialized by the owning room's mutex.
type PokerGame struct {
	Players [2]*PokerPlayer
	deck    []Card

	Pot              int
	CurrentBetAmount int
	CurrentBetterID  uuid.UUID
	FirstBetterID    uuid.UUID
	Status           RoundStatus

	roundWinnerID uuid.UUID // previous round's winner, opens the next round
	MatchWinnerID uuid.UUID

	// Round-sequence counters guarding round-start idempotency. dealtSeq
	// counts rounds dealt, settledSeq counts rounds settled; a deal is only
	// legal while the two are equal, so the second of two racing next-round
	// requests is a safe no-op.
	dealtSeq   int
	settledSeq int

	rng *rand.Rand
}

// PokerSeat names a participant at game start.
type PokerSeat struct {
	ID       uuid.UUID
	Nickname string
}

// NewPokerGame starts a match between exactly two players: 30 chips each, a
// fresh shuffled 20-card deck, and the first round dealt.
func NewPokerGame(a, b PokerSeat, rng *rand.Rand) *PokerGame {
	g := &PokerGame{rng: rng}
	g.Players[0] = &PokerPlayer{ID: a.ID, Nickname: a.Nickname, Chips: startingChips}
	g.Players[1] = &PokerPlayer{ID: b.ID, Nickname: b.Nickname, Chips: startingChips}
	g.deck = NewPokerDeck()
	Shuffle(g.deck, rng)
	g.StartRound()
	return g
}

func (g *PokerGame) player(id uuid.UUID) *PokerPlayer {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *PokerGame) opponentOf(id uuid.UUID) *PokerPlayer {
	for _, p := range g.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// StartRound antes both players and deals one card each. It is idempotent
// under duplicate requests: both clients race a next-round request after the
// reveal pause, and only the first may deal. A player who cannot cover the
// ante loses the match before any card moves.
func (g *PokerGame) StartRound() error {
	if g.Status == RoundFinished {
		return ErrInvalidState
	}
	if g.dealtSeq > g.settledSeq {
		// Current round already dealt; treat the duplicate as success.
		return nil
	}

	for _, p := range g.Players {
		if p.Chips < ante {
			g.endMatch(g.opponentOf(p.ID).ID)
			return nil
		}
	}

	if len(g.deck) < 2 {
		g.deck = NewPokerDeck()
		Shuffle(g.deck, g.rng)
	}

	for _, p := range g.Players {
		p.Chips -= ante
		g.Pot += ante
		p.TotalBet = ante

		c := g.deck[len(g.deck)-1]
		g.deck = g.deck[:len(g.deck)-1]
		p.CurrentCard = &c
	}

	// The previous round's winner opens; a random player opens the first
	// round and any round following a draw.
	if g.roundWinnerID != uuid.Nil {
		g.CurrentBetterID = g.roundWinnerID
	} else {
		g.CurrentBetterID = g.Players[g.rng.Intn(2)].ID
	}
	g.FirstBetterID = g.CurrentBetterID
	g.CurrentBetAmount = ante
	g.Status = RoundBetting
	g.dealtSeq++
	return nil
}

// PlaceBet raises the acting player's cumulative bet. The raise is capped at
// the player's remaining chips (all-in) and the capped total must strictly
// exceed the opponent's cumulative bet.
func (g *PokerGame) PlaceBet(playerID uuid.UUID, amount int) error {
	if g.Status != RoundBetting {
		return ErrInvalidState
	}
	if g.CurrentBetterID != playerID {
		return ErrNotYourTurn
	}
	p := g.player(playerID)
	opp := g.opponentOf(playerID)
	if p == nil || amount <= 0 {
		return ErrInvalidBet
	}

	actual := amount
	if actual > p.Chips {
		actual = p.Chips
	}
	if p.TotalBet+actual <= opp.TotalBet {
		return ErrInvalidBet
	}

	p.Chips -= actual
	g.Pot += actual
	p.TotalBet += actual
	g.CurrentBetAmount = p.TotalBet
	g.CurrentBetterID = opp.ID
	return nil
}

// PokerRevealedCard pairs a player id with their face-up card for reveal
// payloads.
type PokerRevealedCard struct {
	PlayerID uuid.UUID `json:"playerId"`
	Card     Card      `json:"card"`
}

// PokerRevealResult reports a round settlement from call or die.
type PokerRevealResult struct {
	WinnerID      uuid.UUID           `json:"winnerId"`
	WinnerName    string              `json:"winnerNickname"`
	IsDraw        bool                `json:"isDraw"`
	Penalty       int                 `json:"penalty,omitempty"`
	Cards         []PokerRevealedCard `json:"cards"`
	GameOver      bool                `json:"gameOver"`
	MatchWinnerID uuid.UUID           `json:"matchWinnerId,omitempty"`
}

// Call matches the opponent's cumulative bet (capped by available chips)
// and settles the round by comparing card ranks. A draw carries the pot into
// the next round and clears the opening-better preference.
func (g *PokerGame) Call(playerID uuid.UUID) (*PokerRevealResult, error) {
	if g.Status != RoundBetting {
		return nil, ErrInvalidState
	}
	if g.CurrentBetterID != playerID {
		return nil, ErrNotYourTurn
	}
	p := g.player(playerID)
	opp := g.opponentOf(playerID)

	diff := opp.TotalBet - p.TotalBet
	if diff > p.Chips {
		diff = p.Chips
	}
	if diff > 0 {
		p.Chips -= diff
		g.Pot += diff
		p.TotalBet += diff
	}

	g.Status = RoundReveal
	res := &PokerRevealResult{Cards: g.revealedCards()}

	a, b := g.Players[0], g.Players[1]
	switch {
	case a.CurrentCard.Value > b.CurrentCard.Value:
		g.settlePot(a, res)
	case b.CurrentCard.Value > a.CurrentCard.Value:
		g.settlePot(b, res)
	default:
		// Draw: the pot carries over, nobody records a round win, and the
		// next opening better is chosen at random again.
		res.IsDraw = true
		g.roundWinnerID = uuid.Nil
	}
	for _, pl := range g.Players {
		pl.TotalBet = 0
	}
	g.settledSeq++

	g.checkMatchEnd(res)
	return res, nil
}

// Die folds the acting player's hand: the opponent takes the pot
// uncontested, and folding on a rank-10 card costs an extra penalty of up to
// 10 chips. Both cards are revealed regardless, so the fold is never blind
// for the table.
func (g *PokerGame) Die(playerID uuid.UUID) (*PokerRevealResult, error) {
	if g.Status != RoundBetting {
		return nil, ErrInvalidState
	}
	if g.CurrentBetterID != playerID {
		return nil, ErrNotYourTurn
	}
	p := g.player(playerID)
	opp := g.opponentOf(playerID)

	res := &PokerRevealResult{Cards: g.revealedCards()}
	if p.CurrentCard != nil && p.CurrentCard.Value == 10 {
		pay := foldPenalty
		if pay > p.Chips {
			pay = p.Chips
		}
		p.Chips -= pay
		opp.Chips += pay
		res.Penalty = pay
	}

	g.Status = RoundReveal
	g.settlePot(opp, res)
	for _, pl := range g.Players {
		pl.TotalBet = 0
	}
	g.settledSeq++

	g.checkMatchEnd(res)
	return res, nil
}

func (g *PokerGame) revealedCards() []PokerRevealedCard {
	cards := make([]PokerRevealedCard, 0, 2)
	for _, p := range g.Players {
		if p.CurrentCard != nil {
			cards = append(cards, PokerRevealedCard{PlayerID: p.ID, Card: *p.CurrentCard})
		}
	}
	return cards
}

func (g *PokerGame) settlePot(winner *PokerPlayer, res *PokerRevealResult) {
	winner.Chips += g.Pot
	g.Pot = 0
	g.roundWinnerID = winner.ID
	res.WinnerID = winner.ID
	res.WinnerName = winner.Nickname
}

// checkMatchEnd runs after every pot settlement: 60 chips wins the match
// outright, falling below the ante loses it. The threshold check runs first.
func (g *PokerGame) checkMatchEnd(res *PokerRevealResult) {
	for _, p := range g.Players {
		if p.Chips >= winningChips {
			g.endMatch(p.ID)
			res.GameOver = true
			res.MatchWinnerID = p.ID
			return
		}
	}
	for _, p := range g.Players {
		if p.Chips < ante {
			winner := g.opponentOf(p.ID)
			g.endMatch(winner.ID)
			res.GameOver = true
			res.MatchWinnerID = winner.ID
			return
		}
	}
}

func (g *PokerGame) endMatch(winnerID uuid.UUID) {
	g.MatchWinnerID = winnerID
	g.Status = RoundFinished
}

// MatchWinner returns the winning player once the match has finished.
func (g *PokerGame) MatchWinner() *PokerPlayer {
	if g.MatchWinnerID == uuid.Nil {
		return nil
	}
	return g.player(g.MatchWinnerID)
}

// PokerPlayerView is public per-player state: chip counts and bets are open
// information, card possession is a boolean.
type PokerPlayerView struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Chips    int       `json:"chips"`
	TotalBet int       `json:"totalBet"`
	HasCard  bool      `json:"hasCard"`
}

// PokerView is the filtered snapshot for one recipient. A player sees the
// opponent's card but never their own; a spectator sees both.
type PokerView struct {
	Players          []PokerPlayerView   `json:"players"`
	Pot              int                 `json:"pot"`
	CurrentBetAmount int                 `json:"currentBetAmount"`
	CurrentBetterID  uuid.UUID           `json:"currentBetterId"`
	Status           RoundStatus         `json:"status"`
	MyCard           *Card               `json:"myCard"` // always nil for a seated player
	OpponentCard     *Card               `json:"opponentCard,omitempty"`
	MyChips          int                 `json:"myChips"`
	OpponentChips    int                 `json:"opponentChips"`
	RevealedCards    []PokerRevealedCard `json:"revealedCards,omitempty"`
	MatchWinnerID    uuid.UUID           `json:"matchWinnerId,omitempty"`
}

// View builds the snapshot for one recipient. A player sees the card on the
// opponent's forehead and never their own, so the filtering lives here
// rather than in the transport layer.
func (g *PokerGame) View(forID uuid.UUID) PokerView {
	v := PokerView{
		Pot:              g.Pot,
		CurrentBetAmount: g.CurrentBetAmount,
		CurrentBetterID:  g.CurrentBetterID,
		Status:           g.Status,
		MatchWinnerID:    g.MatchWinnerID,
	}
	for _, p := range g.Players {
		v.Players = append(v.Players, PokerPlayerView{
			ID:       p.ID,
			Nickname: p.Nickname,
			Chips:    p.Chips,
			TotalBet: p.TotalBet,
			HasCard:  p.CurrentCard != nil,
		})
	}

	me := g.player(forID)
	if me != nil {
		opp := g.opponentOf(forID)
		v.MyChips = me.Chips
		v.OpponentChips = opp.Chips
		if opp.CurrentCard != nil {
			c := *opp.CurrentCard
			v.OpponentCard = &c
		}
	} else {
		// Spectators are not in the information asymmetry; they watch both
		// cards face-up.
		v.RevealedCards = g.revealedCards()
	}
	return v
}

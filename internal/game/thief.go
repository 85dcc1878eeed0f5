// internal/game/thief.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// ThiefPlayer is the per-player state owned by a ThiefGame.
type ThiefPlayer struct {
	ID          uuid.UUID
	Nickname    string
	Hand        []Card
	Eliminated  bool
	FinishOrder int // 0 until the player empties their hand
}

// ThiefStanding identifies a player in the winners list or as the loser.
type ThiefStanding struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
	Order    int       `json:"order,omitempty"`
}

// ThiefGame holds the authoritative state for one Thief Catcher match.
// Callers are expected to serialize access; the engine itself is lock-free
// (the owning room's mutex is held across every call).
type ThiefGame struct {
	Players []*ThiefPlayer

	turnOrder []uuid.UUID
	turnIdx   int

	Winners  []ThiefStanding
	Loser    *ThiefStanding
	Finished bool

	rng *rand.Rand
}

// ThiefSeat names a participant at game start.
type ThiefSeat struct {
	ID       uuid.UUID
	Nickname string
}

// NewThiefGame deals a fresh match: the 53-card deck is shuffled and dealt
// round-robin until exhausted, each hand is purged to a fixed point, players
// left with no cards are eliminated immediately, and a random active player
// takes the first turn.
func NewThiefGame(seats []ThiefSeat, rng *rand.Rand) *ThiefGame {
	g := &ThiefGame{rng: rng}
	for _, s := range seats {
		g.Players = append(g.Players, &ThiefPlayer{ID: s.ID, Nickname: s.Nickname})
	}

	deck := NewThiefDeck()
	Shuffle(deck, rng)
	for i, c := range deck {
		p := g.Players[i%len(g.Players)]
		p.Hand = append(p.Hand, c)
	}
	for _, p := range g.Players {
		p.Hand, _ = purgeToFixedPoint(p.Hand)
	}

	for _, p := range g.Players {
		g.turnOrder = append(g.turnOrder, p.ID)
	}
	g.recordFinishers()
	if len(g.turnOrder) > 0 {
		g.turnIdx = rng.Intn(len(g.turnOrder))
	}
	g.checkGameOver()
	return g
}

// CurrentTurnID returns the id of the player authorized to act, or uuid.Nil
// once the game is finished.
func (g *ThiefGame) CurrentTurnID() uuid.UUID {
	if g.Finished || len(g.turnOrder) == 0 {
		return uuid.Nil
	}
	return g.turnOrder[g.turnIdx]
}

// NextTargetID returns the id of the player the turn holder may draw from:
// the next active, non-empty-handed player in seat order after the holder.
func (g *ThiefGame) NextTargetID() uuid.UUID {
	active := g.activePlayers()
	if g.Finished || len(active) < 2 {
		return uuid.Nil
	}
	cur := g.CurrentTurnID()
	for i, p := range active {
		if p.ID == cur {
			return active[(i+1)%len(active)].ID
		}
	}
	return uuid.Nil
}

func (g *ThiefGame) activePlayers() []*ThiefPlayer {
	var active []*ThiefPlayer
	for _, p := range g.Players {
		if !p.Eliminated && len(p.Hand) > 0 {
			active = append(active, p)
		}
	}
	return active
}

func (g *ThiefGame) player(id uuid.UUID) *ThiefPlayer {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ThiefDrawResult reports the outcome of one draw transaction. DrawnCard is
// only ever shown to the drawer; the dispatch layer must not include it in
// other recipients' payloads.
type ThiefDrawResult struct {
	DrawnCard     Card
	DrawerMatched []Card
	TargetMatched []Card
	GameOver      bool
	Loser         *ThiefStanding
	Winners       []ThiefStanding
}

// DrawCard executes the turn holder's draw from the current target's hand.
// The drawn card is inserted at a random position in the drawer's hand and
// the whole hand is reshuffled, so the drawer cannot track where the new
// card landed. Both hands are then purged, because removing a card can
// expose a match on either side.
func (g *ThiefGame) DrawCard(drawerID, targetID uuid.UUID, cardIndex int) (*ThiefDrawResult, error) {
	if g.Finished {
		return nil, ErrInvalidState
	}
	if g.CurrentTurnID() != drawerID {
		return nil, ErrNotYourTurn
	}
	if g.NextTargetID() != targetID {
		return nil, fmt.Errorf("%w: not the current target", ErrInvalidTarget)
	}
	drawer := g.player(drawerID)
	target := g.player(targetID)
	if drawer == nil || target == nil {
		return nil, fmt.Errorf("%w: unknown player", ErrInvalidTarget)
	}
	if target.Eliminated || len(target.Hand) == 0 {
		return nil, fmt.Errorf("%w: target has no cards", ErrInvalidTarget)
	}
	if cardIndex < 0 || cardIndex >= len(target.Hand) {
		return nil, fmt.Errorf("%w: card index out of range", ErrInvalidTarget)
	}

	drawn := target.Hand[cardIndex]
	target.Hand = append(target.Hand[:cardIndex], target.Hand[cardIndex+1:]...)

	insertAt := g.rng.Intn(len(drawer.Hand) + 1)
	drawer.Hand = append(drawer.Hand, Card{})
	copy(drawer.Hand[insertAt+1:], drawer.Hand[insertAt:])
	drawer.Hand[insertAt] = drawn
	Shuffle(drawer.Hand, g.rng)

	res := &ThiefDrawResult{DrawnCard: drawn}
	drawer.Hand, res.DrawerMatched = RemoveMatchedPairs(drawer.Hand)
	target.Hand, res.TargetMatched = RemoveMatchedPairs(target.Hand)

	g.recordFinishers()
	if g.checkGameOver() {
		res.GameOver = true
		res.Loser = g.Loser
		res.Winners = g.Winners
		return res, nil
	}
	if drawer.Eliminated {
		// Emptying their own hand removed the drawer from the turn order,
		// which already leaves the pointer on the next seat.
		g.skipToActive()
	} else {
		g.advanceTurn()
	}
	return res, nil
}

// ShuffleTarget reorders the current target's hand. It has no rule effect;
// it exists so the turn holder can break positional card-counting.
func (g *ThiefGame) ShuffleTarget(playerID, targetID uuid.UUID) error {
	if g.Finished {
		return ErrInvalidState
	}
	if g.CurrentTurnID() != playerID {
		return ErrNotYourTurn
	}
	if g.NextTargetID() != targetID {
		return fmt.Errorf("%w: not the current target", ErrInvalidTarget)
	}
	target := g.player(targetID)
	if target == nil {
		return fmt.Errorf("%w: unknown player", ErrInvalidTarget)
	}
	Shuffle(target.Hand, g.rng)
	return nil
}

// RemovePlayer handles a mid-game departure: the departing hand is dealt
// round-robin to the remaining active players (each recipient re-purged),
// the id leaves the turn order, and stale turn/target pointers are fixed.
func (g *ThiefGame) RemovePlayer(id uuid.UUID) {
	p := g.player(id)
	if p == nil {
		return
	}
	wasTurn := g.CurrentTurnID() == id

	p.Eliminated = true
	recipients := g.activePlayers()
	if len(recipients) > 0 && len(p.Hand) > 0 {
		for i, c := range p.Hand {
			recipients[i%len(recipients)].Hand = append(recipients[i%len(recipients)].Hand, c)
		}
		p.Hand = nil
		for _, r := range recipients {
			r.Hand, _ = RemoveMatchedPairs(r.Hand)
		}
	}
	p.Hand = nil

	g.removeFromTurnOrder(id)

	g.recordFinishers()
	if g.checkGameOver() {
		return
	}
	if wasTurn || g.currentHolderInactive() {
		g.skipToActive()
	}
}

func (g *ThiefGame) currentHolderInactive() bool {
	p := g.player(g.CurrentTurnID())
	return p == nil || p.Eliminated || len(p.Hand) == 0
}

// recordFinishers eliminates every player whose hand just emptied, assigning
// finish ranks in elimination order and dropping them from the turn order.
func (g *ThiefGame) recordFinishers() {
	for _, p := range g.Players {
		if p.Eliminated || len(p.Hand) > 0 {
			continue
		}
		p.Eliminated = true
		p.FinishOrder = len(g.Winners) + 1
		g.Winners = append(g.Winners, ThiefStanding{ID: p.ID, Nickname: p.Nickname, Order: p.FinishOrder})

		g.removeFromTurnOrder(p.ID)
	}
}

// removeFromTurnOrder drops an id while keeping the turn pointer on the
// same seat: removing a seat before the pointer shifts the pointer left
// with it, and removing the pointed-at seat leaves the pointer on the next
// seat in order, wrapping at the end.
func (g *ThiefGame) removeFromTurnOrder(id uuid.UUID) {
	for i, tid := range g.turnOrder {
		if tid != id {
			continue
		}
		g.turnOrder = append(g.turnOrder[:i], g.turnOrder[i+1:]...)
		if i < g.turnIdx {
			g.turnIdx--
		} else if g.turnIdx >= len(g.turnOrder) {
			g.turnIdx = 0
		}
		return
	}
}

// checkGameOver marks the match finished once a single active player
// remains. That player holds the joker by construction and is the loser.
func (g *ThiefGame) checkGameOver() bool {
	if g.Finished {
		return true
	}
	active := g.activePlayers()
	if len(active) != 1 {
		return false
	}
	g.Loser = &ThiefStanding{ID: active[0].ID, Nickname: active[0].Nickname}
	g.Finished = true
	return true
}

func (g *ThiefGame) advanceTurn() {
	if len(g.turnOrder) == 0 {
		return
	}
	g.turnIdx = (g.turnIdx + 1) % len(g.turnOrder)
	g.skipToActive()
}

func (g *ThiefGame) skipToActive() {
	for range g.turnOrder {
		p := g.player(g.turnOrder[g.turnIdx])
		if p != nil && !p.Eliminated && len(p.Hand) > 0 {
			return
		}
		g.turnIdx = (g.turnIdx + 1) % len(g.turnOrder)
	}
}

// ThiefPlayerView is one seat as seen by a specific recipient: own cards in
// full, everyone else's hand only as a count.
type ThiefPlayerView struct {
	ID          uuid.UUID `json:"id"`
	Nickname    string    `json:"nickname"`
	CardCount   int       `json:"cardCount"`
	Eliminated  bool      `json:"isEliminated"`
	FinishOrder int       `json:"finishOrder,omitempty"`
	Cards       []Card    `json:"cards,omitempty"`
}

// ThiefView is the filtered snapshot sent to one recipient.
type ThiefView struct {
	Players       []ThiefPlayerView `json:"players"`
	MyCards       []Card            `json:"myCards"`
	CurrentTurnID uuid.UUID         `json:"currentTurnId"`
	NextTargetID  uuid.UUID         `json:"nextTargetId"`
	Winners       []ThiefStanding   `json:"winners"`
	Loser         *ThiefStanding    `json:"loser,omitempty"`
	GameOver      bool              `json:"gameOver"`
}

// View builds the snapshot for one recipient. The asymmetric visibility here
// is the core mechanic: a hand other than the recipient's own must never
// appear in the payload.
func (g *ThiefGame) View(forID uuid.UUID) ThiefView {
	v := ThiefView{
		CurrentTurnID: g.CurrentTurnID(),
		NextTargetID:  g.NextTargetID(),
		Winners:       g.Winners,
		Loser:         g.Loser,
		GameOver:      g.Finished,
		MyCards:       []Card{},
	}
	for _, p := range g.Players {
		pv := ThiefPlayerView{
			ID:          p.ID,
			Nickname:    p.Nickname,
			CardCount:   len(p.Hand),
			Eliminated:  p.Eliminated,
			FinishOrder: p.FinishOrder,
		}
		if p.ID == forID {
			pv.Cards = append([]Card{}, p.Hand...)
			v.MyCards = pv.Cards
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

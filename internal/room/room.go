// internal/room/room.go
package room

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"jomha/internal/game"
)

// GameType selects which engine a room runs.
type GameType string

const (
	ThiefCatcher GameType = "thief-catcher"
	IndianPoker  GameType = "indian-poker"
)

// Valid reports whether t names a known game.
func (t GameType) Valid() bool {
	return t == ThiefCatcher || t == IndianPoker
}

// Phase is the room lifecycle as shown to clients.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseBetting  Phase = "betting"
	PhaseReveal   Phase = "reveal"
	PhaseFinished Phase = "finished"
)

// MaxPlayers caps seats per room, spectators included.
const MaxPlayers = 6

// pokerSeats is the number of players actually dealt into an Indian Poker
// match; later joiners watch.
const pokerSeats = 2

// Player is the lobby-level record for one connected participant. The
// engines keep their own per-player state keyed by the same id.
type Player struct {
	ID          uuid.UUID `json:"id"`
	Nickname    string    `json:"nickname"`
	IsHost      bool      `json:"isHost"`
	IsReady     bool      `json:"isReady"`
	IsSpectator bool      `json:"isSpectator"`
}

// Room is one lobby and its running game, if any. Mu serializes everything:
// handlers lock it for the full span of a message, so the engines and the
// player list never need locks of their own.
type Room struct {
	Mu sync.Mutex

	Code    string
	Type    GameType
	Players []*Player

	// Exactly one of these is non-nil while a game runs.
	Thief *game.ThiefGame
	Poker *game.PokerGame

	// Reveal fallback: armed when an Indian Poker round settles, fired only
	// if no client asks for the next round in time. revealSeq invalidates
	// callbacks from timers that were superseded before firing.
	revealTimer *time.Timer
	revealSeq   int
}

// New creates an empty waiting room.
func New(code string, gameType GameType) *Room {
	return &Room{Code: code, Type: gameType}
}

// Player returns the lobby record for id, or nil.
func (r *Room) Player(id uuid.UUID) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host returns the current host, or nil for an empty room.
func (r *Room) Host() *Player {
	for _, p := range r.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// AddPlayer seats a new participant. The first player in becomes host. A
// join is refused when the room is at capacity; whether a join during a
// running game becomes a spectator is the caller's decision (it depends on
// the game type), passed via asSpectator.
func (r *Room) AddPlayer(id uuid.UUID, nickname string, asSpectator bool) (*Player, error) {
	if len(r.Players) >= MaxPlayers {
		return nil, game.ErrRoomFull
	}
	p := &Player{
		ID:          id,
		Nickname:    nickname,
		IsHost:      len(r.Players) == 0,
		IsSpectator: asSpectator,
	}
	r.Players = append(r.Players, p)
	return p, nil
}

// RemovePlayer drops a participant from the lobby. If the host leaves, the
// earliest-joined remaining player inherits the role and is marked ready so
// a start is never blocked on the player who just got promoted.
func (r *Room) RemovePlayer(id uuid.UUID) *Player {
	for i, p := range r.Players {
		if p.ID != id {
			continue
		}
		r.Players = append(r.Players[:i], r.Players[i+1:]...)
		if p.IsHost && len(r.Players) > 0 {
			r.Players[0].IsHost = true
			r.Players[0].IsReady = true
		}
		return p
	}
	return nil
}

// ToggleReady flips a non-host player's ready flag. The host has no ready
// state; toggling it is a silent no-op.
func (r *Room) ToggleReady(id uuid.UUID) {
	p := r.Player(id)
	if p == nil || p.IsHost {
		return
	}
	p.IsReady = !p.IsReady
}

// AllReady reports whether every seated non-host player is ready.
// Spectators do not block a start.
func (r *Room) AllReady() bool {
	for _, p := range r.Players {
		if !p.IsHost && !p.IsSpectator && !p.IsReady {
			return false
		}
	}
	return true
}

// Seated returns the players who would be dealt into a game, in join order.
func (r *Room) Seated() []*Player {
	var seated []*Player
	for _, p := range r.Players {
		if !p.IsSpectator {
			seated = append(seated, p)
		}
	}
	return seated
}

// CanSeat reports whether a new joiner would get a seat rather than a
// spectator slot. Thief Catcher never seats into a running game; Indian
// Poker seats at most two players ever.
func (r *Room) CanSeat() bool {
	if r.InGame() {
		return false
	}
	if r.Type == IndianPoker && len(r.Seated()) >= pokerSeats {
		return false
	}
	return true
}

// InGame reports whether an engine is running.
func (r *Room) InGame() bool {
	return r.Thief != nil || r.Poker != nil
}

// Phase derives the lifecycle phase from the engine state.
func (r *Room) Phase() Phase {
	switch {
	case r.Thief != nil:
		if r.Thief.Finished {
			return PhaseFinished
		}
		return PhasePlaying
	case r.Poker != nil:
		switch r.Poker.Status {
		case game.RoundReveal:
			return PhaseReveal
		case game.RoundFinished:
			return PhaseFinished
		default:
			return PhaseBetting
		}
	default:
		return PhaseWaiting
	}
}

// Reset returns the room to the waiting phase: engines dropped, spectators
// promoted to seats, every non-host ready flag cleared.
func (r *Room) Reset() {
	r.Thief = nil
	r.Poker = nil
	r.CancelRevealTimer()
	for _, p := range r.Players {
		p.IsSpectator = false
		if !p.IsHost {
			p.IsReady = false
		}
	}
}

// ScheduleRevealTimer arms the reveal fallback. The callback receives the
// sequence number captured at arm time and must present it to
// RevealTimerValid before acting. Any previously armed timer is superseded.
func (r *Room) ScheduleRevealTimer(d time.Duration, fn func(seq int)) {
	r.CancelRevealTimer()
	r.revealSeq++
	seq := r.revealSeq
	r.revealTimer = time.AfterFunc(d, func() { fn(seq) })
}

// RevealTimerValid reports whether a firing callback still speaks for the
// current round. A stale timer that lost the race to a client request sees a
// bumped sequence and must do nothing.
func (r *Room) RevealTimerValid(seq int) bool {
	return r.revealSeq == seq
}

// CancelRevealTimer stops any pending fallback and invalidates callbacks
// already in flight.
func (r *Room) CancelRevealTimer() {
	if r.revealTimer != nil {
		r.revealTimer.Stop()
		r.revealTimer = nil
	}
	r.revealSeq++
}

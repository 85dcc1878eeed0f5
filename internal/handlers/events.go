// internal/handlers/events.go
package handlers

import (
	"errors"

	"jomha/internal/game"
	"jomha/internal/room"
)

// Client-facing rejection codes. Every rule failure maps to one of these;
// the accompanying message is human-readable and not part of the contract.
const (
	codeRoomNotFound   = "room_not_found"
	codeRoomFull       = "room_full"
	codeGameInProgress = "game_in_progress"
	codeNotYourTurn    = "not_your_turn"
	codeInvalidTarget  = "invalid_target"
	codeInvalidBet     = "invalid_bet"
	codeInvalidState   = "invalid_state"
	codeValidation     = "validation_error"
)

// rejectionCode maps an engine or room error to its wire code.
func rejectionCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return codeRoomNotFound
	case errors.Is(err, game.ErrRoomFull):
		return codeRoomFull
	case errors.Is(err, game.ErrGameInProgress):
		return codeGameInProgress
	case errors.Is(err, game.ErrNotYourTurn):
		return codeNotYourTurn
	case errors.Is(err, game.ErrInvalidTarget):
		return codeInvalidTarget
	case errors.Is(err, game.ErrInvalidBet):
		return codeInvalidBet
	case errors.Is(err, game.ErrInvalidState):
		return codeInvalidState
	default:
		return codeValidation
	}
}

// roomState is the lobby snapshot broadcast whenever membership, readiness,
// or the game type changes. It carries no hidden information, so one copy
// serves every recipient.
type roomState struct {
	RoomCode string        `json:"roomCode"`
	GameType room.GameType `json:"gameType"`
	Phase    room.Phase    `json:"phase"`
	Players  []room.Player `json:"players"`
}

// roomStateOf copies the player records into the snapshot. The write pump
// marshals queued payloads after the room lock is released, so a payload
// must never alias state a later handler can mutate.
func roomStateOf(rm *room.Room) roomState {
	players := make([]room.Player, len(rm.Players))
	for i, p := range rm.Players {
		players[i] = *p
	}
	return roomState{
		RoomCode: rm.Code,
		GameType: rm.Type,
		Phase:    rm.Phase(),
		Players:  players,
	}
}

// broadcastRoomState pushes the shared lobby snapshot to the whole room.
// The caller holds the room's mutex.
func (s *Server) broadcastRoomState(rm *room.Room) {
	s.broadcastRoom(rm, Event{Type: "room-updated", Payload: roomStateOf(rm)})
}

// broadcastThiefViews fans out per-recipient snapshots; each participant
// sees their own hand and card counts for everyone else.
func (s *Server) broadcastThiefViews(rm *room.Room, evType string) {
	for _, p := range rm.Players {
		s.sendTo(p.ID, Event{Type: evType, Payload: rm.Thief.View(p.ID)})
	}
}

// broadcastPokerViews fans out per-recipient snapshots; a seated player
// sees the opponent's card, spectators see both.
func (s *Server) broadcastPokerViews(rm *room.Room, evType string) {
	for _, p := range rm.Players {
		s.sendTo(p.ID, Event{Type: evType, Payload: rm.Poker.View(p.ID)})
	}
}

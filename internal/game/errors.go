// internal/game/errors.go
package game

import "errors"

// Rule failures are sentinel errors so the dispatch layer can map them to
// client-facing rejection codes with errors.Is. Failures are returned to the
// requesting client only; they are never broadcast.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrInvalidBet     = errors.New("invalid bet")
	ErrInvalidState   = errors.New("invalid state for this action")
	ErrValidation     = errors.New("validation failed")
)

// internal/handlers/dispatch.go
package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"jomha/internal/game"
	"jomha/internal/room"
)

const maxChatLen = 500

// dispatch routes one inbound frame. Room-scoped handlers lock the room's
// mutex for the full span of the message, so every mutation and its fanout
// are atomic with respect to other clients in the same room.
func (s *Server) dispatch(sess *Session, env Envelope) {
	switch env.Type {
	case "create-room":
		s.handleCreateRoom(sess, env)
	case "join-room":
		s.handleJoinRoom(sess, env)
	case "leave-room":
		s.handleLeaveRoom(sess, env)
	case "toggle-ready":
		s.handleToggleReady(sess, env)
	case "change-game-type":
		s.handleChangeGameType(sess, env)
	case "change-nickname":
		s.handleChangeNickname(sess, env)
	case "start-game":
		s.handleStartGame(sess, env)
	case "draw-card":
		s.handleDrawCard(sess, env)
	case "shuffle-cards":
		s.handleShuffleCards(sess, env)
	case "indian-poker-bet":
		s.handlePokerBet(sess, env)
	case "indian-poker-call":
		s.handlePokerCall(sess, env)
	case "indian-poker-die":
		s.handlePokerDie(sess, env)
	case "indian-poker-next-round":
		s.handlePokerNextRound(sess, env)
	case "request-play-again":
		s.handlePlayAgain(sess, env)
	case "chat-message":
		s.handleChat(sess, env)
	case "webrtc-offer", "webrtc-answer", "webrtc-ice-candidate":
		s.handleWebRTCRelay(sess, env)
	case "card-hover", "card-hover-end":
		s.handleCardHoverRelay(sess, env)
	default:
		sess.SendError(env.ReqID, codeValidation, "unknown message type: "+env.Type, s.Logger)
	}
}

// roomOf resolves the session's current room.
func (s *Server) roomOf(sess *Session) (*room.Room, error) {
	if sess.RoomCode == "" {
		return nil, game.ErrRoomNotFound
	}
	return s.Registry.Get(sess.RoomCode)
}

func (s *Server) reject(sess *Session, reqID string, err error) {
	sess.SendError(reqID, rejectionCode(err), err.Error(), s.Logger)
}

func (s *Server) resolveNickname(raw string) string {
	if nick := room.SanitizeNickname(raw); nick != "" {
		return nick
	}
	return room.RandomNickname(s.newGameRNG())
}

// --- lobby ---

func (s *Server) handleCreateRoom(sess *Session, env Envelope) {
	var p struct {
		GameType room.GameType `json:"gameType"`
		Nickname string        `json:"nickname"`
	}
	_ = json.Unmarshal(env.Payload, &p)
	if sess.RoomCode != "" {
		sess.SendError(env.ReqID, codeValidation, "already in a room", s.Logger)
		return
	}
	if !p.GameType.Valid() {
		sess.SendError(env.ReqID, codeValidation, "unknown game type", s.Logger)
		return
	}

	rm := s.Registry.Create(p.GameType)
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	player, err := rm.AddPlayer(sess.ID, s.resolveNickname(p.Nickname), false)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	sess.RoomCode = rm.Code
	s.Logger.Infof("room %s created by %s (%s)", rm.Code, player.Nickname, sess.ID)

	sess.Send(Event{Type: "room-created", ReqID: env.ReqID, Payload: roomStateOf(rm)}, s.Logger)
}

func (s *Server) handleJoinRoom(sess *Session, env Envelope) {
	var p struct {
		RoomCode string `json:"roomCode"`
		Nickname string `json:"nickname"`
	}
	_ = json.Unmarshal(env.Payload, &p)
	if sess.RoomCode != "" {
		sess.SendError(env.ReqID, codeValidation, "already in a room", s.Logger)
		return
	}

	rm, err := s.Registry.Get(strings.ToUpper(strings.TrimSpace(p.RoomCode)))
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}

	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	asSpectator := false
	if !rm.CanSeat() {
		// A Thief Catcher match cannot absorb latecomers even as watchers;
		// an Indian Poker table can.
		if rm.Type == room.ThiefCatcher {
			s.reject(sess, env.ReqID, game.ErrGameInProgress)
			return
		}
		asSpectator = true
	}

	player, err := rm.AddPlayer(sess.ID, s.resolveNickname(p.Nickname), asSpectator)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	sess.RoomCode = rm.Code

	sess.Send(Event{Type: "room-joined", ReqID: env.ReqID, Payload: roomStateOf(rm)}, s.Logger)
	s.broadcastRoomExcept(rm, sess.ID, Event{Type: "player-joined", Payload: *player})
	s.broadcastRoomExcept(rm, sess.ID, Event{Type: "room-updated", Payload: roomStateOf(rm)})

	// Late joiners to a running Indian Poker game catch up immediately.
	if rm.Poker != nil {
		sess.Send(Event{Type: "game-state", Payload: rm.Poker.View(sess.ID)}, s.Logger)
	}
}

func (s *Server) handleLeaveRoom(sess *Session, env Envelope) {
	if sess.RoomCode == "" {
		sess.SendError(env.ReqID, codeRoomNotFound, "not in a room", s.Logger)
		return
	}
	s.leaveRoom(sess)
	sess.Send(Event{Type: "room-left", ReqID: env.ReqID}, s.Logger)
}

// handleDisconnect runs the same departure path as an explicit leave once
// the read pump exits.
func (s *Server) handleDisconnect(sess *Session) {
	s.leaveRoom(sess)
}

// leaveRoom removes the session's player from its room, repairs or abandons
// any running game, and deletes the room once empty.
func (s *Server) leaveRoom(sess *Session) {
	rm, err := s.roomOf(sess)
	if err != nil {
		sess.RoomCode = ""
		return
	}

	rm.Mu.Lock()
	left := rm.RemovePlayer(sess.ID)
	sess.RoomCode = ""
	if left == nil {
		rm.Mu.Unlock()
		return
	}

	if len(rm.Players) == 0 {
		rm.CancelRevealTimer()
		rm.Mu.Unlock()
		s.Registry.Delete(rm.Code)
		s.Logger.Infof("room %s emptied and deleted", rm.Code)
		return
	}

	switch {
	case rm.Thief != nil && !rm.Thief.Finished:
		// The departing hand is redistributed and play continues.
		rm.Thief.RemovePlayer(left.ID)
		if rm.Thief.Finished {
			s.broadcastRoom(rm, Event{Type: "game-over", Payload: map[string]interface{}{
				"winners": rm.Thief.Winners,
				"loser":   rm.Thief.Loser,
			}})
		}
		s.broadcastThiefViews(rm, "game-state")
	case rm.Poker != nil && !left.IsSpectator && rm.Poker.Status != game.RoundFinished:
		// Heads-up poker cannot continue short a player; the match is
		// abandoned and the room returns to the lobby.
		rm.Reset()
		s.broadcastRoom(rm, Event{Type: "game-aborted", Payload: map[string]string{
			"reason": "player-left",
		}})
	}

	s.broadcastRoom(rm, Event{Type: "player-left", Payload: map[string]string{
		"playerId": left.ID.String(),
		"nickname": left.Nickname,
	}})
	s.broadcastRoomState(rm)
	rm.Mu.Unlock()
}

func (s *Server) handleToggleReady(sess *Session, env Envelope) {
	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	rm.ToggleReady(sess.ID)
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.broadcastRoomState(rm)
}

func (s *Server) handleChangeGameType(sess *Session, env Envelope) {
	var p struct {
		GameType room.GameType `json:"gameType"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if host := rm.Host(); host == nil || host.ID != sess.ID {
		sess.SendError(env.ReqID, codeValidation, "only the host can change the game", s.Logger)
		return
	}
	if rm.InGame() {
		s.reject(sess, env.ReqID, game.ErrGameInProgress)
		return
	}
	if !p.GameType.Valid() {
		sess.SendError(env.ReqID, codeValidation, "unknown game type", s.Logger)
		return
	}
	if p.GameType != rm.Type {
		s.Registry.Migrate(rm, p.GameType)
	}
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.broadcastRoomState(rm)
}

func (s *Server) handleChangeNickname(sess *Session, env Envelope) {
	var p struct {
		Nickname string `json:"nickname"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	player := rm.Player(sess.ID)
	if player == nil {
		s.reject(sess, env.ReqID, game.ErrRoomNotFound)
		return
	}
	nick := s.resolveNickname(p.Nickname)
	player.Nickname = nick

	// Running engines carry their own nickname copies for result payloads.
	if rm.Thief != nil {
		for _, tp := range rm.Thief.Players {
			if tp.ID == sess.ID {
				tp.Nickname = nick
			}
		}
	}
	if rm.Poker != nil {
		for _, pp := range rm.Poker.Players {
			if pp.ID == sess.ID {
				pp.Nickname = nick
			}
		}
	}

	sess.Send(Event{Type: "ack", ReqID: env.ReqID, Payload: map[string]string{"nickname": nick}}, s.Logger)
	s.broadcastRoomState(rm)
}

// --- game lifecycle ---

func (s *Server) handleStartGame(sess *Session, env Envelope) {
	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if host := rm.Host(); host == nil || host.ID != sess.ID {
		sess.SendError(env.ReqID, codeValidation, "only the host can start the game", s.Logger)
		return
	}
	if rm.InGame() {
		s.reject(sess, env.ReqID, game.ErrGameInProgress)
		return
	}
	if !rm.AllReady() {
		sess.SendError(env.ReqID, codeValidation, "not all players are ready", s.Logger)
		return
	}

	seated := rm.Seated()
	switch rm.Type {
	case room.ThiefCatcher:
		if len(seated) < 2 {
			sess.SendError(env.ReqID, codeValidation, "need at least 2 players", s.Logger)
			return
		}
		seats := make([]game.ThiefSeat, 0, len(seated))
		for _, p := range seated {
			seats = append(seats, game.ThiefSeat{ID: p.ID, Nickname: p.Nickname})
		}
		rm.Thief = game.NewThiefGame(seats, s.newGameRNG())
		s.Logger.Infof("room %s: thief-catcher started with %d players", rm.Code, len(seats))
		sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
		s.broadcastThiefViews(rm, "game-started")
		// The deal itself can end a two-player game when one hand pairs off
		// completely.
		if rm.Thief.Finished {
			s.broadcastRoom(rm, Event{Type: "game-over", Payload: map[string]interface{}{
				"winners": rm.Thief.Winners,
				"loser":   rm.Thief.Loser,
			}})
		}
	case room.IndianPoker:
		if len(seated) < 2 {
			sess.SendError(env.ReqID, codeValidation, "need 2 players", s.Logger)
			return
		}
		// The first two seats play; anyone else watches.
		for _, p := range seated[2:] {
			p.IsSpectator = true
		}
		a, b := seated[0], seated[1]
		rm.Poker = game.NewPokerGame(
			game.PokerSeat{ID: a.ID, Nickname: a.Nickname},
			game.PokerSeat{ID: b.ID, Nickname: b.Nickname},
			s.newGameRNG(),
		)
		s.Logger.Infof("room %s: indian-poker started (%s vs %s)", rm.Code, a.Nickname, b.Nickname)
		sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
		s.broadcastPokerViews(rm, "game-started")
	}
	s.broadcastRoomState(rm)
}

func (s *Server) handlePlayAgain(sess *Session, env Envelope) {
	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if host := rm.Host(); host == nil || host.ID != sess.ID {
		sess.SendError(env.ReqID, codeValidation, "only the host can restart", s.Logger)
		return
	}
	rm.Reset()
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.broadcastRoom(rm, Event{Type: "game-reset"})
	s.broadcastRoomState(rm)
}

// --- thief catcher ---

func (s *Server) handleDrawCard(sess *Session, env Envelope) {
	var p struct {
		TargetID  uuid.UUID `json:"targetId"`
		CardIndex int       `json:"cardIndex"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if rm.Thief == nil {
		s.reject(sess, env.ReqID, game.ErrInvalidState)
		return
	}
	res, err := rm.Thief.DrawCard(sess.ID, p.TargetID, p.CardIndex)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}

	// Everyone learns a draw happened; only the drawer learns which card.
	for _, pl := range rm.Players {
		payload := map[string]interface{}{
			"drawerId":      sess.ID.String(),
			"targetId":      p.TargetID.String(),
			"drawerMatched": res.DrawerMatched,
			"targetMatched": res.TargetMatched,
			"state":         rm.Thief.View(pl.ID),
		}
		ev := Event{Type: "card-drawn", Payload: payload}
		if pl.ID == sess.ID {
			payload["drawnCard"] = res.DrawnCard
			ev.ReqID = env.ReqID
		}
		s.sendTo(pl.ID, ev)
	}

	if res.GameOver {
		s.broadcastRoom(rm, Event{Type: "game-over", Payload: map[string]interface{}{
			"winners": res.Winners,
			"loser":   res.Loser,
		}})
		s.broadcastRoomState(rm)
	}
}

func (s *Server) handleShuffleCards(sess *Session, env Envelope) {
	var p struct {
		TargetID uuid.UUID `json:"targetId"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if rm.Thief == nil {
		s.reject(sess, env.ReqID, game.ErrInvalidState)
		return
	}
	if err := rm.Thief.ShuffleTarget(sess.ID, p.TargetID); err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}

	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.broadcastRoom(rm, Event{Type: "cards-shuffled", Payload: map[string]string{
		"playerId": sess.ID.String(),
		"targetId": p.TargetID.String(),
	}})
	s.broadcastThiefViews(rm, "game-state")
}

// --- indian poker ---

func (s *Server) pokerGame(sess *Session, reqID string) (*room.Room, *game.PokerGame, bool) {
	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, reqID, err)
		return nil, nil, false
	}
	rm.Mu.Lock()
	if rm.Poker == nil {
		rm.Mu.Unlock()
		s.reject(sess, reqID, game.ErrInvalidState)
		return nil, nil, false
	}
	return rm, rm.Poker, true
}

func (s *Server) handlePokerBet(sess *Session, env Envelope) {
	var p struct {
		Amount int `json:"amount"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, pg, ok := s.pokerGame(sess, env.ReqID)
	if !ok {
		return
	}
	defer rm.Mu.Unlock()

	if err := pg.PlaceBet(sess.ID, p.Amount); err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.broadcastRoom(rm, Event{Type: "bet-placed", Payload: map[string]interface{}{
		"playerId": sess.ID.String(),
		"pot":      pg.Pot,
	}})
	s.broadcastPokerViews(rm, "game-state")
}

func (s *Server) handlePokerCall(sess *Session, env Envelope) {
	rm, pg, ok := s.pokerGame(sess, env.ReqID)
	if !ok {
		return
	}
	defer rm.Mu.Unlock()

	res, err := pg.Call(sess.ID)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.settleRound(rm, res)
}

func (s *Server) handlePokerDie(sess *Session, env Envelope) {
	rm, pg, ok := s.pokerGame(sess, env.ReqID)
	if !ok {
		return
	}
	defer rm.Mu.Unlock()

	res, err := pg.Die(sess.ID)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.settleRound(rm, res)
}

// settleRound broadcasts a round result and either closes the match or arms
// the reveal fallback so a round of absent clients cannot wedge the game.
func (s *Server) settleRound(rm *room.Room, res *game.PokerRevealResult) {
	s.broadcastRoom(rm, Event{Type: "round-result", Payload: res})
	s.broadcastPokerViews(rm, "game-state")

	if res.GameOver {
		s.broadcastRoom(rm, Event{Type: "match-over", Payload: map[string]string{
			"winnerId": res.MatchWinnerID.String(),
		}})
		s.broadcastRoomState(rm)
		return
	}

	rm.ScheduleRevealTimer(s.Cfg.RevealTimeout, func(seq int) {
		s.revealTimeout(rm, seq)
	})
}

// revealTimeout fires when neither client requested the next round in time.
// The sequence check discards callbacks that lost the race to a client
// request or to a room reset.
func (s *Server) revealTimeout(rm *room.Room, seq int) {
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if !rm.RevealTimerValid(seq) {
		return
	}
	if rm.Poker == nil || rm.Poker.Status != game.RoundReveal {
		return
	}
	s.Logger.Infof("room %s: reveal timeout, dealing next round", rm.Code)
	s.startNextPokerRound(rm)
}

func (s *Server) handlePokerNextRound(sess *Session, env Envelope) {
	rm, pg, ok := s.pokerGame(sess, env.ReqID)
	if !ok {
		return
	}
	defer rm.Mu.Unlock()

	seated := false
	for _, pp := range pg.Players {
		if pp.ID == sess.ID {
			seated = true
		}
	}
	if !seated {
		s.reject(sess, env.ReqID, game.ErrNotYourTurn)
		return
	}
	if pg.Status != game.RoundReveal {
		// The racing duplicate arrives after the first request already
		// dealt; acknowledge without touching the game.
		sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
		return
	}
	rm.CancelRevealTimer()
	sess.Send(Event{Type: "ack", ReqID: env.ReqID}, s.Logger)
	s.startNextPokerRound(rm)
}

// startNextPokerRound deals the next round and fans out the fresh views.
// The caller holds the room's mutex and has verified the reveal phase.
func (s *Server) startNextPokerRound(rm *room.Room) {
	if err := rm.Poker.StartRound(); err != nil {
		s.Logger.Warnf("room %s: next round failed: %v", rm.Code, err)
		return
	}
	if rm.Poker.Status == game.RoundFinished {
		// A player could not cover the ante.
		s.broadcastRoom(rm, Event{Type: "match-over", Payload: map[string]string{
			"winnerId": rm.Poker.MatchWinnerID.String(),
		}})
		s.broadcastRoomState(rm)
		return
	}
	s.broadcastPokerViews(rm, "round-started")
}

// --- relays ---

func (s *Server) handleChat(sess *Session, env Envelope) {
	var p struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	msg := strings.TrimSpace(p.Message)
	if msg == "" || len(msg) > maxChatLen {
		sess.SendError(env.ReqID, codeValidation, "message must be 1-500 characters", s.Logger)
		return
	}
	player := rm.Player(sess.ID)
	if player == nil {
		s.reject(sess, env.ReqID, game.ErrRoomNotFound)
		return
	}

	s.broadcastRoom(rm, Event{Type: "chat-message", Payload: map[string]string{
		"playerId":  sess.ID.String(),
		"nickname":  player.Nickname,
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}})
}

// handleWebRTCRelay forwards signaling payloads between two participants in
// the same room. The server never inspects the SDP or candidate contents.
func (s *Server) handleWebRTCRelay(sess *Session, env Envelope) {
	var p struct {
		TargetID uuid.UUID `json:"targetId"`
	}
	_ = json.Unmarshal(env.Payload, &p)

	rm, err := s.roomOf(sess)
	if err != nil {
		s.reject(sess, env.ReqID, err)
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if rm.Player(p.TargetID) == nil {
		s.reject(sess, env.ReqID, game.ErrInvalidTarget)
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload == nil {
		payload = map[string]interface{}{}
	}
	payload["fromId"] = sess.ID.String()
	s.sendTo(p.TargetID, Event{Type: env.Type, Payload: payload})
}

// handleCardHoverRelay mirrors a player's hover state to the rest of the
// room for the table UI. Pure presentation; no validation beyond membership.
func (s *Server) handleCardHoverRelay(sess *Session, env Envelope) {
	rm, err := s.roomOf(sess)
	if err != nil {
		return
	}
	rm.Mu.Lock()
	defer rm.Mu.Unlock()

	if rm.Player(sess.ID) == nil {
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(env.Payload, &payload); err != nil || payload == nil {
		payload = map[string]interface{}{}
	}
	payload["playerId"] = sess.ID.String()
	s.broadcastRoomExcept(rm, sess.ID, Event{Type: env.Type, Payload: payload})
}

// internal/handlers/server.go
package handlers

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"jomha/internal/config"
	"jomha/internal/game"
	"jomha/internal/middleware"
	"jomha/internal/room"
)

// Server owns the live sessions and the room registry. Per-room state is
// guarded by each room's mutex; the server's own mutex covers only the
// session table.
type Server struct {
	Logger   *logrus.Logger
	Registry *room.Registry
	Cfg      config.Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	// newGameRNG seeds each started game. Swapped for a fixed seed in tests
	// so deals are replayable.
	newGameRNG func() *rand.Rand
}

// NewServer wires a server with time-seeded randomness.
func NewServer(logger *logrus.Logger, cfg config.Config) *Server {
	return &Server{
		Logger:     logger,
		Registry:   room.NewRegistry(rand.New(rand.NewSource(time.Now().UnixNano()))),
		Cfg:        cfg,
		sessions:   make(map[uuid.UUID]*Session),
		newGameRNG: func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
	}
}

// Router builds the HTTP surface: the room probe endpoint and the WebSocket
// upgrade path.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger(s.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/api/rooms/{code}", s.RoomProbeHandler)
	r.Get("/ws", s.WSHandler())
	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.Cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.Cfg.AllowedOrigins
}

// roomProbe is the REST view of a room, used by the join screen to validate
// a code before opening a WebSocket.
type roomProbe struct {
	RoomCode    string        `json:"roomCode"`
	GameType    room.GameType `json:"gameType"`
	Phase       room.Phase    `json:"phase"`
	PlayerCount int           `json:"playerCount"`
	Joinable    bool          `json:"joinable"`
}

// RoomProbeHandler reports whether a room code is joinable: 404 for an
// unknown code, 409 when the room cannot take another participant.
func (s *Server) RoomProbeHandler(w http.ResponseWriter, r *http.Request) {
	// Same normalization as join-room, so a lowercased shared link probes
	// the room it would join.
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	rm, err := s.Registry.Get(code)
	if errors.Is(err, game.ErrRoomNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room_not_found"})
		return
	}

	rm.Mu.Lock()
	probe := roomProbe{
		RoomCode:    rm.Code,
		GameType:    rm.Type,
		Phase:       rm.Phase(),
		PlayerCount: len(rm.Players),
	}
	full := len(rm.Players) >= room.MaxPlayers
	startedThief := rm.Type == room.ThiefCatcher && rm.InGame()
	probe.Joinable = !full && !startedThief
	rm.Mu.Unlock()

	if !probe.Joinable {
		writeJSON(w, http.StatusConflict, probe)
		return
	}
	writeJSON(w, http.StatusOK, probe)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- session table ---

func (s *Server) addSession(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

func (s *Server) removeSession(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) session(id uuid.UUID) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// sendTo queues an event for one participant, silently skipping ids with no
// live session (a player whose socket just dropped).
func (s *Server) sendTo(id uuid.UUID, ev Event) {
	if sess := s.session(id); sess != nil {
		sess.Send(ev, s.Logger)
	}
}

// broadcastRoom queues the same event for every participant in the room.
// The caller holds the room's mutex.
func (s *Server) broadcastRoom(rm *room.Room, ev Event) {
	for _, p := range rm.Players {
		s.sendTo(p.ID, ev)
	}
}

// broadcastRoomExcept queues an event for everyone in the room but one id,
// used for relays the sender originated.
func (s *Server) broadcastRoomExcept(rm *room.Room, except uuid.UUID, ev Event) {
	for _, p := range rm.Players {
		if p.ID != except {
			s.sendTo(p.ID, ev)
		}
	}
}

// internal/handlers/server_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jomha/internal/room"
)

func probeRoom(t *testing.T, s *Server, code string) (*httptest.ResponseRecorder, roomProbe) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/"+code, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var probe roomProbe
	if rec.Code != http.StatusNotFound {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &probe))
	}
	return rec, probe
}

func TestRoomProbe_UnknownCode(t *testing.T) {
	s := newTestServer()
	rec, _ := probeRoom(t, s, "ZZZZZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomProbe_JoinableRoom(t *testing.T) {
	s := newTestServer()
	rm := s.Registry.Create(room.ThiefCatcher)
	rm.Mu.Lock()
	_, err := rm.AddPlayer(uuid.New(), "host", false)
	rm.Mu.Unlock()
	require.NoError(t, err)

	rec, probe := probeRoom(t, s, rm.Code)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rm.Code, probe.RoomCode)
	assert.Equal(t, room.ThiefCatcher, probe.GameType)
	assert.Equal(t, room.PhaseWaiting, probe.Phase)
	assert.Equal(t, 1, probe.PlayerCount)
	assert.True(t, probe.Joinable)
}

func TestRoomProbe_NormalizesCode(t *testing.T) {
	s := newTestServer()
	rm := s.Registry.Create(room.ThiefCatcher)
	rm.Mu.Lock()
	_, err := rm.AddPlayer(uuid.New(), "host", false)
	rm.Mu.Unlock()
	require.NoError(t, err)

	// A lowercased shared link must probe the same room it would join.
	rec, probe := probeRoom(t, s, strings.ToLower(rm.Code))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rm.Code, probe.RoomCode)
}

func TestRoomProbe_FullRoomConflicts(t *testing.T) {
	s := newTestServer()
	rm := s.Registry.Create(room.ThiefCatcher)
	rm.Mu.Lock()
	for i := 0; i < room.MaxPlayers; i++ {
		_, err := rm.AddPlayer(uuid.New(), "p", false)
		require.NoError(t, err)
	}
	rm.Mu.Unlock()

	rec, probe := probeRoom(t, s, rm.Code)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, probe.Joinable)
	assert.Equal(t, room.MaxPlayers, probe.PlayerCount)
}

func TestRoomProbe_StartedThiefGameConflicts(t *testing.T) {
	s := newTestServer()
	_, _, _, rm := startThief(t, s)

	rec, probe := probeRoom(t, s, rm.Code)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, probe.Joinable)
	assert.Equal(t, room.PhasePlaying, probe.Phase)
}

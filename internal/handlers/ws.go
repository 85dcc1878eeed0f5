// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"jomha/internal/middleware"
)

const wsSubprotocol = "jomha"

// WSHandler upgrades the connection, registers a session, and runs the
// read/write pump pair until the client goes away.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{wsSubprotocol},
			OriginPatterns: s.allowedOrigins(),
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != wsSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the jomha subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		sess := &Session{
			ID:      uuid.New(),
			OutChan: make(chan Event, 32),
			Cancel:  cancel,
		}
		s.addSession(sess)
		middleware.LogWebSocketConnect(s.Logger, remoteAddr)

		// The client learns its server-assigned id before anything else.
		sess.Send(Event{Type: "connected", Payload: map[string]string{"playerId": sess.ID.String()}}, s.Logger)

		go writePump(ctx, c, sess, s.Logger)
		readErr := s.readPump(ctx, c, sess)

		s.handleDisconnect(sess)
		s.removeSession(sess.ID)
		cancel()
		middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, readErr)
	}
}

// readPump consumes frames until the connection drops. Malformed frames are
// answered with an error event and skipped; they never kill the session.
func (s *Server) readPump(ctx context.Context, c *websocket.Conn, sess *Session) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			s.Logger.Warnf("session %s: ignoring non-text frame", sess.ID)
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			sess.SendError("", codeValidation, "invalid JSON frame", s.Logger)
			continue
		}
		s.dispatch(sess, env)
	}
}

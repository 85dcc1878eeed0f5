// internal/handlers/session.go
package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Envelope is the inbound client message frame. ReqID, when present, is
// echoed on the ack or error so the client can correlate replies.
type Envelope struct {
	Type    string          `json:"type"`
	ReqID   string          `json:"reqId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the outbound server message frame.
type Event struct {
	Type    string      `json:"type"`
	ReqID   string      `json:"reqId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Session is one connected client. Its id doubles as the player id inside
// whichever room the session joins.
type Session struct {
	ID       uuid.UUID
	RoomCode string
	OutChan  chan Event
	Cancel   context.CancelFunc
}

// Send queues an event without blocking. A client too slow to drain its
// buffer loses events rather than stalling the room; the periodic full
// snapshots resynchronize it.
func (s *Session) Send(ev Event, logger *logrus.Logger) {
	select {
	case s.OutChan <- ev:
	default:
		logger.Warnf("session %s: outbound buffer full, dropping %s", s.ID, ev.Type)
	}
}

// SendError queues a rejection for a failed request.
func (s *Session) SendError(reqID, code, message string, logger *logrus.Logger) {
	s.Send(Event{
		Type:  "error",
		ReqID: reqID,
		Payload: map[string]string{
			"code":    code,
			"message": message,
		},
	}, logger)
}

// writePump drains the session's outbound channel onto the wire and pings
// periodically. It exits on context cancellation, channel closure, or the
// first failed write; the read pump notices the broken connection and runs
// cleanup.
func writePump(ctx context.Context, c *websocket.Conn, s *Session, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("session %s: failed to marshal %s: %v", s.ID, ev.Type, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("session %s: write failed: %v", s.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("session %s: ping failed: %v", s.ID, err)
				return
			}
		}
	}
}

// internal/notification/gateway/session.go
package gateway

import (
	"errors"
	"sync"
	"time"

	"notification-service/internal/common/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var errSessionClosed = errors.New("session closed")
var errSendBufferFull = errors.New("session send buffer full")

// session wraps one WebSocket connection. All writes go through the buffered
// send channel and are serialized by the write pump; Send never blocks.
type session struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{}
	once   sync.Once
	logger logger.Logger
}

func newSession(id, userID string, conn *websocket.Conn, buffer int, log logger.Logger) *session {
	return &session{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
		logger: log.WithFields(map[string]interface{}{
			"sessionId": id,
			"userId":    userID,
		}),
	}
}

func (s *session) ID() string {
	return s.id
}

// Send queues a payload for the write pump. A full buffer counts as a
// delivery failure for this session only; the caller moves on to the next
// session.
func (s *session) Send(payload []byte) error {
	select {
	case <-s.closed:
		return errSessionClosed
	default:
	}

	select {
	case s.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

func (s *session) close() {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with periodic pings. One goroutine per session.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.closed:
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("session write failed", map[string]interface{}{
					"error": err.Error(),
				})
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames until the transport drops, handing
// client messages to the gateway. One goroutine per session; its exit is the
// session's disconnect signal.
func (s *session) readPump(onMessage func(raw []byte)) {
	defer s.close()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("session read failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		onMessage(raw)
	}
}

// internal/notification/gateway/gateway.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/models"
	"notification-service/internal/notification/registry"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Wire event names, shared with the original client.
	EventReceiveNotification = "receiveNotification"
	EventSendNotification    = "sendNotification"
)

// Bus is the transport the gateway subscribes to and re-broadcasts on.
type Bus interface {
	Broadcast(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context, handler func(payload []byte)) error
}

type Config struct {
	SessionBuffer    int
	BroadcastTimeout time.Duration
}

// envelope frames every message on the live channel.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Gateway terminates live sessions, owns this process's connection registry
// slice, and bridges the bus to locally-registered sessions.
type Gateway struct {
	config   *Config
	registry *registry.Registry
	bus      Bus
	upgrader websocket.Upgrader
	logger   logger.Logger
}

func New(config *Config, reg *registry.Registry, bus Bus, log logger.Logger) *Gateway {
	if config.SessionBuffer <= 0 {
		config.SessionBuffer = 32
	}
	if config.BroadcastTimeout <= 0 {
		config.BroadcastTimeout = 2 * time.Second
	}
	return &Gateway{
		config:   config,
		registry: reg,
		bus:      bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The original gateway served any origin; auth happens via the
			// handshake identity, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log.WithFields(map[string]interface{}{"component": "gateway"}),
	}
}

// Start subscribes to the bus channel. Called once per process; delivery to
// local sessions happens on the subscription goroutine.
func (g *Gateway) Start(ctx context.Context) error {
	return g.bus.Subscribe(ctx, g.handleBusMessage)
}

// HandleConnection upgrades an HTTP request to a WebSocket session. The
// client identifies itself with the userId query parameter; a request
// without one is rejected before the upgrade.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s := newSession(uuid.New().String(), userID, conn, g.config.SessionBuffer, g.logger)
	g.registry.Add(userID, s)
	g.logger.Info("session connected", map[string]interface{}{
		"userId":    userID,
		"sessionId": s.ID(),
	})

	go s.writePump()
	go func() {
		s.readPump(func(raw []byte) {
			g.handleClientMessage(userID, raw)
		})
		// readPump returns exactly once, on transport disconnect.
		g.registry.Remove(userID, s.ID())
		g.logger.Info("session disconnected", map[string]interface{}{
			"userId":    userID,
			"sessionId": s.ID(),
		})
	}()
}

// handleBusMessage runs once per broadcast received by this process. A
// receiver with no local sessions is a no-op: the process that holds the
// user's connection delivers, everyone else drops.
func (g *Gateway) handleBusMessage(payload []byte) {
	var notification models.Notification
	if err := json.Unmarshal(payload, &notification); err != nil {
		metrics.BusMessagesReceived.WithLabelValues("malformed").Inc()
		g.logger.Error("malformed bus payload dropped", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if notification.ReceiverID == "" {
		return
	}

	g.deliver(&notification, payload)
}

// deliver fans a payload out to every local session of the receiver. Each
// session is attempted independently; one slow or dead session never blocks
// its siblings.
func (g *Gateway) deliver(notification *models.Notification, payload []byte) {
	sessions := g.registry.Sessions(notification.ReceiverID)
	if len(sessions) == 0 {
		return
	}

	frame, err := json.Marshal(envelope{
		Event: EventReceiveNotification,
		Data:  json.RawMessage(payload),
	})
	if err != nil {
		g.logger.Error("envelope marshal failed", map[string]interface{}{
			"notificationId": notification.ID,
			"error":          err.Error(),
		})
		return
	}

	eventType := ""
	if notification.Event != nil {
		eventType = string(notification.Event.Type)
	}

	for _, s := range sessions {
		if err := s.Send(frame); err != nil {
			metrics.NotificationsDropped.WithLabelValues("session_send").Inc()
			g.logger.Warn("session delivery failed", map[string]interface{}{
				"notificationId": notification.ID,
				"sessionId":      s.ID(),
				"error":          err.Error(),
			})
			continue
		}
		metrics.NotificationsDelivered.WithLabelValues(eventType).Inc()
	}
}

// clientPayload is the minimal shape required of a client-initiated
// sendNotification payload.
type clientPayload struct {
	ReceiverID string `json:"receiver_id"`
	UserID     string `json:"userId"`
}

func (p clientPayload) target() string {
	if p.ReceiverID != "" {
		return p.ReceiverID
	}
	return p.UserID
}

// handleClientMessage processes an inbound frame from a session. A
// sendNotification payload is re-broadcast onto the bus so whichever process
// holds the target's connection can deliver it. The local registry lookup is
// informational only: a user connected to a different process would make a
// local-presence gate drop valid messages, so the broadcast always happens.
func (g *Gateway) handleClientMessage(fromUserID string, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.logger.Debug("unparseable client frame dropped", map[string]interface{}{
			"userId": fromUserID,
			"error":  err.Error(),
		})
		return
	}
	if env.Event != EventSendNotification {
		g.logger.Debug("unknown client event dropped", map[string]interface{}{
			"userId": fromUserID,
			"event":  env.Event,
		})
		return
	}

	var payload clientPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil || payload.target() == "" {
		g.logger.Warn("sendNotification without target dropped", map[string]interface{}{
			"userId": fromUserID,
		})
		return
	}

	g.logger.Debug("client notification received", map[string]interface{}{
		"fromUserId":  fromUserID,
		"targetId":    payload.target(),
		"localTarget": g.registry.Contains(payload.target()),
	})

	ctx, cancel := context.WithTimeout(context.Background(), g.config.BroadcastTimeout)
	defer cancel()

	if err := g.bus.Broadcast(ctx, env.Data); err != nil {
		metrics.BroadcastFailures.Inc()
		g.logger.Error("client notification broadcast failed", map[string]interface{}{
			"fromUserId": fromUserID,
			"error":      err.Error(),
		})
	}
}

// internal/notification/publisher/publisher.go
package publisher

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/common/observability"
	"notification-service/internal/models"

	"github.com/google/uuid"
)

// Broadcaster is the bus dependency of the publisher. Only the publish side
// is needed here.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload []byte) error
}

type Config struct {
	// BroadcastTimeout bounds how long the best-effort broadcast may block
	// the caller. There is no cancellation of an in-flight broadcast; the
	// timeout is the only cutoff.
	BroadcastTimeout time.Duration
}

// Input carries the fields of a publish call. ReceiverID may be empty for
// audit-only events, which are persisted but never broadcast.
type Input struct {
	ReceiverID string
	Type       models.NotificationType
	Text       *string
	EntityID   *string
	SenderID   *string
}

// Publisher persists notifications and broadcasts them on the bus.
// Durability is the hard contract; live delivery is soft.
type Publisher struct {
	config *Config
	db     *sql.DB
	bus    Broadcaster
	logger logger.Logger
	obs    *observability.Observability
}

func New(config *Config, db *sql.DB, bus Broadcaster, log logger.Logger, obs *observability.Observability) *Publisher {
	if config.BroadcastTimeout <= 0 {
		config.BroadcastTimeout = 2 * time.Second
	}
	return &Publisher{
		config: config,
		db:     db,
		bus:    bus,
		logger: log.WithFields(map[string]interface{}{"component": "publisher"}),
		obs:    obs,
	}
}

// Publish creates the NotificationEvent and its Notification in one
// transaction, then broadcasts the hydrated record on the bus. A bus failure
// is logged and swallowed; a store failure fails the whole call.
func (p *Publisher) Publish(ctx context.Context, input *Input) (*models.Notification, error) {
	start := time.Now()

	if input.Type == "" {
		return nil, errors.NewValidationError("notification type is required")
	}
	if !input.Type.IsValid() {
		return nil, errors.NewValidationError("unknown notification type: " + string(input.Type))
	}

	notification, err := p.store(ctx, input)
	if err != nil {
		if p.obs != nil {
			p.obs.RecordPublish(ctx, "failed")
			p.obs.RecordPublishDuration(ctx, time.Since(start), "failed")
		}
		return nil, err
	}
	metrics.NotificationsPublished.WithLabelValues(string(input.Type)).Inc()

	// Audit-only rows have no recipient; nothing to deliver.
	if notification.ReceiverID != "" {
		p.broadcast(notification)
	}

	if p.obs != nil {
		p.obs.RecordPublish(ctx, "success")
		p.obs.RecordPublishDuration(ctx, time.Since(start), "success")
	}
	return notification, nil
}

func (p *Publisher) store(ctx context.Context, input *Input) (*models.Notification, error) {
	now := time.Now().UTC()
	event := &models.NotificationEvent{
		ID:        uuid.New().String(),
		Type:      input.Type,
		Text:      input.Text,
		CreatedAt: now,
	}
	notification := &models.Notification{
		ID:         uuid.New().String(),
		Event:      event,
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		EntityID:   input.EntityID,
		CreatedAt:  now,
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewNotificationStoreFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notification_events (id, type, text, created_at) VALUES ($1, $2, $3, $4)`,
		event.ID, string(event.Type), event.Text, event.CreatedAt,
	); err != nil {
		return nil, errors.NewNotificationStoreFailedError(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (id, notification_event_id, sender_id, receiver_id, entity_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		notification.ID, event.ID, notification.SenderID, nullIfEmpty(notification.ReceiverID), notification.EntityID, notification.CreatedAt,
	); err != nil {
		return nil, errors.NewNotificationStoreFailedError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewNotificationStoreFailedError(err)
	}

	if notification.SenderID != nil {
		notification.Sender = p.senderProjection(ctx, *notification.SenderID)
	}

	return notification, nil
}

// senderProjection hydrates the minimal sender fields for the wire payload.
// A failed lookup only degrades the payload, it never fails the publish.
func (p *Publisher) senderProjection(ctx context.Context, senderID string) *models.SenderInfo {
	var info models.SenderInfo
	err := p.db.QueryRowContext(ctx,
		`SELECT id, name, username, avatar FROM users WHERE id = $1`,
		senderID,
	).Scan(&info.ID, &info.Name, &info.Username, &info.Avatar)
	if err != nil {
		p.logger.Warn("sender hydration failed", map[string]interface{}{
			"senderId": senderID,
			"error":    err.Error(),
		})
		return nil
	}
	return &info
}

// broadcast serializes the hydrated notification and fires it onto the bus
// under a bounded timeout. Failures never reach the caller of Publish.
func (p *Publisher) broadcast(notification *models.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		p.logger.Error("notification marshal failed", map[string]interface{}{
			"notificationId": notification.ID,
			"error":          err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.config.BroadcastTimeout)
	defer cancel()

	if err := p.bus.Broadcast(ctx, payload); err != nil {
		metrics.BroadcastFailures.Inc()
		p.logger.Error("bus broadcast failed", map[string]interface{}{
			"notificationId": notification.ID,
			"receiverId":     notification.ReceiverID,
			"error":          err.Error(),
		})
	}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

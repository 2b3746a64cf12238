// internal/notification/query/service.go
package query

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// Service implements the read side of the notification store: list,
// read-state changes and deletion. It never touches the bus; offline
// clients poll through here.
type Service struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "query"}),
	}
}

const listQuery = `
SELECT n.id, n.sender_id, n.receiver_id, n.entity_id, n.read_at, n.created_at,
       e.id, e.type, e.text, e.created_at,
       u.id, u.name, u.avatar
FROM notifications n
JOIN notification_events e ON e.id = n.notification_event_id
LEFT JOIN users u ON u.id = n.sender_id
WHERE n.receiver_id = $1
ORDER BY n.created_at DESC`

// List returns all notifications for userID, newest first, each hydrated
// with its event and the minimal sender projection.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	if err := s.checkUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, listQuery, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var (
			n        models.Notification
			event    models.NotificationEvent
			senderID sql.NullString
			entityID sql.NullString
			readAt   sql.NullTime
			uID      sql.NullString
			uName    sql.NullString
			uAvatar  sql.NullString
		)
		if err := rows.Scan(
			&n.ID, &senderID, &n.ReceiverID, &entityID, &readAt, &n.CreatedAt,
			&event.ID, &event.Type, &event.Text, &event.CreatedAt,
			&uID, &uName, &uAvatar,
		); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list", err)
		}

		n.Event = &event
		if senderID.Valid {
			n.SenderID = &senderID.String
		}
		if entityID.Valid {
			n.EntityID = &entityID.String
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		if uID.Valid {
			sender := &models.SenderInfo{ID: uID.String}
			if uName.Valid {
				sender.Name = &uName.String
			}
			if uAvatar.Valid {
				sender.Avatar = &uAvatar.String
			}
			n.Sender = sender
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list", err)
	}

	return notifications, nil
}

// MarkRead sets read_at on a notification owned by userID. A notification
// that is absent or belongs to someone else yields the same error.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = $1 WHERE id = $2 AND receiver_id = $3`,
		time.Now().UTC(), notificationID, userID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_read", err)
	}
	return s.requireRow(result, notificationID)
}

// MarkUnread clears read_at, symmetric to MarkRead.
func (s *Service) MarkUnread(ctx context.Context, userID, notificationID string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = NULL WHERE id = $1 AND receiver_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_unread", err)
	}
	return s.requireRow(result, notificationID)
}

// MarkAllRead sets read_at on every unread notification for userID. Zero
// unread rows is a success, which makes the call idempotent.
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = $1 WHERE receiver_id = $2 AND read_at IS NULL`,
		time.Now().UTC(), userID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("mark_all_read", err)
	}
	return nil
}

// Delete removes a notification owned by userID. The paired event row stays
// behind as an audit record.
func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.checkUser(ctx, userID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND receiver_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete", err)
	}
	return s.requireRow(result, notificationID)
}

// checkUser distinguishes a missing caller from a missing notification.
func (s *Service) checkUser(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.NewValidationError("user ID is required")
	}

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewUserNotFoundError(userID)
		}
		return errors.NewQueryExecutionFailedError("check_user", err)
	}
	return nil
}

func (s *Service) requireRow(result sql.Result, notificationID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("rows_affected", err)
	}
	if affected == 0 {
		return errors.NewNotificationNotFoundError(notificationID)
	}
	return nil
}

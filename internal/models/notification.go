// internal/models/notification.go
package models

import "time"

// NotificationType tags the semantic kind of an occurrence.
type NotificationType string

const (
	TypeMessage              NotificationType = "message"
	TypeComment              NotificationType = "comment"
	TypeReview               NotificationType = "review"
	TypeBooking              NotificationType = "booking"
	TypePaymentTransaction   NotificationType = "payment_transaction"
	TypePackage              NotificationType = "package"
	TypeBlog                 NotificationType = "blog"
	TypeImageReady           NotificationType = "image_ready"
	TypeImageDownloaded      NotificationType = "image_downloaded"
	TypeImageFailed          NotificationType = "image_failed"
	TypeSubscriptionSuccess  NotificationType = "subscription_success"
	TypeSubscriptionFailed   NotificationType = "subscription_failed"
	TypeSubscriptionCanceled NotificationType = "subscription_canceled"
)

var validNotificationTypes = map[NotificationType]bool{
	TypeMessage:              true,
	TypeComment:              true,
	TypeReview:               true,
	TypeBooking:              true,
	TypePaymentTransaction:   true,
	TypePackage:              true,
	TypeBlog:                 true,
	TypeImageReady:           true,
	TypeImageDownloaded:      true,
	TypeImageFailed:          true,
	TypeSubscriptionSuccess:  true,
	TypeSubscriptionFailed:   true,
	TypeSubscriptionCanceled: true,
}

// IsValid reports whether t is one of the known notification types.
func (t NotificationType) IsValid() bool {
	return validNotificationTypes[t]
}

// NotificationEvent is the immutable payload of an occurrence. Events are
// cheap audit rows; they are never re-read independently of a notification.
type NotificationEvent struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Text      *string          `json:"text,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// SenderInfo is the minimal sender projection joined into a hydrated
// notification for delivery and listing.
type SenderInfo struct {
	ID       string  `json:"id"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// Notification binds an event to a recipient. Created together with its
// event; only read_at is mutable afterwards.
type Notification struct {
	ID         string             `json:"id"`
	Event      *NotificationEvent `json:"notification_event,omitempty"`
	SenderID   *string            `json:"sender_id,omitempty"`
	Sender     *SenderInfo        `json:"sender,omitempty"`
	ReceiverID string             `json:"receiver_id"`
	EntityID   *string            `json:"entity_id,omitempty"`
	ReadAt     *time.Time         `json:"read_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Response is the uniform shape returned by all read-path operations.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

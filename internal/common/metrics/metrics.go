// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notifications persisted by the publisher",
		},
		[]string{"type"},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notification messages delivered to live sessions",
		},
		[]string{"type"},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of notification messages dropped on delivery",
		},
		[]string{"reason"},
	)

	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_broadcast_failures_total",
			Help: "Total number of failed bus broadcasts",
		},
	)

	BusMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_bus_messages_total",
			Help: "Total number of messages received on the bus subscription",
		},
		[]string{"status"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_active_sessions",
			Help: "Number of live WebSocket sessions on this process",
		},
	)

	ConnectedUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_connected_users",
			Help: "Number of distinct users with at least one live session on this process",
		},
	)
)

// internal/notification/httpapi/router.go
package httpapi

import (
	"net/http"

	"notification-service/internal/common/errors"
	"notification-service/internal/common/logger"

	"github.com/gin-gonic/gin"
)

// GatewayHandler is the WebSocket entry point mounted alongside the REST
// routes.
type GatewayHandler interface {
	HandleConnection(w http.ResponseWriter, r *http.Request)
}

// NewRouter mounts the notification REST surface, the live WebSocket
// endpoint and the health probe on one gin engine.
func NewRouter(handler *Handler, gateway GatewayHandler, jwtSecret string, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.Use(JWTAuth(jwtSecret))
	{
		notifications := api.Group("/notifications")
		{
			notifications.GET("", handler.List)
			notifications.PATCH("/read-all", handler.MarkAllRead)
			notifications.PATCH("/:id/read", handler.MarkRead)
			notifications.PATCH("/:id/unread", handler.MarkUnread)
			notifications.DELETE("/:id/delete", handler.Delete)
		}
	}

	// The live channel authenticates via the handshake userId parameter, the
	// way the original clients connect.
	router.GET("/ws", func(c *gin.Context) {
		gateway.HandleConnection(c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})

	return router
}

// userMessage maps a service error to the message shown in the uniform
// response body.
func userMessage(err error) string {
	se, ok := err.(*errors.StandardError)
	if !ok {
		return "Internal error"
	}
	switch se.Code {
	case errors.ErrCodeValidationFailed:
		return "User ID is required"
	case errors.ErrCodeUserNotFound:
		return "User not found"
	case errors.ErrCodeNotificationNotFound:
		return "Notification not found or unauthorized"
	default:
		return "Request failed"
	}
}

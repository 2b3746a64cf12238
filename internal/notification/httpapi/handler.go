// internal/notification/httpapi/handler.go
package httpapi

import (
	"context"
	"net/http"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"

	"github.com/gin-gonic/gin"
)

// QueryService is the read-side dependency of the HTTP surface.
type QueryService interface {
	List(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkUnread(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

// Handler exposes the query service over REST. Every route derives the
// acted-on user from the caller's token.
type Handler struct {
	query  QueryService
	logger logger.Logger
}

func NewHandler(query QueryService, log logger.Logger) *Handler {
	return &Handler{
		query:  query,
		logger: log.WithFields(map[string]interface{}{"component": "httpapi"}),
	}
}

// GET /api/notifications
func (h *Handler) List(c *gin.Context) {
	userID := GetUserID(c)

	notifications, err := h.query.List(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, userID, "list failed", err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Data:    notifications,
	})
}

// PATCH /api/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := GetUserID(c)

	if err := h.query.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.fail(c, userID, "mark all read failed", err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "All notifications marked as read",
	})
}

// PATCH /api/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID := GetUserID(c)

	if err := h.query.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, userID, "mark read failed", err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Notification marked as read",
	})
}

// PATCH /api/notifications/:id/unread
func (h *Handler) MarkUnread(c *gin.Context) {
	userID := GetUserID(c)

	if err := h.query.MarkUnread(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, userID, "mark unread failed", err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Notification marked as unread",
	})
}

// DELETE /api/notifications/:id/delete
func (h *Handler) Delete(c *gin.Context) {
	userID := GetUserID(c)

	if err := h.query.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, userID, "delete failed", err)
		return
	}

	c.JSON(http.StatusOK, models.Response{
		Success: true,
		Message: "Notification deleted successfully",
	})
}

// fail renders any service error in the uniform response shape. Failures are
// responses, never exceptions: the status stays 200 and the body carries
// success=false, matching the wire contract the clients already speak.
func (h *Handler) fail(c *gin.Context, userID, operation string, err error) {
	h.logger.Warn(operation, map[string]interface{}{
		"userId": userID,
		"error":  err.Error(),
	})
	c.JSON(http.StatusOK, models.Response{
		Success: false,
		Message: userMessage(err),
	})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/http/response"
	"github.com/propflow/propflow-backend/internal/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /api/notifications?unread=true&limit=50
func (nh *NotificationHandler) List(c *gin.Context) {
	unreadOnly := strings.EqualFold(strings.TrimSpace(c.Query("unread")), "true")
	notifications, err := nh.notificationService.List(c.Request.Context(), unreadOnly, queryLimit(c, 50))
	if err != nil {
		response.RespondAPIError(c, err, "list_notifications_failed")
		return
	}
	response.RespondOK(c, gin.H{"notifications": notifications})
}

// GET /api/notifications/unread-count
func (nh *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := nh.notificationService.UnreadCount(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "unread_count_failed")
		return
	}
	response.RespondOK(c, gin.H{"unread": count})
}

// POST /api/notifications/:id/read
func (nh *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_notification_id", err)
		return
	}
	if err := nh.notificationService.MarkRead(c.Request.Context(), notificationID); err != nil {
		response.RespondAPIError(c, err, "mark_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/notifications/read-all
func (nh *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := nh.notificationService.MarkAllRead(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "mark_all_read_failed")
		return
	}
	response.RespondOK(c, gin.H{"updated": updated})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subcircle/backend/internal/database"
	"github.com/subcircle/backend/internal/models"
	"github.com/subcircle/backend/internal/util"
)

// GetNotifications lists the requesting user's notifications, newest first.
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 25, 100)
	offset := parseIntQuery(c, "offset", 0, 1<<30)

	var notifications []models.Notification
	err := database.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to get notifications")
		return
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"meta": gin.H{
			"unread": unread,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// MarkNotificationsRead marks all of the user's notifications as read.
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to mark notifications read")
		return
	}
	util.RespondMessage(c, "Notifications marked as read")
}

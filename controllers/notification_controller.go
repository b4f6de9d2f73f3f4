package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

// NotificationController serves the in-app notification feed.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new controller instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the latest notifications and marks them read. Reading the
// feed is the acknowledgement; there is no separate mark-read call.
func (c *NotificationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var notifications []models.Notification
	if err := c.db.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(50).
		Find(&notifications).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to load notifications")
		return
	}

	if err := c.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		utils.Sugar.Warnf("mark notifications read failed: user=%d err=%v", userID, err)
	}

	utils.Success(ctx, gin.H{"notifications": notifications})
}

// UnreadCount returns the badge count for the notification bell.
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var count int64
	if err := c.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to count notifications")
		return
	}
	utils.Success(ctx, gin.H{"count": count})
}

// createNotification writes a feed entry. Failures are logged and swallowed
// so notification plumbing never fails the action that triggered it.
func createNotification(db *gorm.DB, userID uint, kind, title, message, link string) {
	n := models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := db.Create(&n).Error; err != nil {
		utils.Sugar.Warnf("notification create failed: user=%d type=%s err=%v", userID, kind, err)
	}
}

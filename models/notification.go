package models

import "time"

// Notification is an in-app message shown in the notification feed.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_notifications_user_read;not null" json:"user_id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Link      string    `gorm:"size:500" json:"link"`
	IsRead    bool      `gorm:"index:idx_notifications_user_read;default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

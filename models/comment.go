package models

import "time"

// Comment is a message on a challenge wall, visible to members.
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"index:idx_comments_challenge;not null" json:"challenge_id"`
	UserID      uint      `gorm:"not null" json:"user_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

package models

import "time"

// Nudge records that one member poked another to check in. The unique index
// caps nudges at one per sender/target/day.
type Nudge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"uniqueIndex:uq_nudge_daily;not null" json:"challenge_id"`
	FromUserID  uint      `gorm:"uniqueIndex:uq_nudge_daily;not null" json:"from_user_id"`
	ToUserID    uint      `gorm:"uniqueIndex:uq_nudge_daily;not null" json:"to_user_id"`
	NudgeDate   time.Time `gorm:"uniqueIndex:uq_nudge_daily;type:date;not null" json:"nudge_date"`
	CreatedAt   time.Time `json:"created_at"`
}

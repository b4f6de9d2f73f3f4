package models

import "time"

// Reaction marks that a user reacted to a check-in with one symbol. Presence
// is the whole state: toggling deletes or recreates the row.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CheckInID uint      `gorm:"uniqueIndex:uq_checkin_reaction;index;not null" json:"checkin_id"`
	UserID    uint      `gorm:"uniqueIndex:uq_checkin_reaction;not null" json:"user_id"`
	Symbol    string    `gorm:"size:20;uniqueIndex:uq_checkin_reaction;not null" json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Membership binds a user to a challenge and carries the cached streak state
// and freeze balance. The CheckIn log is the source of truth; these columns
// are rebuilt from it by the recovery path.
type Membership struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ChallengeID      uint      `gorm:"uniqueIndex:uq_challenge_member;not null" json:"challenge_id"`
	UserID           uint      `gorm:"uniqueIndex:uq_challenge_member;not null" json:"user_id"`
	Points           int       `gorm:"default:0" json:"points"`
	CurrentStreak    int       `gorm:"default:0" json:"current_streak"`
	BestStreak       int       `gorm:"default:0" json:"best_streak"`
	LastCheckinDate  *time.Time `gorm:"type:date" json:"last_checkin_date"`
	FreezesAvailable int       `gorm:"default:0" json:"freezes_available"`
	FreezesUsed      int       `gorm:"default:0" json:"freezes_used"`
	JoinedAt         time.Time `gorm:"autoCreateTime" json:"joined_at"`
	User             *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

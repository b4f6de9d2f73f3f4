package models

import "time"

// CheckIn is one recorded daily completion. Rows are immutable once written:
// PointsEarned and StreakValue are fixed at commit time so replays and audits
// never recompute history. LocalDate is the user's self-reported calendar day.
type CheckIn struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ChallengeID  uint       `gorm:"uniqueIndex:uq_checkin_daily;not null" json:"challenge_id"`
	UserID       uint       `gorm:"uniqueIndex:uq_checkin_daily;index:idx_checkins_user_date;not null" json:"user_id"`
	LocalDate    time.Time  `gorm:"uniqueIndex:uq_checkin_daily;index:idx_checkins_user_date;type:date;not null" json:"local_date"`
	Note         string     `gorm:"type:text" json:"note"`
	PointsEarned int        `json:"points_earned"`
	StreakValue  int        `json:"streak_value"`
	FreezeUsed   bool       `json:"freeze_used"`
	FreezeEarned int        `json:"freeze_earned"`
	CreatedAt    time.Time  `json:"created_at"`
	Reactions    []Reaction `json:"-"`
}

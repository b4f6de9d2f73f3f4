package models

import "time"

// Challenge is a recurring group commitment. BasePoints and StreakBonus feed
// the points formula; EndDate (date only) closes the challenge to check-ins.
type Challenge struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"size:200;not null" json:"name"`
	Description     string       `gorm:"type:text" json:"description"`
	CreatorID       uint         `gorm:"index;not null" json:"creator_id"`
	JoinCode        string       `gorm:"size:10;uniqueIndex;not null" json:"join_code"`
	IsPublic        bool         `gorm:"default:false" json:"is_public"`
	BasePoints      int          `gorm:"default:10" json:"base_points"`
	StreakBonus     int          `gorm:"default:5" json:"streak_bonus"`
	EndDate         *time.Time   `gorm:"type:date" json:"end_date"`
	IsCompleted     bool         `gorm:"default:false" json:"is_completed"`
	WinnerID        *uint        `json:"winner_id"`
	MilestoneTarget *int         `json:"milestone_target"`
	CreatedAt       time.Time    `json:"created_at"`
	Creator         *User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members         []Membership `json:"-"`
}

package models

import "time"

// Achievement is one badge in the catalog. ConditionType names the stat it
// checks and ConditionValue the threshold.
type Achievement struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	Icon           string    `gorm:"size:20" json:"icon"`
	ConditionType  string    `gorm:"size:50;not null" json:"condition_type"`
	ConditionValue int       `gorm:"not null" json:"condition_value"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserAchievement marks a badge as earned, once per user.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex:uq_user_achievement;not null" json:"user_id"`
	AchievementID uint      `gorm:"uniqueIndex:uq_user_achievement;not null" json:"achievement_id"`
	EarnedAt      time.Time `gorm:"autoCreateTime" json:"earned_at"`
}

// DefaultAchievements is the seed catalog, inserted when the table is empty.
var DefaultAchievements = []Achievement{
	{Name: "First Check-in", Description: "Complete your first daily check-in", Icon: "✅", ConditionType: "total_checkins", ConditionValue: 1},
	{Name: "Week Warrior", Description: "Reach a 7-day streak", Icon: "\U0001F525", ConditionType: "streak", ConditionValue: 7},
	{Name: "Month Master", Description: "Reach a 30-day streak", Icon: "⭐", ConditionType: "streak", ConditionValue: 30},
	{Name: "Unstoppable", Description: "Reach a 50-day streak", Icon: "⚡", ConditionType: "streak", ConditionValue: 50},
	{Name: "Centurion", Description: "Earn 100 total points", Icon: "\U0001F3C6", ConditionType: "total_points", ConditionValue: 100},
	{Name: "Point Machine", Description: "Earn 500 total points", Icon: "\U0001F4B0", ConditionType: "total_points", ConditionValue: 500},
	{Name: "Social Butterfly", Description: "Join 3 different challenges", Icon: "\U0001F91D", ConditionType: "challenges_joined", ConditionValue: 3},
	{Name: "Challenge Creator", Description: "Create your first challenge", Icon: "⚔️", ConditionType: "challenges_created", ConditionValue: 1},
}

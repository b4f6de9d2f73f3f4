package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

// AchievementController serves the badge catalog and the caller's earned set.
// Awarding happens in checkAchievements, called after the actions that can
// change the underlying stats.
type AchievementController struct {
	db *gorm.DB
}

// NewAchievementController creates a new controller instance.
func NewAchievementController(db *gorm.DB) *AchievementController {
	return &AchievementController{db: db}
}

// List returns the full catalog with earned flags for the caller.
func (c *AchievementController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var achievements []models.Achievement
	if err := c.db.Order("condition_value ASC").Find(&achievements).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50100, "failed to load achievements")
		return
	}

	var earned []models.UserAchievement
	c.db.Where("user_id = ?", userID).Find(&earned)
	earnedAt := make(map[uint]models.UserAchievement, len(earned))
	for _, ua := range earned {
		earnedAt[ua.AchievementID] = ua
	}

	out := make([]gin.H, 0, len(achievements))
	for _, a := range achievements {
		item := gin.H{
			"id":          a.ID,
			"name":        a.Name,
			"description": a.Description,
			"icon":        a.Icon,
			"earned":      false,
		}
		if ua, ok := earnedAt[a.ID]; ok {
			item["earned"] = true
			item["earned_at"] = ua.EarnedAt
		}
		out = append(out, item)
	}
	utils.Success(ctx, gin.H{"achievements": out})
}

// SeedAchievements inserts the default catalog when the table is empty.
// Called once at boot after migration.
func SeedAchievements(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Achievement{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := make([]models.Achievement, len(models.DefaultAchievements))
	copy(seed, models.DefaultAchievements)
	return db.Create(&seed).Error
}

// checkAchievements awards any badges whose condition the user now meets.
// Best effort: a failure here never fails the triggering request.
func checkAchievements(db *gorm.DB, userID uint) {
	stats := userStats(db, userID)

	var achievements []models.Achievement
	if err := db.Find(&achievements).Error; err != nil {
		return
	}
	var earnedIDs []uint
	db.Model(&models.UserAchievement{}).Where("user_id = ?", userID).
		Pluck("achievement_id", &earnedIDs)
	earned := make(map[uint]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	for _, a := range achievements {
		if earned[a.ID] || stats[a.ConditionType] < a.ConditionValue {
			continue
		}
		ua := models.UserAchievement{UserID: userID, AchievementID: a.ID}
		if err := db.Create(&ua).Error; err != nil {
			if !isDuplicateKey(err) {
				utils.Sugar.Warnf("achievement award failed: user=%d achievement=%d err=%v", userID, a.ID, err)
			}
			continue
		}
		createNotification(db, userID, "achievement",
			"Achievement unlocked",
			a.Icon+" "+a.Name+": "+a.Description,
			"/achievements")
	}
}

// userStats computes the values achievement conditions are checked against.
func userStats(db *gorm.DB, userID uint) map[string]int {
	stats := map[string]int{}

	var totalCheckins int64
	db.Model(&models.CheckIn{}).Where("user_id = ?", userID).Count(&totalCheckins)
	stats["total_checkins"] = int(totalCheckins)

	var bestStreak int
	db.Model(&models.Membership{}).Where("user_id = ?", userID).
		Select("COALESCE(MAX(best_streak), 0)").Scan(&bestStreak)
	stats["streak"] = bestStreak

	var user models.User
	if err := db.First(&user, userID).Error; err == nil {
		stats["total_points"] = user.TotalPoints
	}

	var joined int64
	db.Model(&models.Membership{}).Where("user_id = ?", userID).Count(&joined)
	stats["challenges_joined"] = int(joined)

	var created int64
	db.Model(&models.Challenge{}).Where("creator_id = ?", userID).Count(&created)
	stats["challenges_created"] = int(created)

	return stats
}

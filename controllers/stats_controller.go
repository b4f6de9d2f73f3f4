package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
	"github.com/arenalab/arena/utils"
)

// StatsController serves profile-level aggregates across all challenges.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new controller instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

const calendarDays = 30

// Profile returns the caller's totals and a 30-day check-in calendar.
func (c *StatsController) Profile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := c.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40406, "user not found")
		return
	}

	stats := userStats(c.db, userID)

	today := streak.TodayIn(user.Timezone, time.Now())
	windowStart := today.AddDate(0, 0, -(calendarDays - 1))

	var recent []models.CheckIn
	c.db.Where("user_id = ? AND local_date >= ?", userID, windowStart).
		Find(&recent)
	perDay := map[string]int{}
	for _, ci := range recent {
		perDay[streak.FormatDate(ci.LocalDate)]++
	}

	calendar := make([]gin.H, 0, calendarDays)
	for d := windowStart; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := streak.FormatDate(d)
		calendar = append(calendar, gin.H{
			"date":  key,
			"count": perDay[key],
		})
	}

	utils.Success(ctx, gin.H{
		"display_name":       user.DisplayName,
		"timezone":           user.Timezone,
		"total_points":       user.TotalPoints,
		"total_checkins":     stats["total_checkins"],
		"best_streak":        stats["streak"],
		"challenges_joined":  stats["challenges_joined"],
		"challenges_created": stats["challenges_created"],
		"calendar":           calendar,
	})
}

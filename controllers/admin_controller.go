package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/middleware"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
	"github.com/arenalab/arena/utils"
)

// AdminController hosts moderation actions. Deleting a check-in is the one
// mutation that invalidates cached streak state, so it rebuilds the
// membership columns from the surviving log inside the same transaction.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates a new controller instance.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// DeleteCheckIn removes a check-in and its reactions, then recomputes the
// owner's streak state and point totals from the remaining log.
func (c *AdminController) DeleteCheckIn(ctx *gin.Context) {
	if !isAdminUsername(ctx.GetString(middleware.ContextUsernameKey)) {
		utils.Error(ctx, http.StatusForbidden, 40311, "admin access required")
		return
	}

	checkinID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid check-in id")
		return
	}

	var checkin models.CheckIn
	if err := c.db.First(&checkin, checkinID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "check-in not found")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := lockForUpdate(tx).
			Where("challenge_id = ? AND user_id = ?", checkin.ChallengeID, checkin.UserID).
			First(&membership).Error; err != nil {
			return err
		}

		if err := tx.Where("check_in_id = ?", checkin.ID).
			Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&checkin).Error; err != nil {
			return err
		}

		var remaining []models.CheckIn
		if err := tx.Where("challenge_id = ? AND user_id = ?", checkin.ChallengeID, checkin.UserID).
			Order("local_date ASC").
			Find(&remaining).Error; err != nil {
			return err
		}

		log := make([]streak.LogEntry, 0, len(remaining))
		points := 0
		freezesEarned := 0
		for _, ci := range remaining {
			log = append(log, streak.LogEntry{Date: ci.LocalDate, FreezeUsed: ci.FreezeUsed})
			points += ci.PointsEarned
			freezesEarned += ci.FreezeEarned
		}
		rebuilt := streak.Rebuild(log)

		membership.Points = points
		membership.CurrentStreak = rebuilt.CurrentStreak
		membership.BestStreak = rebuilt.BestStreak
		membership.FreezesUsed = rebuilt.FreezesUsed
		membership.LastCheckinDate = rebuilt.LastDate
		membership.FreezesAvailable = freezesEarned - rebuilt.FreezesUsed
		if membership.FreezesAvailable < 0 {
			membership.FreezesAvailable = 0
		}
		if err := tx.Save(&membership).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).Where("id = ?", checkin.UserID).
			UpdateColumn("total_points", gorm.Expr("total_points - ?", checkin.PointsEarned)).Error
	})
	if err != nil {
		utils.Sugar.Errorf("check-in delete failed: id=%d err=%v", checkinID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50110, "failed to delete check-in")
		return
	}

	utils.InvalidateByPrefix(leaderboardCacheKey(checkin.ChallengeID))
	utils.Sugar.Infof("check-in deleted by admin: id=%d user=%d challenge=%d", checkinID, checkin.UserID, checkin.ChallengeID)

	utils.Success(ctx, gin.H{"deleted": true})
}

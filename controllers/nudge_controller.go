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

// NudgeController lets members poke each other to check in. The unique
// (challenge, from, to, date) row limits each pair to one nudge per day.
type NudgeController struct {
	db *gorm.DB
}

// NewNudgeController creates a new controller instance.
func NewNudgeController(db *gorm.DB) *NudgeController {
	return &NudgeController{db: db}
}

// Send nudges another member of the same challenge.
func (c *NudgeController) Send(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	challengeID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid challenge id")
		return
	}
	targetID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	if targetID == userID {
		utils.Error(ctx, http.StatusBadRequest, 40061, "you cannot nudge yourself")
		return
	}

	if _, ok := membershipOf(c.db, challengeID, userID); !ok {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}
	if _, ok := membershipOf(c.db, challengeID, targetID); !ok {
		utils.Error(ctx, http.StatusNotFound, 40405, "that user is not in this challenge")
		return
	}

	var target models.User
	if err := c.db.First(&target, targetID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40406, "user not found")
		return
	}

	today := streak.TodayIn(target.Timezone, time.Now())

	var todayCount int64
	c.db.Model(&models.CheckIn{}).
		Where("challenge_id = ? AND user_id = ? AND local_date = ?", challengeID, targetID, today).
		Count(&todayCount)
	if todayCount > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40062, "they already checked in today")
		return
	}

	nudge := models.Nudge{
		ChallengeID: challengeID,
		FromUserID:  userID,
		ToUserID:    targetID,
		NudgeDate:   today,
	}
	if err := c.db.Create(&nudge).Error; err != nil {
		if isDuplicateKey(err) {
			utils.Error(ctx, http.StatusConflict, 40911, "you already nudged them today")
			return
		}
		utils.Sugar.Errorf("nudge failed: from=%d to=%d challenge=%d err=%v", userID, targetID, challengeID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to send nudge")
		return
	}

	var challenge models.Challenge
	challengeName := "your challenge"
	if err := c.db.First(&challenge, challengeID).Error; err == nil {
		challengeName = "\"" + challenge.Name + "\""
	}
	var sender models.User
	senderName := "A teammate"
	if err := c.db.First(&sender, userID).Error; err == nil {
		senderName = sender.DisplayName
	}

	createNotification(c.db, targetID, "nudge",
		"You got nudged",
		senderName+" nudged you to check in to "+challengeName,
		challengeLink(challengeID))

	// Email is best effort; the nudge itself already committed.
	if target.Email != "" {
		go func(to, subject, body string) {
			if err := utils.SendMail(to, subject, body); err != nil {
				utils.Sugar.Warnf("nudge email failed: to=%s err=%v", to, err)
			}
		}(target.Email,
			"Don't break your streak!",
			senderName+" nudged you to check in to "+challengeName+" today.")
	}

	utils.Success(ctx, gin.H{"ok": true})
}

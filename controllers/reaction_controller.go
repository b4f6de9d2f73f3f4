package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

// ReactionController toggles emoji reactions on check-ins. One row per
// (check-in, user, symbol); the toggle runs in a transaction so the returned
// count reflects the state this request produced.
type ReactionController struct {
	db *gorm.DB
}

// NewReactionController creates a new controller instance.
func NewReactionController(db *gorm.DB) *ReactionController {
	return &ReactionController{db: db}
}

var allowedReactions = map[string]bool{
	"👏": true,
	"🔥": true,
	"💪": true,
	"🎉": true,
	"❤️": true,
}

// Toggle adds the caller's reaction to a check-in, or removes it when it
// already exists.
func (c *ReactionController) Toggle(ctx *gin.Context) {
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

	var req struct {
		CheckInID uint   `json:"checkin_id" binding:"required"`
		Reaction  string `json:"reaction" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	if !allowedReactions[req.Reaction] {
		utils.Error(ctx, http.StatusBadRequest, 40051, "unsupported reaction")
		return
	}

	if _, ok := membershipOf(c.db, challengeID, userID); !ok {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}

	var checkin models.CheckIn
	if err := c.db.Where("id = ? AND challenge_id = ?", req.CheckInID, challengeID).
		First(&checkin).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40404, "check-in not found")
		return
	}

	var action string
	var count int64
	err := c.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Reaction
		err := tx.Where("check_in_id = ? AND user_id = ? AND symbol = ?",
			req.CheckInID, userID, req.Reaction).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			action = "removed"
		case errors.Is(err, gorm.ErrRecordNotFound):
			reaction := models.Reaction{
				CheckInID: req.CheckInID,
				UserID:    userID,
				Symbol:    req.Reaction,
			}
			if err := tx.Create(&reaction).Error; err != nil {
				// A concurrent toggle already added it; treat this request
				// as the removing half of the pair.
				if !isDuplicateKey(err) {
					return err
				}
				if err := tx.Where("check_in_id = ? AND user_id = ? AND symbol = ?",
					req.CheckInID, userID, req.Reaction).Delete(&models.Reaction{}).Error; err != nil {
					return err
				}
				action = "removed"
			} else {
				action = "added"
			}
		default:
			return err
		}

		return tx.Model(&models.Reaction{}).
			Where("check_in_id = ? AND symbol = ?", req.CheckInID, req.Reaction).
			Count(&count).Error
	})
	if err != nil {
		utils.Sugar.Errorf("reaction toggle failed: user=%d checkin=%d err=%v", userID, req.CheckInID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to toggle reaction")
		return
	}

	if action == "added" && checkin.UserID != userID {
		var reactor models.User
		if err := c.db.First(&reactor, userID).Error; err == nil {
			createNotification(c.db, checkin.UserID, "reaction",
				"New reaction",
				reactor.DisplayName+" reacted "+req.Reaction+" to your check-in",
				challengeLink(challengeID))
		}
	}

	utils.Success(ctx, gin.H{
		"action": action,
		"count":  count,
	})
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

// CommentController handles the per-challenge comment wall.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new controller instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

const maxCommentLength = 500

// Post adds a comment to a challenge wall.
func (c *CommentController) Post(ctx *gin.Context) {
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
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "message is required")
		return
	}
	message := utils.Sanitize(strings.TrimSpace(req.Message))
	if message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "message is required")
		return
	}
	if len([]rune(message)) > maxCommentLength {
		utils.Error(ctx, http.StatusBadRequest, 40071, "message too long")
		return
	}

	if _, ok := membershipOf(c.db, challengeID, userID); !ok {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}

	comment := models.Comment{
		ChallengeID: challengeID,
		UserID:      userID,
		Message:     message,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Sugar.Errorf("comment create failed: user=%d challenge=%d err=%v", userID, challengeID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to post comment")
		return
	}

	var author models.User
	if err := c.db.First(&author, userID).Error; err == nil {
		comment.User = &author
	}
	utils.Success(ctx, comment)
}

// List returns the latest comments on a challenge.
func (c *CommentController) List(ctx *gin.Context) {
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

	if _, ok := membershipOf(c.db, challengeID, userID); !ok {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}

	var comments []models.Comment
	if err := c.db.Where("challenge_id = ?", challengeID).
		Order("created_at DESC").Limit(100).Preload("User").
		Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"comments": comments})
}

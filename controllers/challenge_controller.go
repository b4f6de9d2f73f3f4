package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/config"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
	"github.com/arenalab/arena/utils"
)

// ChallengeController handles challenge lifecycle: create, join, browse,
// detail, and lazy completion when an end date passes.
type ChallengeController struct {
	db *gorm.DB
}

// NewChallengeController creates a new controller instance.
func NewChallengeController(db *gorm.DB) *ChallengeController {
	return &ChallengeController{db: db}
}

const (
	joinCodeLength   = 6
	joinCodeAttempts = 5
	maxNameLength    = 100
	maxDescLength    = 1000
)

// Create makes a new challenge with the caller as first member.
func (c *ChallengeController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name            string `json:"name" binding:"required"`
		Description     string `json:"description"`
		BasePoints      int    `json:"base_points"`
		StreakBonus     int    `json:"streak_bonus"`
		EndDate         string `json:"end_date"`
		IsPublic        bool   `json:"is_public"`
		MilestoneTarget *int   `json:"milestone_target"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	name := utils.Sanitize(strings.TrimSpace(req.Name))
	if name == "" || len([]rune(name)) > maxNameLength {
		utils.Error(ctx, http.StatusBadRequest, 40041, "name must be 1-100 characters")
		return
	}
	description := utils.Sanitize(strings.TrimSpace(req.Description))
	if len([]rune(description)) > maxDescLength {
		description = string([]rune(description)[:maxDescLength])
	}

	cfg := config.Get()
	basePoints := req.BasePoints
	if basePoints <= 0 {
		basePoints = cfg.DefaultBasePoints
	}
	streakBonus := req.StreakBonus
	if streakBonus < 0 {
		streakBonus = cfg.DefaultStreakBonus
	}

	var endDate *time.Time
	if strings.TrimSpace(req.EndDate) != "" {
		parsed, err := streak.ParseDate(strings.TrimSpace(req.EndDate))
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40042, "end_date must be YYYY-MM-DD")
			return
		}
		if !parsed.After(streak.Normalize(time.Now())) {
			utils.Error(ctx, http.StatusBadRequest, 40043, "end_date must be in the future")
			return
		}
		endDate = &parsed
	}
	if req.MilestoneTarget != nil && *req.MilestoneTarget <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40044, "milestone_target must be positive")
		return
	}

	challenge := models.Challenge{
		Name:            name,
		Description:     description,
		CreatorID:       userID,
		IsPublic:        req.IsPublic,
		BasePoints:      basePoints,
		StreakBonus:     streakBonus,
		EndDate:         endDate,
		MilestoneTarget: req.MilestoneTarget,
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		// Collisions on the short code are rare; retry a few times and let
		// the unique index arbitrate.
		var lastErr error
		for i := 0; i < joinCodeAttempts; i++ {
			challenge.ID = 0
			challenge.JoinCode = utils.GenerateJoinCode(joinCodeLength)
			if lastErr = tx.Create(&challenge).Error; lastErr == nil {
				break
			}
			if !isDuplicateKey(lastErr) {
				return lastErr
			}
		}
		if lastErr != nil {
			return lastErr
		}
		return tx.Create(&models.Membership{
			ChallengeID: challenge.ID,
			UserID:      userID,
		}).Error
	})
	if err != nil {
		utils.Sugar.Errorf("challenge create failed: user=%d err=%v", userID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create challenge")
		return
	}

	checkAchievements(c.db, userID)
	utils.Success(ctx, challengeSummary(challenge, 1))
}

// Join adds the caller to the challenge matching a join code.
func (c *ChallengeController) Join(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		JoinCode string `json:"join_code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "join_code is required")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))

	var challenge models.Challenge
	if err := c.db.Where("join_code = ?", code).First(&challenge).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "no challenge with that join code")
		return
	}
	if challenge.IsCompleted {
		utils.Error(ctx, http.StatusBadRequest, 40046, "this challenge has already ended")
		return
	}

	membership := models.Membership{ChallengeID: challenge.ID, UserID: userID}
	if err := c.db.Create(&membership).Error; err != nil {
		if isDuplicateKey(err) {
			utils.Error(ctx, http.StatusConflict, 40910, "you are already a member of this challenge")
			return
		}
		utils.Sugar.Errorf("challenge join failed: user=%d challenge=%d err=%v", userID, challenge.ID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to join challenge")
		return
	}

	if challenge.CreatorID != userID {
		var joiner models.User
		if err := c.db.First(&joiner, userID).Error; err == nil {
			createNotification(c.db, challenge.CreatorID, "member_joined",
				"New member",
				joiner.DisplayName+" joined \""+challenge.Name+"\"",
				challengeLink(challenge.ID))
		}
	}

	checkAchievements(c.db, userID)
	utils.Success(ctx, gin.H{
		"challenge_id": challenge.ID,
		"name":         challenge.Name,
	})
}

// Explore lists open public challenges with member counts.
func (c *ChallengeController) Explore(ctx *gin.Context) {
	var challenges []models.Challenge
	if err := c.db.Where("is_public = ? AND is_completed = ?", true, false).
		Order("created_at DESC").Limit(50).Preload("Creator").
		Find(&challenges).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load challenges")
		return
	}

	out := make([]gin.H, 0, len(challenges))
	for _, ch := range challenges {
		var count int64
		c.db.Model(&models.Membership{}).Where("challenge_id = ?", ch.ID).Count(&count)
		item := challengeSummary(ch, count)
		if ch.Creator != nil {
			item["creator_name"] = ch.Creator.DisplayName
		}
		out = append(out, item)
	}
	utils.Success(ctx, gin.H{"challenges": out})
}

// ListMine lists the caller's challenges with per-challenge streak state and
// a checked-in-today flag.
func (c *ChallengeController) ListMine(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var memberships []models.Membership
	if err := c.db.Where("user_id = ?", userID).Order("joined_at DESC").
		Find(&memberships).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load challenges")
		return
	}

	var user models.User
	tzName := ""
	if err := c.db.First(&user, userID).Error; err == nil {
		tzName = user.Timezone
	}
	today := streak.TodayIn(tzName, time.Now())

	out := make([]gin.H, 0, len(memberships))
	for _, m := range memberships {
		var challenge models.Challenge
		if err := c.db.First(&challenge, m.ChallengeID).Error; err != nil {
			continue
		}
		c.finalizeIfExpired(&challenge)

		var todayCount int64
		c.db.Model(&models.CheckIn{}).
			Where("challenge_id = ? AND user_id = ? AND local_date = ?", m.ChallengeID, userID, today).
			Count(&todayCount)

		var memberCount int64
		c.db.Model(&models.Membership{}).Where("challenge_id = ?", m.ChallengeID).Count(&memberCount)

		item := challengeSummary(challenge, memberCount)
		item["points"] = m.Points
		item["current_streak"] = m.CurrentStreak
		item["freezes_available"] = m.FreezesAvailable
		item["checked_in_today"] = todayCount > 0
		out = append(out, item)
	}
	utils.Success(ctx, gin.H{"challenges": out})
}

// Detail returns everything the challenge page needs in one response.
func (c *ChallengeController) Detail(ctx *gin.Context) {
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

	var challenge models.Challenge
	if err := c.db.Preload("Creator").First(&challenge, challengeID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "challenge not found")
		return
	}
	c.finalizeIfExpired(&challenge)

	var membership models.Membership
	if err := c.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&membership).Error; err != nil {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}

	var user models.User
	tzName := ""
	if err := c.db.First(&user, userID).Error; err == nil {
		tzName = user.Timezone
	}
	today := streak.TodayIn(tzName, time.Now())

	var todayCount int64
	c.db.Model(&models.CheckIn{}).
		Where("challenge_id = ? AND user_id = ? AND local_date = ?", challengeID, userID, today).
		Count(&todayCount)

	entries, err := buildLeaderboard(c.db, challengeID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load leaderboard")
		return
	}

	detail := challengeSummary(challenge, int64(len(entries)))
	if challenge.Creator != nil {
		detail["creator_name"] = challenge.Creator.DisplayName
	}
	detail["leaderboard"] = entries
	detail["recent_checkins"] = c.recentCheckIns(challengeID, userID)
	detail["comments"] = c.recentComments(challengeID)
	detail["my_state"] = gin.H{
		"points":            membership.Points,
		"current_streak":    membership.CurrentStreak,
		"best_streak":       membership.BestStreak,
		"freezes_available": membership.FreezesAvailable,
		"checked_in_today":  todayCount > 0,
		"preview":           checkinPreview(challenge, membership, today),
	}
	if challenge.EndDate != nil {
		remaining := streak.DaysBetween(streak.Normalize(time.Now()), *challenge.EndDate)
		if remaining < 0 {
			remaining = 0
		}
		detail["days_remaining"] = remaining
	}
	if challenge.MilestoneTarget != nil {
		detail["milestone"] = gin.H{
			"target":   *challenge.MilestoneTarget,
			"progress": membership.BestStreak,
			"reached":  membership.BestStreak >= *challenge.MilestoneTarget,
		}
	}
	if challenge.IsCompleted && challenge.WinnerID != nil {
		var winner models.User
		if err := c.db.First(&winner, *challenge.WinnerID).Error; err == nil {
			detail["winner"] = gin.H{"id": winner.ID, "display_name": winner.DisplayName}
		}
	}

	utils.Success(ctx, detail)
}

// recentCheckIns returns the latest check-ins with aggregated reactions and
// whether the caller has reacted with each symbol.
func (c *ChallengeController) recentCheckIns(challengeID, userID uint) []gin.H {
	var checkins []models.CheckIn
	c.db.Where("challenge_id = ?", challengeID).
		Order("local_date DESC, id DESC").Limit(20).
		Find(&checkins)

	out := make([]gin.H, 0, len(checkins))
	for _, ci := range checkins {
		var author models.User
		authorName := ""
		if err := c.db.First(&author, ci.UserID).Error; err == nil {
			authorName = author.DisplayName
		}

		var reactions []models.Reaction
		c.db.Where("check_in_id = ?", ci.ID).Find(&reactions)
		counts := map[string]int{}
		mine := map[string]bool{}
		for _, r := range reactions {
			counts[r.Symbol]++
			if r.UserID == userID {
				mine[r.Symbol] = true
			}
		}

		out = append(out, gin.H{
			"id":            ci.ID,
			"user_id":       ci.UserID,
			"user_name":     authorName,
			"local_date":    streak.FormatDate(ci.LocalDate),
			"note":          ci.Note,
			"points_earned": ci.PointsEarned,
			"streak_value":  ci.StreakValue,
			"freeze_used":   ci.FreezeUsed,
			"reactions":     counts,
			"my_reactions":  mine,
		})
	}
	return out
}

func (c *ChallengeController) recentComments(challengeID uint) []gin.H {
	var comments []models.Comment
	c.db.Where("challenge_id = ?", challengeID).
		Order("created_at DESC").Limit(50).Preload("User").
		Find(&comments)

	out := make([]gin.H, 0, len(comments))
	for _, cm := range comments {
		item := gin.H{
			"id":         cm.ID,
			"user_id":    cm.UserID,
			"message":    cm.Message,
			"created_at": cm.CreatedAt,
		}
		if cm.User != nil {
			item["user_name"] = cm.User.DisplayName
		}
		out = append(out, item)
	}
	return out
}

// finalizeIfExpired closes a challenge whose end date has passed: marks it
// completed, records the winner by leaderboard order, and notifies members.
// Runs lazily on read paths so no scheduler is needed.
func (c *ChallengeController) finalizeIfExpired(challenge *models.Challenge) {
	if challenge.IsCompleted || challenge.EndDate == nil {
		return
	}
	if !streak.Normalize(time.Now()).After(streak.Normalize(*challenge.EndDate)) {
		return
	}

	var members []models.Membership
	if err := c.db.Where("challenge_id = ?", challenge.ID).
		Order("points DESC, current_streak DESC, joined_at ASC").
		Find(&members).Error; err != nil {
		return
	}

	var winnerID *uint
	if len(members) > 0 {
		id := members[0].UserID
		winnerID = &id
	}

	// The is_completed guard makes concurrent finalizers converge on one
	// winner even without a row lock.
	res := c.db.Model(&models.Challenge{}).
		Where("id = ? AND is_completed = ?", challenge.ID, false).
		Updates(map[string]interface{}{"is_completed": true, "winner_id": winnerID})
	if res.Error != nil || res.RowsAffected == 0 {
		return
	}
	challenge.IsCompleted = true
	challenge.WinnerID = winnerID

	winnerName := ""
	if winnerID != nil {
		var winner models.User
		if err := c.db.First(&winner, *winnerID).Error; err == nil {
			winnerName = winner.DisplayName
		}
	}
	for _, m := range members {
		msg := "\"" + challenge.Name + "\" has ended."
		if winnerName != "" {
			msg += " Winner: " + winnerName + "!"
		}
		createNotification(c.db, m.UserID, "challenge_completed", "Challenge completed", msg,
			challengeLink(challenge.ID))
	}
	utils.Sugar.Infof("challenge finalized: id=%d winner=%v", challenge.ID, winnerID)
}

func challengeSummary(ch models.Challenge, memberCount int64) gin.H {
	out := gin.H{
		"id":           ch.ID,
		"name":         ch.Name,
		"description":  ch.Description,
		"creator_id":   ch.CreatorID,
		"join_code":    ch.JoinCode,
		"is_public":    ch.IsPublic,
		"base_points":  ch.BasePoints,
		"streak_bonus": ch.StreakBonus,
		"is_completed": ch.IsCompleted,
		"member_count": memberCount,
		"created_at":   ch.CreatedAt,
	}
	if ch.EndDate != nil {
		out["end_date"] = streak.FormatDate(*ch.EndDate)
	}
	if ch.MilestoneTarget != nil {
		out["milestone_target"] = *ch.MilestoneTarget
	}
	return out
}

func challengeLink(id uint) string {
	return "/challenges/" + strconv.FormatUint(uint64(id), 10)
}

// membershipOf loads the (challenge, user) membership or reports absence.
func membershipOf(db *gorm.DB, challengeID, userID uint) (models.Membership, bool) {
	var m models.Membership
	err := db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&m).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Warnf("membership lookup failed: challenge=%d user=%d err=%v", challengeID, userID, err)
		}
		return models.Membership{}, false
	}
	return m, true
}

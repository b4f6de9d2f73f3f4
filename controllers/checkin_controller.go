package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arenalab/arena/config"
	"github.com/arenalab/arena/middleware"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
	"github.com/arenalab/arena/utils"
)

// CheckInController is the transactional entry point for daily check-ins.
// All mutations of one membership's streak state happen inside a transaction
// holding a FOR UPDATE lock on the membership row, so concurrent submissions
// for the same day observe exactly one winner and the loser resolves to the
// idempotent-success path.
type CheckInController struct {
	db *gorm.DB
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(db *gorm.DB) *CheckInController {
	return &CheckInController{db: db}
}

const checkinTxTimeout = 5 * time.Second

type checkinResult struct {
	PointsEarned int    `json:"points_earned"`
	NewStreak    int    `json:"new_streak"`
	FreezeUsed   bool   `json:"freeze_used"`
	FreezeEarned int    `json:"freeze_earned"`
	Message      string `json:"message"`
}

// Submit records a daily check-in for the authenticated member.
func (c *CheckInController) Submit(ctx *gin.Context) {
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
		ClientDate string `json:"client_date" binding:"required"`
		Timezone   string `json:"timezone"`
		Note       string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	localDate, err := streak.ParseDate(strings.TrimSpace(req.ClientDate))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "client_date must be YYYY-MM-DD")
		return
	}

	cfg := config.Get()
	if err := streak.ValidateClientDate(localDate, time.Now(), cfg.DateToleranceDays); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "client_date too far from server date")
		return
	}

	var challenge models.Challenge
	if err := c.db.First(&challenge, challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "challenge not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load challenge")
		return
	}
	if challenge.IsCompleted || (challenge.EndDate != nil && localDate.After(streak.Normalize(*challenge.EndDate))) {
		utils.Error(ctx, http.StatusBadRequest, 40034, "this challenge has already ended")
		return
	}

	note := utils.Sanitize(strings.TrimSpace(req.Note))
	if len([]rune(note)) > 500 {
		note = string([]rune(note)[:500])
	}

	txCtx, cancel := context.WithTimeout(ctx.Request.Context(), checkinTxTimeout)
	defer cancel()

	var result checkinResult
	err = c.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := lockForUpdate(tx).
			Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			First(&membership).Error; err != nil {
			return err
		}

		// Retry or concurrent duplicate: hand back the committed result
		// without recomputing anything (check-ins are immutable).
		var existing models.CheckIn
		if err := tx.Where("challenge_id = ? AND user_id = ? AND local_date = ?",
			challengeID, userID, localDate).First(&existing).Error; err == nil {
			result = resultFromCheckIn(existing)
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		state := streak.State{
			CurrentStreak: membership.CurrentStreak,
			LastDate:      membership.LastCheckinDate,
		}
		adv, err := streak.Advance(state, localDate, membership.FreezesAvailable, cfg.FreezeMilestoneDays)
		if err != nil {
			return err
		}

		points := streak.Points(challenge.BasePoints, challenge.StreakBonus, adv.Streak)

		record := models.CheckIn{
			ChallengeID:  challengeID,
			UserID:       userID,
			LocalDate:    localDate,
			Note:         note,
			PointsEarned: points,
			StreakValue:  adv.Streak,
			FreezeUsed:   adv.FreezeUsed,
			FreezeEarned: adv.FreezeEarned,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isDuplicateKey(err) {
				// Lost the race to a concurrent winner; resolve idempotently.
				if err := tx.Where("challenge_id = ? AND user_id = ? AND local_date = ?",
					challengeID, userID, localDate).First(&existing).Error; err != nil {
					return err
				}
				result = resultFromCheckIn(existing)
				return nil
			}
			return err
		}

		membership.Points += points
		membership.CurrentStreak = adv.Streak
		if adv.Streak > membership.BestStreak {
			membership.BestStreak = adv.Streak
		}
		membership.LastCheckinDate = &record.LocalDate
		membership.FreezesAvailable += adv.FreezeEarned
		if adv.FreezeUsed {
			membership.FreezesAvailable--
			membership.FreezesUsed++
		}
		if membership.FreezesAvailable < 0 {
			membership.FreezesAvailable = 0
		}
		if err := tx.Save(&membership).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("total_points", gorm.Expr("total_points + ?", points)).Error; err != nil {
			return err
		}

		result = checkinResult{
			PointsEarned: points,
			NewStreak:    adv.Streak,
			FreezeUsed:   adv.FreezeUsed,
			FreezeEarned: adv.FreezeEarned,
			Message:      checkinMessage(points, adv.Streak, adv.FreezeUsed, adv.FreezeEarned),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
			return
		}
		if errors.Is(err, streak.ErrNotAfterLast) {
			utils.Error(ctx, http.StatusBadRequest, 40035, "check-in date is before your last check-in")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			utils.Error(ctx, http.StatusServiceUnavailable, 50333, "check-in timed out, please retry")
			return
		}
		utils.Sugar.Errorf("check-in failed: user=%d challenge=%d err=%v", userID, challengeID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to record check-in")
		return
	}

	utils.InvalidateByPrefix(leaderboardCacheKey(challengeID))
	checkAchievements(c.db, userID)

	utils.Success(ctx, result)
}

// Status returns the caller's streak and freeze state for one challenge,
// including a preview of what the next check-in would award.
func (c *CheckInController) Status(ctx *gin.Context) {
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

	var membership models.Membership
	if err := c.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		First(&membership).Error; err != nil {
		utils.Error(ctx, http.StatusForbidden, 40310, "you are not a member of this challenge")
		return
	}

	var challenge models.Challenge
	if err := c.db.First(&challenge, challengeID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "challenge not found")
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

	utils.Success(ctx, gin.H{
		"current_streak":    membership.CurrentStreak,
		"best_streak":       membership.BestStreak,
		"points":            membership.Points,
		"freezes_available": membership.FreezesAvailable,
		"freezes_used":      membership.FreezesUsed,
		"last_checkin_date": formatDatePtr(membership.LastCheckinDate),
		"checked_in_today":  todayCount > 0,
		"preview":           checkinPreview(challenge, membership, today),
	})
}

// checkinPreview mirrors the live formula so what the client shows before
// committing matches what Submit will award.
func checkinPreview(ch models.Challenge, m models.Membership, today time.Time) gin.H {
	milestone := config.Get().FreezeMilestoneDays

	previewStreak := 1
	freezeWillBeUsed := false
	if m.LastCheckinDate != nil {
		gap := streak.DaysBetween(*m.LastCheckinDate, today)
		switch {
		case gap == 1:
			previewStreak = m.CurrentStreak + 1
		case gap > 1 && m.CurrentStreak > 0 && m.FreezesAvailable > 0:
			previewStreak = m.CurrentStreak + 1
			freezeWillBeUsed = true
		}
	}

	nextFreezeAt := (m.CurrentStreak/milestone + 1) * milestone
	return gin.H{
		"points":              streak.Points(ch.BasePoints, ch.StreakBonus, previewStreak),
		"streak":              previewStreak,
		"freeze_will_be_used": freezeWillBeUsed,
		"next_freeze_at":      nextFreezeAt,
		"days_to_next_freeze": nextFreezeAt - m.CurrentStreak,
	}
}

func resultFromCheckIn(rec models.CheckIn) checkinResult {
	return checkinResult{
		PointsEarned: rec.PointsEarned,
		NewStreak:    rec.StreakValue,
		FreezeUsed:   rec.FreezeUsed,
		FreezeEarned: rec.FreezeEarned,
		Message:      checkinMessage(rec.PointsEarned, rec.StreakValue, rec.FreezeUsed, rec.FreezeEarned),
	}
}

func checkinMessage(points, newStreak int, freezeUsed bool, freezeEarned int) string {
	parts := []string{fmt.Sprintf("+%d points (Streak: %d)", points, newStreak)}
	if freezeUsed {
		parts = append(parts, "Streak freeze used!")
	}
	if freezeEarned > 0 {
		parts = append(parts, "+1 freeze earned!")
	}
	return "Check-in recorded. " + strings.Join(parts, " ")
}

// lockForUpdate takes a row lock on databases that support it. SQLite, used
// in tests, serializes writers on its own and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

func formatDatePtr(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := streak.FormatDate(*d)
	return &s
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	if raw == "" {
		return 0, false
	}
	var id uint
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/config"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
	"github.com/arenalab/arena/utils"
)

// LeaderboardController serves ranked standings per challenge, with a short
// redis cache in front of the query. The cache is invalidated whenever a
// check-in commits, so stale reads are bounded by the TTL.
type LeaderboardController struct {
	db *gorm.DB
}

// NewLeaderboardController creates a new controller instance.
func NewLeaderboardController(db *gorm.DB) *LeaderboardController {
	return &LeaderboardController{db: db}
}

type leaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         uint   `json:"user_id"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Points         int    `json:"points"`
	CurrentStreak  int    `json:"current_streak"`
	BestStreak     int    `json:"best_streak"`
	FreezesUsed    int    `json:"freezes_used"`
	LastCheckin    string `json:"last_checkin_date,omitempty"`
	CheckedInToday bool   `json:"checked_in_today"`
}

// Get returns the ranked members of a challenge.
func (c *LeaderboardController) Get(ctx *gin.Context) {
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

	key := leaderboardCacheKey(challengeID)
	if b, ok := utils.CacheGetBytes(key); ok {
		var cached []leaderboardEntry
		if err := json.Unmarshal(b, &cached); err == nil {
			utils.Success(ctx, gin.H{"leaderboard": cached, "cached": true})
			return
		}
	}

	entries, err := buildLeaderboard(c.db, challengeID)
	if err != nil {
		utils.Sugar.Errorf("leaderboard query failed: challenge=%d err=%v", challengeID, err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load leaderboard")
		return
	}

	ttl := time.Duration(config.Get().LeaderboardCacheTTLSec) * time.Second
	utils.CacheSetJSON(key, entries, ttl)

	utils.Success(ctx, gin.H{"leaderboard": entries, "cached": false})
}

// buildLeaderboard ranks members by points, then current streak, then join
// time. Ordering is total so ranks are stable across reads.
func buildLeaderboard(db *gorm.DB, challengeID uint) ([]leaderboardEntry, error) {
	var members []models.Membership
	if err := db.Where("challenge_id = ?", challengeID).
		Order("points DESC, current_streak DESC, joined_at ASC").
		Preload("User").
		Find(&members).Error; err != nil {
		return nil, err
	}

	today := streak.Normalize(time.Now())
	entries := make([]leaderboardEntry, 0, len(members))
	for i, m := range members {
		e := leaderboardEntry{
			Rank:          i + 1,
			UserID:        m.UserID,
			Points:        m.Points,
			CurrentStreak: m.CurrentStreak,
			BestStreak:    m.BestStreak,
			FreezesUsed:   m.FreezesUsed,
		}
		if m.User != nil {
			e.DisplayName = m.User.DisplayName
			e.AvatarURL = m.User.AvatarURL
		}
		if m.LastCheckinDate != nil {
			e.LastCheckin = streak.FormatDate(*m.LastCheckinDate)
			e.CheckedInToday = streak.Normalize(*m.LastCheckinDate).Equal(today)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func leaderboardCacheKey(challengeID uint) string {
	return "arena:leaderboard:" + strconv.FormatUint(uint64(challengeID), 10)
}

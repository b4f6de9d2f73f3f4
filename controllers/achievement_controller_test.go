package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalab/arena/models"
)

func TestFirstCheckInAwardsAchievement(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SeedAchievements(db))

	alice := createUser(t, db, "alice")
	challenge := createChallenge(t, db, alice, 10, 5)

	_, code := submitCheckin(t, db, alice, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)

	var first models.Achievement
	require.NoError(t, db.Where("name = ?", "First Check-in").First(&first).Error)

	var earned models.UserAchievement
	require.NoError(t, db.Where("user_id = ? AND achievement_id = ?", alice.ID, first.ID).
		First(&earned).Error)

	// earning it again is a no-op
	checkAchievements(db, alice.ID)
	var count int64
	db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ?", alice.ID, first.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)

	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", alice.ID, "achievement").First(&n).Error)
	assert.Contains(t, n.Message, "First Check-in")
}

func TestSeedAchievementsIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SeedAchievements(db))
	require.NoError(t, SeedAchievements(db))

	var count int64
	db.Model(&models.Achievement{}).Count(&count)
	assert.EqualValues(t, int64(len(models.DefaultAchievements)), count)
}

func TestAchievementListMarksEarned(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SeedAchievements(db))
	alice := createUser(t, db, "alice")
	challenge := createChallenge(t, db, alice, 10, 5)

	_, code := submitCheckin(t, db, alice, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)

	c := NewAchievementController(db)
	ctx, w := testCtx(t, "GET", "/achievements", nil)
	asUser(ctx, alice)
	c.List(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := resp.Data["achievements"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, len(models.DefaultAchievements))

	earnedNames := map[string]bool{}
	for _, raw := range list {
		item, ok := raw.(map[string]interface{})
		require.True(t, ok)
		if item["earned"] == true {
			earnedNames[item["name"].(string)] = true
		}
	}
	assert.True(t, earnedNames["First Check-in"])
	assert.True(t, earnedNames["Challenge Creator"])
	assert.False(t, earnedNames["Week Warrior"])
}

package controllers

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
)

func dayOffset(offset int) string {
	return streak.FormatDate(streak.Normalize(time.Now()).AddDate(0, 0, offset))
}

func submitCheckin(t *testing.T, db *gorm.DB, user models.User, challenge models.Challenge, date string) (apiResponse, int) {
	t.Helper()
	c := NewCheckInController(db)
	ctx, w := testCtx(t, "POST", "/checkin", gin.H{"client_date": date})
	asUser(ctx, user)
	withParam(ctx, "id", challenge.ID)
	c.Submit(ctx)
	return decodeResponse(t, w), w.Code
}

func loadMembership(t *testing.T, db *gorm.DB, challengeID, userID uint) models.Membership {
	t.Helper()
	var m models.Membership
	require.NoError(t, db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&m).Error)
	return m
}

func TestCheckInConsecutiveDays(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	wantPoints := []float64{10, 15, 20}
	wantStreaks := []float64{1, 2, 3}
	for i, offset := range []int{-2, -1, 0} {
		resp, code := submitCheckin(t, db, user, challenge, dayOffset(offset))
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, wantPoints[i], resp.Data["points_earned"])
		assert.Equal(t, wantStreaks[i], resp.Data["new_streak"])
		assert.Equal(t, false, resp.Data["freeze_used"])
	}

	m := loadMembership(t, db, challenge.ID, user.ID)
	assert.Equal(t, 45, m.Points)
	assert.Equal(t, 3, m.CurrentStreak)
	assert.Equal(t, 3, m.BestStreak)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 45, u.TotalPoints)
}

func TestCheckInDuplicateSameDayIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	first, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)

	second, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, first.Data, second.Data)

	var count int64
	db.Model(&models.CheckIn{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)

	m := loadMembership(t, db, challenge.ID, user.ID)
	assert.Equal(t, 10, m.Points)
	assert.Equal(t, 1, m.CurrentStreak)
}

func TestCheckInGapWithoutFreezeResets(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	resp, code := submitCheckin(t, db, user, challenge, dayOffset(-5))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp.Data["new_streak"])

	resp, code = submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp.Data["new_streak"])
	assert.Equal(t, float64(10), resp.Data["points_earned"])
	assert.Equal(t, false, resp.Data["freeze_used"])
}

func TestCheckInFreezeBridgesGap(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	last := streak.Normalize(time.Now()).AddDate(0, 0, -4)
	require.NoError(t, db.Model(&models.Membership{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
		Updates(map[string]interface{}{
			"current_streak":    3,
			"best_streak":       3,
			"last_checkin_date": last,
			"freezes_available": 1,
		}).Error)

	resp, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(4), resp.Data["new_streak"])
	assert.Equal(t, true, resp.Data["freeze_used"])

	m := loadMembership(t, db, challenge.ID, user.ID)
	assert.Equal(t, 4, m.CurrentStreak)
	assert.Equal(t, 0, m.FreezesAvailable)
	assert.Equal(t, 1, m.FreezesUsed)
}

func TestCheckInMilestoneEarnsFreeze(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	last := streak.Normalize(time.Now()).AddDate(0, 0, -1)
	require.NoError(t, db.Model(&models.Membership{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
		Updates(map[string]interface{}{
			"current_streak":    6,
			"best_streak":       6,
			"last_checkin_date": last,
		}).Error)

	resp, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), resp.Data["new_streak"])
	assert.Equal(t, float64(1), resp.Data["freeze_earned"])

	m := loadMembership(t, db, challenge.ID, user.ID)
	assert.Equal(t, 1, m.FreezesAvailable)
}

func TestCheckInRejectsImplausibleDate(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	resp, code := submitCheckin(t, db, user, challenge, "1800-01-01")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40033, resp.Code)
}

func TestCheckInRejectsNonMember(t *testing.T) {
	db := setupTestDB(t)
	creator := createUser(t, db, "alice")
	outsider := createUser(t, db, "bob")
	challenge := createChallenge(t, db, creator, 10, 5)

	resp, code := submitCheckin(t, db, outsider, challenge, dayOffset(0))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 40310, resp.Code)
}

func TestCheckInRejectsEndedChallenge(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	yesterday := streak.Normalize(time.Now()).AddDate(0, 0, -1)
	require.NoError(t, db.Model(&models.Challenge{}).
		Where("id = ?", challenge.ID).
		Update("end_date", yesterday).Error)

	resp, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40034, resp.Code)
}

func TestCheckInConcurrentDuplicateAwardsOnce(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)
	date := dayOffset(0)

	responses := make([]apiResponse, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, code := submitCheckin(t, db, user, challenge, date)
			assert.Equal(t, http.StatusOK, code)
			responses[i] = resp
		}(i)
	}
	wg.Wait()

	assert.Equal(t, responses[0].Data, responses[1].Data)

	var count int64
	db.Model(&models.CheckIn{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
		Count(&count)
	assert.EqualValues(t, 1, count)

	m := loadMembership(t, db, challenge.ID, user.ID)
	assert.Equal(t, 10, m.Points)

	var u models.User
	require.NoError(t, db.First(&u, user.ID).Error)
	assert.Equal(t, 10, u.TotalPoints)
}

func TestCheckInStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	challenge := createChallenge(t, db, user, 10, 5)

	_, code := submitCheckin(t, db, user, challenge, dayOffset(0))
	require.Equal(t, http.StatusOK, code)

	c := NewCheckInController(db)
	ctx, w := testCtx(t, "GET", "/checkin/status", nil)
	asUser(ctx, user)
	withParam(ctx, "id", challenge.ID)
	c.Status(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp.Data["checked_in_today"])
	assert.Equal(t, float64(1), resp.Data["current_streak"])
	assert.Equal(t, float64(10), resp.Data["points"])
}

package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/streak"
)

func TestChallengeCreateAppliesDefaults(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "POST", "/challenges", gin.H{"name": "Read 20 pages"})
	asUser(ctx, alice)
	c.Create(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), resp.Data["base_points"])
	assert.Equal(t, float64(5), resp.Data["streak_bonus"])

	code, ok := resp.Data["join_code"].(string)
	require.True(t, ok)
	assert.Len(t, code, 6)

	var challenge models.Challenge
	require.NoError(t, db.Where("join_code = ?", code).First(&challenge).Error)
	assert.Equal(t, alice.ID, challenge.CreatorID)

	// creator joins their own challenge on create
	_, member := membershipOf(db, challenge.ID, alice.ID)
	assert.True(t, member)
}

func TestChallengeCreateRejectsPastEndDate(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "POST", "/challenges", gin.H{
		"name":     "Time travel",
		"end_date": dayOffset(-3),
	})
	asUser(ctx, alice)
	c.Create(ctx)

	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40043, resp.Code)
}

func TestChallengeJoinByCode(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "POST", "/challenges/join", gin.H{"join_code": challenge.JoinCode})
	asUser(ctx, bob)
	c.Join(ctx)

	require.Equal(t, http.StatusOK, w.Code)
	_, member := membershipOf(db, challenge.ID, bob.ID)
	assert.True(t, member)

	// the creator is told someone joined
	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", alice.ID, "member_joined").First(&n).Error)
	assert.Contains(t, n.Message, "bob")
}

func TestChallengeJoinTwiceConflicts(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)
	joinChallenge(t, db, challenge, bob)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "POST", "/challenges/join", gin.H{"join_code": challenge.JoinCode})
	asUser(ctx, bob)
	c.Join(ctx)

	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40910, resp.Code)
}

func TestChallengeDetailRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	outsider := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "GET", "/challenges/detail", nil)
	asUser(ctx, outsider)
	withParam(ctx, "id", challenge.ID)
	c.Detail(ctx)

	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40310, resp.Code)
}

func TestChallengeDetailIncludesStateAndPreview(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	challenge := createChallenge(t, db, alice, 10, 5)

	_, code := submitCheckin(t, db, alice, challenge, dayOffset(-1))
	require.Equal(t, http.StatusOK, code)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "GET", "/challenges/detail", nil)
	asUser(ctx, alice)
	withParam(ctx, "id", challenge.ID)
	c.Detail(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)

	state, ok := resp.Data["my_state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), state["current_streak"])
	assert.Equal(t, false, state["checked_in_today"])

	// preview shows tomorrow's award with the live formula
	preview, ok := state["preview"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), preview["streak"])
	assert.Equal(t, float64(15), preview["points"])
}

func TestChallengeFinalizedWhenEndDatePasses(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)
	joinChallenge(t, db, challenge, bob)

	yesterday := streak.Normalize(time.Now()).AddDate(0, 0, -1)
	require.NoError(t, db.Model(&models.Challenge{}).
		Where("id = ?", challenge.ID).
		Update("end_date", yesterday).Error)
	require.NoError(t, db.Model(&models.Membership{}).
		Where("challenge_id = ? AND user_id = ?", challenge.ID, bob.ID).
		Update("points", 99).Error)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "GET", "/challenges/detail", nil)
	asUser(ctx, alice)
	withParam(ctx, "id", challenge.ID)
	c.Detail(ctx)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Challenge
	require.NoError(t, db.First(&reloaded, challenge.ID).Error)
	assert.True(t, reloaded.IsCompleted)
	require.NotNil(t, reloaded.WinnerID)
	assert.Equal(t, bob.ID, *reloaded.WinnerID)

	var count int64
	db.Model(&models.Notification{}).Where("type = ?", "challenge_completed").Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestChallengeExploreListsPublicOnly(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	private := createChallenge(t, db, alice, 10, 5)

	public := models.Challenge{
		Name:       "Morning run",
		CreatorID:  alice.ID,
		JoinCode:   "PUBRUN",
		IsPublic:   true,
		BasePoints: 10,
	}
	require.NoError(t, db.Create(&public).Error)

	c := NewChallengeController(db)
	ctx, w := testCtx(t, "GET", "/challenges/explore", nil)
	asUser(ctx, alice)
	c.Explore(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	list, ok := resp.Data["challenges"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)

	item, ok := list[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(public.ID), item["id"])
	assert.NotEqual(t, float64(private.ID), item["id"])
}

package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arenalab/arena/models"
)

func setMembershipStanding(t *testing.T, db *gorm.DB, challengeID, userID uint, points, currentStreak int, joinedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Model(&models.Membership{}).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Updates(map[string]interface{}{
			"points":         points,
			"current_streak": currentStreak,
			"joined_at":      joinedAt,
		}).Error)
}

func TestLeaderboardOrdering(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	dave := createUser(t, db, "dave")
	challenge := createChallenge(t, db, alice, 10, 5)
	joinChallenge(t, db, challenge, bob)
	joinChallenge(t, db, challenge, carol)
	joinChallenge(t, db, challenge, dave)

	base := time.Now().Add(-24 * time.Hour)
	// carol over bob on streak at equal points; bob over dave on earlier join
	// at equal points and streak; alice trails on points.
	setMembershipStanding(t, db, challenge.ID, alice.ID, 10, 9, base)
	setMembershipStanding(t, db, challenge.ID, bob.ID, 30, 2, base.Add(time.Minute))
	setMembershipStanding(t, db, challenge.ID, carol.ID, 30, 5, base.Add(2*time.Minute))
	setMembershipStanding(t, db, challenge.ID, dave.ID, 30, 2, base.Add(3*time.Minute))

	entries, err := buildLeaderboard(db, challenge.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	wantOrder := []uint{carol.ID, bob.ID, dave.ID, alice.ID}
	for i, want := range wantOrder {
		assert.Equal(t, want, entries[i].UserID, "position %d", i)
		assert.Equal(t, i+1, entries[i].Rank)
	}
}

func TestLeaderboardEndpointRequiresMembership(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	outsider := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)

	c := NewLeaderboardController(db)
	ctx, w := testCtx(t, "GET", "/leaderboard", nil)
	asUser(ctx, outsider)
	withParam(ctx, "id", challenge.ID)
	c.Get(ctx)

	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40310, resp.Code)
}

func TestLeaderboardEndpointReturnsRankedMembers(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	challenge := createChallenge(t, db, alice, 10, 5)
	joinChallenge(t, db, challenge, bob)

	setMembershipStanding(t, db, challenge.ID, bob.ID, 50, 3, time.Now())

	c := NewLeaderboardController(db)
	ctx, w := testCtx(t, "GET", "/leaderboard", nil)
	asUser(ctx, alice)
	withParam(ctx, "id", challenge.ID)
	c.Get(ctx)

	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	board, ok := resp.Data["leaderboard"].([]interface{})
	require.True(t, ok)
	require.Len(t, board, 2)

	first, ok := board[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(bob.ID), first["user_id"])
	assert.Equal(t, float64(50), first["points"])
	assert.Equal(t, "bob", first["display_name"])
}

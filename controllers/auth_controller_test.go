package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	c := NewAuthController(db)

	ctx, w := testCtx(t, "POST", "/auth/register", gin.H{
		"username": "alice",
		"password": "hunter22",
		"timezone": "America/New_York",
	})
	c.Register(ctx)
	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)

	token, ok := resp.Data["token"].(string)
	require.True(t, ok)
	claims, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	user, ok := resp.Data["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "America/New_York", user["timezone"])
	assert.Equal(t, "alice", user["display_name"])

	// stored hash verifies, plaintext is never kept
	var stored models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&stored).Error)
	assert.True(t, utils.CheckPassword(stored.PasswordHash, "hunter22"))

	ctx, w = testCtx(t, "POST", "/auth/login", gin.H{
		"username": "alice",
		"password": "hunter22",
	})
	c.Login(ctx)
	require.Equal(t, http.StatusOK, w.Code)

	ctx, w = testCtx(t, "POST", "/auth/login", gin.H{
		"username": "alice",
		"password": "wrong",
	})
	c.Login(ctx)
	resp = decodeResponse(t, w)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40106, resp.Code)
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	db := setupTestDB(t)
	c := NewAuthController(db)

	ctx, w := testCtx(t, "POST", "/auth/register", gin.H{
		"username": "bad name!",
		"password": "hunter22",
	})
	c.Register(ctx)
	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40002, resp.Code)
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "alice")
	c := NewAuthController(db)

	ctx, w := testCtx(t, "POST", "/auth/register", gin.H{
		"username": "alice",
		"password": "hunter22",
	})
	c.Register(ctx)
	resp := decodeResponse(t, w)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, resp.Code)
}

func TestUpdateProfileFallsBackToUTCOnBadTimezone(t *testing.T) {
	db := setupTestDB(t)
	alice := createUser(t, db, "alice")
	c := NewAuthController(db)

	ctx, w := testCtx(t, "PATCH", "/auth/profile", gin.H{"timezone": "Mars/Olympus"})
	asUser(ctx, alice)
	c.UpdateProfile(ctx)
	resp := decodeResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "UTC", resp.Data["timezone"])
}

package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arenalab/arena/middleware"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/utils"
)

// setupTestDB opens an isolated in-memory database with the full schema.
// Historical check-in dates in tests require a wide tolerance window, so it
// is raised via env before the config loads; the window itself is covered by
// the streak package tests.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATE_TOLERANCE_DAYS", "36500")
	t.Setenv("ADMIN_USERNAMES", "admin")
	gin.SetMode(gin.TestMode)
	if utils.Sugar == nil {
		utils.Logger = zap.NewNop()
		utils.Sugar = utils.Logger.Sugar()
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.Membership{},
		&models.CheckIn{},
		&models.Reaction{},
		&models.Nudge{},
		&models.Comment{},
		&models.Notification{},
		&models.Achievement{},
		&models.UserAchievement{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:    username,
		DisplayName: username,
		Timezone:    "UTC",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createChallenge(t *testing.T, db *gorm.DB, creator models.User, basePoints, streakBonus int) models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		Name:        "Daily pushups",
		CreatorID:   creator.ID,
		JoinCode:    utils.GenerateJoinCode(6),
		BasePoints:  basePoints,
		StreakBonus: streakBonus,
	}
	require.NoError(t, db.Create(&challenge).Error)
	joinChallenge(t, db, challenge, creator)
	return challenge
}

func joinChallenge(t *testing.T, db *gorm.DB, challenge models.Challenge, user models.User) models.Membership {
	t.Helper()
	m := models.Membership{ChallengeID: challenge.ID, UserID: user.ID}
	require.NoError(t, db.Create(&m).Error)
	return m
}

// testCtx builds a gin context around a JSON request body.
func testCtx(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx.Request = req
	return ctx, w
}

func asUser(ctx *gin.Context, user models.User) {
	ctx.Set(middleware.ContextUserIDKey, user.ID)
	ctx.Set(middleware.ContextUsernameKey, user.Username)
}

func withParam(ctx *gin.Context, key string, value uint) {
	ctx.Params = append(ctx.Params, gin.Param{Key: key, Value: fmt.Sprint(value)})
}

type apiResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

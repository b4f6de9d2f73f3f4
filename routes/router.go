package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arenalab/arena/config"
	"github.com/arenalab/arena/controllers"
	"github.com/arenalab/arena/middleware"
	"github.com/arenalab/arena/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	challengeController := controllers.NewChallengeController(db)
	checkinController := controllers.NewCheckInController(db)
	leaderboardController := controllers.NewLeaderboardController(db)
	reactionController := controllers.NewReactionController(db)
	nudgeController := controllers.NewNudgeController(db)
	commentController := controllers.NewCommentController(db)
	notificationController := controllers.NewNotificationController(db)
	achievementController := controllers.NewAchievementController(db)
	statsController := controllers.NewStatsController(db)
	adminController := controllers.NewAdminController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/challenges", challengeController.Create)
	protected.POST("/challenges/join", challengeController.Join)
	protected.GET("/challenges/explore", challengeController.Explore)
	protected.GET("/challenges/mine", challengeController.ListMine)
	protected.GET("/challenges/:id", challengeController.Detail)

	protected.POST("/challenges/:id/checkin", checkinController.Submit)
	protected.GET("/challenges/:id/checkin/status", checkinController.Status)
	protected.GET("/challenges/:id/leaderboard", leaderboardController.Get)
	protected.POST("/challenges/:id/react", reactionController.Toggle)
	protected.POST("/challenges/:id/nudge/:user_id", nudgeController.Send)
	protected.POST("/challenges/:id/comments", commentController.Post)
	protected.GET("/challenges/:id/comments", commentController.List)

	protected.GET("/notifications", notificationController.List)
	protected.GET("/notifications/unread-count", notificationController.UnreadCount)
	protected.GET("/achievements", achievementController.List)
	protected.GET("/profile/stats", statsController.Profile)

	protected.DELETE("/admin/checkins/:id", adminController.DeleteCheckIn)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}

package main

import (
	"github.com/arenalab/arena/config"
	"github.com/arenalab/arena/controllers"
	"github.com/arenalab/arena/models"
	"github.com/arenalab/arena/routes"
	"github.com/arenalab/arena/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
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
	)

	if err := controllers.SeedAchievements(db); err != nil {
		utils.Sugar.Warnf("achievement seeding failed: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

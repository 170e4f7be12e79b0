package main

import (
	"context"

	"plex-exchange-go/internal/common"
	"plex-exchange-go/internal/config"

	"go.uber.org/zap"
)

// setup initializes the database schema and, when SEED_DEMO_USERS is
// set, seeds demo users for local testing.
func main() {
	logger, cleanup := common.InitializeLogger()
	defer cleanup()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := services.DbService.GetUsers(ctx)
	if err != nil {
		logger.Fatal("Failed to list users", zap.Error(err))
	}

	zap.L().Info("Setup complete",
		zap.String("database", cfg.Database.Path),
		zap.Int("users", len(users)),
		zap.Strings("currencies", services.Registry.Codes()))
}

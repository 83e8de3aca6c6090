package main

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taqiudeen275/furniture-auth/internal/config"
	"github.com/taqiudeen275/furniture-auth/internal/database"
	"github.com/taqiudeen275/furniture-auth/internal/server"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewWithOptions(logger.Options{
		Environment: cfg.Environment,
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()
	logger.SetGlobalLogger(appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.NewMigrationService(db).Up(); err != nil {
		appLogger.Fatal("Failed to apply migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		appLogger.Fatal("Failed to connect to redis: %v", err)
	}

	srv, err := server.New(cfg, db, rdb, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create server: %v", err)
	}

	if err := srv.Start(); err != nil {
		appLogger.Error("Server stopped: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"log"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/logging"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Uso: migrate [-command up|down|status|version|redo|reset] [args...]
func main() {
	command := flag.String("command", "up", "goose command to run")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, *command, flag.Args()...); err != nil {
		logger.Fatal("migrate", zap.String("command", *command), zap.Error(err))
	}
	logger.Info("migrate finished", zap.String("command", *command))
}

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mealwise/backend/config"
	"github.com/mealwise/backend/internal/audit"
	"github.com/mealwise/backend/internal/database"
	"github.com/mealwise/backend/internal/logging"
)

func main() {
	// Parse command line flags
	pruneOlderThan := flag.Duration("prune-older-than", 0, "Delete ledger entries older than this age after migrating (0 keeps everything)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if db == nil {
		logger.Fatal("DB_DRIVER is not set, nothing to migrate")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	logger.Info("Migrations applied")

	if *pruneOlderThan > 0 {
		cutoff := time.Now().Add(-*pruneOlderThan)
		deleted, err := audit.NewGormLedger(db).Prune(context.Background(), cutoff)
		if err != nil {
			logger.Fatal("Prune failed", zap.Error(err))
		}
		logger.Info("Pruned ledger", zap.Int64("deleted", deleted), zap.Time("before", cutoff))
	}
}

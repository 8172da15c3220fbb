// Command migrate runs the legacy blob migration standalone. The server
// performs the same migration at startup; this tool exists for operators
// who want to migrate and inspect the result before deploying.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/formflow/backend/internal/infrastructure/config"
	"github.com/formflow/backend/internal/infrastructure/kvstore"
	"github.com/formflow/backend/internal/infrastructure/logger"
	"github.com/formflow/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	store := kvstore.NewGormStore(db.DB, kvstore.WithLogger(log))
	if err := store.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate storage schema", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	migrator := kvstore.NewMigrator(db.DB, store, log)
	if err := migrator.MigrateAll(ctx); err != nil {
		log.Fatal("Legacy data migration failed", zap.Error(err))
	}

	stats, err := store.UsageStatistics(ctx)
	if err != nil {
		log.Fatal("Failed to read storage statistics", zap.Error(err))
	}

	log.Info("Migration complete",
		zap.Int64("totalRecords", stats.TotalCount),
		zap.Int64("totalBytes", stats.TotalBytes))
	for collection, cs := range stats.PerCollection {
		log.Info("Collection",
			zap.String("name", collection),
			zap.Int64("count", cs.Count),
			zap.Int64("bytes", cs.ApproximateBytes))
	}
}

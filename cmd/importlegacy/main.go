// Command importlegacy copies the old Mongo price history into the Postgres
// snapshot table, one batch at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tcgnakama/pricewatch/pricewatch"
	"github.com/tcgnakama/pricewatch/pricewatch/database"
	"github.com/tcgnakama/pricewatch/pricewatch/logger"
	"github.com/tcgnakama/pricewatch/pricewatch/migration"
)

func main() {
	path := flag.String("config", "config.toml", "path to config")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "legacy mongo connection string")
	mongoDB := flag.String("mongo-db", "cardshop", "legacy mongo database name")
	mongoColl := flag.String("mongo-collection", "pricehistory", "legacy price history collection")
	batchSize := flag.Int("batch-size", 1000, "insert batch size")
	flag.Parse()

	cfg, err := pricewatch.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.SetDefault(slog.New(logger.NewHandler(cfg.Log.Level)))

	ctx := context.Background()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.Any("error", err))
		os.Exit(-1)
	}

	logger.LogSystem("Starting legacy import",
		slog.String("source", *mongoURI),
		slog.String("collection", *mongoColl))

	importer := migration.NewImporter(db.BunDB(), *mongoURI, *mongoDB, *mongoColl, slog.Default())
	importer.SetBatchSize(*batchSize)

	stats, err := importer.Run(ctx)
	if err != nil {
		logger.LogError("Legacy import failed", err)
		os.Exit(-1)
	}

	fmt.Printf("imported %d of %d legacy snapshots (%d skipped)\n",
		stats.Inserted, stats.Read, stats.Skipped)
}

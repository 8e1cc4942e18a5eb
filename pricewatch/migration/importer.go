package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcgnakama/pricewatch/pricewatch/database/models"
)

// LegacySnapshot mirrors one document of the old Mongo price history.
type LegacySnapshot struct {
	ItemID    string    `bson:"item_id"`
	Title     string    `bson:"title"`
	PriceUSD  float64   `bson:"price_usd"`
	PriceJPY  int64     `bson:"price_jpy"`
	Rate      float64   `bson:"rate"`
	FetchedAt time.Time `bson:"fetched_at"`
}

// ImportStats tracks progress of one legacy import.
type ImportStats struct {
	Read      int
	Inserted  int
	Skipped   int
	StartTime time.Time
}

// Importer copies the legacy Mongo price history into Postgres snapshots.
// Documents without an item id are skipped; everything else is inserted in
// batches.
type Importer struct {
	pgDB       *bun.DB
	mongoURI   string
	database   string
	collection string
	batchSize  int
	stats      ImportStats
	log        *slog.Logger
}

func NewImporter(pgDB *bun.DB, mongoURI, database, collection string, log *slog.Logger) *Importer {
	return &Importer{
		pgDB:       pgDB,
		mongoURI:   mongoURI,
		database:   database,
		collection: collection,
		batchSize:  1000,
		log:        log,
	}
}

// SetBatchSize overrides the default insert batch size.
func (i *Importer) SetBatchSize(size int) {
	if size > 0 {
		i.batchSize = size
	}
}

func (i *Importer) Run(ctx context.Context) (ImportStats, error) {
	i.stats = ImportStats{StartTime: time.Now()}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(i.mongoURI))
	if err != nil {
		return i.stats, fmt.Errorf("connecting to mongo: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			i.log.Warn("Mongo disconnect failed", slog.Any("error", err))
		}
	}()

	coll := client.Database(i.database).Collection(i.collection)
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return i.stats, fmt.Errorf("querying %s: %w", i.collection, err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.PriceSnapshot, 0, i.batchSize)
	for cursor.Next(ctx) {
		var doc LegacySnapshot
		if err := cursor.Decode(&doc); err != nil {
			i.stats.Skipped++
			continue
		}
		i.stats.Read++

		if doc.ItemID == "" {
			i.stats.Skipped++
			continue
		}

		recordedAt := doc.FetchedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now().UTC()
		}
		batch = append(batch, &models.PriceSnapshot{
			ItemID:       doc.ItemID,
			ItemTitle:    doc.Title,
			MarketUSD:    doc.PriceUSD,
			MarketJPY:    doc.PriceJPY,
			ExchangeRate: doc.Rate,
			RecordedAt:   recordedAt.UTC(),
		})

		if len(batch) >= i.batchSize {
			if err := i.flush(ctx, batch); err != nil {
				return i.stats, err
			}
			batch = batch[:0]
		}
	}
	if err := cursor.Err(); err != nil {
		return i.stats, fmt.Errorf("reading %s cursor: %w", i.collection, err)
	}
	if len(batch) > 0 {
		if err := i.flush(ctx, batch); err != nil {
			return i.stats, err
		}
	}

	i.log.Info("Legacy import complete",
		slog.String("type", "db"),
		slog.Int("read", i.stats.Read),
		slog.Int("inserted", i.stats.Inserted),
		slog.Int("skipped", i.stats.Skipped),
		slog.Duration("duration", time.Since(i.stats.StartTime)))
	return i.stats, nil
}

func (i *Importer) flush(ctx context.Context, batch []*models.PriceSnapshot) error {
	if _, err := i.pgDB.NewInsert().Model(&batch).Exec(ctx); err != nil {
		return fmt.Errorf("inserting snapshot batch: %w", err)
	}
	i.stats.Inserted += len(batch)
	i.log.Info("Snapshot batch inserted",
		slog.String("type", "db"),
		slog.Int("batch", len(batch)),
		slog.Int("total", i.stats.Inserted))
	return nil
}

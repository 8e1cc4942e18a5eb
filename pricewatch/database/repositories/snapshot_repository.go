package repositories

import (
	"context"
	"time"

	"github.com/tcgnakama/pricewatch/pricewatch/database/models"
	"github.com/tcgnakama/pricewatch/pricewatch/logger"
	"github.com/uptrace/bun"
)

type SnapshotRepository interface {
	Append(ctx context.Context, snapshot *models.PriceSnapshot) error
	GetLatest(ctx context.Context, itemID string, n int) ([]*models.PriceSnapshot, error)
}

type snapshotRepository struct {
	db *bun.DB
}

func NewSnapshotRepository(db *bun.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Append(ctx context.Context, snapshot *models.PriceSnapshot) error {
	if snapshot.RecordedAt.IsZero() {
		snapshot.RecordedAt = time.Now().UTC()
	}
	start := time.Now()
	_, err := r.db.NewInsert().Model(snapshot).Exec(ctx)
	if err != nil {
		logger.LogQuery("INSERT price_snapshots", time.Since(start), err)
	}
	return err
}

func (r *snapshotRepository) GetLatest(ctx context.Context, itemID string, n int) ([]*models.PriceSnapshot, error) {
	start := time.Now()
	var snapshots []*models.PriceSnapshot
	err := r.db.NewSelect().
		Model(&snapshots).
		Where("item_id = ?", itemID).
		Order("recorded_at DESC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		logger.LogQuery("SELECT price_snapshots latest", time.Since(start), err)
	}
	return snapshots, err
}

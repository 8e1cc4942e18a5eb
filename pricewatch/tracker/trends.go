package tracker

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/tcgnakama/pricewatch/pricewatch/database/repositories"
)

// RankedItem is one row of a trend ranking.
type RankedItem struct {
	ItemID      string
	Title       string
	LatestJPY   int64
	PreviousJPY int64
	ChangePct   float64
}

// TrendCalculator derives movement rankings from stored snapshots.
type TrendCalculator struct {
	snapshots repositories.SnapshotRepository
	log       *slog.Logger
}

func NewTrendCalculator(snapshots repositories.SnapshotRepository, log *slog.Logger) *TrendCalculator {
	return &TrendCalculator{snapshots: snapshots, log: log}
}

// TopGainers ranks items by percent change between their two most recent
// snapshots. Items with fewer than two snapshots have no trend and are
// excluded rather than treated as zero movement.
func (t *TrendCalculator) TopGainers(ctx context.Context, items []ItemRecord, limit int) ([]RankedItem, error) {
	var ranked []RankedItem
	for _, item := range items {
		latest, err := t.snapshots.GetLatest(ctx, item.ID, 2)
		if err != nil {
			return nil, err
		}
		if len(latest) < 2 {
			continue
		}

		current, previous := latest[0].MarketJPY, latest[1].MarketJPY
		if previous <= 0 {
			continue
		}
		ranked = append(ranked, RankedItem{
			ItemID:      item.ID,
			Title:       item.Title,
			LatestJPY:   current,
			PreviousJPY: previous,
			ChangePct:   (float64(current) - float64(previous)) / float64(previous) * 100,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ChangePct > ranked[j].ChangePct
	})
	return lo.Slice(ranked, 0, limit), nil
}

// TopByPrice ranks items by their latest absolute value. Items with no
// snapshots are excluded.
func (t *TrendCalculator) TopByPrice(ctx context.Context, items []ItemRecord, limit int) ([]RankedItem, error) {
	var ranked []RankedItem
	for _, item := range items {
		latest, err := t.snapshots.GetLatest(ctx, item.ID, 2)
		if err != nil {
			return nil, err
		}
		if len(latest) == 0 {
			continue
		}

		row := RankedItem{
			ItemID:    item.ID,
			Title:     item.Title,
			LatestJPY: latest[0].MarketJPY,
		}
		if len(latest) > 1 && latest[1].MarketJPY > 0 {
			row.PreviousJPY = latest[1].MarketJPY
			row.ChangePct = (float64(row.LatestJPY) - float64(row.PreviousJPY)) / float64(row.PreviousJPY) * 100
		}
		ranked = append(ranked, row)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LatestJPY > ranked[j].LatestJPY
	})
	return lo.Slice(ranked, 0, limit), nil
}

package tracker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/tcgnakama/pricewatch/pricewatch/database/models"
)

func seedSnapshots(repo *memorySnapshotRepo, itemID string, jpy ...int64) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, value := range jpy {
		repo.snapshots = append(repo.snapshots, &models.PriceSnapshot{
			ItemID:     itemID,
			MarketJPY:  value,
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestTrendCalculator_TopGainers(t *testing.T) {
	repo := &memorySnapshotRepo{}
	seedSnapshots(repo, "card-1", 1000, 1500) // +50%
	seedSnapshots(repo, "card-2", 1000, 900)  // -10%
	seedSnapshots(repo, "card-3", 1000, 1100) // +10%
	seedSnapshots(repo, "card-4", 1000)       // single snapshot, excluded

	items := []ItemRecord{
		{ID: "card-1", Title: "Charizard"},
		{ID: "card-2", Title: "Pikachu"},
		{ID: "card-3", Title: "Mewtwo"},
		{ID: "card-4", Title: "Lugia"},
	}

	calc := NewTrendCalculator(repo, slog.Default())
	got, err := calc.TopGainers(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("TopGainers() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("TopGainers() returned %d rows, want 2", len(got))
	}
	if got[0].ItemID != "card-1" || got[0].ChangePct != 50 {
		t.Errorf("TopGainers()[0] = %+v, want card-1 at +50%%", got[0])
	}
	if got[1].ItemID != "card-3" || got[1].ChangePct != 10 {
		t.Errorf("TopGainers()[1] = %+v, want card-3 at +10%%", got[1])
	}
}

func TestTrendCalculator_TopGainers_noHistory(t *testing.T) {
	calc := NewTrendCalculator(&memorySnapshotRepo{}, slog.Default())
	got, err := calc.TopGainers(context.Background(), []ItemRecord{{ID: "card-1"}}, 5)
	if err != nil {
		t.Fatalf("TopGainers() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("TopGainers() = %v, want empty with no history", got)
	}
}

func TestTrendCalculator_TopByPrice(t *testing.T) {
	repo := &memorySnapshotRepo{}
	seedSnapshots(repo, "card-1", 1000, 1500)
	seedSnapshots(repo, "card-2", 9000)
	seedSnapshots(repo, "card-3", 400, 300)

	items := []ItemRecord{
		{ID: "card-1", Title: "Charizard"},
		{ID: "card-2", Title: "Pikachu"},
		{ID: "card-3", Title: "Mewtwo"},
	}

	calc := NewTrendCalculator(repo, slog.Default())
	got, err := calc.TopByPrice(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("TopByPrice() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("TopByPrice() returned %d rows, want 2", len(got))
	}
	if got[0].ItemID != "card-2" || got[0].LatestJPY != 9000 {
		t.Errorf("TopByPrice()[0] = %+v, want card-2 at 9000", got[0])
	}
	if got[1].ItemID != "card-1" || got[1].LatestJPY != 1500 {
		t.Errorf("TopByPrice()[1] = %+v, want card-1 at 1500", got[1])
	}
	if got[1].ChangePct != 50 {
		t.Errorf("TopByPrice()[1] change = %v, want 50", got[1].ChangePct)
	}
}

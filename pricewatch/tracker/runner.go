package tracker

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tcgnakama/pricewatch/pricewatch/appraisal"
	"github.com/tcgnakama/pricewatch/pricewatch/database/models"
	"github.com/tcgnakama/pricewatch/pricewatch/database/repositories"
)

// ItemRecord is one catalog row handed to a batch run.
type ItemRecord struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	SetName  string   `json:"set_name"`
	Number   string   `json:"number"`
	Rarity   string   `json:"rarity"`
	Variants []string `json:"variants"`
}

func (ir ItemRecord) identity() appraisal.CardIdentity {
	return appraisal.CardIdentity{
		Name:     ir.Title,
		SetName:  ir.SetName,
		Number:   ir.Number,
		Rarity:   ir.Rarity,
		Variants: ir.Variants,
	}
}

// RunStats summarizes one batch run. Updated + Failed + Skipped always
// equals Total, including runs cut short by cancellation.
type RunStats struct {
	RunID    string
	Updated  int
	Failed   int
	Skipped  int
	Total    int
	Duration time.Duration
}

// Resolver resolves a single identity to its best USD candidate.
type Resolver interface {
	ResolveBestCandidate(ctx context.Context, identity appraisal.CardIdentity) (appraisal.PriceCandidate, error)
}

// RateSource supplies the run's exchange rate. *appraisal.Converter
// satisfies it.
type RateSource interface {
	Convert(ctx context.Context, amount float64, from, to string) appraisal.Conversion
}

// ReportSink receives the per-run CSV report. Optional; upload failures are
// logged and never fail the run.
type ReportSink interface {
	UploadRunReport(ctx context.Context, runID string, body []byte) error
}

// Runner executes full-catalog price refreshes: one exchange-rate fetch per
// run, a throttled resolve-and-append per item, and run stats persisted to
// system settings afterwards.
type Runner struct {
	resolver  Resolver
	rates     RateSource
	snapshots repositories.SnapshotRepository
	settings  repositories.SettingRepository
	report    ReportSink
	limiter   *rate.Limiter
	from      string
	to        string
	log       *slog.Logger

	progressEvery int
	now           func() time.Time
}

func NewRunner(
	resolver Resolver,
	rates RateSource,
	snapshots repositories.SnapshotRepository,
	settings repositories.SettingRepository,
	report ReportSink,
	minInterval time.Duration,
	from, to string,
	log *slog.Logger,
) *Runner {
	return &Runner{
		resolver:      resolver,
		rates:         rates,
		snapshots:     snapshots,
		settings:      settings,
		report:        report,
		limiter:       rate.NewLimiter(rate.Every(minInterval), 1),
		from:          from,
		to:            to,
		log:           log,
		progressEvery: 500,
		now:           time.Now,
	}
}

// Run refreshes every item and returns the run's stats. Item-level failures
// are isolated: a failed resolve or insert marks the item failed and the run
// moves on. Cancellation stops between items; unattempted items count as
// skipped so the stats identity holds.
func (r *Runner) Run(ctx context.Context, items []ItemRecord) (RunStats, error) {
	start := r.now()
	stats := RunStats{
		RunID: uuid.New().String(),
		Total: len(items),
	}

	r.log.Info("Price tracking run started",
		slog.String("type", "market"),
		slog.String("run_id", stats.RunID),
		slog.Int("items", stats.Total))

	// One rate fetch covers the whole run so every snapshot in a run shares
	// the same conversion basis.
	conv := r.rates.Convert(ctx, 1, r.from, r.to)
	if conv.IsFallback {
		r.log.Warn("Run using fallback exchange rate",
			slog.String("type", "market"),
			slog.Float64("rate", conv.Rate))
	}

	records := [][]string{{"item_id", "title", "price_usd", "price_" + strings.ToLower(r.to), "source", "status"}}

	for i, item := range items {
		if ctx.Err() != nil {
			stats.Skipped += len(items) - i
			r.log.Warn("Run cancelled, remaining items skipped",
				slog.String("run_id", stats.RunID),
				slog.Int("remaining", len(items)-i))
			break
		}

		identity := item.identity()
		if !identity.Usable() {
			stats.Skipped++
			records = append(records, []string{item.ID, item.Title, "", "", "", "skipped"})
			continue
		}

		if err := r.limiter.Wait(ctx); err != nil {
			stats.Skipped += len(items) - i
			break
		}

		best, err := r.resolver.ResolveBestCandidate(ctx, identity)
		if err != nil {
			stats.Failed++
			records = append(records, []string{item.ID, item.Title, "", "", "", "failed"})
			r.log.Warn("Item price resolution failed",
				slog.String("type", "market"),
				slog.String("item_id", item.ID),
				slog.Any("error", err))
			continue
		}

		converted := int64(math.Round(best.PriceUSD * conv.Rate))
		snapshot := &models.PriceSnapshot{
			ItemID:       item.ID,
			ItemTitle:    item.Title,
			MarketUSD:    best.PriceUSD,
			MarketJPY:    converted,
			ExchangeRate: conv.Rate,
		}
		if err := r.snapshots.Append(ctx, snapshot); err != nil {
			stats.Failed++
			records = append(records, []string{item.ID, item.Title, "", "", "", "failed"})
			r.log.Error("Snapshot insert failed",
				slog.String("item_id", item.ID),
				slog.Any("error", err))
			continue
		}

		stats.Updated++
		records = append(records, []string{
			item.ID,
			item.Title,
			strconv.FormatFloat(best.PriceUSD, 'f', 2, 64),
			strconv.FormatInt(converted, 10),
			best.Source,
			"updated",
		})

		if (i+1)%r.progressEvery == 0 {
			r.log.Info("Run progress",
				slog.String("run_id", stats.RunID),
				slog.Int("processed", i+1),
				slog.Int("total", stats.Total))
		}
	}

	stats.Duration = r.now().Sub(start)

	if err := r.saveStats(ctx, stats); err != nil {
		r.log.Error("Failed to persist run stats",
			slog.String("run_id", stats.RunID),
			slog.Any("error", err))
	}
	r.uploadReport(ctx, stats.RunID, records)

	r.log.Info("Price tracking run finished",
		slog.String("type", "market"),
		slog.String("run_id", stats.RunID),
		slog.Int("updated", stats.Updated),
		slog.Int("failed", stats.Failed),
		slog.Int("skipped", stats.Skipped),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (r *Runner) saveStats(ctx context.Context, stats RunStats) error {
	return r.settings.SetAll(ctx, map[string]string{
		"price_tracker_last_run_id":   stats.RunID,
		"price_tracker_last_updated":  strconv.Itoa(stats.Updated),
		"price_tracker_last_failed":   strconv.Itoa(stats.Failed),
		"price_tracker_last_skipped":  strconv.Itoa(stats.Skipped),
		"price_tracker_last_total":    strconv.Itoa(stats.Total),
		"price_tracker_last_duration": stats.Duration.String(),
		"price_tracker_last_run_at":   r.now().UTC().Format(time.RFC3339),
	})
}

func (r *Runner) uploadReport(ctx context.Context, runID string, records [][]string) {
	if r.report == nil {
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		r.log.Error("Run report encoding failed", slog.Any("error", err))
		return
	}
	if err := r.report.UploadRunReport(ctx, runID, buf.Bytes()); err != nil {
		r.log.Warn("Run report upload failed",
			slog.String("run_id", runID),
			slog.Any("error", err))
	}
}

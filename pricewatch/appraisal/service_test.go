package appraisal_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/tcgnakama/pricewatch/pricewatch/appraisal"
	"github.com/tcgnakama/pricewatch/pricewatch/appraisal/mock"
)

func newTestService(t *testing.T, fetchers []appraisal.Fetcher, oracle appraisal.Oracle, rateURL string) *appraisal.Service {
	t.Helper()
	log := slog.Default()

	cache, err := appraisal.NewResultCache(16, 5*time.Minute, log)
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}

	converter := appraisal.NewConverter(150.0, log)
	converter.BaseURL = rateURL

	return appraisal.NewService(
		fetchers,
		appraisal.NewCascade(log),
		appraisal.NewDisambiguator(oracle, log),
		converter,
		cache,
		"USD", "JPY",
		log,
	)
}

func rateServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","date":"2026-01-09","rates":{"JPY":150.0}}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestService_ResolveBestCandidate_tierFallthrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := appraisal.CardIdentity{Name: "Pikachu", Number: "#25"}

	empty := mock.NewMockFetcher(ctrl)
	empty.EXPECT().Fetch(gomock.Any(), identity).Return(nil)

	hit := mock.NewMockFetcher(ctrl)
	hit.EXPECT().Fetch(gomock.Any(), identity).Return([]appraisal.PriceCandidate{
		{Name: "Pikachu #25", PriceUSD: 34.50, Source: appraisal.SourceSearch},
		{Name: "Pikachu #25 [1st Edition]", PriceUSD: 210.00, Source: appraisal.SourceSearch},
	})
	hit.EXPECT().Name().Return(appraisal.SourceSearch).AnyTimes()

	svc := newTestService(t, []appraisal.Fetcher{empty, hit}, nil, rateServer(t).URL)

	got, err := svc.ResolveBestCandidate(context.Background(), identity)
	if err != nil {
		t.Fatalf("ResolveBestCandidate() error = %v", err)
	}
	if got.PriceUSD != 34.50 {
		t.Errorf("ResolveBestCandidate() price = %v, want cheapest 34.50", got.PriceUSD)
	}
}

func TestService_ResolveBestCandidate_allTiersEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := appraisal.CardIdentity{Name: "Pikachu"}

	empty := mock.NewMockFetcher(ctrl)
	empty.EXPECT().Fetch(gomock.Any(), identity).Return(nil)

	svc := newTestService(t, []appraisal.Fetcher{empty}, nil, rateServer(t).URL)

	_, err := svc.ResolveBestCandidate(context.Background(), identity)
	if !errors.Is(err, appraisal.ErrNoEstimate) {
		t.Errorf("ResolveBestCandidate() error = %v, want ErrNoEstimate", err)
	}
}

func TestService_ResolveMarketValue_cachesResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := appraisal.CardIdentity{Name: "Pikachu", Number: "#25"}

	fetcher := mock.NewMockFetcher(ctrl)
	// A single fetch must serve both calls.
	fetcher.EXPECT().Fetch(gomock.Any(), identity).Return([]appraisal.PriceCandidate{
		{Name: "Pikachu #25", PriceUSD: 30.00, Source: appraisal.SourceSearch},
	}).Times(1)
	fetcher.EXPECT().Name().Return(appraisal.SourceSearch).AnyTimes()

	svc := newTestService(t, []appraisal.Fetcher{fetcher}, nil, rateServer(t).URL)

	first, err := svc.ResolveMarketValue(context.Background(), identity, false)
	if err != nil {
		t.Fatalf("ResolveMarketValue() error = %v", err)
	}
	if first.AmountJPY != 4500 {
		t.Errorf("ResolveMarketValue() JPY = %d, want 4500", first.AmountJPY)
	}
	if first.Confidence != appraisal.ConfidenceMedium {
		t.Errorf("ResolveMarketValue() confidence = %q, want %q", first.Confidence, appraisal.ConfidenceMedium)
	}

	second, err := svc.ResolveMarketValue(context.Background(), identity, false)
	if err != nil {
		t.Fatalf("ResolveMarketValue() second call error = %v", err)
	}
	if second != first {
		t.Errorf("ResolveMarketValue() second call = %+v, want cached %+v", second, first)
	}
}

func TestService_ResolveMarketValue_forceRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := appraisal.CardIdentity{Name: "Pikachu", Number: "#25"}

	fetcher := mock.NewMockFetcher(ctrl)
	// Forcing a refresh re-fetches even with a warm cache.
	fetcher.EXPECT().Fetch(gomock.Any(), identity).Return([]appraisal.PriceCandidate{
		{Name: "Pikachu #25", PriceUSD: 30.00, Source: appraisal.SourceSearch},
	}).Times(2)
	fetcher.EXPECT().Name().Return(appraisal.SourceSearch).AnyTimes()

	svc := newTestService(t, []appraisal.Fetcher{fetcher}, nil, rateServer(t).URL)

	if _, err := svc.ResolveMarketValue(context.Background(), identity, false); err != nil {
		t.Fatalf("ResolveMarketValue() error = %v", err)
	}
	if _, err := svc.ResolveMarketValue(context.Background(), identity, true); err != nil {
		t.Fatalf("ResolveMarketValue(force) error = %v", err)
	}
}

func TestService_ResolveMarketValue_estimateConfidence(t *testing.T) {
	ctrl := gomock.NewController(t)
	identity := appraisal.CardIdentity{Name: "Pikachu"}

	fetcher := mock.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), identity).Return([]appraisal.PriceCandidate{
		{Name: "Pikachu", PriceUSD: 3.00, Source: appraisal.SourceEstimate},
	})
	fetcher.EXPECT().Name().Return(appraisal.SourceEstimate).AnyTimes()

	svc := newTestService(t, []appraisal.Fetcher{fetcher}, nil, rateServer(t).URL)

	got, err := svc.ResolveMarketValue(context.Background(), identity, false)
	if err != nil {
		t.Fatalf("ResolveMarketValue() error = %v", err)
	}
	if got.Confidence != appraisal.ConfidenceLow {
		t.Errorf("ResolveMarketValue() confidence = %q, want %q", got.Confidence, appraisal.ConfidenceLow)
	}
}

func TestDisambiguator_Narrow(t *testing.T) {
	identity := appraisal.CardIdentity{Name: "Pikachu", Number: "#25"}
	log := slog.Default()

	pool := []appraisal.PriceCandidate{
		{Name: "Pikachu #25", PriceUSD: 30},
		{Name: "Pikachu #25 [Graded]", PriceUSD: 300},
		{Name: "Pikachu #25 [1st Edition]", PriceUSD: 210},
		{Name: "Pikachu #25 [Sealed]", PriceUSD: 90},
	}

	t.Run("verdict applied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oracle := mock.NewMockOracle(ctrl)
		oracle.EXPECT().
			Pick(gomock.Any(), identity.SearchQuery(), gomock.Len(4)).
			Return([]int{1, 3}, nil)

		d := appraisal.NewDisambiguator(oracle, log)
		got := d.Narrow(context.Background(), identity, pool)
		if len(got) != 2 || got[0].Name != "Pikachu #25" || got[1].Name != "Pikachu #25 [1st Edition]" {
			t.Errorf("Narrow() = %v, want listings 1 and 3", got)
		}
	})

	t.Run("oracle failure keeps pool", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oracle := mock.NewMockOracle(ctrl)
		oracle.EXPECT().
			Pick(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("quota exhausted"))

		d := appraisal.NewDisambiguator(oracle, log)
		if got := d.Narrow(context.Background(), identity, pool); len(got) != len(pool) {
			t.Errorf("Narrow() after failure = %d candidates, want %d", len(got), len(pool))
		}
	})

	t.Run("out of range indices keep pool", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oracle := mock.NewMockOracle(ctrl)
		oracle.EXPECT().
			Pick(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]int{0, 99}, nil)

		d := appraisal.NewDisambiguator(oracle, log)
		if got := d.Narrow(context.Background(), identity, pool); len(got) != len(pool) {
			t.Errorf("Narrow() with bogus indices = %d candidates, want the full pool", len(got))
		}
	})

	t.Run("small pool skips oracle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		oracle := mock.NewMockOracle(ctrl)
		// No EXPECT: any call fails the test.

		d := appraisal.NewDisambiguator(oracle, log)
		small := pool[:2]
		if got := d.Narrow(context.Background(), identity, small); len(got) != 2 {
			t.Errorf("Narrow() on small pool = %d candidates, want untouched 2", len(got))
		}
	})
}

func TestCompareListing(t *testing.T) {
	tests := []struct {
		name      string
		listed    int64
		market    int64
		want      string
		wantDelta float64
	}{
		{"underpriced", 800, 1000, appraisal.VerdictUnderpriced, -20},
		{"fair low edge", 850, 1000, appraisal.VerdictFair, -15},
		{"fair", 1000, 1000, appraisal.VerdictFair, 0},
		{"fair high edge", 1150, 1000, appraisal.VerdictFair, 15},
		{"overpriced", 1200, 1000, appraisal.VerdictOverpriced, 20},
		{"unknown market", 1200, 0, appraisal.VerdictUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appraisal.CompareListing(tt.listed, tt.market)
			if got.Verdict != tt.want {
				t.Errorf("CompareListing(%d, %d) = %q, want %q", tt.listed, tt.market, got.Verdict, tt.want)
			}
			if got.DeltaPct != tt.wantDelta {
				t.Errorf("CompareListing(%d, %d) delta = %v, want %v", tt.listed, tt.market, got.DeltaPct, tt.wantDelta)
			}
			if got.Recommendation == "" {
				t.Error("CompareListing() returned empty recommendation")
			}
		})
	}
}

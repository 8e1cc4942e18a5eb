package appraisal

import (
	"context"
	"log/slog"
	"math"
)

// Service orchestrates the full appraisal: walk the source tiers until one
// produces candidates, filter them through the cascade and the oracle, pick
// the cheapest survivor, convert to the target currency, and cache the
// result under the identity's composite key.
type Service struct {
	fetchers      []Fetcher
	cascade       *Cascade
	disambiguator *Disambiguator
	converter     *Converter
	cache         *ResultCache
	from          string
	to            string
	log           *slog.Logger
}

func NewService(
	fetchers []Fetcher,
	cascade *Cascade,
	disambiguator *Disambiguator,
	converter *Converter,
	cache *ResultCache,
	from, to string,
	log *slog.Logger,
) *Service {
	return &Service{
		fetchers:      fetchers,
		cascade:       cascade,
		disambiguator: disambiguator,
		converter:     converter,
		cache:         cache,
		from:          from,
		to:            to,
		log:           log,
	}
}

// ResolveBestCandidate walks the tiers in registration order and returns the
// cheapest filtered candidate from the first tier that produced any.
func (s *Service) ResolveBestCandidate(ctx context.Context, identity CardIdentity) (PriceCandidate, error) {
	for _, fetcher := range s.fetchers {
		if ctx.Err() != nil {
			return PriceCandidate{}, ctx.Err()
		}

		raw := fetcher.Fetch(ctx, identity)
		if len(raw) == 0 {
			continue
		}

		pool := s.cascade.Filter(identity, raw)
		pool = s.disambiguator.Narrow(ctx, identity, pool)

		if best, ok := Cheapest(pool); ok {
			s.log.Debug("Best candidate resolved",
				slog.String("name", identity.Name),
				slog.String("source", fetcher.Name()),
				slog.Float64("price_usd", best.PriceUSD))
			return best, nil
		}
	}
	return PriceCandidate{}, ErrNoEstimate
}

// ResolveMarketValue is the cached entry point. forceRefresh bypasses the
// cache read but still writes the fresh result back.
func (s *Service) ResolveMarketValue(ctx context.Context, identity CardIdentity, forceRefresh bool) (ResolvedValue, error) {
	key := identity.CacheKey()
	if !forceRefresh {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	best, err := s.ResolveBestCandidate(ctx, identity)
	if err != nil {
		return ResolvedValue{}, err
	}

	conv := s.converter.Convert(ctx, best.PriceUSD, s.from, s.to)

	confidence := ConfidenceMedium
	if best.Source == SourceEstimate {
		confidence = ConfidenceLow
	}

	value := ResolvedValue{
		AmountUSD:      best.PriceUSD,
		AmountJPY:      int64(math.Round(conv.Amount)),
		Rate:           conv.Rate,
		RateIsFallback: conv.IsFallback,
		Confidence:     confidence,
		Source:         best.Source,
	}
	s.cache.Put(key, value)
	return value, nil
}

// Listing verdicts relative to market value.
const (
	VerdictUnderpriced = "underpriced"
	VerdictFair        = "fair"
	VerdictOverpriced  = "overpriced"
	VerdictUnknown     = "unknown"
)

// ListingComparison relates an asking price to the resolved market value.
type ListingComparison struct {
	Verdict        string
	DeltaPct       float64
	Recommendation string
}

// CompareListing classifies an asking price against a market value with a
// 15% tolerance band on each side.
func CompareListing(listedJPY, marketJPY int64) ListingComparison {
	if marketJPY <= 0 {
		return ListingComparison{
			Verdict:        VerdictUnknown,
			Recommendation: "No market value available to compare against.",
		}
	}

	delta := (float64(listedJPY) - float64(marketJPY)) / float64(marketJPY) * 100

	switch {
	case delta < -15:
		return ListingComparison{
			Verdict:        VerdictUnderpriced,
			DeltaPct:       delta,
			Recommendation: "Listed below market, likely a good buy.",
		}
	case delta > 15:
		return ListingComparison{
			Verdict:        VerdictOverpriced,
			DeltaPct:       delta,
			Recommendation: "Listed above market, consider negotiating or waiting.",
		}
	default:
		return ListingComparison{
			Verdict:        VerdictFair,
			DeltaPct:       delta,
			Recommendation: "Listed within the normal market range.",
		}
	}
}

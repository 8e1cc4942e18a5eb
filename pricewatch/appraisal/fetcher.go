package appraisal

import "context"

// Fetcher is one source tier. Implementations never return an error: any
// network failure, timeout, or empty payload yields an empty slice so the
// orchestrator can walk on to the next tier.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, identity CardIdentity) []PriceCandidate
}

package appraisal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"
)

// Oracle answers "which of these listings are the card I mean" and returns
// 1-based indices into the candidate slice. Implementations may err; the
// Disambiguator treats any error as "no opinion".
type Oracle interface {
	Pick(ctx context.Context, query string, candidates []PriceCandidate) ([]int, error)
}

// GeminiOracle asks a Gemini model to pick the matching listings. A
// single-permit semaphore serializes calls so batch runs never fan out
// concurrent model requests.
type GeminiOracle struct {
	client  *genai.Client
	model   string
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *slog.Logger
}

func NewGeminiOracle(ctx context.Context, apiKey, model string, log *slog.Logger) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiOracle{
		client:  client,
		model:   model,
		sem:     semaphore.NewWeighted(1),
		timeout: 15 * time.Second,
		log:     log,
	}, nil
}

func (o *GeminiOracle) Pick(ctx context.Context, query string, candidates []PriceCandidate) ([]int, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := buildPickPrompt(query, candidates)
	resp, err := o.client.Models.GenerateContent(callCtx, o.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	indices, err := parseIndices(resp.Text(), len(candidates))
	if err != nil {
		return nil, err
	}
	o.log.Debug("Gemini disambiguation verdict",
		slog.String("query", query),
		slog.Int("candidates", len(candidates)),
		slog.Int("picked", len(indices)))
	return indices, nil
}

func buildPickPrompt(query string, candidates []PriceCandidate) string {
	var b strings.Builder
	b.WriteString("You match trading card listings to a search query.\n")
	fmt.Fprintf(&b, "Query: %q\n\nListings:\n", query)
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, cand.Name, cand.SetLabel)
	}
	b.WriteString(`
Return the numbers of every listing that is the same card as the query.
Apply these rules in order:
1. A card number in the query must match the listing's card number.
2. Prefer regular printings over special ones (graded, sealed, error).
3. Prefer English printings unless the query names another language.
4. When still tied, prefer the listing closest to the base card name.
Reply with only a JSON array of numbers, e.g. [1, 3].`)
	return b.String()
}

// parseIndices extracts a 1-based index array from a model reply, tolerating
// markdown code fences around the JSON.
func parseIndices(reply string, max int) ([]int, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no index array in reply %q", reply)
	}

	var indices []int
	if err := json.Unmarshal([]byte(text[start:end+1]), &indices); err != nil {
		return nil, fmt.Errorf("parsing index array: %w", err)
	}

	valid := indices[:0]
	for _, idx := range indices {
		if idx >= 1 && idx <= max {
			valid = append(valid, idx)
		}
	}
	return valid, nil
}

// Disambiguator gates the oracle: small pools skip it entirely, oversized
// pools are truncated before the call, and any oracle failure or empty
// verdict leaves the pool untouched.
type Disambiguator struct {
	oracle        Oracle
	threshold     int
	maxCandidates int
	log           *slog.Logger
}

func NewDisambiguator(oracle Oracle, log *slog.Logger) *Disambiguator {
	return &Disambiguator{
		oracle:        oracle,
		threshold:     3,
		maxCandidates: 20,
		log:           log,
	}
}

func (d *Disambiguator) Narrow(ctx context.Context, identity CardIdentity, pool []PriceCandidate) []PriceCandidate {
	if d.oracle == nil || len(pool) <= d.threshold {
		return pool
	}

	limited := pool
	if len(limited) > d.maxCandidates {
		limited = limited[:d.maxCandidates]
	}

	indices, err := d.oracle.Pick(ctx, identity.SearchQuery(), limited)
	if err != nil {
		d.log.Warn("Disambiguation failed, keeping full pool",
			slog.String("type", "market"),
			slog.String("name", identity.Name),
			slog.Any("error", err))
		return pool
	}
	if len(indices) == 0 {
		return pool
	}

	// Indices come from an Oracle implementation; don't trust them to be
	// in range.
	narrowed := make([]PriceCandidate, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(limited) {
			continue
		}
		narrowed = append(narrowed, limited[idx-1])
	}
	if len(narrowed) == 0 {
		return pool
	}
	return narrowed
}

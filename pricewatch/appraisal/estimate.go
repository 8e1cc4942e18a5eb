package appraisal

import (
	"context"
	"log/slog"
	"strings"
)

// HeuristicEstimator is the last-resort tier. When no real source produced a
// price it synthesizes one from rarity, variants, set, and name popularity.
// The output is deliberately coarse; downstream it is tagged with the lowest
// confidence so consumers can tell it apart from observed prices.
type HeuristicEstimator struct {
	log *slog.Logger
}

func NewHeuristicEstimator(log *slog.Logger) *HeuristicEstimator {
	return &HeuristicEstimator{log: log}
}

func (e *HeuristicEstimator) Name() string {
	return SourceEstimate
}

var rarityBasePrices = map[string]float64{
	"common":      0.50,
	"uncommon":    1.50,
	"rare":        5.00,
	"epic":        15.00,
	"ultra rare":  50.00,
	"holo rare":   20.00,
	"secret rare": 100.00,
}

var variantMultipliers = []struct {
	keyword    string
	multiplier float64
}{
	{"1st edition", 2.5},
	{"first edition", 2.5},
	{"shadowless", 3.0},
	{"reverse holo", 1.3},
	{"holo", 1.8},
}

var popularSets = []string{
	"Base Set", "Jungle", "Fossil", "Team Rocket", "Neo Genesis",
}

var popularNames = []string{
	"Charizard", "Pikachu", "Mewtwo", "Lugia", "Rayquaza",
}

func (e *HeuristicEstimator) Fetch(ctx context.Context, identity CardIdentity) []PriceCandidate {
	price := 1.00
	if base, ok := rarityBasePrices[strings.ToLower(identity.Rarity)]; ok {
		price = base
	}

	// Variant keywords are checked most-specific first so "reverse holo"
	// does not also pay the plain holo multiplier.
	matched := map[string]bool{}
	for _, v := range identity.Variants {
		lower := strings.ToLower(v)
		for _, vm := range variantMultipliers {
			if strings.Contains(lower, vm.keyword) && !matched[vm.keyword] {
				price *= vm.multiplier
				matched[vm.keyword] = true
				break
			}
		}
	}

	setName := strings.ToLower(identity.SetName)
	for _, set := range popularSets {
		if strings.Contains(setName, strings.ToLower(set)) {
			price *= 1.5
			break
		}
	}

	name := identity.SearchName()
	for _, popular := range popularNames {
		if strings.Contains(strings.ToLower(name), strings.ToLower(popular)) {
			price *= 3.0
			break
		}
	}

	e.log.Debug("Heuristic estimate produced",
		slog.String("name", identity.Name),
		slog.String("rarity", identity.Rarity),
		slog.Float64("price_usd", price))

	return []PriceCandidate{{
		Name:     identity.Name,
		SetLabel: identity.SetName,
		PriceUSD: price,
		Source:   SourceEstimate,
	}}
}

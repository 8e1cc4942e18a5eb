package appraisal

import (
	"context"
	"math"
	"testing"
)

func TestHeuristicEstimator_Fetch(t *testing.T) {
	estimator := NewHeuristicEstimator(testLogger())

	tests := []struct {
		name     string
		identity CardIdentity
		want     float64
	}{
		{
			name:     "unknown rarity baseline",
			identity: CardIdentity{Name: "Some Card"},
			want:     1.00,
		},
		{
			name:     "rarity base",
			identity: CardIdentity{Name: "Some Card", Rarity: "Rare"},
			want:     5.00,
		},
		{
			name: "first edition holo secret rare",
			identity: CardIdentity{
				Name:     "Some Card",
				Rarity:   "Secret Rare",
				Variants: []string{"1st Edition", "Holo"},
			},
			want: 100.00 * 2.5 * 1.8,
		},
		{
			name: "popular set and name stack",
			identity: CardIdentity{
				Name:    "Charizard",
				SetName: "Base Set",
				Rarity:  "Holo Rare",
			},
			want: 20.00 * 1.5 * 3.0,
		},
		{
			name: "popular set matched by containment",
			identity: CardIdentity{
				Name:    "Some Card",
				SetName: "Base Set 2",
				Rarity:  "Rare",
			},
			want: 5.00 * 1.5,
		},
		{
			name: "reverse holo pays only its own multiplier",
			identity: CardIdentity{
				Name:     "Some Card",
				Rarity:   "Common",
				Variants: []string{"Reverse Holo"},
			},
			want: 0.50 * 1.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := estimator.Fetch(context.Background(), tt.identity)
			if len(got) != 1 {
				t.Fatalf("Fetch() returned %d candidates, want 1", len(got))
			}
			if math.Abs(got[0].PriceUSD-tt.want) > 0.001 {
				t.Errorf("Fetch() price = %v, want %v", got[0].PriceUSD, tt.want)
			}
			if got[0].Source != SourceEstimate {
				t.Errorf("Fetch() source = %q, want %q", got[0].Source, SourceEstimate)
			}
		})
	}
}

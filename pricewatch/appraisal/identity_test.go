package appraisal

import "testing"

func TestCardIdentity_SearchName(t *testing.T) {
	tests := []struct {
		name     string
		identity CardIdentity
		want     string
	}{
		{
			name:     "explicit english name wins",
			identity: CardIdentity{Name: "リザードン (Charizard)", EnglishName: "Charizard ex"},
			want:     "Charizard ex",
		},
		{
			name:     "parenthesized reading extracted",
			identity: CardIdentity{Name: "リザードン (Charizard)"},
			want:     "Charizard",
		},
		{
			name:     "plain name unchanged",
			identity: CardIdentity{Name: "Pikachu"},
			want:     "Pikachu",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.SearchName(); got != tt.want {
				t.Errorf("SearchName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCardIdentity_SearchQuery(t *testing.T) {
	identity := CardIdentity{
		Name:    "Pikachu",
		SetName: "Base Set",
		Number:  "#25",
	}
	if got, want := identity.SearchQuery(), "Pikachu Base Set 25"; got != want {
		t.Errorf("SearchQuery() = %q, want %q", got, want)
	}

	unknown := CardIdentity{Name: "Pikachu", SetName: "Unknown Set"}
	if got, want := unknown.SearchQuery(), "Pikachu"; got != want {
		t.Errorf("SearchQuery() = %q, want %q", got, want)
	}
}

func TestCardIdentity_Usable(t *testing.T) {
	if (CardIdentity{Name: "Draft"}).Usable() {
		t.Error("Usable() = true for Draft placeholder, want false")
	}
	if (CardIdentity{}).Usable() {
		t.Error("Usable() = true for empty name, want false")
	}
	if !(CardIdentity{Name: "Pikachu"}).Usable() {
		t.Error("Usable() = false for a real name, want true")
	}
}

func TestCardIdentity_CacheKey_distinguishesVariants(t *testing.T) {
	base := CardIdentity{Name: "Pikachu", SetName: "Base Set", Number: "#25"}
	variant := base
	variant.Variants = []string{"1st Edition"}

	if base.CacheKey() == variant.CacheKey() {
		t.Error("CacheKey() identical for differing variants, want distinct keys")
	}
}

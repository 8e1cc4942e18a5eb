package appraisal

import (
	"errors"
	"strings"
)

// ErrNoEstimate is returned when every source tier came back empty.
var ErrNoEstimate = errors.New("unable to estimate market value")

const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Candidate source tags.
const (
	SourceCatalogAPI = "pricecharting-api"
	SourceSearch     = "pricecharting-search"
	SourceEstimate   = "estimate"
)

// CardIdentity is the normalized description of a collectible card used as
// the pricing search key. It is immutable input to resolution; zero-value
// optional fields mean "absent", never "empty match".
type CardIdentity struct {
	Name        string
	EnglishName string
	SetName     string
	Number      string
	Rarity      string
	Variants    []string
}

// HasVariant reports whether the identity carries the given variant flag,
// matched case-insensitively by containment ("1st Edition" matches
// "1st Edition (Shadowless)").
func (ci CardIdentity) HasVariant(variant string) bool {
	for _, v := range ci.Variants {
		if strings.Contains(strings.ToLower(v), strings.ToLower(variant)) {
			return true
		}
	}
	return false
}

// IsJapanese reports whether the target version of this card is the
// Japanese printing rather than the default English one.
func (ci CardIdentity) IsJapanese() bool {
	return ci.HasVariant("japanese")
}

// SearchName returns the name used for source queries. Titles arrive in the
// form "Japanese (English) - Set #Number"; the English reading inside the
// parentheses wins when present.
func (ci CardIdentity) SearchName() string {
	if ci.EnglishName != "" {
		return ci.EnglishName
	}
	if open := strings.Index(ci.Name, "("); open >= 0 {
		if end := strings.Index(ci.Name[open:], ")"); end > 1 {
			return strings.TrimSpace(ci.Name[open+1 : open+end])
		}
	}
	name, _, _ := strings.Cut(ci.Name, "(")
	return strings.TrimSpace(name)
}

// SearchQuery builds the free-text query sent to price sources.
func (ci CardIdentity) SearchQuery() string {
	parts := []string{ci.SearchName()}
	if ci.SetName != "" && ci.SetName != "Unknown" && ci.SetName != "Unknown Set" {
		parts = append(parts, ci.SetName)
	}
	if ci.Number != "" {
		parts = append(parts, strings.ReplaceAll(ci.Number, "#", ""))
	}
	return strings.Join(parts, " ")
}

// Usable reports whether the identity is concrete enough to price at all.
// Draft placeholders from the catalog are not.
func (ci CardIdentity) Usable() bool {
	return ci.Name != "" && ci.Name != "Draft"
}

// CacheKey derives the composite appraisal-cache key from every identity
// field, so two identities differing only in a variant flag never share an
// entry.
func (ci CardIdentity) CacheKey() string {
	return strings.Join([]string{
		ci.Name,
		ci.EnglishName,
		ci.SetName,
		ci.Number,
		ci.Rarity,
		strings.Join(ci.Variants, ","),
	}, "|")
}

// PriceCandidate is one price+label pair returned by a source before
// filtering and disambiguation. SetLabel carries the source's console/set
// annotation (e.g. "Pokemon Japanese Promo") and participates in the
// language stage alongside the name.
type PriceCandidate struct {
	Name     string
	SetLabel string
	PriceUSD float64
	Source   string
}

// ResolvedValue is a fully populated market-value result. Rate is always
// present; RateIsFallback tells whether it came from the FX source or from
// the configured constant.
type ResolvedValue struct {
	AmountUSD      float64
	AmountJPY      int64
	Rate           float64
	RateIsFallback bool
	Confidence     string
	Source         string
}

package appraisal

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// Cascade filters raw source candidates through four progressively stricter
// stages: name, set, card number, and language. Each stage only applies when
// it leaves at least one survivor; a stage that would wipe out the pool is
// skipped, so the cascade narrows but never empties.
type Cascade struct {
	log *slog.Logger
}

func NewCascade(log *slog.Logger) *Cascade {
	return &Cascade{log: log}
}

// Filter returns the surviving candidates, never an empty slice unless the
// input was already empty.
func (c *Cascade) Filter(identity CardIdentity, candidates []PriceCandidate) []PriceCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	pool := candidates
	pool = narrow(pool, c.byName(identity, pool))
	pool = narrow(pool, c.bySet(identity, pool))
	pool = narrow(pool, c.byNumber(identity, pool))
	pool = narrow(pool, c.byLanguage(identity, pool))

	c.log.Debug("Candidate cascade complete",
		slog.String("name", identity.Name),
		slog.Int("in", len(candidates)),
		slog.Int("out", len(pool)))
	return pool
}

func narrow(prev, next []PriceCandidate) []PriceCandidate {
	if len(next) == 0 {
		return prev
	}
	return next
}

// candidateSource adapts a candidate slice to the fuzzy matcher.
type candidateSource []PriceCandidate

func (s candidateSource) String(i int) string { return s[i].Name }
func (s candidateSource) Len() int            { return len(s) }

// byName keeps candidates whose name contains the search name, ordered by
// fuzzy match quality so later ties break toward the closest title.
func (c *Cascade) byName(identity CardIdentity, pool []PriceCandidate) []PriceCandidate {
	searchName := strings.ToLower(identity.SearchName())
	if searchName == "" {
		return nil
	}

	var contained []PriceCandidate
	for _, cand := range pool {
		if strings.Contains(strings.ToLower(cand.Name), searchName) {
			contained = append(contained, cand)
		}
	}
	if len(contained) == 0 {
		return nil
	}

	ranked := fuzzy.FindFrom(identity.SearchName(), candidateSource(contained))
	if len(ranked) == 0 {
		return contained
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	ordered := make([]PriceCandidate, 0, len(contained))
	seen := make(map[int]bool, len(ranked))
	for _, m := range ranked {
		ordered = append(ordered, contained[m.Index])
		seen[m.Index] = true
	}
	for i, cand := range contained {
		if !seen[i] {
			ordered = append(ordered, cand)
		}
	}
	return ordered
}

func (c *Cascade) bySet(identity CardIdentity, pool []PriceCandidate) []PriceCandidate {
	set := strings.ToLower(identity.SetName)
	if set == "" || set == "unknown" || set == "unknown set" {
		return nil
	}
	var kept []PriceCandidate
	for _, cand := range pool {
		label := strings.ToLower(cand.Name + " " + cand.SetLabel)
		if strings.Contains(label, set) {
			kept = append(kept, cand)
		}
	}
	return kept
}

func (c *Cascade) byNumber(identity CardIdentity, pool []PriceCandidate) []PriceCandidate {
	forms := numberVariants(identity.Number)
	if len(forms) == 0 {
		return nil
	}
	var kept []PriceCandidate
	for _, cand := range pool {
		if matchesNumber(cand.Name, forms) {
			kept = append(kept, cand)
		}
	}
	return kept
}

var sepStripper = strings.NewReplacer("/", "", "-", "")

// numberVariants normalizes a catalog card number into the forms sources
// print: the bare number, the number without separators, the segment before
// the first separator, and each of those without leading zeros. "#025/102"
// yields "025/102", "025102", "025", "25/102", "25102", "25"; promo codes
// like "SM-210" yield "SM-210" and "SM210".
func numberVariants(number string) []string {
	base := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(number, "#", "")))
	if base == "" {
		return nil
	}

	forms := []string{base}
	if stripped := sepStripper.Replace(base); stripped != base && stripped != "" {
		forms = append(forms, stripped)
	}
	// The leading segment of an alphanumeric code ("SM" of "SM-210") is too
	// generic to match on, so only numeric segments become standalone forms.
	if idx := strings.IndexAny(base, "/-"); idx > 0 && isNumeric(base[:idx]) {
		forms = append(forms, base[:idx])
	}
	for _, form := range forms {
		if trimmed := strings.TrimLeft(form, "0"); trimmed != "" && trimmed != form {
			forms = append(forms, trimmed)
		}
	}
	return lo.Uniq(forms)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// matchesNumber reports whether the candidate title carries one of the
// number forms. Alphanumeric forms (promo codes) match anywhere; purely
// numeric forms need a delimiter so "25" does not match "Gen 2 Set 1025".
func matchesNumber(title string, forms []string) bool {
	upper := strings.ToUpper(title)
	for _, form := range forms {
		if !isNumeric(form) {
			if strings.Contains(upper, form) {
				return true
			}
			continue
		}
		for _, delimited := range []string{
			"#" + form,
			" " + form + "/",
			" " + form + " ",
		} {
			if strings.Contains(upper, delimited) {
				return true
			}
		}
		if strings.HasSuffix(upper, " "+form) {
			return true
		}
	}
	return false
}

var japaneseLabels = []string{"japanese", "japan", "jpn"}

func isJapaneseLabeled(cand PriceCandidate) bool {
	label := strings.ToLower(cand.Name + " " + cand.SetLabel)
	for _, marker := range japaneseLabels {
		if strings.Contains(label, marker) {
			return true
		}
	}
	return false
}

// byLanguage splits the pool by printing language. Targeting the Japanese
// printing prefers explicitly labeled candidates, falling back to unlabeled
// ones; targeting English drops anything labeled Japanese.
func (c *Cascade) byLanguage(identity CardIdentity, pool []PriceCandidate) []PriceCandidate {
	labeled := lo.Filter(pool, func(cand PriceCandidate, _ int) bool {
		return isJapaneseLabeled(cand)
	})
	unlabeled := lo.Filter(pool, func(cand PriceCandidate, _ int) bool {
		return !isJapaneseLabeled(cand)
	})

	if identity.IsJapanese() {
		if len(labeled) > 0 {
			return labeled
		}
		return unlabeled
	}
	return unlabeled
}

// Cheapest picks the final candidate. Sources list multiple conditions and
// printings for the same card; the lowest price is the conservative market
// floor the rest of the pipeline is built around.
func Cheapest(pool []PriceCandidate) (PriceCandidate, bool) {
	if len(pool) == 0 {
		return PriceCandidate{}, false
	}
	return lo.MinBy(pool, func(a, b PriceCandidate) bool {
		return a.PriceUSD < b.PriceUSD
	}), true
}

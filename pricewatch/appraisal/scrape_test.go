package appraisal

import (
	"context"
	"testing"
)

const searchFixture = `
<html><body><table id="games_table">
<tr>
  <td class="title"><a href="/game/pokemon-base-set/pikachu-25">Pikachu #25</a></td>
  <td class="console"><a href="/console/pokemon-base-set">Pokemon Base Set</a></td>
  <td class="price numeric used_price"><span class="js-price">$34.50</span></td>
</tr>
<tr>
  <td class="title"><a href="/game/pokemon-japanese-base-set/pikachu-25">Pikachu #25</a></td>
  <td class="console"><a href="/console/pokemon-japanese-base-set">Pokemon Japanese Base Set</a></td>
  <td class="price numeric used_price"><span class="js-price">$1,234.00</span></td>
</tr>
<tr>
  <td class="title"><a href="/game/x/y">Priceless &amp; Rare</a></td>
  <td class="console"><a href="/console/x">Pokemon Promo</a></td>
  <td class="price numeric used_price"><span class="js-price">N/A</span></td>
</tr>
<tr><td class="console">header-less row</td></tr>
</table></body></html>`

func Test_parseSearchRows(t *testing.T) {
	got := parseSearchRows(searchFixture)

	if len(got) != 2 {
		t.Fatalf("parseSearchRows() returned %d candidates, want 2", len(got))
	}
	if got[0].Name != "Pikachu #25" || got[0].SetLabel != "Pokemon Base Set" || got[0].PriceUSD != 34.50 {
		t.Errorf("parseSearchRows()[0] = %+v", got[0])
	}
	if got[1].SetLabel != "Pokemon Japanese Base Set" || got[1].PriceUSD != 1234.00 {
		t.Errorf("parseSearchRows()[1] = %+v", got[1])
	}
	if got[0].Source != SourceSearch {
		t.Errorf("parseSearchRows()[0].Source = %q, want %q", got[0].Source, SourceSearch)
	}
}

func Test_parseDollars(t *testing.T) {
	tests := []struct {
		text   string
		want   float64
		wantOK bool
	}{
		{"$34.50", 34.50, true},
		{"$1,234.00", 1234.00, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"$0.00", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDollars(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseDollars(%q) = %v, %v, want %v, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSearchScraper_Fetch_requiresNumber(t *testing.T) {
	scraper := NewSearchScraper(testLogger())
	got := scraper.Fetch(context.Background(), CardIdentity{Name: "Pikachu"})
	if got != nil {
		t.Errorf("Fetch() without a card number = %v, want nil", got)
	}
}

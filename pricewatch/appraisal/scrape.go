package appraisal

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// SearchScraper is the second source tier. It renders the public
// PriceCharting search page in headless Chrome and parses the result table.
// The page is JS-rendered, so a plain GET is not enough. Only identities
// with a card number go through this tier; without one the search page
// returns far too much noise to be worth a browser round trip.
type SearchScraper struct {
	BaseURL string
	Timeout time.Duration

	log *slog.Logger
}

func NewSearchScraper(log *slog.Logger) *SearchScraper {
	return &SearchScraper{
		BaseURL: defaultCatalogBaseURL,
		Timeout: 30 * time.Second,
		log:     log,
	}
}

func (s *SearchScraper) Name() string {
	return SourceSearch
}

func (s *SearchScraper) Fetch(ctx context.Context, identity CardIdentity) []PriceCandidate {
	if identity.Number == "" {
		s.log.Debug("Skipping search scrape, identity has no card number",
			slog.String("name", identity.Name))
		return nil
	}

	query := identity.SearchQuery()
	pageURL := fmt.Sprintf("%s/search-products?q=%s&type=prices",
		s.BaseURL, url.QueryEscape(query))

	timeoutCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(timeoutCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer browserCancel()

	var pageHTML string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		s.log.Warn("Search page scrape failed",
			slog.String("type", "market"),
			slog.String("query", query),
			slog.Any("error", err))
		return nil
	}

	candidates := parseSearchRows(pageHTML)
	s.log.Debug("Search scrape complete",
		slog.String("query", query),
		slog.Int("candidates", len(candidates)))
	return candidates
}

var (
	rowPattern     = regexp.MustCompile(`(?s)<tr[^>]*>(.*?)</tr>`)
	titleCell      = regexp.MustCompile(`(?s)<td[^>]*class="[^"]*title[^"]*"[^>]*>(.*?)</td>`)
	consoleCell    = regexp.MustCompile(`(?s)<td[^>]*class="[^"]*console[^"]*"[^>]*>(.*?)</td>`)
	priceCell      = regexp.MustCompile(`(?s)<td[^>]*class="[^"]*used_price[^"]*"[^>]*>(.*?)</td>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	dollarsPattern = regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`)
)

// parseSearchRows extracts name, set label, and loose price from the search
// result table. Kept as a pure function over the raw HTML so it can be
// exercised against fixture pages without a browser.
func parseSearchRows(pageHTML string) []PriceCandidate {
	var candidates []PriceCandidate
	for _, row := range rowPattern.FindAllStringSubmatch(pageHTML, -1) {
		title := cellText(titleCell, row[1])
		if title == "" {
			continue
		}
		priceText := cellText(priceCell, row[1])
		price, ok := parseDollars(priceText)
		if !ok {
			continue
		}
		candidates = append(candidates, PriceCandidate{
			Name:     title,
			SetLabel: cellText(consoleCell, row[1]),
			PriceUSD: price,
			Source:   SourceSearch,
		})
	}
	return candidates
}

func cellText(pattern *regexp.Regexp, row string) string {
	m := pattern.FindStringSubmatch(row)
	if m == nil {
		return ""
	}
	text := tagPattern.ReplaceAllString(m[1], " ")
	return strings.TrimSpace(html.UnescapeString(strings.Join(strings.Fields(text), " ")))
}

func parseDollars(text string) (float64, bool) {
	m := dollarsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

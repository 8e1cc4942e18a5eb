package appraisal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultCatalogBaseURL = "https://www.pricecharting.com"

// CatalogAPIClient queries the authenticated PriceCharting products API, the
// primary source tier. The API is quota-limited to roughly one request per
// second, which the batch runner enforces externally.
type CatalogAPIClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	log *slog.Logger
}

func NewCatalogAPIClient(apiKey string, log *slog.Logger) *CatalogAPIClient {
	return &CatalogAPIClient{
		APIKey:     apiKey,
		BaseURL:    defaultCatalogBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (c *CatalogAPIClient) Name() string {
	return SourceCatalogAPI
}

type catalogProduct struct {
	ProductName string      `json:"product-name"`
	ConsoleName string      `json:"console-name"`
	LoosePrice  json.Number `json:"loose-price"`
	CIBPrice    json.Number `json:"cib-price"`
	NewPrice    json.Number `json:"new-price"`
}

type catalogResponse struct {
	Products []catalogProduct `json:"products"`
}

func (c *CatalogAPIClient) Fetch(ctx context.Context, identity CardIdentity) []PriceCandidate {
	if c.APIKey == "" {
		c.log.Debug("No catalog API key configured, skipping tier")
		return nil
	}

	query := identity.SearchQuery()
	reqURL := fmt.Sprintf("%s/api/products?t=%s&q=%s",
		c.BaseURL, url.QueryEscape(c.APIKey), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.log.Warn("Catalog API request build failed",
			slog.String("type", "market"),
			slog.Any("error", err))
		return nil
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Warn("Catalog API unreachable",
			slog.String("type", "market"),
			slog.String("query", query),
			slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Catalog API returned non-200",
			slog.String("type", "market"),
			slog.Int("status", resp.StatusCode))
		return nil
	}

	var payload catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn("Catalog API payload undecodable",
			slog.String("type", "market"),
			slog.Any("error", err))
		return nil
	}

	candidates := make([]PriceCandidate, 0, len(payload.Products))
	for _, p := range payload.Products {
		price, ok := productPrice(p)
		if !ok {
			continue
		}
		candidates = append(candidates, PriceCandidate{
			Name:     p.ProductName,
			SetLabel: p.ConsoleName,
			PriceUSD: price,
			Source:   SourceCatalogAPI,
		})
	}

	c.log.Debug("Catalog API fetch complete",
		slog.String("query", query),
		slog.Int("products", len(payload.Products)),
		slog.Int("priced", len(candidates)))
	return candidates
}

// productPrice picks the best available price for a product, preferring
// loose over complete-in-box over new. The API reports cents.
func productPrice(p catalogProduct) (float64, bool) {
	for _, raw := range []json.Number{p.LoosePrice, p.CIBPrice, p.NewPrice} {
		if raw == "" {
			continue
		}
		cents, err := raw.Float64()
		if err != nil || cents <= 0 {
			continue
		}
		return cents / 100, true
	}
	return 0, false
}

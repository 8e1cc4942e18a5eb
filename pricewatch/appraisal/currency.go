package appraisal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const defaultFrankfurterBaseURL = "https://api.frankfurter.dev"

// Converter turns amounts in the source currency into the target currency
// using the Frankfurter daily-rates API. Conversion is best effort: when the
// API is down or slow the configured fallback rate is applied instead, and
// the result is flagged so callers can surface the degraded confidence.
type Converter struct {
	BaseURL      string
	HTTPClient   *http.Client
	FallbackRate float64

	log *slog.Logger
}

// Conversion is the outcome of one currency conversion.
type Conversion struct {
	Amount     float64
	Rate       float64
	IsFallback bool
	Date       string
}

func NewConverter(fallbackRate float64, log *slog.Logger) *Converter {
	return &Converter{
		BaseURL:      defaultFrankfurterBaseURL,
		HTTPClient:   &http.Client{Timeout: 5 * time.Second},
		FallbackRate: fallbackRate,
		log:          log,
	}
}

type frankfurterResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Convert never fails; it degrades to the fallback rate.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) Conversion {
	rate, date, err := c.fetchRate(ctx, from, to)
	if err != nil {
		c.log.Warn("Exchange rate unavailable, using fallback",
			slog.String("type", "market"),
			slog.String("from", from),
			slog.String("to", to),
			slog.Float64("fallback_rate", c.FallbackRate),
			slog.Any("error", err))
		return Conversion{
			Amount:     amount * c.FallbackRate,
			Rate:       c.FallbackRate,
			IsFallback: true,
		}
	}
	return Conversion{
		Amount: amount * rate,
		Rate:   rate,
		Date:   date,
	}
}

func (c *Converter) fetchRate(ctx context.Context, from, to string) (float64, string, error) {
	reqURL := fmt.Sprintf("%s/v1/latest?base=%s&symbols=%s", c.BaseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	var payload frankfurterResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, "", err
	}

	rate, ok := payload.Rates[to]
	if !ok || rate <= 0 {
		return 0, "", fmt.Errorf("no %s rate in response", to)
	}
	return rate, payload.Date, nil
}

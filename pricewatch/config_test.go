package pricewatch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[log]
level = 0

[db]
host = "localhost"
port = 5432
user = "postgres"
password = "postgres"
database = "pricewatch"
pool_size = 10

[market]
pricecharting_api_key = "pc-key"
gemini_api_key = "gm-key"
fallback_rate = 145.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DB.Host != "localhost" || cfg.DB.PoolSize != 10 {
		t.Errorf("LoadConfig() db = %+v", cfg.DB)
	}
	if cfg.Market.PriceChartingAPIKey != "pc-key" {
		t.Errorf("LoadConfig() api key = %q", cfg.Market.PriceChartingAPIKey)
	}
	if cfg.Market.FallbackRate != 145.5 {
		t.Errorf("LoadConfig() fallback rate = %v, want file value kept", cfg.Market.FallbackRate)
	}

	// Omitted fields fall back to defaults.
	if cfg.Market.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("LoadConfig() gemini model = %q, want default", cfg.Market.GeminiModel)
	}
	if cfg.Market.SourceCurrency != "USD" || cfg.Market.TargetCurrency != "JPY" {
		t.Errorf("LoadConfig() currencies = %q/%q, want USD/JPY", cfg.Market.SourceCurrency, cfg.Market.TargetCurrency)
	}
	if cfg.CacheTTL() != 5*time.Minute {
		t.Errorf("CacheTTL() = %v, want 5m default", cfg.CacheTTL())
	}
	if cfg.MinRequestInterval() != 1100*time.Millisecond {
		t.Errorf("MinRequestInterval() = %v, want 1.1s default", cfg.MinRequestInterval())
	}
}

func TestLoadConfig_missingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadConfig() error = nil for missing file, want error")
	}
}

package pricewatch

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	DB     DBConfig     `toml:"db"`
	Market MarketConfig `toml:"market"`
	Spaces SpacesConfig `toml:"spaces"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type MarketConfig struct {
	PriceChartingAPIKey  string  `toml:"pricecharting_api_key"`
	GeminiAPIKey         string  `toml:"gemini_api_key"`
	GeminiModel          string  `toml:"gemini_model"`
	SourceCurrency       string  `toml:"source_currency"`
	TargetCurrency       string  `toml:"target_currency"`
	FallbackRate         float64 `toml:"fallback_rate"`
	CacheTTLMinutes      int     `toml:"cache_ttl_minutes"`
	MinRequestIntervalMS int     `toml:"min_request_interval_ms"`
}

type SpacesConfig struct {
	Key        string `toml:"key"`
	Secret     string `toml:"secret"`
	Region     string `toml:"region"`
	Bucket     string `toml:"bucket"`
	ReportRoot string `toml:"report_root"`
}

func (c *Config) applyDefaults() {
	if c.Market.GeminiModel == "" {
		c.Market.GeminiModel = "gemini-2.5-flash"
	}
	if c.Market.SourceCurrency == "" {
		c.Market.SourceCurrency = "USD"
	}
	if c.Market.TargetCurrency == "" {
		c.Market.TargetCurrency = "JPY"
	}
	if c.Market.FallbackRate <= 0 {
		c.Market.FallbackRate = 150.0
	}
	if c.Market.CacheTTLMinutes <= 0 {
		c.Market.CacheTTLMinutes = 5
	}
	if c.Market.MinRequestIntervalMS <= 0 {
		c.Market.MinRequestIntervalMS = 1100
	}
}

// CacheTTL returns the appraisal cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Market.CacheTTLMinutes) * time.Minute
}

// MinRequestInterval returns the minimum spacing between external price
// requests during a batch run.
func (c *Config) MinRequestInterval() time.Duration {
	return time.Duration(c.Market.MinRequestIntervalMS) * time.Millisecond
}

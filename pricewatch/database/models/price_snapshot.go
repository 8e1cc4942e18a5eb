package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PriceSnapshot is one timestamped market-price observation for a catalog
// item. Rows are append-only; trend queries read the newest two per item.
type PriceSnapshot struct {
	bun.BaseModel `bun:"table:price_snapshots,alias:ps"`

	ID           int64     `bun:"id,pk,autoincrement"`
	ItemID       string    `bun:"item_id,notnull"`
	ItemTitle    string    `bun:"item_title,notnull"`
	MarketUSD    float64   `bun:"market_usd,notnull"`
	MarketJPY    int64     `bun:"market_jpy,notnull"`
	ExchangeRate float64   `bun:"exchange_rate,notnull"`
	RecordedAt   time.Time `bun:"recorded_at,notnull"`
}

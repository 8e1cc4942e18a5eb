package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SystemSetting is a key-value row used for batch-run stats and
// operator-adjustable configuration.
type SystemSetting struct {
	bun.BaseModel `bun:"table:system_settings,alias:ss"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

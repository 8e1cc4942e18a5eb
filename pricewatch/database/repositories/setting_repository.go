package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tcgnakama/pricewatch/pricewatch/database/models"
	"github.com/uptrace/bun"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetAll(ctx context.Context, values map[string]string) error
}

type settingRepository struct {
	db *bun.DB
}

func NewSettingRepository(db *bun.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, error) {
	setting := new(models.SystemSetting)
	err := r.db.NewSelect().Model(setting).Where("key = ?", key).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return setting.Value, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	setting := &models.SystemSetting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *settingRepository) SetAll(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if err := r.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

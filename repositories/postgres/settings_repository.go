package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const (
	settingSelect = `
		SELECT key, value, updated_at
		FROM system_settings
		WHERE key = $1`

	settingUpsert = `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP`
)

// SettingsRepository implements repositories.SettingsRepository backed by PostgreSQL.
type SettingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSettingsRepository(db *sql.DB, logger *zap.Logger) repositories.SettingsRepository {
	return &SettingsRepository{db: db, logger: logger}
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var s models.SystemSetting
	var value []byte
	err := r.db.QueryRowContext(ctx, settingSelect, key).Scan(&s.Key, &value, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}
	s.Value = value
	return &s, nil
}

func (r *SettingsRepository) Set(ctx context.Context, setting *models.SystemSetting) error {
	_, err := r.db.ExecContext(ctx, settingUpsert, setting.Key, []byte(setting.Value))
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	r.logger.Debug("system setting updated", zap.String("key", setting.Key))
	return nil
}

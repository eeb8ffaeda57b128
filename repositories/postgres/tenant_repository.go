package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const (
	tenantSelectByID = `
		SELECT id, name, status, kill_switch, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	tenantUpdateKillSwitch = `
		UPDATE tenants
		SET kill_switch = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
)

// TenantRepository implements repositories.TenantRepository backed by PostgreSQL.
type TenantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTenantRepository(db *sql.DB, logger *zap.Logger) repositories.TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.QueryRowContext(ctx, tenantSelectByID, id).Scan(
		&t.ID, &t.Name, &t.Status, &t.KillSwitch, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

func (r *TenantRepository) SetKillSwitch(ctx context.Context, id uuid.UUID, enabled bool) error {
	result, err := r.db.ExecContext(ctx, tenantUpdateKillSwitch, id, enabled)
	if err != nil {
		return fmt.Errorf("failed to update tenant kill switch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	r.logger.Info("tenant kill switch updated",
		zap.String("tenant_id", id.String()),
		zap.Bool("enabled", enabled))
	return nil
}

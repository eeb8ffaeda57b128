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
	providerSelectByTenantAndID = `
		SELECT id, tenant_id, type, display_name, encrypted_credentials, config, enabled,
		       created_at, updated_at
		FROM providers
		WHERE tenant_id = $1 AND id = $2`

	providerListByTenant = `
		SELECT id, tenant_id, type, display_name, encrypted_credentials, config, enabled,
		       created_at, updated_at
		FROM providers
		WHERE tenant_id = $1
		ORDER BY created_at DESC`
)

// ProviderRepository implements repositories.ProviderRepository backed by PostgreSQL.
type ProviderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProviderRepository(db *sql.DB, logger *zap.Logger) repositories.ProviderRepository {
	return &ProviderRepository{db: db, logger: logger}
}

func (r *ProviderRepository) GetByTenantAndID(ctx context.Context, tenantID, id uuid.UUID) (*models.Provider, error) {
	p, err := scanProvider(r.db.QueryRowContext(ctx, providerSelectByTenantAndID, tenantID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

func (r *ProviderRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Provider, error) {
	rows, err := r.db.QueryContext(ctx, providerListByTenant, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate providers: %w", err)
	}
	return providers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var p models.Provider
	var cfg sql.NullString
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Type, &p.DisplayName, &p.EncryptedCredentials,
		&cfg, &p.Enabled, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cfg.Valid {
		p.Config = []byte(cfg.String)
	}
	return &p, nil
}

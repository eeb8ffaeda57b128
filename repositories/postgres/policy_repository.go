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
	policySelectByTenant = `
		SELECT id, tenant_id, max_requests_per_minute, max_tokens_per_day,
		       max_cost_per_day_usd, redaction_enabled, metadata, created_at, updated_at
		FROM policies
		WHERE tenant_id = $1`

	policyUpsert = `
		INSERT INTO policies (id, tenant_id, max_requests_per_minute, max_tokens_per_day,
		                      max_cost_per_day_usd, redaction_enabled, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (tenant_id) DO UPDATE SET
			max_requests_per_minute = EXCLUDED.max_requests_per_minute,
			max_tokens_per_day = EXCLUDED.max_tokens_per_day,
			max_cost_per_day_usd = EXCLUDED.max_cost_per_day_usd,
			redaction_enabled = EXCLUDED.redaction_enabled,
			metadata = EXCLUDED.metadata,
			updated_at = CURRENT_TIMESTAMP`
)

// PolicyRepository implements repositories.PolicyRepository backed by PostgreSQL.
type PolicyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPolicyRepository(db *sql.DB, logger *zap.Logger) repositories.PolicyRepository {
	return &PolicyRepository{db: db, logger: logger}
}

func (r *PolicyRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Policy, error) {
	var p models.Policy
	var metadata sql.NullString
	err := r.db.QueryRowContext(ctx, policySelectByTenant, tenantID).Scan(
		&p.ID, &p.TenantID, &p.MaxRequestsPerMinute, &p.MaxTokensPerDay,
		&p.MaxCostPerDayUsd, &p.RedactionEnabled, &metadata, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	if metadata.Valid {
		p.Metadata = []byte(metadata.String)
	}
	return &p, nil
}

func (r *PolicyRepository) Save(ctx context.Context, policy *models.Policy) error {
	var metadata interface{}
	if len(policy.Metadata) > 0 {
		metadata = string(policy.Metadata)
	}
	_, err := r.db.ExecContext(ctx, policyUpsert,
		policy.ID, policy.TenantID, policy.MaxRequestsPerMinute, policy.MaxTokensPerDay,
		policy.MaxCostPerDayUsd, policy.RedactionEnabled, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	r.logger.Debug("policy saved", zap.String("tenant_id", policy.TenantID.String()))
	return nil
}

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
	pricingSelectGlobal = `
		SELECT id, provider_type, model, input_cost_per_1k, output_cost_per_1k, enabled,
		       created_at, updated_at
		FROM pricing_models
		WHERE provider_type = $1 AND model = $2 AND enabled = TRUE`

	pricingSelectForTenant = `
		SELECT p.id, p.provider_type, p.model, p.input_cost_per_1k, p.output_cost_per_1k,
		       p.enabled, p.created_at, p.updated_at
		FROM pricing_models p
		INNER JOIN tenant_pricings tp ON tp.pricing_id = p.id
		WHERE tp.tenant_id = $1 AND p.provider_type = $2 AND p.model = $3 AND p.enabled = TRUE`

	pricingUpsert = `
		INSERT INTO pricing_models (id, provider_type, model, input_cost_per_1k,
		                            output_cost_per_1k, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (provider_type, model) DO UPDATE SET
			input_cost_per_1k = EXCLUDED.input_cost_per_1k,
			output_cost_per_1k = EXCLUDED.output_cost_per_1k,
			enabled = EXCLUDED.enabled,
			updated_at = CURRENT_TIMESTAMP`
)

// PricingRepository implements repositories.PricingRepository backed by PostgreSQL.
type PricingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPricingRepository(db *sql.DB, logger *zap.Logger) repositories.PricingRepository {
	return &PricingRepository{db: db, logger: logger}
}

func (r *PricingRepository) FindGlobal(ctx context.Context, providerType, model string) (*models.PricingEntry, error) {
	entry, err := scanPricingEntry(r.db.QueryRowContext(ctx, pricingSelectGlobal, providerType, model))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find global pricing: %w", err)
	}
	return entry, nil
}

func (r *PricingRepository) FindForTenant(ctx context.Context, tenantID uuid.UUID, providerType, model string) (*models.PricingEntry, error) {
	entry, err := scanPricingEntry(r.db.QueryRowContext(ctx, pricingSelectForTenant, tenantID, providerType, model))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant pricing: %w", err)
	}
	return entry, nil
}

func (r *PricingRepository) Upsert(ctx context.Context, entry *models.PricingEntry) error {
	_, err := r.db.ExecContext(ctx, pricingUpsert,
		entry.ID, entry.ProviderType, entry.Model,
		entry.InputCostPer1k, entry.OutputCostPer1k, entry.Enabled,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pricing entry: %w", err)
	}
	r.logger.Debug("pricing entry upserted",
		zap.String("provider_type", entry.ProviderType),
		zap.String("model", entry.Model))
	return nil
}

func scanPricingEntry(row rowScanner) (*models.PricingEntry, error) {
	var e models.PricingEntry
	err := row.Scan(
		&e.ID, &e.ProviderType, &e.Model, &e.InputCostPer1k, &e.OutputCostPer1k,
		&e.Enabled, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

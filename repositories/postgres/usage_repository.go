package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

const (
	usageInsert = `
		INSERT INTO usage_events (id, tenant_id, provider_id, model, service_code,
		                          tokens_in, tokens_out, cost_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	usageDailyTotals = `
		SELECT COALESCE(SUM(tokens_in + tokens_out), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3`

	usageSummaryAll = `
		SELECT tenant_id,
		       COALESCE(SUM(tokens_in + tokens_out), 0),
		       COALESCE(SUM(cost_usd), 0)
		FROM usage_events
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY tenant_id
		ORDER BY tenant_id`

	usageListRecent = `
		SELECT id, tenant_id, provider_id, model, service_code, tokens_in, tokens_out,
		       cost_usd, created_at
		FROM usage_events
		WHERE ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY created_at DESC
		LIMIT $2`
)

// UsageRepository implements repositories.UsageRepository backed by PostgreSQL.
// Daily aggregates are computed live over the raw event rows; there is no
// rollup table to drift out of sync.
type UsageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUsageRepository(db *sql.DB, logger *zap.Logger) repositories.UsageRepository {
	return &UsageRepository{db: db, logger: logger}
}

func (r *UsageRepository) Insert(ctx context.Context, event *models.UsageEvent) error {
	_, err := r.db.ExecContext(ctx, usageInsert,
		event.ID, event.TenantID, event.ProviderID, event.Model, event.ServiceCode,
		event.TokensIn, event.TokensOut, event.CostUsd, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage event: %w", err)
	}
	return nil
}

func (r *UsageRepository) DailyTotals(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.DailyTotals, error) {
	start, end := utcDayWindow(asOf)
	var totals models.DailyTotals
	err := r.db.QueryRowContext(ctx, usageDailyTotals, tenantID, start, end).Scan(
		&totals.Tokens, &totals.CostUsd,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum daily usage: %w", err)
	}
	return &totals, nil
}

func (r *UsageRepository) SummaryAll(ctx context.Context, date time.Time) ([]*models.TenantDailyTotals, error) {
	start, end := utcDayWindow(date)
	rows, err := r.db.QueryContext(ctx, usageSummaryAll, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	var summaries []*models.TenantDailyTotals
	for rows.Next() {
		var s models.TenantDailyTotals
		if err := rows.Scan(&s.TenantID, &s.Tokens, &s.CostUsd); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage summaries: %w", err)
	}
	return summaries, nil
}

func (r *UsageRepository) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.UsageEvent, error) {
	rows, err := r.db.QueryContext(ctx, usageListRecent, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}
	defer rows.Close()

	var events []*models.UsageEvent
	for rows.Next() {
		var e models.UsageEvent
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ProviderID, &e.Model, &e.ServiceCode,
			&e.TokensIn, &e.TokensOut, &e.CostUsd, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage events: %w", err)
	}
	return events, nil
}

// utcDayWindow returns the half-open [00:00, 24:00) UTC window containing t.
func utcDayWindow(t time.Time) (time.Time, time.Time) {
	utc := t.UTC()
	start := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

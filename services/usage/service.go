// Package usage records metered invocations and aggregates daily
// totals for quota enforcement and reporting.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"github.com/provider-manager/backend/services"
	"go.uber.org/zap"
)

// DefaultListLimit bounds unpaginated listings.
const DefaultListLimit = 100

// RecordInput describes one billable invocation.
type RecordInput struct {
	TenantID    uuid.UUID
	ProviderID  uuid.UUID
	Model       string
	ServiceCode *string
	TokensIn    int
	TokensOut   int
	CostUsd     float64
}

// Service is the usage ledger. Totals are live sums over the event
// rows; the check-then-record sequence around an invocation is not
// atomic, so concurrent requests near a quota boundary can both pass
// the check before either records.
type Service struct {
	repo   repositories.UsageRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo repositories.UsageRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record appends a usage event and returns it.
func (s *Service) Record(ctx context.Context, input RecordInput) (*models.UsageEvent, error) {
	event := &models.UsageEvent{
		ID:          uuid.New(),
		TenantID:    input.TenantID,
		ProviderID:  input.ProviderID,
		Model:       input.Model,
		ServiceCode: input.ServiceCode,
		TokensIn:    input.TokensIn,
		TokensOut:   input.TokensOut,
		CostUsd:     input.CostUsd,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		return nil, services.WrapInternal("failed to record usage", err)
	}
	s.logger.Debug("usage recorded",
		zap.String("tenant_id", event.TenantID.String()),
		zap.String("model", event.Model),
		zap.Int("tokens_in", event.TokensIn),
		zap.Int("tokens_out", event.TokensOut),
		zap.Float64("cost_usd", event.CostUsd))
	return event, nil
}

// DailyTotals returns the tenant's token and cost totals for the
// current UTC day.
func (s *Service) DailyTotals(ctx context.Context, tenantID uuid.UUID) (*models.DailyTotals, error) {
	totals, err := s.repo.DailyTotals(ctx, tenantID, s.now())
	if err != nil {
		return nil, services.WrapInternal("failed to aggregate daily usage", err)
	}
	return totals, nil
}

// SummaryAll returns per-tenant totals for the UTC day containing date.
func (s *Service) SummaryAll(ctx context.Context, date time.Time) ([]*models.TenantDailyTotals, error) {
	summaries, err := s.repo.SummaryAll(ctx, date)
	if err != nil {
		return nil, services.WrapInternal("failed to summarize usage", err)
	}
	return summaries, nil
}

// ListRecent returns the latest usage events, optionally scoped to a
// tenant.
func (s *Service) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.UsageEvent, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	events, err := s.repo.ListRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to list usage events", err)
	}
	return events, nil
}

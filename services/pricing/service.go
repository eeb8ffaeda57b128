// Package pricing resolves cost-per-token entries and computes the
// billed cost of an invocation.
package pricing

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

// Service resolves pricing entries. Resolution is fail-open for
// billing: a request with no matching entry costs zero rather than
// being rejected.
type Service struct {
	repo   repositories.PricingRepository
	logger *zap.Logger
}

func NewService(repo repositories.PricingRepository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// NormalizeProviderType folds provider type aliases onto their
// canonical pricing key.
func NormalizeProviderType(providerType string) string {
	switch strings.ToLower(strings.TrimSpace(providerType)) {
	case "azure", "azure_openai", "azure-openai":
		return "azure-openai"
	case "aws", "bedrock", "aws-bedrock":
		return "aws-bedrock"
	case "google", "gcp", "vertex", "vertex-ai":
		return "vertex-ai"
	case "":
		return "openai"
	default:
		return strings.ToLower(strings.TrimSpace(providerType))
	}
}

// Resolve returns the pricing entry for (tenant, providerType, model),
// or nil when nothing matches.
//
// Precedence: tenant exact > tenant wildcard > global exact > global
// wildcard. Tenant-scoped entries are those mapped to the tenant; the
// wildcard model "*" matches any model within a provider type.
func (s *Service) Resolve(ctx context.Context, tenantID uuid.UUID, providerType, model string) (*models.PricingEntry, error) {
	pt := NormalizeProviderType(providerType)

	entry, err := s.repo.FindForTenant(ctx, tenantID, pt, model)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = s.repo.FindForTenant(ctx, tenantID, pt, models.PricingWildcard)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = s.repo.FindGlobal(ctx, pt, model)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	entry, err = s.repo.FindGlobal(ctx, pt, models.PricingWildcard)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		s.logger.Debug("no pricing entry found",
			zap.String("provider_type", pt),
			zap.String("model", model))
	}
	return entry, nil
}

// Cost computes the billed cost in USD for a token count against an
// entry, rounded to 6 decimal places. A nil entry costs zero.
func Cost(entry *models.PricingEntry, tokensIn, tokensOut int) float64 {
	if entry == nil {
		return 0
	}
	cost := float64(tokensIn)/1000*entry.InputCostPer1k +
		float64(tokensOut)/1000*entry.OutputCostPer1k
	return math.Round(cost*1e6) / 1e6
}

// Defaults returns the built-in pricing table used to seed an empty
// database.
func Defaults() []*models.PricingEntry {
	return []*models.PricingEntry{
		{ProviderType: "openai", Model: "gpt-4o-mini", InputCostPer1k: 0.00015, OutputCostPer1k: 0.0006, Enabled: true},
		{ProviderType: "openai", Model: "gpt-4.1-mini", InputCostPer1k: 0.0004, OutputCostPer1k: 0.0016, Enabled: true},
		{ProviderType: "aws-bedrock", Model: "claude-3.5-sonnet", InputCostPer1k: 0.006, OutputCostPer1k: 0.003, Enabled: true},
		{ProviderType: "vertex-ai", Model: "gemini-2.0-flash", InputCostPer1k: 0.00015, OutputCostPer1k: 0.0006, Enabled: true},
		{ProviderType: "vertex-ai", Model: "gemini-2.0-flash-lite", InputCostPer1k: 0.000075, OutputCostPer1k: 0.0003, Enabled: true},
	}
}

// Seed upserts the default pricing table.
func (s *Service) Seed(ctx context.Context) error {
	for _, entry := range Defaults() {
		entry.ID = uuid.New()
		if err := s.repo.Upsert(ctx, entry); err != nil {
			return err
		}
	}
	s.logger.Info("pricing defaults seeded", zap.Int("entries", len(Defaults())))
	return nil
}

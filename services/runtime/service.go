// Package runtime orchestrates the execution pipeline: admission
// checks, provider invocation, metering, and auditing.
package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/services"
	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/services/pricing"
	"github.com/provider-manager/backend/services/providers"
	"github.com/provider-manager/backend/services/redaction"
	"github.com/provider-manager/backend/services/usage"
	"go.uber.org/zap"
)

// TenantStore loads tenants for admission checks.
type TenantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// ProviderStore loads tenant-scoped provider configurations.
type ProviderStore interface {
	GetByTenantAndID(ctx context.Context, tenantID, id uuid.UUID) (*models.Provider, error)
}

// PolicyStore loads per-tenant quota policies.
type PolicyStore interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Policy, error)
}

// KillSwitch answers the global and per-tenant stop flags.
type KillSwitch interface {
	GlobalEnabled(ctx context.Context) (bool, error)
	TenantEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// RateLimiter admits or rejects a request against the tenant's
// per-minute limit.
type RateLimiter interface {
	Allow(ctx context.Context, tenantID uuid.UUID, limit int) error
}

// Ledger aggregates and records usage.
type Ledger interface {
	DailyTotals(ctx context.Context, tenantID uuid.UUID) (*models.DailyTotals, error)
	Record(ctx context.Context, input usage.RecordInput) (*models.UsageEvent, error)
}

// Pricer resolves the billing entry for an invocation.
type Pricer interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, providerType, model string) (*models.PricingEntry, error)
}

// Auditor records the decision trail.
type Auditor interface {
	Record(ctx context.Context, input audit.RecordInput) (*models.AuditEvent, error)
}

// Decryptor recovers stored provider credentials.
type Decryptor interface {
	Decrypt(encoded string) (string, error)
}

// AdapterResolver maps a provider type to its adapter.
type AdapterResolver interface {
	Resolve(providerType string) providers.Adapter
}

// ExecuteInput is one runtime execution request.
type ExecuteInput struct {
	TenantID    uuid.UUID
	ProviderID  uuid.UUID
	Model       string
	ServiceCode *string
	Payload     map[string]any
	RequestID   string
}

// ExecuteResult is the successful outcome of a pipeline run.
type ExecuteResult struct {
	RequestID string         `json:"requestId"`
	Output    map[string]any `json:"output"`
	TokensIn  int            `json:"tokensIn"`
	TokensOut int            `json:"tokensOut"`
	CostUsd   float64        `json:"costUsd"`
}

// Service runs the execution pipeline. Stages run in a fixed order so
// the first failure determines both the rejection reason and the
// audit record; the request never reaches the provider after a
// rejection.
type Service struct {
	tenants         TenantStore
	providersStore  ProviderStore
	policies        PolicyStore
	killSwitch      KillSwitch
	rateLimiter     RateLimiter
	ledger          Ledger
	pricer          Pricer
	auditor         Auditor
	decryptor       Decryptor
	adapters        AdapterResolver
	providerTimeout time.Duration
	logger          *zap.Logger
}

// Deps bundles the pipeline collaborators.
type Deps struct {
	Tenants         TenantStore
	Providers       ProviderStore
	Policies        PolicyStore
	KillSwitch      KillSwitch
	RateLimiter     RateLimiter
	Ledger          Ledger
	Pricer          Pricer
	Auditor         Auditor
	Decryptor       Decryptor
	Adapters        AdapterResolver
	ProviderTimeout time.Duration
}

func NewService(deps Deps, logger *zap.Logger) *Service {
	if deps.ProviderTimeout == 0 {
		deps.ProviderTimeout = 60 * time.Second
	}
	return &Service{
		tenants:         deps.Tenants,
		providersStore:  deps.Providers,
		policies:        deps.Policies,
		killSwitch:      deps.KillSwitch,
		rateLimiter:     deps.RateLimiter,
		ledger:          deps.Ledger,
		pricer:          deps.Pricer,
		auditor:         deps.Auditor,
		decryptor:       deps.Decryptor,
		adapters:        deps.Adapters,
		providerTimeout: deps.ProviderTimeout,
		logger:          logger,
	}
}

// Execute runs the pipeline for one request. Every call, whatever the
// outcome, produces exactly one audit event: accepted on success,
// rejected when an admission stage fails, error when the provider or
// an internal step fails.
func (s *Service) Execute(ctx context.Context, input ExecuteInput) (*ExecuteResult, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result, err := s.run(ctx, input, requestID)
	if err != nil {
		status := models.AuditStatusError
		if services.IsAdmissionError(err) {
			status = models.AuditStatusRejected
		}
		s.recordAudit(ctx, input.TenantID, status, map[string]any{
			"requestId": requestID,
			"reason":    services.GetErrorMessage(err),
		})
		return nil, err
	}

	s.recordAudit(ctx, input.TenantID, models.AuditStatusAccepted, map[string]any{
		"requestId":  requestID,
		"providerId": input.ProviderID.String(),
		"model":      input.Model,
		"tokensIn":   result.TokensIn,
		"tokensOut":  result.TokensOut,
		"costUsd":    result.CostUsd,
	})
	return result, nil
}

func (s *Service) run(ctx context.Context, input ExecuteInput, requestID string) (*ExecuteResult, error) {
	tenant, err := s.tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		return nil, services.WrapInternal("failed to load tenant", err)
	}
	if tenant == nil {
		return nil, services.ErrTenantNotFound
	}

	globalKilled, err := s.killSwitch.GlobalEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if globalKilled {
		return nil, services.ErrGlobalKillSwitch
	}

	tenantKilled, err := s.killSwitch.TenantEnabled(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if tenantKilled {
		return nil, services.ErrTenantKillSwitch
	}

	if !tenant.IsActive() {
		return nil, services.ErrTenantDisabled
	}

	provider, err := s.providersStore.GetByTenantAndID(ctx, input.TenantID, input.ProviderID)
	if err != nil {
		return nil, services.WrapInternal("failed to load provider", err)
	}
	if provider == nil || !provider.Enabled {
		return nil, services.ErrProviderNotFound
	}

	policy, err := s.policies.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return nil, services.WrapInternal("failed to load policy", err)
	}
	if policy == nil {
		return nil, services.ErrPolicyRequired
	}

	// A non-positive per-minute limit means the tenant is unthrottled;
	// no rate-limit point is consumed for it.
	if policy.MaxRequestsPerMinute > 0 {
		if err := s.rateLimiter.Allow(ctx, input.TenantID, policy.MaxRequestsPerMinute); err != nil {
			return nil, err
		}
	}

	// Quota check and the usage write below are not one transaction;
	// concurrent requests at the boundary can both pass.
	totals, err := s.ledger.DailyTotals(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	if policy.MaxTokensPerDay > 0 && totals.Tokens >= policy.MaxTokensPerDay {
		return nil, services.ErrTokenLimitExceeded
	}
	if policy.MaxCostPerDayUsd > 0 && totals.CostUsd >= policy.MaxCostPerDayUsd {
		return nil, services.ErrCostLimitExceeded
	}

	payload := input.Payload
	if policy.RedactionEnabled {
		payload = redaction.Redact(payload)
	}

	rawCredentials, err := s.decryptor.Decrypt(provider.EncryptedCredentials)
	if err != nil {
		return nil, services.WrapInternal("credential decryption failed", err)
	}
	credentials, err := providers.ParseCredentials(rawCredentials)
	if err != nil {
		return nil, services.WrapInternal("credential decryption failed", err)
	}

	adapter := s.adapters.Resolve(provider.Type)
	invokeCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	invocation, err := adapter.Invoke(invokeCtx, credentials, input.Model, payload)
	cancel()
	if err != nil {
		return nil, services.WrapExternal("provider invocation failed", err)
	}

	entry, err := s.pricer.Resolve(ctx, input.TenantID, provider.Type, input.Model)
	if err != nil {
		return nil, err
	}
	cost := pricing.Cost(entry, invocation.TokensIn, invocation.TokensOut)

	if _, err := s.ledger.Record(ctx, usage.RecordInput{
		TenantID:    input.TenantID,
		ProviderID:  input.ProviderID,
		Model:       input.Model,
		ServiceCode: input.ServiceCode,
		TokensIn:    invocation.TokensIn,
		TokensOut:   invocation.TokensOut,
		CostUsd:     cost,
	}); err != nil {
		return nil, err
	}

	return &ExecuteResult{
		RequestID: requestID,
		Output:    invocation.Output,
		TokensIn:  invocation.TokensIn,
		TokensOut: invocation.TokensOut,
		CostUsd:   cost,
	}, nil
}

// recordAudit appends the pipeline's audit event. A failed append is
// logged and swallowed so it can never mask the pipeline outcome.
func (s *Service) recordAudit(ctx context.Context, tenantID uuid.UUID, status models.AuditStatus, metadata map[string]any) {
	if _, err := s.auditor.Record(ctx, audit.RecordInput{
		TenantID: tenantID,
		Action:   models.ActionRuntimeExecute,
		Status:   status,
		Metadata: metadata,
	}); err != nil {
		s.logger.Error("failed to record runtime audit event",
			zap.String("tenant_id", tenantID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

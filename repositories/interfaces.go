package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
)

// TenantRepository reads tenant records. The runtime core never mutates
// tenants; lifecycle management belongs to the admin collaborators.
type TenantRepository interface {
	// GetByID retrieves a tenant by ID, returning nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)

	// SetKillSwitch updates the per-tenant kill switch flag
	SetKillSwitch(ctx context.Context, id uuid.UUID, enabled bool) error
}

// PolicyRepository reads per-tenant quota policies
type PolicyRepository interface {
	// GetByTenant retrieves the policy for a tenant, returning nil when absent
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Policy, error)

	// Save inserts or updates a policy
	Save(ctx context.Context, policy *models.Policy) error
}

// ProviderRepository reads tenant-scoped provider configurations
type ProviderRepository interface {
	// GetByTenantAndID retrieves a provider scoped to a tenant, returning nil when absent
	GetByTenantAndID(ctx context.Context, tenantID, id uuid.UUID) (*models.Provider, error)

	// ListByTenant retrieves all providers for a tenant
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Provider, error)
}

// PricingRepository resolves cost-per-token entries
type PricingRepository interface {
	// FindGlobal retrieves an enabled global entry by (providerType, model), nil when absent
	FindGlobal(ctx context.Context, providerType, model string) (*models.PricingEntry, error)

	// FindForTenant retrieves an enabled tenant-scoped entry by (providerType, model), nil when absent
	FindForTenant(ctx context.Context, tenantID uuid.UUID, providerType, model string) (*models.PricingEntry, error)

	// Upsert inserts or updates an entry by (providerType, model)
	Upsert(ctx context.Context, entry *models.PricingEntry) error
}

// UsageRepository appends and aggregates usage events
type UsageRepository interface {
	// Insert appends a usage event
	Insert(ctx context.Context, event *models.UsageEvent) error

	// DailyTotals sums tokens and cost over the UTC day containing asOf
	DailyTotals(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.DailyTotals, error)

	// SummaryAll sums tokens and cost per tenant over the UTC day containing date
	SummaryAll(ctx context.Context, date time.Time) ([]*models.TenantDailyTotals, error)

	// ListRecent retrieves the latest events, optionally filtered by tenant
	ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.UsageEvent, error)
}

// AuditRepository appends and lists audit events
type AuditRepository interface {
	// Insert appends an audit event
	Insert(ctx context.Context, event *models.AuditEvent) error

	// ListRecent retrieves the latest events, optionally filtered by tenant
	ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.AuditEvent, error)
}

// WebhookRepository reads webhook subscriptions
type WebhookRepository interface {
	// GetByID retrieves a webhook by ID, returning nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webhook, error)

	// ListEnabled retrieves all enabled subscriptions
	ListEnabled(ctx context.Context) ([]*models.Webhook, error)
}

// SettingsRepository reads and writes keyed system settings
type SettingsRepository interface {
	// Get retrieves a setting by key, returning nil when absent
	Get(ctx context.Context, key string) (*models.SystemSetting, error)

	// Set upserts a setting value
	Set(ctx context.Context, setting *models.SystemSetting) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Tenants   TenantRepository
	Policies  PolicyRepository
	Providers ProviderRepository
	Pricing   PricingRepository
	Usage     UsageRepository
	Audit     AuditRepository
	Webhooks  WebhookRepository
	Settings  SettingsRepository
}

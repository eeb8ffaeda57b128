package postgres

import (
	"database/sql"

	"github.com/provider-manager/backend/repositories"
	"go.uber.org/zap"
)

// NewRepositories wires all PostgreSQL-backed repositories against a
// single connection pool.
func NewRepositories(db *sql.DB, logger *zap.Logger) *repositories.Repositories {
	return &repositories.Repositories{
		Tenants:   NewTenantRepository(db, logger),
		Policies:  NewPolicyRepository(db, logger),
		Providers: NewProviderRepository(db, logger),
		Pricing:   NewPricingRepository(db, logger),
		Usage:     NewUsageRepository(db, logger),
		Audit:     NewAuditRepository(db, logger),
		Webhooks:  NewWebhookRepository(db, logger),
		Settings:  NewSettingsRepository(db, logger),
	}
}

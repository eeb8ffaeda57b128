// Package killswitch implements the global and per-tenant emergency
// stop. Flags live durably in the database and are fronted by a short
// TTL cache so the admission path avoids a database round trip on
// every request.
package killswitch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"github.com/provider-manager/backend/services"
	"go.uber.org/zap"
)

const (
	globalCacheKey       = "kill-switch:global"
	tenantCacheKeyPrefix = "kill-switch:tenant:"
)

func tenantCacheKey(id uuid.UUID) string {
	return tenantCacheKeyPrefix + id.String()
}

// Service reads and writes kill-switch flags.
//
// Reads prefer the cache; a cache failure degrades to the durable
// store rather than assuming either state. Writes go durable-first,
// then refresh the cache, so a crashed cache write can only cause a
// stale read until the TTL expires, never a lost flip.
type Service struct {
	settings      repositories.SettingsRepository
	tenants       repositories.TenantRepository
	cache         Cache
	ttl           time.Duration
	globalDefault bool
	logger        *zap.Logger
}

func NewService(
	settings repositories.SettingsRepository,
	tenants repositories.TenantRepository,
	cache Cache,
	ttl time.Duration,
	globalDefault bool,
	logger *zap.Logger,
) *Service {
	return &Service{
		settings:      settings,
		tenants:       tenants,
		cache:         cache,
		ttl:           ttl,
		globalDefault: globalDefault,
		logger:        logger,
	}
}

// GlobalEnabled reports whether the global kill switch is active.
func (s *Service) GlobalEnabled(ctx context.Context) (bool, error) {
	if value, found := s.cacheGet(ctx, globalCacheKey); found {
		return value, nil
	}

	setting, err := s.settings.Get(ctx, models.SettingGlobalKillSwitch)
	if err != nil {
		return false, services.WrapInternal("failed to read global kill switch", err)
	}

	enabled := s.globalDefault
	if setting != nil {
		enabled = setting.BoolValue("enabled", s.globalDefault)
	}

	s.cacheSet(ctx, globalCacheKey, enabled)
	return enabled, nil
}

// TenantEnabled reports whether the kill switch is active for a tenant.
func (s *Service) TenantEnabled(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	key := tenantCacheKey(tenantID)
	if value, found := s.cacheGet(ctx, key); found {
		return value, nil
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return false, services.WrapInternal("failed to read tenant kill switch", err)
	}
	if tenant == nil {
		return false, services.ErrTenantNotFound
	}

	s.cacheSet(ctx, key, tenant.KillSwitch)
	return tenant.KillSwitch, nil
}

// SetGlobal flips the global kill switch.
func (s *Service) SetGlobal(ctx context.Context, enabled bool) error {
	value, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return services.WrapInternal("failed to encode kill switch setting", err)
	}
	setting := &models.SystemSetting{
		Key:   models.SettingGlobalKillSwitch,
		Value: value,
	}
	if err := s.settings.Set(ctx, setting); err != nil {
		return services.WrapInternal("failed to persist global kill switch", err)
	}

	s.cacheSet(ctx, globalCacheKey, enabled)
	s.logger.Warn("global kill switch changed", zap.Bool("enabled", enabled))
	return nil
}

// SetTenant flips the kill switch for a single tenant.
func (s *Service) SetTenant(ctx context.Context, tenantID uuid.UUID, enabled bool) error {
	if err := s.tenants.SetKillSwitch(ctx, tenantID, enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.ErrTenantNotFound
		}
		return services.WrapInternal("failed to persist tenant kill switch", err)
	}

	s.cacheSet(ctx, tenantCacheKey(tenantID), enabled)
	s.logger.Warn("tenant kill switch changed",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("enabled", enabled))
	return nil
}

// cacheGet reads the cache; a failed read counts as a miss so the
// caller falls through to the durable store.
func (s *Service) cacheGet(ctx context.Context, key string) (bool, bool) {
	value, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("kill switch cache read failed, falling back to store",
			zap.String("key", key), zap.Error(err))
		return false, false
	}
	return value, found
}

// cacheSet refreshes the cache best-effort; the durable store already
// holds the truth.
func (s *Service) cacheSet(ctx context.Context, key string, value bool) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("kill switch cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

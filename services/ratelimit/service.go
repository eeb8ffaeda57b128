// Package ratelimit enforces per-tenant request rates over a fixed
// 60-second window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/services"
	"go.uber.org/zap"
)

// Window is the fixed rate-limiting window. Counters reset at window
// boundaries rather than sliding, so a burst across a boundary can
// briefly admit up to twice the limit.
const Window = 60 * time.Second

// Service checks per-tenant request rates against the policy limit.
//
// The counter key embeds the effective limit, so changing a tenant's
// policy mid-window starts a fresh count instead of mixing regimes.
type Service struct {
	store  CounterStore
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store CounterStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Allow consumes one slot for the tenant and reports whether the
// request is within the limit. Callers decide whether a limit applies
// at all; an unthrottled tenant should not reach this method. A limit
// below 1 is clamped to 1 as a defensive floor.
func (s *Service) Allow(ctx context.Context, tenantID uuid.UUID, limit int) error {
	if limit < 1 {
		limit = 1
	}

	windowID := s.now().Unix() / int64(Window.Seconds())
	key := fmt.Sprintf("rate-limit:%d:%s:%d", limit, tenantID.String(), windowID)

	count, err := s.store.Incr(ctx, key, Window)
	if err != nil {
		return services.WrapInternal("rate limit counter unavailable", err)
	}

	if count > int64(limit) {
		s.logger.Debug("request over rate limit",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("limit", limit),
			zap.Int64("count", count))
		return services.ErrRateLimitExceeded
	}
	return nil
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/middleware"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/services"
	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/services/providers"
	"github.com/provider-manager/backend/services/runtime"
	"github.com/provider-manager/backend/services/usage"
	"github.com/provider-manager/backend/utils"
)

var (
	testTenantID   = uuid.MustParse("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e")
	testProviderID = uuid.MustParse("0b9455cf-247c-4a7c-8d2e-9f84a41d4c11")
)

type stubTenantStore struct{ tenant *models.Tenant }

func (s stubTenantStore) GetByID(context.Context, uuid.UUID) (*models.Tenant, error) {
	return s.tenant, nil
}

type stubProviderStore struct{ provider *models.Provider }

func (s stubProviderStore) GetByTenantAndID(context.Context, uuid.UUID, uuid.UUID) (*models.Provider, error) {
	return s.provider, nil
}

type stubPolicyStore struct{ policy *models.Policy }

func (s stubPolicyStore) GetByTenant(context.Context, uuid.UUID) (*models.Policy, error) {
	return s.policy, nil
}

type stubKillSwitch struct{ global, tenant bool }

func (s stubKillSwitch) GlobalEnabled(context.Context) (bool, error) { return s.global, nil }
func (s stubKillSwitch) TenantEnabled(context.Context, uuid.UUID) (bool, error) {
	return s.tenant, nil
}

type stubRateLimiter struct{ err error }

func (s stubRateLimiter) Allow(context.Context, uuid.UUID, int) error { return s.err }

type stubLedger struct{}

func (stubLedger) DailyTotals(context.Context, uuid.UUID) (*models.DailyTotals, error) {
	return &models.DailyTotals{}, nil
}

func (stubLedger) Record(_ context.Context, input usage.RecordInput) (*models.UsageEvent, error) {
	return &models.UsageEvent{
		TenantID:  input.TenantID,
		TokensIn:  input.TokensIn,
		TokensOut: input.TokensOut,
		CostUsd:   input.CostUsd,
	}, nil
}

type stubPricer struct{}

func (stubPricer) Resolve(context.Context, uuid.UUID, string, string) (*models.PricingEntry, error) {
	return nil, nil
}

type stubAuditor struct{}

func (stubAuditor) Record(context.Context, audit.RecordInput) (*models.AuditEvent, error) {
	return &models.AuditEvent{}, nil
}

type stubDecryptor struct{}

func (stubDecryptor) Decrypt(string) (string, error) { return `{"apiKey":"k"}`, nil }

type stubResolver struct{ adapter providers.Adapter }

func (s stubResolver) Resolve(string) providers.Adapter { return s.adapter }

func newTestRuntime(deps runtime.Deps) *runtime.Service {
	if deps.Tenants == nil {
		deps.Tenants = stubTenantStore{tenant: &models.Tenant{
			ID:     testTenantID,
			Status: models.TenantStatusActive,
		}}
	}
	if deps.Providers == nil {
		deps.Providers = stubProviderStore{provider: &models.Provider{
			ID:                   testProviderID,
			TenantID:             testTenantID,
			Type:                 "mock",
			EncryptedCredentials: "irrelevant",
			Enabled:              true,
		}}
	}
	if deps.Policies == nil {
		deps.Policies = stubPolicyStore{policy: &models.Policy{
			TenantID:             testTenantID,
			MaxRequestsPerMinute: 60,
		}}
	}
	if deps.KillSwitch == nil {
		deps.KillSwitch = stubKillSwitch{}
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = stubRateLimiter{}
	}
	if deps.Ledger == nil {
		deps.Ledger = stubLedger{}
	}
	if deps.Pricer == nil {
		deps.Pricer = stubPricer{}
	}
	if deps.Auditor == nil {
		deps.Auditor = stubAuditor{}
	}
	if deps.Decryptor == nil {
		deps.Decryptor = stubDecryptor{}
	}
	if deps.Adapters == nil {
		deps.Adapters = stubResolver{adapter: providers.NewMockAdapter()}
	}
	deps.ProviderTimeout = time.Second
	return runtime.NewService(deps, zap.NewNop())
}

func executeRequest(t *testing.T, handler *RuntimeHandler, body any, withTenant bool) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runtime/execute", bytes.NewReader(raw))
	if withTenant {
		req = req.WithContext(middleware.WithTenantID(req.Context(), testTenantID.String()))
	}
	rec := httptest.NewRecorder()
	handler.HandleExecute(rec, req)
	return rec
}

func TestRuntimeHandlerExecute(t *testing.T) {
	validBody := map[string]any{
		"providerId": testProviderID.String(),
		"model":      "gpt-4o-mini",
		"payload":    map[string]any{"prompt": "hello"},
	}

	t.Run("successful execution returns result", func(t *testing.T) {
		handler := NewRuntimeHandler(newTestRuntime(runtime.Deps{}), zap.NewNop())

		rec := executeRequest(t, handler, validBody, true)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data runtime.ExecuteResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.RequestID)
		assert.Equal(t, 50, resp.Data.TokensIn)
		assert.Equal(t, 20, resp.Data.TokensOut)
	})

	t.Run("missing tenant context returns 401", func(t *testing.T) {
		handler := NewRuntimeHandler(newTestRuntime(runtime.Deps{}), zap.NewNop())

		rec := executeRequest(t, handler, validBody, false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing model returns 400", func(t *testing.T) {
		handler := NewRuntimeHandler(newTestRuntime(runtime.Deps{}), zap.NewNop())

		rec := executeRequest(t, handler, map[string]any{
			"providerId": testProviderID.String(),
			"payload":    map[string]any{"prompt": "hello"},
		}, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown tenant returns 404", func(t *testing.T) {
		svc := newTestRuntime(runtime.Deps{Tenants: stubTenantStore{tenant: nil}})
		handler := NewRuntimeHandler(svc, zap.NewNop())

		rec := executeRequest(t, handler, validBody, true)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var body utils.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Tenant not found", body.Message)
	})

	t.Run("rate limited returns 429", func(t *testing.T) {
		svc := newTestRuntime(runtime.Deps{RateLimiter: stubRateLimiter{err: services.ErrRateLimitExceeded}})
		handler := NewRuntimeHandler(svc, zap.NewNop())

		rec := executeRequest(t, handler, validBody, true)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("global kill switch returns 403", func(t *testing.T) {
		svc := newTestRuntime(runtime.Deps{KillSwitch: stubKillSwitch{global: true}})
		handler := NewRuntimeHandler(svc, zap.NewNop())

		rec := executeRequest(t, handler, validBody, true)

		require.Equal(t, http.StatusForbidden, rec.Code)

		var body utils.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Global kill switch is active", body.Message)
	})
}

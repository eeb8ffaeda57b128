package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/internal/crypto"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/services/events"
	"github.com/provider-manager/backend/services/killswitch"
	"github.com/provider-manager/backend/services/webhooks"
)

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[string]*models.SystemSetting
}

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (*models.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[key], nil
}

func (f *fakeSettingsRepo) Set(_ context.Context, setting *models.SystemSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settings == nil {
		f.settings = make(map[string]*models.SystemSetting)
	}
	f.settings[setting.Key] = setting
	return nil
}

type fakeTenantRepo struct {
	known map[uuid.UUID]bool
	flags map[uuid.UUID]bool
}

func (f *fakeTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if !f.known[id] {
		return nil, nil
	}
	return &models.Tenant{ID: id, Status: models.TenantStatusActive, KillSwitch: f.flags[id]}, nil
}

func (f *fakeTenantRepo) SetKillSwitch(_ context.Context, id uuid.UUID, enabled bool) error {
	if !f.known[id] {
		return sql.ErrNoRows
	}
	if f.flags == nil {
		f.flags = make(map[uuid.UUID]bool)
	}
	f.flags[id] = enabled
	return nil
}

type fakeAuditRepo struct {
	mu     sync.Mutex
	events []*models.AuditEvent
}

func (f *fakeAuditRepo) Insert(_ context.Context, event *models.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditRepo) ListRecent(context.Context, *uuid.UUID, int) ([]*models.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events, nil
}

type fakeWebhookRepo struct{}

func (fakeWebhookRepo) GetByID(context.Context, uuid.UUID) (*models.Webhook, error) {
	return nil, nil
}

func (fakeWebhookRepo) ListEnabled(context.Context) ([]*models.Webhook, error) {
	return nil, nil
}

type killSwitchFixture struct {
	handler  *KillSwitchHandler
	settings *fakeSettingsRepo
	tenants  *fakeTenantRepo
	auditLog *fakeAuditRepo
}

func newKillSwitchFixture(t *testing.T) *killSwitchFixture {
	t.Helper()

	settings := &fakeSettingsRepo{}
	tenants := &fakeTenantRepo{known: map[uuid.UUID]bool{testTenantID: true}}
	auditRepo := &fakeAuditRepo{}

	encryptor, err := crypto.NewEncryptor("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	webhookSvc := webhooks.NewService(fakeWebhookRepo{}, encryptor, time.Second, zap.NewNop())
	auditSvc := audit.NewService(auditRepo, events.NoopPublisher{}, webhookSvc, zap.NewNop())

	ksSvc := killswitch.NewService(
		settings, tenants,
		killswitch.NewMemoryCache(time.Minute),
		time.Minute, false, zap.NewNop(),
	)

	return &killSwitchFixture{
		handler:  NewKillSwitchHandler(ksSvc, auditSvc, zap.NewNop()),
		settings: settings,
		tenants:  tenants,
		auditLog: auditRepo,
	}
}

func (f *killSwitchFixture) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/kill-switch", f.handler.HandleGetGlobal)
	r.Put("/admin/kill-switch", f.handler.HandleSetGlobal)
	r.Put("/admin/tenants/{tenantID}/kill-switch", f.handler.HandleSetTenant)
	return r
}

func TestKillSwitchHandler(t *testing.T) {
	t.Run("set global records state and audit event", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		body := bytes.NewBufferString(`{"enabled":true}`)
		req := httptest.NewRequest(http.MethodPut, "/admin/kill-switch", body)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		setting := f.settings.settings[models.SettingGlobalKillSwitch]
		require.NotNil(t, setting)
		assert.True(t, setting.BoolValue("enabled", false))

		require.Len(t, f.auditLog.events, 1)
		event := f.auditLog.events[0]
		assert.Equal(t, models.ActionKillSwitchSet, event.Action)
		assert.Equal(t, models.AuditStatusAccepted, event.Status)
		assert.Equal(t, "global", event.Metadata["scope"])
		assert.Equal(t, true, event.Metadata["enabled"])
	})

	t.Run("get global reflects default", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/admin/kill-switch", nil)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp.Data["enabled"])
	})

	t.Run("set tenant flag records audit event", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		body := bytes.NewBufferString(`{"enabled":true}`)
		req := httptest.NewRequest(http.MethodPut, "/admin/tenants/"+testTenantID.String()+"/kill-switch", body)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, f.tenants.flags[testTenantID])

		require.Len(t, f.auditLog.events, 1)
		event := f.auditLog.events[0]
		assert.Equal(t, testTenantID, event.TenantID)
		assert.Equal(t, "tenant", event.Metadata["scope"])
	})

	t.Run("unknown tenant returns 404", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		body := bytes.NewBufferString(`{"enabled":true}`)
		req := httptest.NewRequest(http.MethodPut, "/admin/tenants/"+uuid.NewString()+"/kill-switch", body)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, f.auditLog.events)
	})

	t.Run("missing enabled field returns 400", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		body := bytes.NewBufferString(`{}`)
		req := httptest.NewRequest(http.MethodPut, "/admin/kill-switch", body)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid tenant id returns 400", func(t *testing.T) {
		f := newKillSwitchFixture(t)

		body := bytes.NewBufferString(`{"enabled":true}`)
		req := httptest.NewRequest(http.MethodPut, "/admin/tenants/not-a-uuid/kill-switch", body)
		rec := httptest.NewRecorder()
		f.router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

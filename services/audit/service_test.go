package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/internal/crypto"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/services/webhooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKey = "0123456789abcdef0123456789abcdef"

type fakeAuditRepo struct {
	events []*models.AuditEvent
	err    error
}

func (f *fakeAuditRepo) Insert(_ context.Context, event *models.AuditEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditRepo) ListRecent(_ context.Context, tenantID *uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	var out []*models.AuditEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := f.events[i]
		if tenantID != nil && e.TenantID != *tenantID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type capturingPublisher struct {
	bodies []map[string]any
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, body map[string]any) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

type fakeWebhookRepo struct {
	hooks []*models.Webhook
}

func (f *fakeWebhookRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Webhook, error) {
	for _, h := range f.hooks {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, nil
}

func (f *fakeWebhookRepo) ListEnabled(_ context.Context) ([]*models.Webhook, error) {
	return f.hooks, nil
}

func newTestService(t *testing.T, repo *fakeAuditRepo, publisher *capturingPublisher, hooks []*models.Webhook) *Service {
	t.Helper()
	encryptor, err := crypto.NewEncryptor(testKey)
	require.NoError(t, err)
	webhookSvc := webhooks.NewService(&fakeWebhookRepo{hooks: hooks}, encryptor, time.Second, zap.NewNop())
	return NewService(repo, publisher, webhookSvc, zap.NewNop())
}

func TestService_Record(t *testing.T) {
	repo := &fakeAuditRepo{}
	publisher := &capturingPublisher{}
	svc := newTestService(t, repo, publisher, nil)
	tenantID := uuid.New()

	event, err := svc.Record(context.Background(), RecordInput{
		TenantID: tenantID,
		Action:   models.ActionRuntimeExecute,
		Status:   models.AuditStatusRejected,
		Metadata: map[string]any{"requestId": "req-1", "reason": "Rate limit exceeded"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	require.Len(t, repo.events, 1)

	require.Len(t, publisher.bodies, 1)
	body := publisher.bodies[0]
	assert.Equal(t, EventTypeAudit, body["eventType"])
	assert.Equal(t, tenantID.String(), body["tenantId"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "runtime.execute", data["action"])
	assert.Equal(t, "rejected", data["status"])
}

func TestService_Record_NilMetadata(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := newTestService(t, repo, &capturingPublisher{}, nil)

	event, err := svc.Record(context.Background(), RecordInput{
		TenantID: uuid.New(),
		Action:   models.ActionKillSwitchSet,
		Status:   models.AuditStatusAccepted,
	})
	require.NoError(t, err)
	assert.NotNil(t, event.Metadata)
}

func TestService_Record_InsertFailurePropagates(t *testing.T) {
	repo := &fakeAuditRepo{err: errors.New("db down")}
	publisher := &capturingPublisher{}
	svc := newTestService(t, repo, publisher, nil)

	_, err := svc.Record(context.Background(), RecordInput{
		TenantID: uuid.New(),
		Action:   models.ActionRuntimeExecute,
		Status:   models.AuditStatusAccepted,
	})
	require.Error(t, err)
	assert.Empty(t, publisher.bodies, "no fan-out without a durable record")
}

func TestService_Record_PublisherFailureSwallowed(t *testing.T) {
	repo := &fakeAuditRepo{}
	publisher := &capturingPublisher{err: errors.New("queue down")}
	svc := newTestService(t, repo, publisher, nil)

	_, err := svc.Record(context.Background(), RecordInput{
		TenantID: uuid.New(),
		Action:   models.ActionRuntimeExecute,
		Status:   models.AuditStatusAccepted,
	})
	assert.NoError(t, err, "export failure must not fail the audited request")
	assert.Len(t, repo.events, 1)
}

func TestService_Record_DeliversToWebhook(t *testing.T) {
	var got webhooks.EventPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	hookID := uuid.New()
	hooks := []*models.Webhook{
		{ID: hookID, URL: server.URL, Events: []string{EventTypeAudit}, Enabled: true},
	}
	svc := newTestService(t, &fakeAuditRepo{}, &capturingPublisher{}, hooks)
	tenantID := uuid.New()

	event, err := svc.Record(context.Background(), RecordInput{
		TenantID: tenantID,
		Action:   models.ActionRuntimeExecute,
		Status:   models.AuditStatusAccepted,
		Metadata: map[string]any{"requestId": "req-9"},
	})
	require.NoError(t, err)

	assert.Equal(t, EventTypeAudit, got.EventType)
	assert.Equal(t, tenantID.String(), got.TenantID)
	assert.Equal(t, event.ID.String(), got.Data["id"])
}

func TestService_ListRecent(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := newTestService(t, repo, &capturingPublisher{}, nil)
	tenantID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), RecordInput{
			TenantID: tenantID,
			Action:   models.ActionRuntimeExecute,
			Status:   models.AuditStatusAccepted,
		})
		require.NoError(t, err)
	}
	_, err := svc.Record(context.Background(), RecordInput{
		TenantID: uuid.New(),
		Action:   models.ActionRuntimeExecute,
		Status:   models.AuditStatusError,
	})
	require.NoError(t, err)

	listed, err := svc.ListRecent(context.Background(), &tenantID, 10)
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	all, err := svc.ListRecent(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

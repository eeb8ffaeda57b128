// Package audit records the gateway's decision trail. Every runtime
// request terminates in exactly one audit event, regardless of
// outcome.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/repositories"
	"github.com/provider-manager/backend/services"
	"github.com/provider-manager/backend/services/events"
	"github.com/provider-manager/backend/services/webhooks"
	"go.uber.org/zap"
)

// EventTypeAudit is the fan-out event type for recorded audit events.
const EventTypeAudit = "audit.event"

// DefaultListLimit bounds unpaginated listings.
const DefaultListLimit = 100

// RecordInput describes one audit event. Metadata must stay small and
// reference-shaped: request ids, reasons, token counts. Raw prompts
// and credentials never belong here.
type RecordInput struct {
	TenantID uuid.UUID
	Action   models.AuditAction
	Status   models.AuditStatus
	Metadata map[string]any
}

// Service appends audit events and fans them out.
//
// The durable insert is the source of truth; queue and webhook
// export are best-effort and their failures never propagate to the
// request being audited.
type Service struct {
	repo      repositories.AuditRepository
	publisher events.Publisher
	webhooks  *webhooks.Service
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	repo repositories.AuditRepository,
	publisher events.Publisher,
	webhookSvc *webhooks.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		webhooks:  webhookSvc,
		logger:    logger,
		now:       time.Now,
	}
}

// Record appends an audit event, then exports it to the queue and to
// matching webhooks.
func (s *Service) Record(ctx context.Context, input RecordInput) (*models.AuditEvent, error) {
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	event := &models.AuditEvent{
		ID:        uuid.New(),
		TenantID:  input.TenantID,
		Action:    input.Action,
		Status:    input.Status,
		Metadata:  metadata,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		return nil, services.WrapInternal("failed to record audit event", err)
	}

	s.fanOut(ctx, event)
	return event, nil
}

// ListRecent returns the latest audit events, optionally scoped to a
// tenant.
func (s *Service) ListRecent(ctx context.Context, tenantID *uuid.UUID, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	listed, err := s.repo.ListRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to list audit events", err)
	}
	return listed, nil
}

// Payload builds the wire shape exported for an audit event.
func Payload(event *models.AuditEvent) webhooks.EventPayload {
	return webhooks.EventPayload{
		EventType: EventTypeAudit,
		TenantID:  event.TenantID.String(),
		Data: map[string]any{
			"id":       event.ID.String(),
			"action":   string(event.Action),
			"status":   string(event.Status),
			"metadata": event.Metadata,
		},
		CreatedAt: event.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Service) fanOut(ctx context.Context, event *models.AuditEvent) {
	payload := Payload(event)

	if err := s.publisher.Publish(ctx, map[string]any{
		"eventType": payload.EventType,
		"tenantId":  payload.TenantID,
		"data":      payload.Data,
		"createdAt": payload.CreatedAt,
	}); err != nil {
		s.logger.Warn("audit queue export failed",
			zap.String("audit_id", event.ID.String()), zap.Error(err))
	}

	if err := s.webhooks.Enqueue(ctx, payload); err != nil {
		s.logger.Warn("audit webhook fan-out failed",
			zap.String("audit_id", event.ID.String()), zap.Error(err))
	}
}

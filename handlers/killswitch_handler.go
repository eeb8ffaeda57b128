package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/models"
	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/services/killswitch"
	"github.com/provider-manager/backend/utils"
)

// SetKillSwitchRequest represents a kill switch state change
type SetKillSwitchRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// KillSwitchHandler handles kill switch administration
type KillSwitchHandler struct {
	killSwitch *killswitch.Service
	audit      *audit.Service
	logger     *zap.Logger
}

// NewKillSwitchHandler creates a new KillSwitchHandler
func NewKillSwitchHandler(ks *killswitch.Service, auditSvc *audit.Service, logger *zap.Logger) *KillSwitchHandler {
	return &KillSwitchHandler{killSwitch: ks, audit: auditSvc, logger: logger}
}

// HandleGetGlobal handles GET /api/v1/admin/kill-switch
func (h *KillSwitchHandler) HandleGetGlobal(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.killSwitch.GlobalEnabled(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]any{"scope": "global", "enabled": enabled})
}

// HandleSetGlobal handles PUT /api/v1/admin/kill-switch
func (h *KillSwitchHandler) HandleSetGlobal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SetKillSwitchRequest
	if details := utils.DecodeAndValidate(r, &req); details != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	if err := h.killSwitch.SetGlobal(ctx, *req.Enabled); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.recordAudit(ctx, uuid.Nil, map[string]any{
		"scope":   "global",
		"enabled": *req.Enabled,
	})

	h.logger.Info("global kill switch updated", zap.Bool("enabled", *req.Enabled))
	_ = utils.WriteOK(w, map[string]any{"scope": "global", "enabled": *req.Enabled})
}

// HandleSetTenant handles PUT /api/v1/admin/tenants/{tenantID}/kill-switch
func (h *KillSwitchHandler) HandleSetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid tenant ID format", nil)
		return
	}

	var req SetKillSwitchRequest
	if details := utils.DecodeAndValidate(r, &req); details != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	if err := h.killSwitch.SetTenant(ctx, tenantID, *req.Enabled); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.recordAudit(ctx, tenantID, map[string]any{
		"scope":    "tenant",
		"tenantId": tenantID.String(),
		"enabled":  *req.Enabled,
	})

	h.logger.Info("tenant kill switch updated",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("enabled", *req.Enabled))
	_ = utils.WriteOK(w, map[string]any{"scope": "tenant", "tenantId": tenantID, "enabled": *req.Enabled})
}

// recordAudit appends a kill switch change to the audit trail. Audit
// failures are logged but do not fail the state change, which has
// already been applied.
func (h *KillSwitchHandler) recordAudit(ctx context.Context, tenantID uuid.UUID, metadata map[string]any) {
	_, err := h.audit.Record(ctx, audit.RecordInput{
		TenantID: tenantID,
		Action:   models.ActionKillSwitchSet,
		Status:   models.AuditStatusAccepted,
		Metadata: metadata,
	})
	if err != nil {
		h.logger.Error("failed to record kill switch audit event",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

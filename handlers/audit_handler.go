package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/provider-manager/backend/services/audit"
	"github.com/provider-manager/backend/utils"
)

// AuditHandler handles audit trail requests
type AuditHandler struct {
	audit  *audit.Service
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(svc *audit.Service, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: svc, logger: logger}
}

// HandleListEvents handles GET /api/v1/audit/events
// Admin-only: lists recent audit events, optionally filtered by tenant.
func (h *AuditHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := optionalTenantFilter(r)
	if !ok {
		_ = utils.WriteBadRequest(w, "Invalid tenantId format", nil)
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		_ = utils.WriteBadRequest(w, "Invalid limit parameter", nil)
		return
	}

	events, err := h.audit.ListRecent(ctx, tenantID, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, events)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/middleware"
	"github.com/provider-manager/backend/services/runtime"
	"github.com/provider-manager/backend/utils"
)

// ExecuteRequest represents a runtime execution request
type ExecuteRequest struct {
	ProviderID  string         `json:"providerId" validate:"required,uuid"`
	Model       string         `json:"model" validate:"required"`
	ServiceCode *string        `json:"serviceCode,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
	Payload     map[string]any `json:"payload" validate:"required"`
}

// RuntimeHandler handles runtime execution requests
type RuntimeHandler struct {
	runtime *runtime.Service
	logger  *zap.Logger
}

// NewRuntimeHandler creates a new RuntimeHandler
func NewRuntimeHandler(svc *runtime.Service, logger *zap.Logger) *RuntimeHandler {
	return &RuntimeHandler{runtime: svc, logger: logger}
}

// HandleExecute handles POST /api/v1/runtime/execute
func (h *RuntimeHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromContext(ctx)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	var req ExecuteRequest
	if details := utils.DecodeAndValidate(r, &req); details != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid providerId format", nil)
		return
	}

	result, err := h.runtime.Execute(ctx, runtime.ExecuteInput{
		TenantID:    tenantID,
		ProviderID:  providerID,
		Model:       req.Model,
		ServiceCode: req.ServiceCode,
		Payload:     req.Payload,
		RequestID:   req.RequestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("runtime execution completed",
		zap.String("request_id", result.RequestID),
		zap.String("tenant_id", tenantID.String()),
		zap.String("provider_id", providerID.String()),
		zap.String("model", req.Model),
		zap.Int("tokens_in", result.TokensIn),
		zap.Int("tokens_out", result.TokensOut))

	_ = utils.WriteOK(w, result)
}

// tenantIDFromContext resolves the authenticated tenant ID set by the
// auth middleware.
func tenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := middleware.GetTenantID(ctx)
	if !ok {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/services/usage"
	"github.com/provider-manager/backend/utils"
)

// UsageHandler handles usage reporting requests
type UsageHandler struct {
	usage  *usage.Service
	logger *zap.Logger
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(svc *usage.Service, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{usage: svc, logger: logger}
}

// HandleDailyTotals handles GET /api/v1/usage/summary
func (h *UsageHandler) HandleDailyTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromContext(ctx)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	totals, err := h.usage.DailyTotals(ctx, tenantID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, totals)
}

// HandleSummary handles GET /api/v1/usage/all
// Admin-only: returns per-tenant totals for one UTC day.
func (h *UsageHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	summary, err := h.usage.SummaryAll(ctx, date)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, summary)
}

// HandleListEvents handles GET /api/v1/usage/events
func (h *UsageHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromContext(ctx)
	if !ok {
		_ = utils.WriteUnauthorized(w, "Missing tenant information")
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		_ = utils.WriteBadRequest(w, "Invalid limit parameter", nil)
		return
	}

	events, err := h.usage.ListRecent(ctx, &tenantID, limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, events)
}

// parseLimit reads an optional positive limit query parameter. A zero
// return means the service default applies.
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, false
	}

	return limit, true
}

// optionalTenantFilter reads an optional tenantId query parameter used
// by admin listings.
func optionalTenantFilter(r *http.Request) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("tenantId")
	if raw == "" {
		return nil, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}

	return &id, true
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/provider-manager/backend/services"
	"github.com/provider-manager/backend/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err):
		_ = utils.WriteNotFound(w, services.GetErrorMessage(err))

	case services.IsValidationError(err):
		_ = utils.WriteBadRequest(w, services.GetErrorMessage(err), details)

	case services.IsUnauthorizedError(err):
		_ = utils.WriteUnauthorized(w, services.GetErrorMessage(err))

	case services.IsForbiddenError(err):
		_ = utils.WriteForbidden(w, services.GetErrorMessage(err))

	case services.IsRateLimitError(err):
		_ = utils.WriteTooManyRequests(w, services.GetErrorMessage(err), details)

	case services.IsQuotaError(err):
		// Quota exhaustion blocks the caller for the rest of the window,
		// so it surfaces as forbidden rather than retryable.
		_ = utils.WriteForbidden(w, services.GetErrorMessage(err))

	case services.IsExternalError(err):
		logger.Warn("upstream provider error", zap.Error(err))
		_ = utils.WriteBadGateway(w, services.GetErrorMessage(err))

	default:
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")
	}
}

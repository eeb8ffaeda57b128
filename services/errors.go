package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeQuota        ErrorType = "quota"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Two domain errors match when both type and
// message agree, so sentinels stay distinguishable within a category.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrTenantNotFound   = NewDomainError(ErrorTypeNotFound, "Tenant not found", nil)
	ErrProviderNotFound = NewDomainError(ErrorTypeNotFound, "Provider not found or disabled", nil)
	ErrWebhookNotFound  = NewDomainError(ErrorTypeNotFound, "Webhook not found", nil)

	// Admission Errors
	ErrTenantDisabled     = NewDomainError(ErrorTypeForbidden, "Tenant is disabled", nil)
	ErrGlobalKillSwitch   = NewDomainError(ErrorTypeForbidden, "Global kill switch is active", nil)
	ErrTenantKillSwitch   = NewDomainError(ErrorTypeForbidden, "Tenant kill switch is active", nil)
	ErrPolicyRequired     = NewDomainError(ErrorTypeForbidden, "Policy is required before runtime execution", nil)
	ErrRateLimitExceeded  = NewDomainError(ErrorTypeRateLimit, "Rate limit exceeded", nil)
	ErrTokenLimitExceeded = NewDomainError(ErrorTypeQuota, "Token limit exceeded", nil)
	ErrCostLimitExceeded  = NewDomainError(ErrorTypeQuota, "Cost limit exceeded", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyPrompt  = NewDomainError(ErrorTypeValidation, "prompt cannot be empty", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrCacheFailed   = NewDomainError(ErrorTypeInternal, "cache operation failed", nil)
	ErrCryptoFailed  = NewDomainError(ErrorTypeInternal, "credential decryption failed", nil)

	// External Provider Errors
	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "provider unavailable", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeExternal, "provider timeout", nil)
	ErrProviderFailure     = NewDomainError(ErrorTypeExternal, "provider invocation failed", nil)
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimit
}

// IsQuotaError checks if an error is a quota error
func IsQuotaError(err error) bool {
	return GetErrorType(err) == ErrorTypeQuota
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// IsAdmissionError reports whether an error is an admission rejection:
// a failure the gateway decided before reaching the provider.
func IsAdmissionError(err error) bool {
	switch GetErrorType(err) {
	case ErrorTypeNotFound, ErrorTypeValidation, ErrorTypeForbidden,
		ErrorTypeRateLimit, ErrorTypeQuota:
		return true
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the Message of a domain error, or the plain
// Error() string otherwise.
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

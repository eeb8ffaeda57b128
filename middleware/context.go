package middleware

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// ClaimsKey is the context key for the authenticated token claims
	ClaimsKey contextKey = "claims"
	// TenantIDKey is the context key for the caller's tenant ID
	TenantIDKey contextKey = "tenant_id"
)

// Claims is the JWT claim set carried by gateway access tokens.
type Claims struct {
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// WithClaims returns a new context with the claims attached
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims retrieves the claims from the context
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// WithTenantID returns a new context with the tenant ID attached
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID retrieves the tenant ID from the context
func GetTenantID(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(string)
	return tenantID, ok
}

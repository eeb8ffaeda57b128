package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/config"
	"github.com/provider-manager/backend/utils"
)

// AuthMiddleware validates bearer tokens and attaches claims to the request
// context. Tokens are HS256-signed by the gateway itself.
type AuthMiddleware struct {
	secret []byte
	issuer string
	logger *zap.Logger
}

// NewAuthMiddleware creates an auth middleware from the auth configuration
func NewAuthMiddleware(cfg config.AuthConfig, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		logger: logger,
	}
}

// RequireAuth verifies the Authorization header and stores the resulting
// claims and tenant ID in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			utils.WriteUnauthorized(w, "Missing authorization token")
			return
		}

		claims, err := m.parseToken(token)
		if err != nil {
			m.logger.Debug("token validation failed", zap.Error(err))
			utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		ctx := WithClaims(r.Context(), claims)
		if claims.TenantID != "" {
			ctx = WithTenantID(ctx, claims.TenantID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose claims do not carry the admin role.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		if !ok {
			utils.WriteUnauthorized(w, "")
			return
		}
		if !claims.IsAdmin() {
			utils.WriteForbidden(w, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return claims, nil
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

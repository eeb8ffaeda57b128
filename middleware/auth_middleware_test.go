package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/provider-manager/backend/config"
)

const testSecret = "test-secret-test-secret-test-1234"

func newTestMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	return NewAuthMiddleware(config.AuthConfig{
		JWTSecret: testSecret,
		Issuer:    "provider-manager",
	}, zap.NewNop())
}

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func baseClaims(tenantID, role string) *Claims {
	return &Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "provider-manager",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestRequireAuth(t *testing.T) {
	mw := newTestMiddleware(t)

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		require.True(t, ok)
		tenantID, _ := GetTenantID(r.Context())
		w.Header().Set("X-Tenant", tenantID)
		w.Header().Set("X-Role", claims.Role)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token populates context", func(t *testing.T) {
		token := signToken(t, baseClaims("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", "member"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", rec.Header().Get("X-Tenant"))
		assert.Equal(t, "member", rec.Header().Get("X-Role"))
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		claims := baseClaims("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", "member")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		token := signToken(t, claims)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		claims := baseClaims("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", "member")
		claims.Issuer = "someone-else"
		token := signToken(t, claims)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signature rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims("t", "member"))
		signed, err := token.SignedString([]byte("another-secret-entirely-0000000"))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()

		mw.RequireAuth(echo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	mw := newTestMiddleware(t)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin role passes", func(t *testing.T) {
		token := signToken(t, baseClaims("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", "admin"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.RequireAuth(mw.RequireAdmin(ok)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member role forbidden", func(t *testing.T) {
		token := signToken(t, baseClaims("6f4c6ed1-58ae-4854-9ad2-59a8c0b3f18e", "member"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.RequireAuth(mw.RequireAdmin(ok)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no claims unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		mw.RequireAdmin(ok).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func signed(t *testing.T, secret string, claims services.TokenClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role string) services.TokenClaims {
	return services.TokenClaims{
		UserID: 42,
		Email:  "ana@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func whoAmI(c echo.Context) error {
	id, _ := common.GetUserIDFromContext(c.Request().Context())
	role, _ := common.GetUserRoleFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]any{"id": id, "role": role})
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, NewJWTMiddleware(testSecret, nil))

	t.Run("valid token populates context", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", signed(t, testSecret, validClaims(catalog.RoleAuditor)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":42,"role":"Auditor"}`, rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/me", signed(t, "other", validClaims(catalog.RoleAuditor)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims(catalog.RoleAuditor)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		rec := serve(e, http.MethodGet, "/me", signed(t, testSecret, claims))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims(catalog.RoleAuditor)).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		rec := serve(e, http.MethodGet, "/me", token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, NewJWTMiddleware(testSecret, nil), RequireAdministrator())
	e.GET("/any", whoAmI, NewJWTMiddleware(testSecret, nil), RequireRole("Administrador", "Auditor"))

	admin := signed(t, testSecret, validClaims(catalog.RoleAdministrator))
	auditor := signed(t, testSecret, validClaims(catalog.RoleAuditor))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, http.MethodGet, "/admin", auditor).Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/any", auditor).Code)
}

func TestRequireRole_WithoutUser(t *testing.T) {
	e := echo.New()
	e.GET("/admin", whoAmI, RequireAdministrator())

	rec := serve(e, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuditRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := NewAuditMiddleware(zap.New(core))

	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/v1/invoices", ok, audit.AuditRequest(AuditLow))
	e.PATCH("/v1/invoices", ok, audit.AuditRequest(AuditLow))
	e.GET("/health", ok, audit.AuditRequest(AuditMedium))
	e.GET("/v1/reports", ok, audit.AuditRequest(AuditHigh))

	serve(e, http.MethodGet, "/v1/invoices", "")
	assert.Equal(t, 0, logs.Len())

	serve(e, http.MethodPatch, "/v1/invoices", "")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "PATCH /v1/invoices", entry.ContextMap()["action"])
	assert.EqualValues(t, http.StatusNoContent, entry.ContextMap()["status"])

	serve(e, http.MethodGet, "/health", "")
	assert.Equal(t, 1, logs.Len())

	serve(e, http.MethodGet, "/v1/reports", "secret-token")
	require.Equal(t, 2, logs.Len())
	headers := logs.All()[1].ContextMap()["headers"].(map[string]interface{})
	assert.Equal(t, "[REDACTED]", headers["Authorization"])
}

func TestVersionMiddleware(t *testing.T) {
	vm := NewVersionMiddleware()
	e := echo.New()
	e.Use(vm.APIVersionResolver())
	v1 := vm.VersionRoute(e, "v1")
	v1.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("api_version").(string))
	})

	rec := serve(e, http.MethodGet, "/v1/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", rec.Body.String())
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Empty(t, rec.Header().Get("X-API-Deprecated"))

	rec = serve(e, http.MethodGet, "/v7/ping", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported API version")
}

func TestVersionMiddleware_Deprecated(t *testing.T) {
	vm := NewVersionMiddleware()
	sunset := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	vm.AddVersion("v1", VersionDeprecated, "Use v2", &sunset)

	e := echo.New()
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/v1/ping", "")
	assert.Equal(t, "true", rec.Header().Get("X-API-Deprecated"))
	assert.Contains(t, rec.Header().Get("Warning"), "2027-01-31")
}

func TestExtractVersionFromPath(t *testing.T) {
	vm := NewVersionMiddleware()
	assert.Equal(t, "v1", vm.extractVersionFromPath("/v1/invoices"))
	assert.Equal(t, "v12", vm.extractVersionFromPath("/v12"))
	assert.Equal(t, "", vm.extractVersionFromPath("/health"))
	assert.Equal(t, "", vm.extractVersionFromPath("/vendors"))
}

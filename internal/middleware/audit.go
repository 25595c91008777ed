package middleware

import (
	"net/http"
	"strings"
	"time"

	"legalizador/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Sensitivity levels accepted by AuditRequest.
const (
	AuditLow    = "low"
	AuditMedium = "medium"
	AuditHigh   = "high"
)

// AuditMiddleware writes an audit trail of HTTP requests to the logger.
type AuditMiddleware struct {
	logger *zap.Logger
}

// NewAuditMiddleware creates a new audit middleware instance
func NewAuditMiddleware(logger *zap.Logger) *AuditMiddleware {
	return &AuditMiddleware{
		logger: logger.Named("audit"),
	}
}

// AuditRequest audits HTTP requests with configurable sensitivity levels
func (m *AuditMiddleware) AuditRequest(sensitivityLevel string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			path := c.Path()

			switch sensitivityLevel {
			case AuditHigh:
			case AuditMedium:
				if m.shouldSkipLogging(method, path) {
					return err
				}
			default:
				if !m.shouldLogLowSensitivity(method, path, err) {
					return err
				}
			}

			fields := []zap.Field{
				zap.String("action", method+" "+path),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.String("ip", c.RealIP()),
				zap.String("user_agent", c.Request().UserAgent()),
				zap.Duration("latency", time.Since(start)),
			}
			ctx := c.Request().Context()
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				fields = append(fields, zap.Int64("user_id", userID))
			}
			if role, ok := common.GetUserRoleFromContext(ctx); ok {
				fields = append(fields, zap.String("role", role))
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			if sensitivityLevel != AuditLow {
				fields = append(fields, zap.Any("query_params", c.QueryParams()))
			}
			if sensitivityLevel == AuditHigh {
				fields = append(fields, zap.Any("headers", m.sanitizeHeaders(c.Request().Header)))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			m.logger.Info("http request", fields...)
			return err
		}
	}
}

// shouldLogLowSensitivity keeps errors, mutations and account routes.
func (m *AuditMiddleware) shouldLogLowSensitivity(method, path string, reqErr error) bool {
	if reqErr != nil {
		return true
	}

	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}

	for _, sensitive := range []string{"/v1/auth/", "/v1/users"} {
		if strings.HasPrefix(path, sensitive) {
			return true
		}
	}
	return false
}

// shouldSkipLogging skips reads of health checks, docs and uploaded files.
func (m *AuditMiddleware) shouldSkipLogging(method, path string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range []string{"/health", "/swagger", "/uploads/", "/favicon"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// sanitizeHeaders removes sensitive headers before logging
func (m *AuditMiddleware) sanitizeHeaders(headers http.Header) map[string]interface{} {
	sanitized := make(map[string]interface{}, len(headers))
	for key, values := range headers {
		if m.isSensitiveHeader(key) {
			sanitized[key] = "[REDACTED]"
			continue
		}
		sanitized[key] = values
	}
	return sanitized
}

func (m *AuditMiddleware) isSensitiveHeader(header string) bool {
	switch strings.ToLower(header) {
	case "authorization", "cookie", "x-api-key", "x-auth-token", "proxy-authorization":
		return true
	}
	return false
}

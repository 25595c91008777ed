package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
	degraded  = "degraded"

	healthCheckTimeout = 3 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db      Pinger
	cache   caching.CacheService
	storage services.StorageService
	version string
	started time.Time
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(db Pinger, cache caching.CacheService, storage services.StorageService, version string) *HealthHandlers {
	return &HealthHandlers{
		db:      db,
		cache:   cache,
		storage: storage,
		version: version,
		started: time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// CheckResult is one dependency in the detailed report.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

func (h *HealthHandlers) checks() []check {
	return []check{
		{"database", h.db.Ping},
		{"redis", h.cache.Ping},
		{"storage", h.storage.EnsureBucketExists},
	}
}

func (h *HealthHandlers) run(c echo.Context) (map[string]CheckResult, string) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	overall := healthy
	results := make(map[string]CheckResult)
	for _, chk := range h.checks() {
		start := time.Now()
		err := chk.fn(ctx)
		res := CheckResult{Status: healthy, LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			res.Status = unhealthy
			res.Message = err.Error()
			overall = degraded
		}
		results[chk.name] = res
	}
	return results, overall
}

// HealthCheck handles GET /health
//
//	@Summary	Dependency health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthStatus
//	@Success	206	{object}	HealthStatus
//	@Router		/health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	results, overall := h.run(c)
	health := &HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string, len(results)),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}
	for name, res := range results {
		health.Services[name] = res.Status
	}

	statusCode := http.StatusOK
	if overall == degraded {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck fails while the database or cache is unreachable.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	results, _ := h.run(c)
	if results["database"].Status != healthy || results["redis"].Status != healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "Critical services unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck provides detailed health information
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	results, overall := h.run(c)
	statusCode := http.StatusOK
	if overall == degraded {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, map[string]any{
		"overall_status": overall,
		"checks":         results,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        h.version,
		"goroutines":     runtime.NumGoroutine(),
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "legalizador/docs"
	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/handlers"
	"legalizador/internal/jobs"
	"legalizador/internal/middleware"
	"legalizador/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the background jobs",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.logger

	if err := a.storage.EnsureBucketExists(ctx); err != nil {
		log.Warn("Storage is not ready, uploads will fail until it is", zap.Error(err))
	}

	var jwks *keyfunc.JWKS
	if a.cfg.Auth.JWKSURL != "" {
		jwks, err = keyfunc.Get(a.cfg.Auth.JWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				log.Warn("JWKS refresh failed", zap.Error(err))
			},
		})
		if err != nil {
			return fmt.Errorf("failed to load JWKS from %s: %w", a.cfg.Auth.JWKSURL, err)
		}
		defer jwks.EndBackground()
	}

	// Services
	authSvc := services.NewAuthService(a.cache, a.users, log, a.cfg.Auth.JWTSecret,
		a.cfg.Auth.AccessTokenTTL, a.cfg.Auth.RefreshTokenTTL)
	userSvc := services.NewUserService(a.users, authSvc, a.cache, log)
	if a.cfg.Admin.Email != "" {
		if _, err := userSvc.EnsureAdministrator(ctx, a.cfg.Admin.Name, a.cfg.Admin.Email, a.cfg.Admin.Password); err != nil {
			return fmt.Errorf("failed to seed administrator: %w", err)
		}
	}
	invoiceSvc := services.NewInvoiceService(a.invoices, a.cache, log)
	importSvc := services.NewImportService(a.invoices, a.cache, log)
	receiptSvc := services.NewReceiptService(a.invoices, a.storage, log)
	reportSvc := services.NewReportService(a.reports, a.cache, a.cfg.Redis.CacheTTL, log)
	exportSvc := services.NewExportService()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(userSvc, authSvc, log)
	userHandlers := handlers.NewUserHandlers(userSvc, log)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, importSvc, receiptSvc, a.cfg.Upload.MaxSize, log)
	reportHandlers := handlers.NewReportHandlers(reportSvc, exportSvc, log)
	uploadHandlers := handlers.NewUploadHandlers(a.storage, a.cfg.Upload.MaxSize, log)
	healthHandlers := handlers.NewHealthHandlers(a.pool, a.cache, a.storage, version)

	scheduler, err := jobs.NewScheduler(invoiceSvc, a.cfg.Jobs, log)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn("Scheduler shutdown", zap.Error(err))
		}
	}()

	e := newServer(log)
	registerRoutes(e, routeDeps{
		jwt:      middleware.NewJWTMiddleware(a.cfg.Auth.JWTSecret, jwks),
		audit:    middleware.NewAuditMiddleware(log),
		auth:     authHandlers,
		users:    userHandlers,
		invoices: invoiceHandlers,
		reports:  reportHandlers,
		uploads:  uploadHandlers,
		health:   healthHandlers,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Legalizador server starting",
			zap.String("version", version),
			zap.Int("port", a.cfg.Server.Port),
			zap.String("upload_backend", a.cfg.Upload.Backend))
		if err := e.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	return e
}

type routeDeps struct {
	jwt      echo.MiddlewareFunc
	audit    *middleware.AuditMiddleware
	auth     *handlers.AuthHandlers
	users    *handlers.UserHandlers
	invoices *handlers.InvoiceHandlers
	reports  *handlers.ReportHandlers
	uploads  *handlers.UploadHandlers
	health   *handlers.HealthHandlers
}

func registerRoutes(e *echo.Echo, d routeDeps) {
	versions := middleware.NewVersionMiddleware()
	e.Use(versions.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", d.health.HealthCheck)
	e.GET("/health/ready", d.health.ReadinessCheck)
	e.GET("/health/live", d.health.LivenessCheck)
	e.GET("/health/detailed", d.health.DetailedHealthCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Stored documents are linked from the UI and opened without a bearer token
	e.GET("/uploads/:name", d.uploads.Serve)

	v1 := e.Group("/v1", versions.VersionHeader("v1"), d.audit.AuditRequest(middleware.AuditMedium))

	auth := v1.Group("/auth")
	auth.POST("/register", d.auth.Register)
	auth.POST("/login", d.auth.Login)
	auth.POST("/refresh", d.auth.Refresh)
	auth.POST("/logout", d.auth.Logout)

	protected := v1.Group("", d.jwt)
	admin := middleware.RequireAdministrator()
	readers := middleware.RequireRole(catalog.RoleAdministrator, catalog.RoleAuditor)

	protected.GET("/me", d.auth.Me)

	protected.GET("/users", d.users.ListUsers, admin)
	protected.POST("/users", d.users.CreateUser, admin)
	protected.PATCH("/users", d.users.UpdateUser, admin)

	protected.GET("/invoices", d.invoices.ListInvoices, readers)
	protected.GET("/invoices/summary", d.invoices.Summary, readers)
	protected.GET("/invoices/import/template", d.invoices.ImportTemplate, readers)
	protected.GET("/invoices/:id", d.invoices.GetInvoice, readers)
	protected.GET("/invoices/:id/receipt", d.invoices.Receipt, readers)
	protected.POST("/invoices", d.invoices.CreateInvoice, admin)
	protected.PATCH("/invoices", d.invoices.PatchInvoice, admin)
	protected.POST("/invoices/preview", d.invoices.PreviewInvoice, readers)
	protected.POST("/invoices/import", d.invoices.ImportInvoices, admin)

	protected.GET("/invoices-report/:kind", d.reports.GetReport, readers)
	protected.GET("/invoices-report/:kind/export", d.reports.ExportReport, readers)

	protected.POST("/upload", d.uploads.Upload, admin)
}

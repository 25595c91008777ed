package main

import (
	"context"
	"fmt"

	"legalizador/internal/caching"
	"legalizador/internal/config"
	"legalizador/internal/repositories"
	"legalizador/internal/services"
	"legalizador/pkg/database"
	"legalizador/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/random"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client

	cache    caching.CacheService
	storage  services.StorageService
	invoices repositories.InvoiceRepository
	reports  repositories.ReportRepository
	users    repositories.UserRepository
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = random.String(32)
		log.Warn("JWT_SECRET is not set, using a generated secret; tokens will not survive a restart")
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	storage, err := newStorage(cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	client := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	return &app{
		cfg:      cfg,
		logger:   log,
		pool:     pool,
		redis:    client,
		cache:    caching.NewRedisCacheService(client, log),
		storage:  storage,
		invoices: repositories.NewInvoiceRepo(pool),
		reports:  repositories.NewReportRepo(pool),
		users:    repositories.NewUserRepo(pool),
	}, nil
}

func newStorage(cfg *config.Config, log *zap.Logger) (services.StorageService, error) {
	if cfg.Upload.Backend == config.UploadBackendLocal {
		return services.NewDiskStorage(cfg.Upload.Dir, log), nil
	}
	storage, err := services.NewMinioStorage(
		cfg.Minio.Endpoint,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
		cfg.Minio.Bucket,
		cfg.Minio.PresignTTL,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO storage: %w", err)
	}
	return storage, nil
}

func (a *app) close() {
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("Closing redis client", zap.Error(err))
	}
	a.pool.Close()
	_ = a.logger.Sync()
}

package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalizador/internal/common"
	"legalizador/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "legalizador"

type CacheService interface {
	// Report caching. Get decodes into dst and reports whether it was a hit.
	GetReport(ctx context.Context, kind string, filter models.ReportFilter, dst any) (bool, error)
	SetReport(ctx context.Context, kind string, filter models.ReportFilter, rows any, ttl time.Duration) error
	InvalidateReports(ctx context.Context) error

	// Dashboard summary
	GetSummary(ctx context.Context) (*models.Summary, error)
	SetSummary(ctx context.Context, summary *models.Summary, ttl time.Duration) error

	// Refresh token management
	SetRefreshToken(ctx context.Context, token *models.RefreshToken, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisClient builds a client, accepting either host:port or a redis://
// URL.
func NewRedisClient(addr, password string, db int, logger *zap.Logger) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if password != "" {
				opts.Password = password
			}
			return redis.NewClient(opts)
		}
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	logger.Debug("Creating Redis client", zap.String("address", parsedAddr))
	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client *redis.Client, logger *zap.Logger) CacheService {
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("Redis ping failed on initialization", zap.Error(pingErr))
	}
	return &redisCacheService{client: client, logger: logger}
}

// ReportKey identifies a cached report. Open bounds are written as "-".
func ReportKey(kind string, filter models.ReportFilter) string {
	return fmt.Sprintf("%s:report:%s:%s:%s", keyPrefix, kind, bound(filter.From), bound(filter.To))
}

func bound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(common.ISODateLayout)
}

func summaryKey() string { return keyPrefix + ":summary" }

func refreshTokenKey(tokenID string) string {
	return fmt.Sprintf("%s:refresh:%s", keyPrefix, tokenID)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) GetReport(ctx context.Context, kind string, filter models.ReportFilter, dst any) (bool, error) {
	data, err := r.client.Get(ctx, ReportKey(kind, filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetReport(ctx context.Context, kind string, filter models.ReportFilter, rows any, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, ReportKey(kind, filter), data, ttl).Err()
}

// InvalidateReports drops every cached report and the summary. Called after
// any write to invoices.
func (r *redisCacheService) InvalidateReports(ctx context.Context) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, keyPrefix+":report:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	keys = append(keys, summaryKey())
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) GetSummary(ctx context.Context) (*models.Summary, error) {
	data, err := r.client.Get(ctx, summaryKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var summary models.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *redisCacheService) SetSummary(ctx context.Context, summary *models.Summary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, summaryKey(), data, ttl).Err()
}

// refreshTokenRecord is the stored form; the hash is not part of the JSON
// view of models.RefreshToken.
type refreshTokenRecord struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

func (r *redisCacheService) SetRefreshToken(ctx context.Context, token *models.RefreshToken, ttl time.Duration) error {
	data, err := json.Marshal(refreshTokenRecord(*token))
	if err != nil {
		return err
	}
	return r.client.Set(ctx, refreshTokenKey(token.ID), data, ttl).Err()
}

func (r *redisCacheService) GetRefreshToken(ctx context.Context, tokenID string) (*models.RefreshToken, error) {
	data, err := r.client.Get(ctx, refreshTokenKey(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // not found
		}
		return nil, err
	}

	var rec refreshTokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	token := models.RefreshToken(rec)
	return &token, nil
}

func (r *redisCacheService) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return r.client.Del(ctx, refreshTokenKey(tokenID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return false, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, rateLimitKey(key)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

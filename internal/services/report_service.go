package services

import (
	"context"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/repositories"

	"go.uber.org/zap"
)

type ReportService interface {
	Rows(ctx context.Context, kind string, filter models.ReportFilter) (any, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	cacheSvc   caching.CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepository, cacheSvc caching.CacheService, cacheTTL time.Duration, logger *zap.Logger) ReportService {
	return &reportService{
		reportRepo: reportRepo,
		cacheSvc:   cacheSvc,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ParseReportFilter reads the from/to query values. Empty or unparseable
// bounds are left open.
func ParseReportFilter(from, to string) (models.ReportFilter, error) {
	filter := models.ReportFilter{
		From: parseBound(from),
		To:   parseBound(to),
	}
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return filter, common.Validation("Rango de fechas inválido: %v", err)
		}
	}
	return filter, nil
}

func parseBound(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(common.ISODateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// Rows returns the rows of one report kind, served from the cache when
// present.
func (s *reportService) Rows(ctx context.Context, kind string, filter models.ReportFilter) (any, error) {
	switch kind {
	case models.ReportUIAF:
		return cached(ctx, s, kind, filter, s.reportRepo.UIAF)
	case models.ReportLines:
		return cached(ctx, s, kind, filter, s.reportRepo.Lines)
	case models.ReportWMS:
		return cached(ctx, s, kind, filter, s.reportRepo.WMS)
	default:
		return nil, common.NotFound("Reporte '%s' no existe", kind)
	}
}

func cached[T any](ctx context.Context, s *reportService, kind string, filter models.ReportFilter, load func(context.Context, models.ReportFilter) ([]T, error)) ([]T, error) {
	var rows []T
	hit, err := s.cacheSvc.GetReport(ctx, kind, filter, &rows)
	if err != nil {
		s.logger.Warn("Report cache read failed", zap.String("kind", kind), zap.Error(err))
	}
	if hit && rows != nil {
		return rows, nil
	}

	rows, err = load(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.SetReport(ctx, kind, filter, rows, s.cacheTTL); err != nil {
		s.logger.Warn("Report cache write failed", zap.String("kind", kind), zap.Error(err))
	}
	return rows, nil
}

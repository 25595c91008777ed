package services

import (
	"context"
	"strings"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/reconciliation"
	"legalizador/internal/repositories"

	"go.uber.org/zap"
)

const summaryTTL = 10 * time.Minute

// InvoiceService defines the operations on dispatch invoices
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (int64, error)
	ListInvoices(ctx context.Context) ([]models.InvoiceView, error)
	GetInvoice(ctx context.Context, id int64) (*models.InvoiceView, error)
	UpdateLineCause(ctx context.Context, detailID int64, cause *string) error
	Legalize(ctx context.Context, req *models.InvoicePatchRequest) (*models.LegalizationResult, error)
	Preview(ctx context.Context, req *models.PreviewRequest) (*models.PreviewResult, error)

	Summary(ctx context.Context) (*models.Summary, error)
	RefreshSummary(ctx context.Context) (*models.Summary, error)
	ExpireOverdue(ctx context.Context, afterDays int) (int64, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	cacheSvc    caching.CacheService
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, cacheSvc caching.CacheService, logger *zap.Logger) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		cacheSvc:    cacheSvc,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *models.CreateInvoiceRequest) (int64, error) {
	status, err := catalog.NormalizeStatus(req.Status)
	if err != nil {
		return 0, common.Validation("%s", err.Error())
	}
	req.InvoiceNumber = strings.TrimSpace(req.InvoiceNumber)
	if req.InvoiceNumber == "" {
		return 0, common.Validation("Número de factura requerido")
	}

	invoice := req.ToInvoice()
	invoice.Status = status
	id, err := s.invoiceRepo.Create(ctx, invoice)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Invoice created",
		zap.Int64("invoice_id", id),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("details", len(invoice.Details)))
	s.invalidate(ctx)
	return id, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context) ([]models.InvoiceView, error) {
	invoices, err := s.invoiceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, models.ListView(inv, now))
	}
	return views, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*models.InvoiceView, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := models.DetailedView(inv, s.now())
	return &view, nil
}

// UpdateLineCause sets the rejection cause of one detail. A null or empty
// cause resets it to the default.
func (s *invoiceService) UpdateLineCause(ctx context.Context, detailID int64, cause *string) error {
	code := catalog.DefaultLineCause
	if cause != nil {
		code = catalog.LineCauseOrDefault(*cause)
	}
	if err := s.invoiceRepo.UpdateLineCause(ctx, detailID, code); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Legalize writes the header fields and the reconciled lines of an invoice.
// Received units above the dispatched quantity and voucher mismatches are
// logged but never block the write.
func (s *invoiceService) Legalize(ctx context.Context, req *models.InvoicePatchRequest) (*models.LegalizationResult, error) {
	if req.ID == 0 {
		return nil, common.Validation("ID requerido para actualizar")
	}

	header := req.Header()
	if header.Status != nil {
		status, err := catalog.NormalizeStatus(*header.Status)
		if err != nil {
			return nil, common.Validation("%s", err.Error())
		}
		header.Status = &status
	}

	for i := range req.Details {
		if c := req.Details[i].RejectionCauseCodeLine; c != nil {
			code := catalog.LineCauseOrDefault(*c)
			req.Details[i].RejectionCauseCodeLine = &code
		}
	}

	outcome, err := s.invoiceRepo.Legalize(ctx, models.Legalization{
		InvoiceID: int64(req.ID),
		Header:    header,
		Details:   req.Details,
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.Int64("invoice_id", int64(req.ID)))
	results := make([]reconciliation.Result, 0, len(outcome.Lines))
	for _, line := range outcome.Lines {
		results = append(results, line.Result)
		if reconciliation.ExceedsQuantity(line.Result) {
			log.Warn("Received units exceed dispatched quantity",
				zap.Int64("detail_id", line.DetailID),
				zap.Float64("quantity", line.Result.Quantity),
				zap.Float64("received_units", line.Result.ReceivedUnits))
		}
	}
	if len(outcome.SkippedDetails) > 0 {
		log.Warn("Skipped details not belonging to invoice", zap.Int64s("detail_ids", outcome.SkippedDetails))
	}
	if header.VoucherAmount != nil && len(results) > 0 {
		check := reconciliation.CheckVoucher(results, *header.VoucherAmount)
		if !check.Matches {
			log.Warn("Voucher amount does not match received value",
				zap.Float64("expected", check.Expected),
				zap.Float64("voucher_amount", check.VoucherAmount),
				zap.Float64("difference", check.Difference))
		}
	}
	log.Info("Invoice legalized", zap.Int("lines", len(outcome.Lines)))
	s.invalidate(ctx)

	return &models.LegalizationResult{
		Message:        "Factura legalizada correctamente",
		Success:        true,
		VoucherDate:    common.OptionalDisplayDate(outcome.VoucherDate),
		VoucherDateRaw: common.OptionalISODate(outcome.VoucherDate),
	}, nil
}

// Preview reconciles the submitted lines against the stored invoice without
// writing. Received units are clamped to [0, quantity] as the edit form does.
func (s *invoiceService) Preview(ctx context.Context, req *models.PreviewRequest) (*models.PreviewResult, error) {
	if req.InvoiceID == 0 {
		return nil, common.Validation("ID requerido")
	}
	inv, err := s.invoiceRepo.GetByID(ctx, int64(req.InvoiceID))
	if err != nil {
		return nil, err
	}

	patches := make(map[int64]models.DetailPatch, len(req.Details))
	for _, p := range req.Details {
		patches[int64(p.ID)] = p
	}

	result := &models.PreviewResult{Lines: make([]models.PreviewLine, 0, len(inv.Details))}
	results := make([]reconciliation.Result, 0, len(inv.Details))
	for i := range inv.Details {
		d := &inv.Details[i]
		in := reconciliation.Input{}
		if p, ok := patches[d.ID]; ok {
			in = p.Input()
		}

		quantity := d.Quantity
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		clamped := false
		if in.ReceivedUnits != nil {
			v := reconciliation.ClampReceived(*in.ReceivedUnits, quantity)
			clamped = v != *in.ReceivedUnits
			in.ReceivedUnits = &v
		}

		res := reconciliation.ReconcileLine(d.Line(), in)
		results = append(results, res)
		result.Lines = append(result.Lines, models.PreviewLine{ID: models.ID(d.ID), Result: res, Clamped: clamped})
	}
	result.Totals = reconciliation.Rollup(results)

	voucher := req.VoucherAmount.Float()
	if voucher == nil {
		voucher = inv.VoucherAmount
	}
	if voucher != nil {
		check := reconciliation.CheckVoucher(results, *voucher)
		result.Voucher = &check
	}
	return result, nil
}

// Summary returns the cached dashboard summary, computing it on a miss.
func (s *invoiceService) Summary(ctx context.Context) (*models.Summary, error) {
	cached, err := s.cacheSvc.GetSummary(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cached summary", zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}
	return s.RefreshSummary(ctx)
}

// RefreshSummary recomputes the dashboard summary and stores it.
func (s *invoiceService) RefreshSummary(ctx context.Context) (*models.Summary, error) {
	counts, err := s.invoiceRepo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	critical, err := s.invoiceRepo.CountCriticalPending(ctx, catalog.CriticalPendingCutoff(now))
	if err != nil {
		return nil, err
	}

	summary := &models.Summary{
		ByStatus:        counts,
		CriticalPending: critical,
		GeneratedAt:     now.UTC().Format(time.RFC3339),
	}
	for _, n := range counts {
		summary.Total += n
	}

	if err := s.cacheSvc.SetSummary(ctx, summary, summaryTTL); err != nil {
		s.logger.Warn("Failed to cache summary", zap.Error(err))
	}
	return summary, nil
}

// ExpireOverdue marks pending invoices whose due date is more than afterDays
// in the past as expired.
func (s *invoiceService) ExpireOverdue(ctx context.Context, afterDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -afterDays)
	n, err := s.invoiceRepo.ExpireOverdue(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired overdue invoices", zap.Int64("count", n), zap.Time("cutoff", cutoff))
		s.invalidate(ctx)
	}
	return n, nil
}

func (s *invoiceService) invalidate(ctx context.Context) {
	if err := s.cacheSvc.InvalidateReports(ctx); err != nil {
		s.logger.Warn("Failed to invalidate report cache", zap.Error(err))
	}
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/reconciliation"
	"legalizador/internal/repositories"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

// ReceiptService renders the legalization receipt of an invoice and stores
// it in object storage.
type ReceiptService interface {
	Generate(ctx context.Context, invoiceID int64) (string, error)
	Render(inv *models.Invoice) (*bytes.Buffer, error)
}

type receiptService struct {
	invoiceRepo repositories.InvoiceRepository
	storage     StorageService
	logger      *zap.Logger
	now         func() time.Time
}

func NewReceiptService(invoiceRepo repositories.InvoiceRepository, storage StorageService, logger *zap.Logger) ReceiptService {
	return &receiptService{
		invoiceRepo: invoiceRepo,
		storage:     storage,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate renders and uploads the receipt and returns where it can be
// downloaded from.
func (s *receiptService) Generate(ctx context.Context, invoiceID int64) (string, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	buf, err := s.Render(inv)
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}

	name := UploadObjectName(fmt.Sprintf("recibo-%s.pdf", inv.InvoiceNumber), s.now())
	if err := s.storage.Put(ctx, name, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "application/pdf"); err != nil {
		return "", err
	}

	url, err := s.storage.PresignedURL(ctx, name)
	if err != nil {
		return "", err
	}
	if url == "" {
		url = "/uploads/" + name
	}
	s.logger.Info("Receipt generated", zap.Int64("invoice_id", invoiceID), zap.String("object", name))
	return url, nil
}

func (s *receiptService) Render(inv *models.Invoice) (*bytes.Buffer, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	marginX := 12.0
	marginY := 12.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, tr("COMPROBANTE DE LEGALIZACIÓN"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Factura: %s", inv.InvoiceNumber)))
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	headerLines := []string{
		fmt.Sprintf("Fecha factura: %s", common.FormatDisplayDate(inv.InvoiceDate)),
		fmt.Sprintf("Cliente: %s (%s)", inv.CustomerName, inv.CustomerTaxID),
		fmt.Sprintf("Ciudad: %s", inv.CustomerCity),
		fmt.Sprintf("Estado: %s", catalog.StatusLabel(inv.Status)),
		fmt.Sprintf("Comprobante: %s  Valor: %s  Fecha: %s",
			common.SafeString(inv.VoucherNumber), money(common.SafeFloat64(inv.VoucherAmount)),
			common.FormatDisplayDate(inv.VoucherDate)),
	}
	if inv.RejectionCauseCode != "" {
		headerLines = append(headerLines, fmt.Sprintf("Causal: %s - %s",
			inv.RejectionCauseCode, catalog.CauseDescription(inv.RejectionCauseCode)))
	}
	for _, line := range headerLines {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	headers := []string{"SKU", "Producto", "Cantidad", "Recibidas", "Novedad", "Valor Neto", "Valor Recibido", "Valor Devuelto", "Causal"}
	widths := []float64{28, 72, 20, 20, 20, 30, 30, 30, 23}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	results := make([]reconciliation.Result, 0, len(inv.Details))
	for i := range inv.Details {
		d := &inv.Details[i]
		r := d.Result()
		results = append(results, r)

		product := d.ProductName
		if len(product) > 40 {
			product = product[:37] + "..."
		}
		pdf.CellFormat(widths[0], 6, tr(d.SKU), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(product), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, units(r.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, units(r.ReceivedUnits), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, units(r.Novelty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, money(r.NetAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, money(r.ReceivedValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[7], 6, money(r.ReturnedValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[8], 6, catalog.LineCauseOrDefault(d.RejectionCauseCodeLine), "1", 0, "C", false, 0, "")
		pdf.Ln(6)
	}
	pdf.Ln(4)

	totals := reconciliation.Rollup(results)
	pdf.SetFont("Arial", "B", 10)
	summary := [][2]string{
		{"Unidades despachadas:", units(totals.TotalUnits)},
		{"Unidades recibidas:", units(totals.TotalReceivedUnits)},
		{"Valor recibido:", money(totals.TotalReceivedValue)},
	}
	if inv.VoucherAmount != nil {
		check := reconciliation.CheckVoucher(results, *inv.VoucherAmount)
		summary = append(summary, [2]string{"Diferencia comprobante:", money(check.Difference)})
	}
	for _, row := range summary {
		pdf.CellFormat(223, 6, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, row[1], "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(108, 117, 125)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Generado el %s", s.now().Format("02/01/2006 15:04"))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

func money(v float64) string {
	return fmt.Sprintf("$ %.0f", reconciliation.Finite(v))
}

func units(v float64) string {
	return fmt.Sprintf("%.2f", reconciliation.Finite(v))
}

package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"legalizador/internal/caching"
	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/reconciliation"
	"legalizador/internal/repositories"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	headersSheet = "Headers"
	detailsSheet = "Details"
)

// HeaderColumns are the columns of the Headers sheet, in template order.
var HeaderColumns = []string{
	"INVOICE_NUMBER", "DELIVERY_NUMBER", "INTERNAL_ORDER_NUMBER", "PURCHASE_ORDER_NUMBER",
	"INVOICE_DATE", "INVOICE_DUE_DATE", "CUSTOMER_CODE", "CUSTOMER_TAX_ID", "CUSTOMER_NAME",
	"CUSTOMER_PHONE", "CUSTOMER_ADDRESS", "CUSTOMER_CITY", "CUSTOMER_STATE", "ZIP_CODE",
	"INVOICE_TOTAL", "VAT_TAX_AMOUNT", "TOTAL_DISCOUNT", "AMOUNT_DUE", "PAYMENT_METHOD",
	"TOTAL_LINES", "TOTAL_UNITS", "NOTES",
}

// DetailColumns are the columns of the Details sheet, in template order.
var DetailColumns = []string{
	"INVOICE_NUMBER", "SKU", "PRODUCT_NAME", "UNIT_OF_MEASURE", "QUANTITY", "BATCH_NUMBER",
	"SERIAL_NUMBER", "UNIT_PRICE", "VAT_TAX_AMOUNT", "UNIT_DISCOUNT_AMOUNT", "NET_AMOUNT",
	"WEIGHT", "LENGTH", "HEIGHT", "WIDTH",
}

type ImportService interface {
	Import(ctx context.Context, filename string, data []byte) (*models.ImportResult, error)
	Template() (*bytes.Buffer, error)
}

type importService struct {
	invoiceRepo repositories.InvoiceRepository
	cacheSvc    caching.CacheService
	logger      *zap.Logger
	now         func() time.Time
}

func NewImportService(invoiceRepo repositories.InvoiceRepository, cacheSvc caching.CacheService, logger *zap.Logger) ImportService {
	return &importService{
		invoiceRepo: invoiceRepo,
		cacheSvc:    cacheSvc,
		logger:      logger,
		now:         time.Now,
	}
}

type pendingInvoice struct {
	row     sheetRow
	invoice *models.Invoice
}

// Import loads every invoice of the workbook that has at least one detail
// and does not exist yet. Row failures are collected; only an unreadable
// workbook fails the whole import.
func (s *importService) Import(ctx context.Context, filename string, data []byte) (*models.ImportResult, error) {
	sheets, err := readSheets(filename, data, headersSheet, detailsSheet)
	if err != nil {
		return nil, common.Validation("No se pudo leer el archivo: %v", err)
	}
	headers, okH := sheets[headersSheet]
	details, okD := sheets[detailsSheet]
	if !okH || !okD {
		return nil, common.Validation("El archivo debe tener dos hojas: Headers y Details")
	}

	result := &models.ImportResult{Errors: []models.ImportRowError{}}
	today := s.now()

	var order []string
	pending := make(map[string]*pendingInvoice)
	for _, row := range headers {
		number := row.get("INVOICE_NUMBER")
		if number == "" {
			result.AddError(row.Number, "Falta INVOICE_NUMBER", row.Cells)
			continue
		}
		if _, dup := pending[number]; dup {
			result.AddError(row.Number, fmt.Sprintf("Factura duplicada: La factura #%s aparece más de una vez en el archivo.", number), row.Cells)
			continue
		}
		order = append(order, number)
		pending[number] = &pendingInvoice{row: row, invoice: invoiceFromRow(row, today)}
	}

	for _, row := range details {
		number := row.get("INVOICE_NUMBER")
		if number == "" {
			result.AddError(row.Number, "Falta INVOICE_NUMBER en Details", row.Cells)
			continue
		}
		p, ok := pending[number]
		if !ok {
			continue
		}
		p.invoice.Details = append(p.invoice.Details, detailFromRow(row))
	}

	for _, number := range order {
		p := pending[number]
		if len(p.invoice.Details) == 0 {
			result.AddError(p.row.Number, fmt.Sprintf("La factura #%s no tiene detalles asociados y no se cargó.", number), p.row.Cells)
			continue
		}

		exists, err := s.invoiceRepo.ExistsByNumber(ctx, number)
		if err != nil {
			s.logger.Error("Failed to check invoice number", zap.String("invoice_number", number), zap.Error(err))
			result.AddError(p.row.Number, "Error al guardar en la base de datos", p.row.Cells)
			continue
		}
		if exists {
			result.AddError(p.row.Number, duplicateMessage(number), p.row.Cells)
			continue
		}

		if _, err := s.invoiceRepo.Create(ctx, p.invoice); err != nil {
			if errors.Is(err, common.ErrConflict) {
				result.AddError(p.row.Number, duplicateMessage(number), p.row.Cells)
				continue
			}
			s.logger.Error("Failed to import invoice", zap.String("invoice_number", number), zap.Error(err))
			result.AddError(p.row.Number, "Error al guardar en la base de datos", p.row.Cells)
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("Invoice import finished",
		zap.String("file", filename),
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount))

	if result.SuccessCount > 0 {
		if err := s.cacheSvc.InvalidateReports(ctx); err != nil {
			s.logger.Warn("Failed to invalidate report cache", zap.Error(err))
		}
	}
	return result, nil
}

func duplicateMessage(number string) string {
	return fmt.Sprintf("Factura duplicada: La factura #%s ya existe y no se cargó.", number)
}

func invoiceFromRow(row sheetRow, today time.Time) *models.Invoice {
	invoiceDate := common.ParseDate(row.get("INVOICE_DATE"))
	dueDate := common.ParseDate(row.get("INVOICE_DUE_DATE"))
	if dueDate == nil {
		if invoiceDate != nil {
			dueDate = invoiceDate
		} else {
			dueDate = common.ParseDate(today)
		}
	}

	inv := &models.Invoice{
		InvoiceNumber:       row.get("INVOICE_NUMBER"),
		DeliveryNumber:      row.get("DELIVERY_NUMBER"),
		InternalOrderNumber: row.get("INTERNAL_ORDER_NUMBER"),
		PurchaseOrderNumber: row.get("PURCHASE_ORDER_NUMBER"),
		InvoiceDate:         invoiceDate,
		InvoiceDueDate:      dueDate,
		CustomerCode:        row.get("CUSTOMER_CODE"),
		CustomerTaxID:       row.get("CUSTOMER_TAX_ID"),
		CustomerName:        row.get("CUSTOMER_NAME"),
		CustomerPhone:       row.get("CUSTOMER_PHONE"),
		CustomerAddress:     row.get("CUSTOMER_ADDRESS"),
		CustomerCity:        row.get("CUSTOMER_CITY"),
		CustomerState:       row.get("CUSTOMER_STATE"),
		ZipCode:             row.get("ZIP_CODE"),
		InvoiceTotal:        numberCell(row, "INVOICE_TOTAL"),
		VATTaxAmount:        numberCell(row, "VAT_TAX_AMOUNT"),
		TotalDiscount:       numberCell(row, "TOTAL_DISCOUNT"),
		AmountDue:           numberCell(row, "AMOUNT_DUE"),
		PaymentMethod:       row.get("PAYMENT_METHOD"),
		Status:              catalog.StatusPending,
		RejectionCauseCode:  catalog.LineCauseOrDefault(row.get("REJECTION_CAUSE_CODE")),
		VoucherNumber:       common.StringPtr(row.get("VOUCHER_NUMBER")),
		Notes:               row.get("NOTES"),
		TotalLines:          int(numberCell(row, "TOTAL_LINES")),
		TotalUnits:          numberCell(row, "TOTAL_UNITS"),
	}
	if v := row.get("VOUCHER_AMOUNT"); v != "" {
		amount := reconciliation.ParseNumber(v)
		inv.VoucherAmount = &amount
	}
	return inv
}

func detailFromRow(row sheetRow) models.InvoiceDetail {
	return models.InvoiceDetail{
		SKU:                    row.get("SKU"),
		ProductName:            row.get("PRODUCT_NAME"),
		UnitOfMeasure:          row.get("UNIT_OF_MEASURE"),
		Quantity:               numberCell(row, "QUANTITY"),
		BatchNumber:            row.get("BATCH_NUMBER"),
		SerialNumber:           row.get("SERIAL_NUMBER"),
		UnitPrice:              numberCell(row, "UNIT_PRICE"),
		VATTaxAmount:           numberCell(row, "VAT_TAX_AMOUNT"),
		UnitDiscountAmount:     numberCell(row, "UNIT_DISCOUNT_AMOUNT"),
		NetAmount:              numberCell(row, "NET_AMOUNT"),
		Weight:                 numberCell(row, "WEIGHT"),
		Length:                 numberCell(row, "LENGTH"),
		Height:                 numberCell(row, "HEIGHT"),
		Width:                  numberCell(row, "WIDTH"),
		RejectionCauseCodeLine: catalog.LineCauseOrDefault(row.get("REJECTION_CAUSE_CODE_LINE")),
	}
}

func numberCell(row sheetRow, col string) float64 {
	return reconciliation.ParseNumber(row.get(col))
}

// Template builds the import workbook with both sheets, their header rows
// and one example row each.
func (s *importService) Template() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", headersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(detailsSheet); err != nil {
		return nil, err
	}

	headerExample := []any{
		"FE-1001", "ENT-5001", "PI-9001", "OC-7001", "2024-03-01", "2024-03-31", "CLI-001",
		"900123456", "Distribuciones Andinas S.A.S.", "3001234567", "Calle 10 # 20-30", "Bogotá",
		"Cundinamarca", "110111", 119000, 19000, 0, 119000, "Contraentrega", 1, 10, "",
	}
	detailExample := []any{
		"FE-1001", "SKU-001", "Producto de ejemplo", "UND", 10, "L-2024-01", "", 10000, 1900, 0,
		119000, 5.5, 30, 20, 10,
	}

	if err := writeRow(f, headersSheet, 1, HeaderColumns); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(headersSheet, "A2", &headerExample); err != nil {
		return nil, err
	}
	if err := writeRow(f, detailsSheet, 1, DetailColumns); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(detailsSheet, "A2", &detailExample); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

package handlers

import (
	"io"
	"net/http"

	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
	importService  services.ImportService
	receiptService services.ReceiptService
	maxUploadSize  int64
	logger         *zap.Logger
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService, importService services.ImportService, receiptService services.ReceiptService, maxUploadSize int64, logger *zap.Logger) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		importService:  importService,
		receiptService: receiptService,
		maxUploadSize:  maxUploadSize,
		logger:         logger,
	}
}

// ListInvoices handles GET /invoices
//
//	@Summary	List invoices with their details
//	@Tags		invoices
//	@Produce	json
//	@Success	200	{array}	models.InvoiceView
//	@Router		/v1/invoices [get]
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	invoices, err := h.invoiceService.ListInvoices(c.Request().Context())
	if err != nil {
		return sendError(c, h.logger, err, "Error consultando facturas")
	}
	return c.JSON(http.StatusOK, invoices)
}

// Summary handles GET /invoices/summary
func (h *InvoiceHandlers) Summary(c echo.Context) error {
	summary, err := h.invoiceService.Summary(c.Request().Context())
	if err != nil {
		return sendError(c, h.logger, err, "Error consultando resumen")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetInvoice handles GET /invoices/:id
//
//	@Summary	Get one invoice with reconciled totals
//	@Tags		invoices
//	@Produce	json
//	@Param		id	path		int	true	"Invoice ID"
//	@Success	200	{object}	models.InvoiceView
//	@Failure	404	{object}	common.MessageResponse
//	@Router		/v1/invoices/{id} [get]
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return common.SendMessage(c, http.StatusNotFound, "Factura no encontrada")
	}
	invoice, err := h.invoiceService.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return sendError(c, h.logger, err, "Error consultando factura")
	}
	return c.JSON(http.StatusOK, invoice)
}

// CreateInvoice handles POST /invoices
//
//	@Summary	Create an invoice with its details
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Param		invoice	body		models.CreateInvoiceRequest	true	"Invoice"
//	@Success	200		{object}	map[string]string
//	@Failure	400		{object}	common.MessageResponse
//	@Router		/v1/invoices [post]
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	var req models.CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return sendError(c, h.logger, err, "Error creando factura")
	}

	id, err := h.invoiceService.CreateInvoice(c.Request().Context(), &req)
	if err != nil {
		return sendError(c, h.logger, err, "Error creando factura")
	}
	return c.JSON(http.StatusOK, map[string]models.ID{"id": models.ID(id)})
}

// PatchInvoice handles PATCH /invoices. A body with detail_id and
// rejection_cause_code_line updates one line; anything else legalizes the
// invoice named by id.
//
//	@Summary	Update a line cause or legalize an invoice
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Param		patch	body		models.InvoicePatchRequest	true	"Patch"
//	@Success	200		{object}	models.LegalizationResult
//	@Failure	400		{object}	common.MessageResponse
//	@Failure	404		{object}	common.MessageResponse
//	@Router		/v1/invoices [patch]
func (h *InvoiceHandlers) PatchInvoice(c echo.Context) error {
	var req models.InvoicePatchRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	ctx := c.Request().Context()

	if req.IsLineCauseUpdate() {
		if err := h.invoiceService.UpdateLineCause(ctx, int64(*req.DetailID), req.RejectionCauseCodeLine.Value); err != nil {
			return sendError(c, h.logger, err, "Error actualizando causal")
		}
		return common.SendResult(c, http.StatusOK, true, "Causal del detalle actualizada correctamente")
	}

	result, err := h.invoiceService.Legalize(ctx, &req)
	if err != nil {
		return sendError(c, h.logger, err, "Error actualizando factura")
	}
	return c.JSON(http.StatusOK, result)
}

// PreviewInvoice handles POST /invoices/preview
func (h *InvoiceHandlers) PreviewInvoice(c echo.Context) error {
	var req models.PreviewRequest
	if err := c.Bind(&req); err != nil {
		return sendBadBody(c)
	}
	preview, err := h.invoiceService.Preview(c.Request().Context(), &req)
	if err != nil {
		return sendError(c, h.logger, err, "Error calculando legalización")
	}
	return c.JSON(http.StatusOK, preview)
}

// ImportInvoices handles POST /invoices/import with a multipart "file".
//
//	@Summary	Import invoices from a Headers/Details workbook
//	@Tags		invoices
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"xlsx or xls workbook"
//	@Success	200		{object}	models.ImportResult
//	@Failure	400		{object}	common.MessageResponse
//	@Router		/v1/invoices/import [post]
func (h *InvoiceHandlers) ImportInvoices(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return common.SendResult(c, http.StatusBadRequest, false, "Archivo no recibido")
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		return common.SendResult(c, http.StatusRequestEntityTooLarge, false, "Archivo demasiado grande")
	}

	f, err := fh.Open()
	if err != nil {
		return sendError(c, h.logger, err, "Error leyendo archivo")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return sendError(c, h.logger, err, "Error leyendo archivo")
	}

	result, err := h.importService.Import(c.Request().Context(), fh.Filename, data)
	if err != nil {
		return sendError(c, h.logger, err, "Error importando facturas")
	}
	return c.JSON(http.StatusOK, result)
}

// ImportTemplate handles GET /invoices/import/template
func (h *InvoiceHandlers) ImportTemplate(c echo.Context) error {
	buf, err := h.importService.Template()
	if err != nil {
		return sendError(c, h.logger, err, "Error generando plantilla")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="plantilla_facturas.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Receipt handles GET /invoices/:id/receipt
func (h *InvoiceHandlers) Receipt(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return common.SendMessage(c, http.StatusNotFound, "Factura no encontrada")
	}
	url, err := h.receiptService.Generate(c.Request().Context(), id)
	if err != nil {
		return sendError(c, h.logger, err, "Error generando comprobante")
	}
	return c.JSON(http.StatusOK, models.ReceiptResponse{Success: true, URL: url})
}

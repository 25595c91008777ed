package handlers

import (
	"net/http"
	"net/url"

	"legalizador/internal/common"
	"legalizador/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ReportResponse is the body of the report endpoints.
type ReportResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReportHandlers serves the UIAF, lines and WMS reports.
type ReportHandlers struct {
	reportService services.ReportService
	exportService services.ExportService
	logger        *zap.Logger
}

func NewReportHandlers(reportService services.ReportService, exportService services.ExportService, logger *zap.Logger) *ReportHandlers {
	return &ReportHandlers{
		reportService: reportService,
		exportService: exportService,
		logger:        logger,
	}
}

// GetReport handles GET /invoices-report/:kind?from=yyyy-MM-dd&to=yyyy-MM-dd
//
//	@Summary	Report rows filtered by creation date
//	@Tags		reports
//	@Produce	json
//	@Param		kind	path		string	true	"uiaf, lineas or wms"
//	@Param		from	query		string	false	"yyyy-MM-dd"
//	@Param		to		query		string	false	"yyyy-MM-dd"
//	@Success	200		{object}	ReportResponse
//	@Router		/v1/invoices-report/{kind} [get]
func (h *ReportHandlers) GetReport(c echo.Context) error {
	rows, status, err := h.rows(c)
	if err != nil {
		return c.JSON(status, ReportResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, ReportResponse{Success: true, Data: rows})
}

// ExportReport handles GET /invoices-report/:kind/export
func (h *ReportHandlers) ExportReport(c echo.Context) error {
	rows, status, err := h.rows(c)
	if err != nil {
		return c.JSON(status, ReportResponse{Success: false, Error: err.Error()})
	}

	file, err := h.exportService.Export(c.Param("kind"), rows)
	if err != nil {
		h.logger.Error("Report export failed", zap.String("kind", c.Param("kind")), zap.Error(err))
		return c.JSON(common.StatusFor(err), ReportResponse{Success: false, Error: "Error al exportar reporte"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename*=UTF-8''`+url.PathEscape(file.Name))
	return c.Blob(http.StatusOK, xlsxContentType, file.Buffer.Bytes())
}

// rows loads the report named by the path. The returned error is safe to
// show to the client.
func (h *ReportHandlers) rows(c echo.Context) (any, int, error) {
	filter, err := services.ParseReportFilter(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	kind := c.Param("kind")
	rows, err := h.reportService.Rows(c.Request().Context(), kind, filter)
	if err != nil {
		status := common.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Report query failed", zap.String("kind", kind), zap.Error(err))
		}
		return nil, status, errorMessage(common.PublicMessage(err, "Error al consultar facturas"))
	}
	return rows, http.StatusOK, nil
}

type errorMessage string

func (e errorMessage) Error() string { return string(e) }

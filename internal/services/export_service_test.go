package services

import (
	"errors"
	"testing"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openExport(t *testing.T, file *ExportFile) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(file.Buffer)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExport_UIAF(t *testing.T) {
	invoiceDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	voucher := "RC-1"
	rows := []models.UIAFRow{{
		InvoiceNumber:      "FE-1001",
		InvoiceDate:        &invoiceDate,
		CustomerName:       "Tienda",
		InvoiceTotal:       1190,
		Status:             catalog.StatusComplete,
		RejectionCauseCode: "WC",
		CreatedAt:          invoiceDate,
		VoucherNumber:      &voucher,
	}}

	file, err := NewExportService().Export(models.ReportUIAF, rows)
	require.NoError(t, err)
	assert.Equal(t, "Resumen de Recaudos_UIAF.xlsx", file.Name)
	assert.Equal(t, "UIAF", file.Sheet)

	f := openExport(t, file)
	assert.Equal(t, []string{"UIAF"}, f.GetSheetList())

	header, err := f.GetCellValue("UIAF", "A1")
	require.NoError(t, err)
	assert.Equal(t, "# Factura", header)

	date, _ := f.GetCellValue("UIAF", "B2")
	assert.Equal(t, "01/03/2024", date)

	status, _ := f.GetCellValue("UIAF", "I2")
	assert.Equal(t, catalog.StatusLabel(catalog.StatusComplete), status)

	cause, _ := f.GetCellValue("UIAF", "J2")
	assert.Equal(t, "WC- Error en cliente", cause)

	// Valor Factura carries the accounting format.
	moneyStyle, err := f.GetCellStyle("UIAF", "F2")
	require.NoError(t, err)
	assert.NotZero(t, moneyStyle)
	plainStyle, err := f.GetCellStyle("UIAF", "A2")
	require.NoError(t, err)
	assert.Zero(t, plainStyle)

	// Open voucher amount is blank.
	amount, _ := f.GetCellValue("UIAF", "S2")
	assert.Empty(t, amount)
}

func TestExport_Lines(t *testing.T) {
	received := 4.0
	rows := []models.LineRow{{
		InvoiceNumber:          "FE-1",
		SKU:                    "SKU-9",
		ReceivedUnits:          &received,
		RejectionCauseCodeLine: "SC",
	}}

	file, err := NewExportService().Export(models.ReportLines, rows)
	require.NoError(t, err)
	assert.Equal(t, "Reporte Facturas por Líneas_Facturas_Lineas.xlsx", file.Name)

	f := openExport(t, file)
	sku, _ := f.GetCellValue("Facturas_Lineas", "F2")
	assert.Equal(t, "SKU-9", sku)
	cause, _ := f.GetCellValue("Facturas_Lineas", "W2")
	assert.Equal(t, "SC - Sin Novedad", cause)
}

func TestExport_WMSUsesUpdateDate(t *testing.T) {
	updated := time.Date(2024, 3, 9, 15, 30, 0, 0, time.UTC)
	rows := []models.WMSRow{{Invoice: "FE-5", SKU: "SKU-1", Qty: 3, UpdatedAt: updated}}

	file, err := NewExportService().Export(models.ReportWMS, rows)
	require.NoError(t, err)
	assert.Equal(t, "Reporte_WMS_WMS.xlsx", file.Name)

	f := openExport(t, file)
	cols, err := f.GetRows("WMS")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "FECHA DE VENCIMIE", cols[0][11])
	assert.Equal(t, "09/03/2024", cols[1][5])
	assert.Equal(t, "09/03/2024", cols[1][6])
}

func TestExport_EmptyRowsStillHaveHeader(t *testing.T) {
	file, err := NewExportService().Export(models.ReportLines, []models.LineRow{})
	require.NoError(t, err)

	f := openExport(t, file)
	rows, err := f.GetRows("Facturas_Lineas")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestExport_UnknownRows(t *testing.T) {
	_, err := NewExportService().Export("ventas", []string{"x"})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

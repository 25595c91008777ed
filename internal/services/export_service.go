package services

import (
	"bytes"
	"fmt"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"

	"github.com/xuri/excelize/v2"
)

// AccountingFormat is the Excel accounting number format used for money
// columns.
const AccountingFormat = `_($* #,##0_);_($* (#,##0);_($* "-"??_);_(@_)`

var moneyColumns = map[string]bool{
	"Valor Factura":     true,
	"Valor Neto":        true,
	"Precio Unitario":   true,
	"IVA":               true,
	"Descuento":         true,
	"Valor Recibido":    true,
	"Valor Devuelto":    true,
	"Valor Comprobante": true,
	"PRICE":             true,
	"TAXES":             true,
}

// Cause labels as printed on exported reports.
var causeExportLabels = map[string]string{
	"OE": "OE - No solicitado",
	"TI": "TI - Avería en transporte",
	"WC": "WC- Error en cliente",
	"DU": "DU - Duplicado",
	"RO": "RO - Cobro a transportadora",
	"FQ": "FQ - Avería calidad ",
	"CB": "CB - Sin dinero",
	"WH": "WH - Faltante",
	"CH": "CH - Fecha corta",
	"SC": "SC - Sin Novedad",
}

func causeExportLabel(code string) string {
	if label, ok := causeExportLabels[code]; ok {
		return label
	}
	return code
}

// ExportFile is a generated workbook ready to download.
type ExportFile struct {
	Name   string
	Sheet  string
	Buffer *bytes.Buffer
}

type ExportService interface {
	Export(kind string, rows any) (*ExportFile, error)
}

type exportService struct{}

func NewExportService() ExportService {
	return &exportService{}
}

type table struct {
	file    string
	sheet   string
	columns []string
	rows    [][]any
}

func (s *exportService) Export(kind string, rows any) (*ExportFile, error) {
	var t table
	switch r := rows.(type) {
	case []models.UIAFRow:
		t = uiafTable(r)
	case []models.LineRow:
		t = linesTable(r)
	case []models.WMSRow:
		t = wmsTable(r)
	default:
		return nil, common.NotFound("Reporte '%s' no existe", kind)
	}

	buf, err := t.write()
	if err != nil {
		return nil, fmt.Errorf("build %s export: %w", kind, err)
	}
	return &ExportFile{Name: t.file + "_" + t.sheet + ".xlsx", Sheet: t.sheet, Buffer: buf}, nil
}

func (t table) write() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(AccountingFormat)})
	if err != nil {
		return nil, err
	}

	header := make([]any, len(t.columns))
	for i, c := range t.columns {
		header[i] = c
	}
	if err := f.SetSheetRow(t.sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i := range t.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(t.sheet, cell, &t.rows[i]); err != nil {
			return nil, err
		}
	}

	if len(t.rows) > 0 {
		for i, c := range t.columns {
			if !moneyColumns[c] {
				continue
			}
			top, _ := excelize.CoordinatesToCellName(i+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(i+1, len(t.rows)+1)
			if err := f.SetCellStyle(t.sheet, top, bottom, money); err != nil {
				return nil, err
			}
		}
	}
	return f.WriteToBuffer()
}

func uiafTable(rows []models.UIAFRow) table {
	t := table{
		file:  "Resumen de Recaudos",
		sheet: "UIAF",
		columns: []string{
			"# Factura", "Fecha", "Cliente", "NIT", "Ciudad", "Valor Factura", "Valor Neto",
			"Método de Pago", "Estado", "Código Causa Rechazo", "Creada", "Peso",
			"Unidades Despachadas", "Unidades con Novedad", "Unidades Recibidas", "Valor Recibido",
			"Valor Devuelto", "Número Comprobante", "Valor Comprobante",
		},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{
			r.InvoiceNumber, common.FormatDisplayDate(r.InvoiceDate), r.CustomerName, r.CustomerTaxID,
			r.CustomerCity, r.InvoiceTotal, r.AmountDue, r.PaymentMethod, catalog.StatusLabel(r.Status),
			causeExportLabel(r.RejectionCauseCode), common.FormatDisplayDate(&r.CreatedAt), r.TotalWeight,
			r.TotalDispatchedUnits, r.TotalNoveltyUnits, r.TotalReceivedUnits, r.TotalReceivedValue,
			r.TotalReturnedValue, common.SafeString(r.VoucherNumber), optionalNumber(r.VoucherAmount),
		})
	}
	return t
}

func linesTable(rows []models.LineRow) table {
	t := table{
		file:  "Reporte Facturas por Líneas",
		sheet: "Facturas_Lineas",
		columns: []string{
			"# Factura", "Fecha", "Cliente", "NIT", "Ciudad", "Material / SKU", "Producto", "U.Medida",
			"Cantidad", "Precio Unitario", "IVA", "Descuento", "Valor Neto", "Unidades Recibidas",
			"Novedad", "Valor Recibido", "Valor Devuelto", "Número Comprobante", "Valor Comprobante",
			"Método de Pago", "Estado", "Causa Rechazo Factura", "Causa Rechazo Líneas", "Creada",
		},
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{
			r.InvoiceNumber, common.FormatDisplayDate(r.InvoiceDate), r.CustomerName, r.CustomerTaxID,
			r.CustomerCity, r.SKU, r.ProductName, r.UnitOfMeasure, r.Quantity, r.UnitPrice,
			r.VATTaxAmount, r.UnitDiscountAmount, r.NetAmount, common.SafeFloat64(r.ReceivedUnits),
			r.Novelty, r.ReceivedValue, r.ReturnedValue, common.SafeString(r.VoucherNumber),
			optionalNumber(r.VoucherAmount), r.PaymentMethod, catalog.StatusLabel(r.Status),
			causeExportLabel(r.RejectionCauseCode), causeExportLabel(r.RejectionCauseCodeLine),
			common.FormatDisplayDate(&r.CreatedAt),
		})
	}
	return t
}

// wmsTable follows the warehouse inbound layout. Order and service dates
// are both the last update of the invoice.
func wmsTable(rows []models.WMSRow) table {
	t := table{
		file:  "Reporte_WMS",
		sheet: "WMS",
		columns: []string{
			"N_ORDER", "ORDER2", "PURCHASE_ORDER", "INVOICE", "PROVIDER_UID", "ORDER_DATE",
			"SERVICE_DATE", "INBOUNDTYPE_CODE", "NOTE", "SKU", "LOTE", "FECHA DE VENCIMIE",
			"FECHA DE FABRICA", "SERIAL", "ESTADO_CALIDAD", "QTY", "UOM_CODE", "REFERENCE", "PRICE",
			"TAXES", "IBL_LPN_CODE", "IBL_WEIGHT",
		},
	}
	for _, r := range rows {
		updated := common.FormatDisplayDate(&r.UpdatedAt)
		t.rows = append(t.rows, []any{
			r.NOrder, r.Order2, r.PurchaseOrder, r.Invoice, r.ProviderUID, updated, updated,
			r.InboundTypeCode, r.Note, r.SKU, r.Lote, r.FechaVencimiento, r.FechaFabricacion, r.Serial,
			r.EstadoCalidad, r.Qty, r.UOMCode, r.Reference, r.Price, r.Taxes, r.IBLLPNCode, r.IBLWeight,
		})
	}
	return t
}

func optionalNumber(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func strPtr(s string) *string { return &s }

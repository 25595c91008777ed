package models

import "time"

// Report kinds served under /invoices-report.
const (
	ReportUIAF  = "uiaf"
	ReportLines = "lineas"
	ReportWMS   = "wms"
)

// ReportKinds lists the supported report kinds in menu order.
var ReportKinds = []string{ReportUIAF, ReportLines, ReportWMS}

// ReportFilter bounds reports by invoice creation date. To covers the whole
// day it names.
type ReportFilter struct {
	From *time.Time
	To   *time.Time
}

// UIAFRow is one invoice of the collection summary report, with its lines
// aggregated.
type UIAFRow struct {
	InvoiceNumber        string     `json:"invoice_number"`
	InvoiceDate          *time.Time `json:"invoice_date"`
	CustomerName         string     `json:"customer_name"`
	CustomerTaxID        string     `json:"customer_tax_id"`
	CustomerCity         string     `json:"customer_city"`
	InvoiceTotal         float64    `json:"invoice_total"`
	AmountDue            float64    `json:"amount_due"`
	PaymentMethod        string     `json:"payment_method"`
	Status               string     `json:"status"`
	RejectionCauseCode   string     `json:"rejection_cause_code"`
	CreatedAt            time.Time  `json:"created_at"`
	VoucherNumber        *string    `json:"voucher_number"`
	VoucherAmount        *float64   `json:"voucher_amount"`
	TotalWeight          float64    `json:"total_weight"`
	TotalDispatchedUnits float64    `json:"total_units_despachadas"`
	TotalNoveltyUnits    float64    `json:"total_units_con_novedad"`
	TotalReceivedUnits   float64    `json:"total_units_recibidas"`
	TotalReceivedValue   float64    `json:"total_valor_recibido"`
	TotalReturnedValue   float64    `json:"total_valor_devuelto"`
}

// LineRow is one detail line joined with its invoice.
type LineRow struct {
	InvoiceNumber          string     `json:"invoice_number"`
	InvoiceDate            *time.Time `json:"invoice_date"`
	CustomerName           string     `json:"customer_name"`
	CustomerTaxID          string     `json:"customer_tax_id"`
	CustomerCity           string     `json:"customer_city"`
	InvoiceTotal           float64    `json:"invoice_total"`
	AmountDue              float64    `json:"amount_due"`
	PaymentMethod          string     `json:"payment_method"`
	Status                 string     `json:"status"`
	RejectionCauseCode     string     `json:"rejection_cause_code"`
	CreatedAt              time.Time  `json:"created_at"`
	VoucherNumber          *string    `json:"voucher_number"`
	VoucherAmount          *float64   `json:"voucher_amount"`
	SKU                    string     `json:"sku"`
	ProductName            string     `json:"product_name"`
	UnitOfMeasure          string     `json:"unit_of_measure"`
	Quantity               float64    `json:"quantity"`
	UnitPrice              float64    `json:"unit_price"`
	VATTaxAmount           float64    `json:"vat_tax_amount"`
	UnitDiscountAmount     float64    `json:"unit_discount_amount"`
	NetAmount              float64    `json:"net_amount"`
	ReceivedUnits          *float64   `json:"received_units"`
	Novelty                float64    `json:"novelty"`
	ReceivedValue          float64    `json:"received_value"`
	ReturnedValue          float64    `json:"returned_value"`
	RejectionCauseCodeLine string     `json:"rejection_cause_code_line"`
}

// WMSRow is one line with novelty, shaped as the warehouse inbound feed.
type WMSRow struct {
	NOrder           string     `json:"N_ORDER"`
	Order2           string     `json:"ORDER2"`
	PurchaseOrder    string     `json:"PURCHASE_ORDER"`
	Invoice          string     `json:"INVOICE"`
	ProviderUID      string     `json:"PROVIDER_UID"`
	OrderDate        *time.Time `json:"ORDER_DATE"`
	ServiceDate      *time.Time `json:"SERVICE_DATE"`
	CreatedAt        time.Time  `json:"CREATED_AT"`
	UpdatedAt        time.Time  `json:"UPDATED_AT"`
	InboundTypeCode  string     `json:"INBOUNDTYPE_CODE"`
	Note             string     `json:"NOTE"`
	SKU              string     `json:"SKU"`
	Lote             string     `json:"LOTE"`
	Serial           string     `json:"SERIAL"`
	FechaVencimiento string     `json:"FECHA_VENCIMIENTO"`
	FechaFabricacion string     `json:"FECHA_FABRICACION"`
	EstadoCalidad    string     `json:"ESTADO_CALIDAD"`
	Qty              int64      `json:"QTY"`
	UOMCode          string     `json:"UOM_CODE"`
	Reference        string     `json:"REFERENCE"`
	Price            float64    `json:"PRICE"`
	Taxes            float64    `json:"TAXES"`
	IBLLPNCode       string     `json:"IBL_LPN_CODE"`
	IBLWeight        float64    `json:"IBL_WEIGHT"`
}

// WMS feed constants.
const (
	WMSInboundTypeCode = "657"
	WMSQualityStatus   = "Q"
)

// ReportResponse is the JSON envelope of the report endpoints.
type ReportResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

package models

import (
	"time"

	"legalizador/internal/reconciliation"
)

// Invoice is the header of a dispatch awaiting legalization.
type Invoice struct {
	ID                  int64      `json:"id" db:"id"`
	InvoiceNumber       string     `json:"invoice_number" db:"invoice_number"`
	DeliveryNumber      string     `json:"delivery_number" db:"delivery_number"`
	InternalOrderNumber string     `json:"internal_order_number" db:"internal_order_number"`
	PurchaseOrderNumber string     `json:"purchase_order_number" db:"purchase_order_number"`
	InvoiceDate         *time.Time `json:"invoice_date" db:"invoice_date"`
	InvoiceDueDate      *time.Time `json:"invoice_due_date" db:"invoice_due_date"`
	CustomerCode        string     `json:"customer_code" db:"customer_code"`
	CustomerTaxID       string     `json:"customer_tax_id" db:"customer_tax_id"`
	CustomerName        string     `json:"customer_name" db:"customer_name"`
	CustomerPhone       string     `json:"customer_phone" db:"customer_phone"`
	CustomerAddress     string     `json:"customer_address" db:"customer_address"`
	CustomerCity        string     `json:"customer_city" db:"customer_city"`
	CustomerState       string     `json:"customer_state" db:"customer_state"`
	ZipCode             string     `json:"zip_code" db:"zip_code"`
	InvoiceTotal        float64    `json:"invoice_total" db:"invoice_total"`
	VATTaxAmount        float64    `json:"vat_tax_amount" db:"vat_tax_amount"`
	TotalDiscount       float64    `json:"total_discount" db:"total_discount"`
	AmountDue           float64    `json:"amount_due" db:"amount_due"`
	PaymentMethod       string     `json:"payment_method" db:"payment_method"`
	Status              string     `json:"status" db:"status"`
	RejectionCauseCode  string     `json:"rejection_cause_code" db:"rejection_cause_code"`
	InvoiceFileURL      *string    `json:"invoice_file_url" db:"invoice_file_url"`
	VoucherFileURL      *string    `json:"voucher_file_url" db:"voucher_file_url"`
	VoucherNumber       *string    `json:"voucher_number" db:"voucher_number"`
	VoucherAmount       *float64   `json:"voucher_amount" db:"voucher_amount"`
	VoucherDate         *time.Time `json:"voucher_date" db:"voucher_date"`
	Notes               string     `json:"notes" db:"notes"`
	TotalLines          int        `json:"total_lines" db:"total_lines"`
	TotalUnits          float64    `json:"total_units" db:"total_units"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`

	Details []InvoiceDetail `json:"details" db:"-"`
}

// InvoiceDetail is one dispatched line of an invoice.
type InvoiceDetail struct {
	ID                     int64    `json:"id" db:"id"`
	InvoiceID              int64    `json:"invoice_id" db:"invoice_id"`
	SKU                    string   `json:"sku" db:"sku"`
	ProductName            string   `json:"product_name" db:"product_name"`
	UnitOfMeasure          string   `json:"unit_of_measure" db:"unit_of_measure"`
	Quantity               float64  `json:"quantity" db:"quantity"`
	BatchNumber            string   `json:"batch_number" db:"batch_number"`
	SerialNumber           string   `json:"serial_number" db:"serial_number"`
	UnitPrice              float64  `json:"unit_price" db:"unit_price"`
	VATTaxAmount           float64  `json:"vat_tax_amount" db:"vat_tax_amount"`
	UnitDiscountAmount     float64  `json:"unit_discount_amount" db:"unit_discount_amount"`
	NetAmount              float64  `json:"net_amount" db:"net_amount"`
	Weight                 float64  `json:"weight" db:"weight"`
	Length                 float64  `json:"length" db:"length"`
	Height                 float64  `json:"height" db:"height"`
	Width                  float64  `json:"width" db:"width"`
	ReceivedUnits          *float64 `json:"received_units" db:"received_units"`
	Novelty                float64  `json:"novelty" db:"novelty"`
	ReceivedValue          float64  `json:"received_value" db:"received_value"`
	ReturnedValue          float64  `json:"returned_value" db:"returned_value"`
	RejectionCauseCodeLine string   `json:"rejection_cause_code_line" db:"rejection_cause_code_line"`
}

// Line returns the stored values reconciliation reads.
func (d *InvoiceDetail) Line() reconciliation.Line {
	return reconciliation.Line{
		Quantity:           d.Quantity,
		UnitPrice:          d.UnitPrice,
		VATTaxAmount:       d.VATTaxAmount,
		UnitDiscountAmount: d.UnitDiscountAmount,
		NetAmount:          d.NetAmount,
		ReceivedUnits:      d.ReceivedUnits,
	}
}

// Result returns the current derived state of the detail. Lines that were
// never legalized report their full quantity as received.
func (d *InvoiceDetail) Result() reconciliation.Result {
	return reconciliation.ReconcileLine(d.Line(), reconciliation.Input{})
}

// Results reconciles every detail of the invoice with its stored values.
func (inv *Invoice) Results() []reconciliation.Result {
	out := make([]reconciliation.Result, 0, len(inv.Details))
	for i := range inv.Details {
		out = append(out, inv.Details[i].Result())
	}
	return out
}

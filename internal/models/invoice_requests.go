package models

import (
	"strings"

	"legalizador/internal/catalog"
	"legalizador/internal/reconciliation"
)

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	InvoiceNumber       string                `json:"invoiceNumber" validate:"required"`
	DeliveryNumber      string                `json:"deliveryNumber"`
	InternalOrderNumber string                `json:"internalOrderNumber"`
	PurchaseOrderNumber string                `json:"purchaseOrderNumber"`
	InvoiceDate         *Date                 `json:"invoiceDate"`
	InvoiceDueDate      *Date                 `json:"invoiceDueDate"`
	CustomerCode        string                `json:"customerCode"`
	CustomerTaxID       string                `json:"customerTaxId"`
	CustomerName        string                `json:"customerName"`
	CustomerPhone       string                `json:"customerPhone"`
	CustomerAddress     string                `json:"customerAddress"`
	CustomerCity        string                `json:"customerCity"`
	CustomerState       string                `json:"customerState"`
	ZipCode             string                `json:"zipCode"`
	InvoiceTotal        Amount                `json:"invoiceTotal"`
	VATTaxAmount        Amount                `json:"vatTaxAmount"`
	TotalDiscount       Amount                `json:"totalDiscount"`
	AmountDue           Amount                `json:"amountDue"`
	PaymentMethod       string                `json:"paymentMethod"`
	Status              string                `json:"status"`
	RejectionCauseCode  *string               `json:"rejection_cause_code"`
	InvoiceFileURL      *string               `json:"invoiceFileUrl"`
	VoucherFileURL      *string               `json:"voucherFileUrl"`
	VoucherNumber       *string               `json:"voucherNumber"`
	VoucherAmount       *Amount               `json:"voucherAmount"`
	VoucherDate         *Date                 `json:"voucherDate"`
	Notes               string                `json:"notes"`
	TotalLines          Amount                `json:"totalLines"`
	TotalUnits          Amount                `json:"totalUnits"`
	Details             []CreateDetailRequest `json:"details"`
}

// CreateDetailRequest is one line of CreateInvoiceRequest.
type CreateDetailRequest struct {
	SKU                    string  `json:"sku"`
	ProductName            string  `json:"productName"`
	UnitOfMeasure          string  `json:"unitOfMeasure"`
	Quantity               Amount  `json:"quantity"`
	BatchNumber            string  `json:"batchNumber"`
	SerialNumber           string  `json:"serialNumber"`
	UnitPrice              Amount  `json:"unitPrice"`
	VATTaxAmount           Amount  `json:"vatTaxAmount"`
	UnitDiscountAmount     Amount  `json:"unitDiscountAmount"`
	NetAmount              Amount  `json:"netAmount"`
	Weight                 Amount  `json:"weight"`
	Length                 Amount  `json:"length"`
	Height                 Amount  `json:"height"`
	Width                  Amount  `json:"width"`
	RejectionCauseCodeLine *string `json:"rejection_cause_code_line"`
}

// ToInvoice builds the invoice to persist. The status must already be
// canonical.
func (r *CreateInvoiceRequest) ToInvoice() *Invoice {
	inv := &Invoice{
		InvoiceNumber:       strings.TrimSpace(r.InvoiceNumber),
		DeliveryNumber:      r.DeliveryNumber,
		InternalOrderNumber: r.InternalOrderNumber,
		PurchaseOrderNumber: r.PurchaseOrderNumber,
		InvoiceDate:         r.InvoiceDate.Ptr(),
		InvoiceDueDate:      r.InvoiceDueDate.Ptr(),
		CustomerCode:        r.CustomerCode,
		CustomerTaxID:       r.CustomerTaxID,
		CustomerName:        r.CustomerName,
		CustomerPhone:       r.CustomerPhone,
		CustomerAddress:     r.CustomerAddress,
		CustomerCity:        r.CustomerCity,
		CustomerState:       r.CustomerState,
		ZipCode:             r.ZipCode,
		InvoiceTotal:        float64(r.InvoiceTotal),
		VATTaxAmount:        float64(r.VATTaxAmount),
		TotalDiscount:       float64(r.TotalDiscount),
		AmountDue:           float64(r.AmountDue),
		PaymentMethod:       r.PaymentMethod,
		Status:              r.Status,
		InvoiceFileURL:      r.InvoiceFileURL,
		VoucherFileURL:      r.VoucherFileURL,
		VoucherNumber:       r.VoucherNumber,
		VoucherAmount:       r.VoucherAmount.Float(),
		VoucherDate:         r.VoucherDate.Ptr(),
		Notes:               r.Notes,
		TotalLines:          int(r.TotalLines),
		TotalUnits:          float64(r.TotalUnits),
	}
	if r.RejectionCauseCode != nil {
		inv.RejectionCauseCode = *r.RejectionCauseCode
	}
	for _, d := range r.Details {
		cause := catalog.DefaultLineCause
		if d.RejectionCauseCodeLine != nil {
			cause = catalog.LineCauseOrDefault(*d.RejectionCauseCodeLine)
		}
		inv.Details = append(inv.Details, InvoiceDetail{
			SKU:                    d.SKU,
			ProductName:            d.ProductName,
			UnitOfMeasure:          d.UnitOfMeasure,
			Quantity:               float64(d.Quantity),
			BatchNumber:            d.BatchNumber,
			SerialNumber:           d.SerialNumber,
			UnitPrice:              float64(d.UnitPrice),
			VATTaxAmount:           float64(d.VATTaxAmount),
			UnitDiscountAmount:     float64(d.UnitDiscountAmount),
			NetAmount:              float64(d.NetAmount),
			Weight:                 float64(d.Weight),
			Length:                 float64(d.Length),
			Height:                 float64(d.Height),
			Width:                  float64(d.Width),
			RejectionCauseCodeLine: cause,
		})
	}
	return inv
}

// InvoicePatchRequest is the body of PATCH /invoices. When DetailID is set
// and the rejection_cause_code_line key is present it is a line cause
// update; otherwise it is a legalization of invoice ID.
type InvoicePatchRequest struct {
	DetailID               *ID            `json:"detail_id"`
	RejectionCauseCodeLine OptionalString `json:"rejection_cause_code_line"`

	ID                 ID            `json:"id"`
	InvoiceFileURL     *string       `json:"invoiceFileUrl"`
	VoucherFileURL     *string       `json:"voucherFileUrl"`
	VoucherNumber      *string       `json:"voucherNumber"`
	VoucherAmount      *Amount       `json:"voucherAmount"`
	VoucherDate        *Date         `json:"voucherDate"`
	Status             *string       `json:"status"`
	RejectionCauseCode *string       `json:"rejection_cause_code"`
	Details            []DetailPatch `json:"details"`
}

// IsLineCauseUpdate reports whether the request targets a single line cause.
func (r *InvoicePatchRequest) IsLineCauseUpdate() bool {
	return r.DetailID != nil && *r.DetailID != 0 && r.RejectionCauseCodeLine.Set
}

// DetailPatch carries the submitted values for one line. Nil fields keep the
// stored value.
type DetailPatch struct {
	ID                     ID      `json:"id"`
	ReceivedUnits          *Amount `json:"receivedUnits"`
	Quantity               *Amount `json:"quantity"`
	UnitPrice              *Amount `json:"unitPrice"`
	VATTaxAmount           *Amount `json:"vatTaxAmount"`
	UnitDiscountAmount     *Amount `json:"unitDiscountAmount"`
	NetAmount              *Amount `json:"netAmount"`
	RejectionCauseCodeLine *string `json:"rejection_cause_code_line"`
}

// Input converts the patch into reconciliation input.
func (p *DetailPatch) Input() reconciliation.Input {
	return reconciliation.Input{
		ReceivedUnits:      p.ReceivedUnits.Float(),
		Quantity:           p.Quantity.Float(),
		UnitPrice:          p.UnitPrice.Float(),
		VATTaxAmount:       p.VATTaxAmount.Float(),
		UnitDiscountAmount: p.UnitDiscountAmount.Float(),
		NetAmount:          p.NetAmount.Float(),
	}
}

// HeaderPatch holds the header fields a legalization may change. Nil leaves
// the stored value untouched.
type HeaderPatch struct {
	InvoiceFileURL     *string
	VoucherFileURL     *string
	VoucherNumber      *string
	VoucherAmount      *float64
	VoucherDate        *Date
	Status             *string
	RejectionCauseCode *string
}

// Legalization is a validated legalization request.
type Legalization struct {
	InvoiceID int64
	Header    HeaderPatch
	Details   []DetailPatch
}

// Header extracts the header patch from the request.
func (r *InvoicePatchRequest) Header() HeaderPatch {
	return HeaderPatch{
		InvoiceFileURL:     r.InvoiceFileURL,
		VoucherFileURL:     r.VoucherFileURL,
		VoucherNumber:      r.VoucherNumber,
		VoucherAmount:      r.VoucherAmount.Float(),
		VoucherDate:        r.VoucherDate,
		Status:             r.Status,
		RejectionCauseCode: r.RejectionCauseCode,
	}
}

// LegalizationResult is returned after a successful legalization.
type LegalizationResult struct {
	Message        string  `json:"message"`
	Success        bool    `json:"success"`
	VoucherDate    *string `json:"voucherDate"`
	VoucherDateRaw *string `json:"voucherDateRaw"`
}

// PreviewRequest asks the engine to reconcile lines without writing.
type PreviewRequest struct {
	InvoiceID     ID            `json:"id"`
	VoucherAmount *Amount       `json:"voucherAmount"`
	Details       []DetailPatch `json:"details"`
}

// PreviewLine is one reconciled line of a preview.
type PreviewLine struct {
	ID ID `json:"id"`
	reconciliation.Result
	Clamped bool `json:"clamped"`
}

// PreviewResult is the response of the preview endpoint.
type PreviewResult struct {
	Lines   []PreviewLine                `json:"lines"`
	Totals  reconciliation.Totals        `json:"totals"`
	Voucher *reconciliation.VoucherCheck `json:"voucher,omitempty"`
}

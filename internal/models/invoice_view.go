package models

import (
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/reconciliation"
)

// InvoiceView is the API representation of an invoice.
type InvoiceView struct {
	ID                        ID                     `json:"id"`
	InvoiceNumber             string                 `json:"invoiceNumber"`
	DeliveryNumber            string                 `json:"deliveryNumber"`
	InternalOrderNumber       string                 `json:"internalOrderNumber"`
	PurchaseOrderNumber       string                 `json:"purchaseOrderNumber"`
	InvoiceDateRaw            *string                `json:"invoiceDateRaw"`
	InvoiceDueDateRaw         *string                `json:"invoiceDueDateRaw"`
	InvoiceDate               string                 `json:"invoiceDate"`
	InvoiceDueDate            string                 `json:"invoiceDueDate"`
	CustomerCode              string                 `json:"customerCode"`
	CustomerName              string                 `json:"customerName"`
	CustomerTaxID             string                 `json:"customerTaxId"`
	CustomerCity              string                 `json:"customerCity"`
	InvoiceTotal              float64                `json:"invoiceTotal"`
	AmountDue                 float64                `json:"amountDue"`
	PaymentMethod             string                 `json:"paymentMethod"`
	Status                    string                 `json:"status"`
	DisplayStatus             catalog.DisplayStatus  `json:"displayStatus"`
	CreatedAt                 time.Time              `json:"createdAt"`
	TotalUnits                float64                `json:"totalUnits"`
	InvoiceFileURL            *string                `json:"invoiceFileUrl"`
	VoucherFileURL            *string                `json:"voucherFileUrl"`
	VoucherNumber             *string                `json:"voucherNumber"`
	VoucherAmount             *float64               `json:"voucherAmount"`
	VoucherDate               *string                `json:"voucherDate"`
	Notes                     string                 `json:"notes"`
	RejectionCauseCode        string                 `json:"rejection_cause_code"`
	RejectionCauseDescription string                 `json:"rejectionCauseDescription,omitempty"`
	Totals                    *reconciliation.Totals `json:"totals,omitempty"`
	Details                   []DetailView           `json:"details"`
}

// DetailView is the API representation of a detail line.
type DetailView struct {
	ID                     ID       `json:"id"`
	SKU                    string   `json:"sku"`
	ProductName            string   `json:"productName"`
	UnitOfMeasure          string   `json:"unitOfMeasure"`
	Quantity               float64  `json:"quantity"`
	BatchNumber            string   `json:"batchNumber"`
	SerialNumber           string   `json:"serialNumber"`
	UnitPrice              float64  `json:"unitPrice"`
	VATTaxAmount           float64  `json:"vatTaxAmount"`
	UnitDiscountAmount     float64  `json:"unitDiscountAmount"`
	NetAmount              float64  `json:"netAmount"`
	ReceivedUnits          *float64 `json:"receivedUnits"`
	Novelty                float64  `json:"novelty"`
	ReceivedValue          float64  `json:"receivedValue"`
	ReturnedValue          float64  `json:"returnedValue"`
	RejectionCauseCodeLine string   `json:"rejection_cause_code_line"`
}

// ListView renders an invoice for the list endpoint: dd/MM/yyyy dates and the
// Spanish status label.
func ListView(inv *Invoice, now time.Time) InvoiceView {
	v := baseView(inv, now)
	v.Status = catalog.StatusLabel(inv.Status)
	v.InvoiceDate = common.FormatDisplayDate(inv.InvoiceDate)
	v.InvoiceDueDate = common.FormatDisplayDate(inv.InvoiceDueDate)
	v.VoucherDate = common.OptionalDisplayDate(inv.VoucherDate)
	return v
}

// DetailedView renders a single invoice: yyyy-MM-dd dates, the stored status
// and the rollup totals.
func DetailedView(inv *Invoice, now time.Time) InvoiceView {
	v := baseView(inv, now)
	v.Status = inv.Status
	v.InvoiceDate = common.FormatISODate(inv.InvoiceDate)
	v.InvoiceDueDate = common.FormatISODate(inv.InvoiceDueDate)
	v.VoucherDate = common.OptionalISODate(inv.VoucherDate)
	totals := reconciliation.Rollup(inv.Results())
	v.Totals = &totals
	return v
}

func baseView(inv *Invoice, now time.Time) InvoiceView {
	v := InvoiceView{
		ID:                  ID(inv.ID),
		InvoiceNumber:       inv.InvoiceNumber,
		DeliveryNumber:      inv.DeliveryNumber,
		InternalOrderNumber: inv.InternalOrderNumber,
		PurchaseOrderNumber: inv.PurchaseOrderNumber,
		InvoiceDateRaw:      common.OptionalISODate(inv.InvoiceDate),
		InvoiceDueDateRaw:   common.OptionalISODate(inv.InvoiceDueDate),
		CustomerCode:        inv.CustomerCode,
		CustomerName:        inv.CustomerName,
		CustomerTaxID:       inv.CustomerTaxID,
		CustomerCity:        inv.CustomerCity,
		InvoiceTotal:        reconciliation.Finite(inv.InvoiceTotal),
		AmountDue:           reconciliation.Finite(inv.AmountDue),
		PaymentMethod:       inv.PaymentMethod,
		DisplayStatus:       catalog.DeriveDisplayStatus(inv.Status, inv.InvoiceDate, now),
		CreatedAt:           inv.CreatedAt,
		TotalUnits:          inv.TotalUnits,
		InvoiceFileURL:      inv.InvoiceFileURL,
		VoucherFileURL:      inv.VoucherFileURL,
		VoucherNumber:       inv.VoucherNumber,
		VoucherAmount:       inv.VoucherAmount,
		Notes:               inv.Notes,
		RejectionCauseCode:  inv.RejectionCauseCode,
		Details:             make([]DetailView, 0, len(inv.Details)),
	}
	if inv.RejectionCauseCode != "" {
		v.RejectionCauseDescription = catalog.CauseDescription(inv.RejectionCauseCode)
	}
	for i := range inv.Details {
		d := &inv.Details[i]
		v.Details = append(v.Details, DetailView{
			ID:                     ID(d.ID),
			SKU:                    d.SKU,
			ProductName:            d.ProductName,
			UnitOfMeasure:          d.UnitOfMeasure,
			Quantity:               d.Quantity,
			BatchNumber:            d.BatchNumber,
			SerialNumber:           d.SerialNumber,
			UnitPrice:              reconciliation.Finite(d.UnitPrice),
			VATTaxAmount:           reconciliation.Finite(d.VATTaxAmount),
			UnitDiscountAmount:     reconciliation.Finite(d.UnitDiscountAmount),
			NetAmount:              reconciliation.Finite(d.NetAmount),
			ReceivedUnits:          d.ReceivedUnits,
			Novelty:                d.Novelty,
			ReceivedValue:          reconciliation.Finite(d.ReceivedValue),
			ReturnedValue:          reconciliation.Finite(d.ReturnedValue),
			RejectionCauseCodeLine: catalog.LineCauseOrDefault(d.RejectionCauseCodeLine),
		})
	}
	return v
}

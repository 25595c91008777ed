package repositories

import (
	"context"

	"legalizador/internal/models"
)

type ReportRepository interface {
	UIAF(ctx context.Context, filter models.ReportFilter) ([]models.UIAFRow, error)
	Lines(ctx context.Context, filter models.ReportFilter) ([]models.LineRow, error)
	WMS(ctx context.Context, filter models.ReportFilter) ([]models.WMSRow, error)
}

type reportRepo struct {
	db DBTX
}

func NewReportRepo(db DBTX) ReportRepository {
	return &reportRepo{db: db}
}

// UIAF aggregates every invoice in range with its lines. Invoices without
// lines report zero totals.
func (r *reportRepo) UIAF(ctx context.Context, filter models.ReportFilter) ([]models.UIAFRow, error) {
	where, args := createdAtRange("i", filter.From, filter.To)
	query := `
		SELECT i.invoice_number, i.invoice_date, i.customer_name, i.customer_tax_id, i.customer_city,
			i.invoice_total, i.amount_due, i.payment_method, i.status, i.rejection_cause_code,
			i.created_at, i.voucher_number, i.voucher_amount,
			COALESCE(SUM(d.weight), 0),
			COALESCE(SUM(d.quantity), 0),
			COALESCE(SUM(d.novelty), 0),
			COALESCE(SUM(d.received_units), 0),
			COALESCE(SUM(d.received_value), 0),
			COALESCE(SUM(d.returned_value), 0)
		FROM invoices i
		LEFT JOIN invoice_details d ON d.invoice_id = i.id
	`
	if where != "" {
		query += " WHERE " + where
	}
	query += " GROUP BY i.id ORDER BY i.created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.UIAFRow{}
	for rows.Next() {
		var row models.UIAFRow
		if err := rows.Scan(&row.InvoiceNumber, &row.InvoiceDate, &row.CustomerName, &row.CustomerTaxID,
			&row.CustomerCity, &row.InvoiceTotal, &row.AmountDue, &row.PaymentMethod, &row.Status,
			&row.RejectionCauseCode, &row.CreatedAt, &row.VoucherNumber, &row.VoucherAmount,
			&row.TotalWeight, &row.TotalDispatchedUnits, &row.TotalNoveltyUnits, &row.TotalReceivedUnits,
			&row.TotalReceivedValue, &row.TotalReturnedValue); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Lines returns one row per detail joined with its invoice.
func (r *reportRepo) Lines(ctx context.Context, filter models.ReportFilter) ([]models.LineRow, error) {
	where, args := createdAtRange("i", filter.From, filter.To)
	query := `
		SELECT i.invoice_number, i.invoice_date, i.customer_name, i.customer_tax_id, i.customer_city,
			i.invoice_total, i.amount_due, i.payment_method, i.status, i.rejection_cause_code,
			i.created_at, i.voucher_number, i.voucher_amount,
			d.sku, d.product_name, d.unit_of_measure, d.quantity, d.unit_price, d.vat_tax_amount,
			d.unit_discount_amount, d.net_amount, d.received_units, d.novelty, d.received_value,
			d.returned_value, d.rejection_cause_code_line
		FROM invoices i
		INNER JOIN invoice_details d ON d.invoice_id = i.id
	`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY i.created_at ASC, d.id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LineRow{}
	for rows.Next() {
		var row models.LineRow
		if err := rows.Scan(&row.InvoiceNumber, &row.InvoiceDate, &row.CustomerName, &row.CustomerTaxID,
			&row.CustomerCity, &row.InvoiceTotal, &row.AmountDue, &row.PaymentMethod, &row.Status,
			&row.RejectionCauseCode, &row.CreatedAt, &row.VoucherNumber, &row.VoucherAmount,
			&row.SKU, &row.ProductName, &row.UnitOfMeasure, &row.Quantity, &row.UnitPrice,
			&row.VATTaxAmount, &row.UnitDiscountAmount, &row.NetAmount, &row.ReceivedUnits,
			&row.Novelty, &row.ReceivedValue, &row.ReturnedValue, &row.RejectionCauseCodeLine); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// WMS returns the lines with at least one whole unit of novelty as warehouse
// inbound rows.
func (r *reportRepo) WMS(ctx context.Context, filter models.ReportFilter) ([]models.WMSRow, error) {
	where, args := createdAtRange("i", filter.From, filter.To)
	query := `
		SELECT i.delivery_number, i.internal_order_number, i.purchase_order_number, i.invoice_number,
			i.customer_tax_id, i.invoice_date, i.invoice_due_date, i.created_at, i.updated_at, i.notes,
			d.sku, d.batch_number, d.serial_number, FLOOR(d.novelty)::BIGINT, d.unit_of_measure,
			d.unit_price, d.vat_tax_amount, d.weight
		FROM invoices i
		INNER JOIN invoice_details d ON d.invoice_id = i.id
		WHERE FLOOR(d.novelty) > 0
	`
	if where != "" {
		query += " AND " + where
	}
	query += " ORDER BY i.created_at ASC, d.id ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.WMSRow{}
	for rows.Next() {
		row := models.WMSRow{
			InboundTypeCode: models.WMSInboundTypeCode,
			EstadoCalidad:   models.WMSQualityStatus,
		}
		if err := rows.Scan(&row.NOrder, &row.Order2, &row.PurchaseOrder, &row.Invoice, &row.ProviderUID,
			&row.OrderDate, &row.ServiceDate, &row.CreatedAt, &row.UpdatedAt, &row.Note, &row.SKU,
			&row.Lote, &row.Serial, &row.Qty, &row.UOMCode, &row.Price, &row.Taxes, &row.IBLWeight); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

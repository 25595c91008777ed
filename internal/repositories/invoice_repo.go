package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legalizador/internal/catalog"
	"legalizador/internal/common"
	"legalizador/internal/models"
	"legalizador/internal/reconciliation"

	"github.com/jackc/pgx/v5"
)

const invoiceColumns = `id, invoice_number, delivery_number, internal_order_number, purchase_order_number,
		invoice_date, invoice_due_date, customer_code, customer_tax_id, customer_name, customer_phone,
		customer_address, customer_city, customer_state, zip_code, invoice_total, vat_tax_amount,
		total_discount, amount_due, payment_method, status, rejection_cause_code, invoice_file_url,
		voucher_file_url, voucher_number, voucher_amount, voucher_date, notes, total_lines, total_units,
		created_at, updated_at`

const detailColumns = `id, invoice_id, sku, product_name, unit_of_measure, quantity, batch_number,
		serial_number, unit_price, vat_tax_amount, unit_discount_amount, net_amount, weight, length,
		height, width, received_units, novelty, received_value, returned_value, rejection_cause_code_line`

// LegalizeOutcome is what a legalization wrote.
type LegalizeOutcome struct {
	Lines          []LegalizedLine
	SkippedDetails []int64
	Totals         reconciliation.Totals
	VoucherAmount  *float64
	VoucherDate    *time.Time
}

// LegalizedLine pairs a detail id with its reconciled values.
type LegalizedLine struct {
	DetailID int64
	Result   reconciliation.Result
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context) ([]*models.Invoice, error)
	ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error)
	UpdateLineCause(ctx context.Context, detailID int64, cause string) error
	Legalize(ctx context.Context, l models.Legalization) (*LegalizeOutcome, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
	CountCriticalPending(ctx context.Context, cutoff time.Time) (int, error)
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

type invoiceRepo struct {
	db DBTX
}

func NewInvoiceRepo(db DBTX) InvoiceRepository {
	return &invoiceRepo{db: db}
}

// Create inserts the header and its details in one transaction and sets the
// generated ids on invoice.
func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO invoices (invoice_number, delivery_number, internal_order_number, purchase_order_number,
			invoice_date, invoice_due_date, customer_code, customer_tax_id, customer_name, customer_phone,
			customer_address, customer_city, customer_state, zip_code, invoice_total, vat_tax_amount,
			total_discount, amount_due, payment_method, status, rejection_cause_code, invoice_file_url,
			voucher_file_url, voucher_number, voucher_amount, voucher_date, notes, total_lines, total_units,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, NOW(), NOW())
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		invoice.InvoiceNumber, invoice.DeliveryNumber, invoice.InternalOrderNumber, invoice.PurchaseOrderNumber,
		invoice.InvoiceDate, invoice.InvoiceDueDate, invoice.CustomerCode, invoice.CustomerTaxID,
		invoice.CustomerName, invoice.CustomerPhone, invoice.CustomerAddress, invoice.CustomerCity,
		invoice.CustomerState, invoice.ZipCode, invoice.InvoiceTotal, invoice.VATTaxAmount,
		invoice.TotalDiscount, invoice.AmountDue, invoice.PaymentMethod, invoice.Status,
		invoice.RejectionCauseCode, invoice.InvoiceFileURL, invoice.VoucherFileURL, invoice.VoucherNumber,
		invoice.VoucherAmount, invoice.VoucherDate, invoice.Notes, invoice.TotalLines, invoice.TotalUnits,
	).Scan(&invoice.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return 0, common.Conflict("La factura #%s ya existe", invoice.InvoiceNumber)
		}
		return 0, fmt.Errorf("insert invoice: %w", err)
	}

	detailQuery := `
		INSERT INTO invoice_details (invoice_id, sku, product_name, unit_of_measure, quantity, batch_number,
			serial_number, unit_price, vat_tax_amount, unit_discount_amount, net_amount, weight, length,
			height, width, rejection_cause_code_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	for i := range invoice.Details {
		d := &invoice.Details[i]
		d.InvoiceID = invoice.ID
		err := tx.QueryRow(ctx, detailQuery,
			d.InvoiceID, d.SKU, d.ProductName, d.UnitOfMeasure, d.Quantity, d.BatchNumber, d.SerialNumber,
			d.UnitPrice, d.VATTaxAmount, d.UnitDiscountAmount, d.NetAmount, d.Weight, d.Length, d.Height,
			d.Width, catalog.LineCauseOrDefault(d.RejectionCauseCodeLine),
		).Scan(&d.ID)
		if err != nil {
			return 0, fmt.Errorf("insert invoice detail %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit invoice: %w", err)
	}
	return invoice.ID, nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id int64) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFound("Factura no encontrada")
		}
		return nil, err
	}

	details, err := r.details(ctx, `SELECT `+detailColumns+` FROM invoice_details WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	invoice.Details = details[id]
	return invoice, nil
}

// List returns every invoice, newest first, with its details.
func (r *invoiceRepo) List(ctx context.Context) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details, err := r.details(ctx, `SELECT `+detailColumns+` FROM invoice_details ORDER BY invoice_id, id`)
	if err != nil {
		return nil, err
	}
	for _, invoice := range invoices {
		invoice.Details = details[invoice.ID]
	}
	return invoices, nil
}

func (r *invoiceRepo) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM invoices WHERE invoice_number = $1)`
	if err := r.db.QueryRow(ctx, query, invoiceNumber).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *invoiceRepo) UpdateLineCause(ctx context.Context, detailID int64, cause string) error {
	query := `UPDATE invoice_details SET rejection_cause_code_line = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, catalog.LineCauseOrDefault(cause), detailID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NotFound("Detalle no encontrado")
	}
	return nil
}

// Legalize applies a legalization in one transaction: header fields are
// coalesced, each submitted detail belonging to the invoice is reconciled and
// written, and total_units is rolled up when details were sent. Details that
// do not belong to the invoice are skipped.
func (r *invoiceRepo) Legalize(ctx context.Context, l models.Legalization) (*LegalizeOutcome, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `SELECT id FROM invoices WHERE id = $1 FOR UPDATE`, l.InvoiceID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NotFound("Factura no encontrada")
		}
		return nil, err
	}

	h := l.Header
	headerQuery := `
		UPDATE invoices SET
			invoice_file_url = COALESCE($1, invoice_file_url),
			voucher_file_url = COALESCE($2, voucher_file_url),
			voucher_number = COALESCE($3, voucher_number),
			voucher_amount = COALESCE($4, voucher_amount),
			voucher_date = COALESCE($5, voucher_date),
			status = COALESCE($6, status),
			rejection_cause_code = COALESCE($7, rejection_cause_code),
			updated_at = NOW()
		WHERE id = $8
	`
	if _, err := tx.Exec(ctx, headerQuery,
		h.InvoiceFileURL, h.VoucherFileURL, h.VoucherNumber, h.VoucherAmount, h.VoucherDate.Ptr(),
		h.Status, h.RejectionCauseCode, l.InvoiceID,
	); err != nil {
		return nil, fmt.Errorf("update invoice header: %w", err)
	}

	outcome := &LegalizeOutcome{}
	for _, patch := range l.Details {
		detailID := int64(patch.ID)
		var stored reconciliation.Line
		err := tx.QueryRow(ctx, `
			SELECT quantity, unit_price, vat_tax_amount, unit_discount_amount, net_amount, received_units
			FROM invoice_details
			WHERE id = $1 AND invoice_id = $2
		`, detailID, l.InvoiceID).Scan(&stored.Quantity, &stored.UnitPrice, &stored.VATTaxAmount,
			&stored.UnitDiscountAmount, &stored.NetAmount, &stored.ReceivedUnits)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				outcome.SkippedDetails = append(outcome.SkippedDetails, detailID)
				continue
			}
			return nil, fmt.Errorf("load detail %d: %w", detailID, err)
		}

		res := reconciliation.ReconcileLine(stored, patch.Input())
		_, err = tx.Exec(ctx, `
			UPDATE invoice_details SET
				quantity = $1,
				received_units = $2,
				novelty = $3,
				received_value = $4,
				returned_value = $5,
				unit_price = $6,
				vat_tax_amount = $7,
				unit_discount_amount = $8,
				net_amount = $9,
				rejection_cause_code_line = COALESCE($10, rejection_cause_code_line)
			WHERE id = $11
		`, res.Quantity, res.ReceivedUnits, res.Novelty, res.ReceivedValue, res.ReturnedValue,
			res.UnitPrice, res.VATTaxAmount, res.UnitDiscountAmount, res.NetAmount,
			patch.RejectionCauseCodeLine, detailID)
		if err != nil {
			return nil, fmt.Errorf("update detail %d: %w", detailID, err)
		}
		outcome.Lines = append(outcome.Lines, LegalizedLine{DetailID: detailID, Result: res})
	}

	if l.Details != nil {
		totals, err := rollup(ctx, tx, l.InvoiceID)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE invoices SET total_units = $1, updated_at = NOW() WHERE id = $2`,
			totals.TotalUnits, l.InvoiceID); err != nil {
			return nil, fmt.Errorf("update invoice totals: %w", err)
		}
		outcome.Totals = totals
	}

	err = tx.QueryRow(ctx, `SELECT voucher_amount, voucher_date FROM invoices WHERE id = $1`, l.InvoiceID).
		Scan(&outcome.VoucherAmount, &outcome.VoucherDate)
	if err != nil {
		return nil, fmt.Errorf("reload invoice: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit legalization: %w", err)
	}
	return outcome, nil
}

// rollup reads back every line of the invoice and sums it.
func rollup(ctx context.Context, tx pgx.Tx, invoiceID int64) (reconciliation.Totals, error) {
	rows, err := tx.Query(ctx, `
		SELECT quantity, unit_price, vat_tax_amount, unit_discount_amount, net_amount, received_units
		FROM invoice_details
		WHERE invoice_id = $1
	`, invoiceID)
	if err != nil {
		return reconciliation.Totals{}, fmt.Errorf("load details for rollup: %w", err)
	}
	defer rows.Close()

	var results []reconciliation.Result
	for rows.Next() {
		var line reconciliation.Line
		if err := rows.Scan(&line.Quantity, &line.UnitPrice, &line.VATTaxAmount,
			&line.UnitDiscountAmount, &line.NetAmount, &line.ReceivedUnits); err != nil {
			return reconciliation.Totals{}, err
		}
		results = append(results, reconciliation.ReconcileLine(line, reconciliation.Input{}))
	}
	if err := rows.Err(); err != nil {
		return reconciliation.Totals{}, err
	}
	return reconciliation.Rollup(results), nil
}

func (r *invoiceRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountCriticalPending counts pending invoices dated before cutoff. Callers
// pass catalog.CriticalPendingCutoff so the count agrees with the badge.
func (r *invoiceRepo) CountCriticalPending(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM invoices WHERE status = $1 AND invoice_date < $2`
	if err := r.db.QueryRow(ctx, query, catalog.StatusPending, cutoff).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ExpireOverdue marks pending invoices whose due date is before cutoff as
// expired and returns how many changed.
func (r *invoiceRepo) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE invoices SET status = $1, updated_at = NOW()
		WHERE status = $2 AND invoice_due_date < $3
	`
	tag, err := r.db.Exec(ctx, query, catalog.StatusExpired, catalog.StatusPending, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *invoiceRepo) details(ctx context.Context, query string, args ...any) (map[int64][]models.InvoiceDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byInvoice := make(map[int64][]models.InvoiceDetail)
	for rows.Next() {
		var d models.InvoiceDetail
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.SKU, &d.ProductName, &d.UnitOfMeasure, &d.Quantity,
			&d.BatchNumber, &d.SerialNumber, &d.UnitPrice, &d.VATTaxAmount, &d.UnitDiscountAmount,
			&d.NetAmount, &d.Weight, &d.Length, &d.Height, &d.Width, &d.ReceivedUnits, &d.Novelty,
			&d.ReceivedValue, &d.ReturnedValue, &d.RejectionCauseCodeLine); err != nil {
			return nil, err
		}
		byInvoice[d.InvoiceID] = append(byInvoice[d.InvoiceID], d)
	}
	return byInvoice, rows.Err()
}

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.DeliveryNumber, &inv.InternalOrderNumber,
		&inv.PurchaseOrderNumber, &inv.InvoiceDate, &inv.InvoiceDueDate, &inv.CustomerCode,
		&inv.CustomerTaxID, &inv.CustomerName, &inv.CustomerPhone, &inv.CustomerAddress,
		&inv.CustomerCity, &inv.CustomerState, &inv.ZipCode, &inv.InvoiceTotal, &inv.VATTaxAmount,
		&inv.TotalDiscount, &inv.AmountDue, &inv.PaymentMethod, &inv.Status, &inv.RejectionCauseCode,
		&inv.InvoiceFileURL, &inv.VoucherFileURL, &inv.VoucherNumber, &inv.VoucherAmount,
		&inv.VoucherDate, &inv.Notes, &inv.TotalLines, &inv.TotalUnits, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

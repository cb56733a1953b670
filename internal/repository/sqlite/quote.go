package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

const quoteColumns = `id, quote_number, contractor_id, landlord_id, job_id, title, line_items, subtotal, tax, total, status, valid_until, created, updated`

func (r *SQLiteRepo) CreateQuote(ctx context.Context, q *models.Quote) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("quote is nil")
	}
	if q.Status == "" {
		q.Status = models.QuoteStatusDraft
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO quotes (quote_number, contractor_id, landlord_id, job_id, title, line_items, subtotal, tax, total, status, valid_until, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.QuoteNumber, q.ContractorID, q.LandlordID, q.JobID, q.Title, toJSON(q.LineItems), q.Subtotal, q.Tax, q.Total, string(q.Status), q.ValidUntil, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	q, err := scanQuote(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return q, err
}

func (r *SQLiteRepo) UpdateQuote(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE quotes SET title = ?, line_items = ?, subtotal = ?, tax = ?, total = ?, status = ?, valid_until = ?, job_id = ?, updated = ? WHERE id = ?`,
		q.Title, toJSON(q.LineItems), q.Subtotal, q.Tax, q.Total, string(q.Status), q.ValidUntil, q.JobID, now(), q.ID)
	return err
}

func (r *SQLiteRepo) UpdateQuoteStatus(ctx context.Context, id int64, status models.QuoteStatus) error {
	_, err := r.conn.Exec(ctx, `UPDATE quotes SET status = ?, updated = ? WHERE id = ?`, string(status), now(), id)
	return err
}

func (r *SQLiteRepo) ListQuotesByContractor(ctx context.Context, contractorID int64) ([]models.Quote, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE contractor_id = ? ORDER BY created DESC, id DESC`, contractorID)
	if err != nil {
		return nil, err
	}

	return collectQuotes(rows)
}

func (r *SQLiteRepo) ListQuotesByLandlord(ctx context.Context, landlordID int64) ([]models.Quote, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE landlord_id = ? ORDER BY created DESC, id DESC`, landlordID)
	if err != nil {
		return nil, err
	}

	return collectQuotes(rows)
}

// CreateInvoiceFromQuote copies the quote into an invoice exactly once. The
// unique index on invoices.quote_id makes repeats fall through to the
// existing row, so the conversion is safe to retry.
func (r *SQLiteRepo) CreateInvoiceFromQuote(ctx context.Context, q *models.Quote, invoiceNumber string) (*models.Invoice, error) {
	if q == nil {
		return nil, fmt.Errorf("quote is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO invoices (invoice_number, quote_id, contractor_id, landlord_id, job_id, line_items, subtotal, tax, total, status, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'issued', ?) ON CONFLICT(quote_id) DO NOTHING`,
		invoiceNumber, q.ID, q.ContractorID, q.LandlordID, q.JobID, toJSON(q.LineItems), q.Subtotal, q.Tax, q.Total, now())
	if err != nil {
		return nil, err
	}

	return r.GetInvoiceByQuoteID(ctx, q.ID)
}

func (r *SQLiteRepo) GetInvoiceByQuoteID(ctx context.Context, quoteID int64) (*models.Invoice, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, invoice_number, quote_id, contractor_id, landlord_id, job_id, line_items, subtotal, tax, total, status, created FROM invoices WHERE quote_id = ?`, quoteID)
	var inv models.Invoice
	var items string
	var jobID sql.NullInt64
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.QuoteID, &inv.ContractorID, &inv.LandlordID, &jobID, &items, &inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status, &inv.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if jobID.Valid {
		inv.JobID = &jobID.Int64
	}
	inv.LineItems = fromJSON[models.QuoteLineItem](items)

	return &inv, nil
}

func collectQuotes(rows *sql.Rows) ([]models.Quote, error) {
	defer rows.Close()

	var out []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}

	return out, rows.Err()
}

func scanQuote(scan func(dest ...any) error) (*models.Quote, error) {
	var q models.Quote
	var status, items string
	var jobID, validUntil sql.NullInt64
	if err := scan(&q.ID, &q.QuoteNumber, &q.ContractorID, &q.LandlordID, &jobID, &q.Title, &items, &q.Subtotal, &q.Tax, &q.Total, &status, &validUntil, &q.Created, &q.Updated); err != nil {
		return nil, err
	}
	q.Status = models.QuoteStatus(status)
	if jobID.Valid {
		q.JobID = &jobID.Int64
	}
	if validUntil.Valid {
		q.ValidUntil = &validUntil.Int64
	}
	q.LineItems = fromJSON[models.QuoteLineItem](items)

	return &q, nil
}

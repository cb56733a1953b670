package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/internal/workflow"
	"github.com/fixboard/fixboard/pkg/models"
)

const bidColumns = `id, job_id, contractor_id, amount, proposal, time_estimate, proposed_start, status, created, updated`

func (r *SQLiteRepo) CreateBid(ctx context.Context, b *models.Bid) (int64, error) {
	if b == nil {
		return 0, fmt.Errorf("bid is nil")
	}
	if b.Status == "" {
		b.Status = models.BidStatusPending
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO bids (job_id, contractor_id, amount, proposal, time_estimate, proposed_start, status, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.JobID, b.ContractorID, b.Amount, b.Proposal, b.TimeEstimate, b.ProposedStart, string(b.Status), ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetBid(ctx context.Context, id int64) (*models.Bid, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = ?`, id)
	b, err := scanBid(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return b, err
}

func (r *SQLiteRepo) ListBidsByJob(ctx context.Context, jobID int64) ([]models.Bid, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+bidColumns+` FROM bids WHERE job_id = ? ORDER BY created, id`, jobID)
	if err != nil {
		return nil, err
	}

	return collectBids(rows)
}

func (r *SQLiteRepo) ListBidsByContractor(ctx context.Context, contractorID int64) ([]models.Bid, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+bidColumns+` FROM bids WHERE contractor_id = ? ORDER BY created DESC, id DESC`, contractorID)
	if err != nil {
		return nil, err
	}

	return collectBids(rows)
}

// AcceptBid runs the whole acceptance as one transaction so two landlord
// requests racing on the same job produce exactly one winner:
//
//  1. conditional job update keyed on status='open' (the serialization point)
//  2. accept the winning bid, guarded on status='pending'
//  3. reject every other pending bid on the job
//
// Losing the conditional update surfaces as a conflict, never a silent
// overwrite.
func (r *SQLiteRepo) AcceptBid(ctx context.Context, jobID, bidID, contractorID int64) error {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}

	ts := now()

	res, err := tx.ExecContext(ctx, `UPDATE jobs SET status = 'in_progress', contractor_id = ?, updated = ? WHERE id = ? AND status = 'open'`, contractorID, ts, jobID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		_ = tx.Rollback()
		return err
	} else if n != 1 {
		_ = tx.Rollback()
		return workflow.Conflictf("job is no longer open")
	}

	res, err = tx.ExecContext(ctx, `UPDATE bids SET status = 'accepted', updated = ? WHERE id = ? AND status = 'pending'`, ts, bidID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		_ = tx.Rollback()
		return err
	} else if n != 1 {
		_ = tx.Rollback()
		return workflow.Conflictf("bid is no longer pending")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bids SET status = 'rejected', updated = ? WHERE job_id = ? AND id != ? AND status = 'pending'`, ts, jobID, bidID); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SQLiteRepo) RejectBid(ctx context.Context, bidID int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE bids SET status = 'rejected', updated = ? WHERE id = ? AND status = 'pending'`, now(), bidID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func collectBids(rows *sql.Rows) ([]models.Bid, error) {
	defer rows.Close()

	var out []models.Bid
	for rows.Next() {
		b, err := scanBid(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}

	return out, rows.Err()
}

func scanBid(scan func(dest ...any) error) (*models.Bid, error) {
	var b models.Bid
	var status string
	var proposedStart sql.NullInt64
	if err := scan(&b.ID, &b.JobID, &b.ContractorID, &b.Amount, &b.Proposal, &b.TimeEstimate, &proposedStart, &status, &b.Created, &b.Updated); err != nil {
		return nil, err
	}
	b.Status = models.BidStatus(status)
	if proposedStart.Valid {
		b.ProposedStart = &proposedStart.Int64
	}

	return &b, nil
}

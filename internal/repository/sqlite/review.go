package sqlite

import (
	"context"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

func (r *SQLiteRepo) CreateReview(ctx context.Context, rv *models.Review) (int64, error) {
	if rv == nil {
		return 0, fmt.Errorf("review is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO reviews (job_id, author_id, rating, comment, created) VALUES (?, ?, ?, ?, ?)`,
		rv.JobID, rv.AuthorID, rv.Rating, rv.Comment, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListReviewsByJob(ctx context.Context, jobID int64) ([]models.Review, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, job_id, author_id, rating, comment, created FROM reviews WHERE job_id = ? ORDER BY created, id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.JobID, &rv.AuthorID, &rv.Rating, &rv.Comment, &rv.Created); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}

	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

const jobColumns = `id, landlord_id, title, description, status, pricing_type, budget, latitude, longitude, city, state, category_tags, contractor_id, progress, images, created, updated`

func (r *SQLiteRepo) CreateJob(ctx context.Context, j *models.Job) (int64, error) {
	if j == nil {
		return 0, fmt.Errorf("job is nil")
	}
	if j.Status == "" {
		j.Status = models.JobStatusDraft
	}

	var lat, lon any
	if j.Location.Coordinate != nil {
		lat = j.Location.Coordinate.Latitude
		lon = j.Location.Coordinate.Longitude
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO jobs (landlord_id, title, description, status, pricing_type, budget, latitude, longitude, city, state, category_tags, contractor_id, progress, images, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.LandlordID, j.Title, j.Description, string(j.Status), string(j.PricingType), j.Budget, lat, lon, j.Location.City, j.Location.State, toJSON(j.CategoryTags), j.ContractorID, j.Progress, toJSON(j.Images), ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return j, err
}

// UpdateJob persists the mutable fields of a job.
func (r *SQLiteRepo) UpdateJob(ctx context.Context, j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}

	var lat, lon any
	if j.Location.Coordinate != nil {
		lat = j.Location.Coordinate.Latitude
		lon = j.Location.Coordinate.Longitude
	}

	_, err := r.conn.Exec(ctx, `UPDATE jobs SET title = ?, description = ?, status = ?, pricing_type = ?, budget = ?, latitude = ?, longitude = ?, city = ?, state = ?, category_tags = ?, contractor_id = ?, progress = ?, images = ?, updated = ? WHERE id = ?`,
		j.Title, j.Description, string(j.Status), string(j.PricingType), j.Budget, lat, lon, j.Location.City, j.Location.State, toJSON(j.CategoryTags), j.ContractorID, j.Progress, toJSON(j.Images), now(), j.ID)
	return err
}

func (r *SQLiteRepo) ListJobsByLandlord(ctx context.Context, landlordID int64, limit, offset int) ([]models.Job, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM jobs WHERE landlord_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, landlordID, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectJobs(rows)
}

func (r *SQLiteRepo) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Job, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = 'open' ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectJobs(rows)
}

// AssignOpenJob is the conditional update both direct assignment and bid
// acceptance funnel through: the job moves to in_progress only if it is
// still open, so concurrent assigns resolve to exactly one winner.
func (r *SQLiteRepo) AssignOpenJob(ctx context.Context, jobID, contractorID int64) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE jobs SET status = 'in_progress', contractor_id = ?, updated = ? WHERE id = ? AND status = 'open'`, contractorID, now(), jobID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func collectJobs(rows *sql.Rows) ([]models.Job, error) {
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		j, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}

	return out, rows.Err()
}

func scanJob(scan func(dest ...any) error) (*models.Job, error) {
	var j models.Job
	var status, pricing, tags, images string
	var budget sql.NullFloat64
	var lat, lon sql.NullFloat64
	var contractorID sql.NullInt64
	if err := scan(&j.ID, &j.LandlordID, &j.Title, &j.Description, &status, &pricing, &budget, &lat, &lon, &j.Location.City, &j.Location.State, &tags, &contractorID, &j.Progress, &images, &j.Created, &j.Updated); err != nil {
		return nil, err
	}

	j.Status = models.JobStatus(status)
	j.PricingType = models.PricingType(pricing)
	if budget.Valid {
		j.Budget = &budget.Float64
	}
	if lat.Valid && lon.Valid {
		j.Location.Coordinate = &models.LatLng{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	if contractorID.Valid {
		j.ContractorID = &contractorID.Int64
	}
	j.CategoryTags = fromJSON[string](tags)
	j.Images = fromJSON[string](images)

	return &j, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

func (r *SQLiteRepo) CreateProfile(ctx context.Context, p *models.ContractorProfile) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("profile is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO contractor_profiles (user_id, trades, bio, updated) VALUES (?, ?, ?, ?)`,
		p.UserID, toJSON(p.Trades), p.Bio, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProfileByUserID(ctx context.Context, userID int64) (*models.ContractorProfile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, trades, bio, updated FROM contractor_profiles WHERE user_id = ?`, userID)
	var p models.ContractorProfile
	var trades string
	if err := row.Scan(&p.ID, &p.UserID, &trades, &p.Bio, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	p.Trades = fromJSON[string](trades)

	return &p, nil
}

func (r *SQLiteRepo) UpdateProfile(ctx context.Context, p *models.ContractorProfile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE contractor_profiles SET trades = ?, bio = ?, updated = ? WHERE id = ?`,
		toJSON(p.Trades), p.Bio, now(), p.ID)
	return err
}

func (r *SQLiteRepo) CreateServiceArea(ctx context.Context, a *models.ServiceArea) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("service area is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO service_areas (profile_id, latitude, longitude, radius_km, city, state) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ProfileID, a.Latitude, a.Longitude, a.RadiusKm, a.City, a.State)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListServiceAreas(ctx context.Context, profileID int64) ([]models.ServiceArea, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, profile_id, latitude, longitude, radius_km, city, state FROM service_areas WHERE profile_id = ? ORDER BY id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceArea
	for rows.Next() {
		var a models.ServiceArea
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.Latitude, &a.Longitude, &a.RadiusKm, &a.City, &a.State); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteServiceArea(ctx context.Context, id, profileID int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM service_areas WHERE id = ? AND profile_id = ?`, id, profileID)
	return err
}

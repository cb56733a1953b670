package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}
	if u.HashScheme == "" {
		u.HashScheme = models.HashSchemeBcrypt
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO users (name, email, user_type, password_hash, hash_scheme, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, string(u.UserType), u.PasswordHash, u.HashScheme, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx, `SELECT id, name, email, user_type, password_hash, hash_scheme, created, updated FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanUser(r.conn.QueryRow(ctx, `SELECT id, name, email, user_type, password_hash, hash_scheme, created, updated FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepo) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var userType string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &userType, &u.PasswordHash, &u.HashScheme, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	u.UserType = models.UserType(userType)

	return &u, nil
}

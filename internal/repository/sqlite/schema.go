package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSchemaJSON returns the stored JSON schema document for a version.
func (r *SQLiteRepo) GetSchemaJSON(ctx context.Context, version string) (string, error) {
	row := r.conn.QueryRow(ctx, `SELECT schema_json FROM doc_schemas WHERE version = ?`, version)
	var s string
	if err := row.Scan(&s); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("schema %s not found", version)
		}

		return "", err
	}

	return s, nil
}

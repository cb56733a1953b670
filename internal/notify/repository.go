package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fixboard/fixboard/internal/db"
	"github.com/fixboard/fixboard/pkg/models"
)

type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

// Enqueue inserts a notification into the outbox and returns the new ID
func (r *Repository) Enqueue(ctx context.Context, n *models.Notification) (int64, error) {
	payload := string(n.Payload)
	if n.MaxAttempts == 0 {
		n.MaxAttempts = 3
	}
	if n.ScheduledAt.IsZero() {
		n.ScheduledAt = time.Now()
	}
	now := time.Now().UTC().Unix()
	q := `INSERT INTO notifications(type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated) VALUES(?,?,?,?,?,?,?,?,?)`
	res, err := r.db.Exec(ctx, q, n.Type, payload, "queued", n.Attempts, n.MaxAttempts, n.Priority, n.ScheduledAt.UTC().Unix(), now, now)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	return res.LastInsertId()
}

// FetchNext fetches the next deliverable notification respecting priority and schedule
func (r *Repository) FetchNext(ctx context.Context) (*models.Notification, error) {
	q := `SELECT id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated FROM notifications WHERE (status = 'queued' OR status = 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) AND scheduled_at <= ? ORDER BY priority ASC, scheduled_at ASC LIMIT 1`
	now := time.Now().UTC().Unix()
	row := r.db.QueryRow(ctx, q, now, now)
	var (
		id          int64
		typ         string
		payload     sql.NullString
		status      string
		attempts    int
		maxAttempts int
		priority    int
		scheduledAt int64
		nextTry     sql.NullInt64
		lastError   sql.NullString
		created     int64
		updated     int64
	)
	if err := row.Scan(&id, &typ, &payload, &status, &attempts, &maxAttempts, &priority, &scheduledAt, &nextTry, &lastError, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch next notification: %w", err)
	}
	n := &models.Notification{
		ID:          id,
		Type:        typ,
		Status:      status,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		Priority:    priority,
		ScheduledAt: time.Unix(scheduledAt, 0),
		Created:     time.Unix(created, 0),
		Updated:     time.Unix(updated, 0),
	}
	if payload.Valid {
		n.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		t := time.Unix(nextTry.Int64, 0)
		n.NextTryAt = &t
	}
	if lastError.Valid {
		n.LastError = lastError.String
	}
	return n, nil
}

// Update persists attempts, status, next_try_at, last_error
func (r *Repository) Update(ctx context.Context, n *models.Notification) error {
	var nextTry any
	if n.NextTryAt != nil {
		nextTry = n.NextTryAt.Unix()
	}
	q := `UPDATE notifications SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, q, n.Status, n.Attempts, nextTry, n.LastError, time.Now().UTC().Unix(), n.ID)
	return err
}

// MoveToDeadLetter moves a notification to dead_letter_notifications and deletes the original
func (r *Repository) MoveToDeadLetter(ctx context.Context, n *models.Notification) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	payload := string(n.Payload)
	insert := `INSERT INTO dead_letter_notifications(notification_id, type, payload, attempts, last_error, failed_at) VALUES(?,?,?,?,?,?)`
	if _, err := tx.ExecContext(ctx, insert, n.ID, n.Type, payload, n.Attempts, n.LastError, time.Now().UTC().Unix()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, n.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

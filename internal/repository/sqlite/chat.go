package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixboard/fixboard/pkg/models"
)

// GetOrCreateRoom lazily creates the one chat room of a job. The unique
// index on chat_rooms.job_id keeps concurrent creates from producing two
// rooms; the loser of the insert re-reads the winner's row.
func (r *SQLiteRepo) GetOrCreateRoom(ctx context.Context, j *models.Job) (*models.ChatRoom, error) {
	if j == nil {
		return nil, fmt.Errorf("job is nil")
	}
	if j.ContractorID == nil {
		return nil, fmt.Errorf("job has no contractor assigned")
	}

	if room, err := r.getRoomByJobID(ctx, j.ID); err != nil || room != nil {
		return room, err
	}

	if _, err := r.conn.Exec(ctx, `INSERT INTO chat_rooms (job_id, landlord_id, contractor_id, created) VALUES (?, ?, ?, ?) ON CONFLICT(job_id) DO NOTHING`,
		j.ID, j.LandlordID, *j.ContractorID, now()); err != nil {
		return nil, err
	}

	return r.getRoomByJobID(ctx, j.ID)
}

func (r *SQLiteRepo) getRoomByJobID(ctx context.Context, jobID int64) (*models.ChatRoom, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, job_id, landlord_id, contractor_id, created FROM chat_rooms WHERE job_id = ?`, jobID)
	var room models.ChatRoom
	if err := row.Scan(&room.ID, &room.JobID, &room.LandlordID, &room.ContractorID, &room.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &room, nil
}

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}
	if m.Created == 0 {
		m.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO messages (room_id, sender_id, body, created) VALUES (?, ?, ?, ?)`,
		m.RoomID, m.SenderID, m.Body, m.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// ListMessages returns messages in creation order within the room.
func (r *SQLiteRepo) ListMessages(ctx context.Context, roomID int64, limit, offset int) ([]models.Message, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, room_id, sender_id, body, created FROM messages WHERE room_id = ? ORDER BY created, id LIMIT ? OFFSET ?`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Body, &m.Created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

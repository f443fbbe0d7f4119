package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/socialit/cms-go/internal/model"
)

// CreateEventParams holds the fields for inserting an event log entry.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	IPAddress sql.NullString
	Path      sql.NullString
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent inserts an event log entry and returns the stored row.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (model.Event, error) {
	var e model.Event
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO events (level, category, message, user_id, ip_address, path, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, level, category, message, user_id, metadata, created_at`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress, arg.Path,
		arg.Metadata, arg.CreatedAt,
	).Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

// CountEvents returns the total number of event log entries.
func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	return count, err
}

// ListRecentEvents returns the most recent events, newest first.
func (q *Queries) ListRecentEvents(ctx context.Context, limit int64) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, level, category, message, user_id, metadata, created_at
		FROM events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID,
			&e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteOldEvents removes event log entries created before the cutoff.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	return err
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/socialit/cms-go/internal/model"
)

const settingColumns = `id, key, value, description, created_at, updated_at`

func scanSetting(row interface{ Scan(...any) error }) (model.Setting, error) {
	var s model.Setting
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetSetting returns the setting stored under key.
func (q *Queries) GetSetting(ctx context.Context, key string) (model.Setting, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+settingColumns+` FROM site_settings WHERE key = ?`, key)
	return scanSetting(row)
}

// ListSettings returns all stored settings ordered by key.
func (q *Queries) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+settingColumns+` FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []model.Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertSettingParams holds the fields for writing a setting.
type UpsertSettingParams struct {
	ID          string
	Key         string
	Value       string
	Description sql.NullString
	Now         time.Time
}

// UpsertSetting creates or wholesale-replaces the setting stored under key.
// The description is only overwritten when a non-null one is supplied.
func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (model.Setting, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO site_settings (id, key, value, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			description = COALESCE(excluded.description, site_settings.description),
			updated_at = excluded.updated_at
		RETURNING `+settingColumns,
		arg.ID, arg.Key, arg.Value, arg.Description, arg.Now, arg.Now,
	)
	return scanSetting(row)
}

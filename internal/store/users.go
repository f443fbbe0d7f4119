package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/socialit/cms-go/internal/model"
)

const userColumns = `id, email, username, password_hash, first_name, last_name,
	avatar_url, is_active, is_email_verified, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.AvatarURL, &u.IsActive, &u.IsEmailVerified, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams holds the fields for inserting a user.
type CreateUserParams struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    sql.NullString
	LastName     sql.NullString
	AvatarURL    sql.NullString
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, username, password_hash, first_name, last_name,
			avatar_url, is_active, is_email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		RETURNING `+userColumns,
		arg.ID, arg.Email, arg.Username, arg.PasswordHash, arg.FirstName, arg.LastName,
		arg.AvatarURL, arg.IsActive, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanUser(row)
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByUsername returns the user with the given username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsersParams filters and paginates ListUsers.
type ListUsersParams struct {
	IsActive sql.NullBool
	Limit    int64
	Offset   int64
}

// ListUsers returns users ordered by creation time, newest first.
func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if arg.IsActive.Valid {
		query += ` WHERE is_active = ?`
		args = append(args, arg.IsActive.Bool)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of users matching the is_active filter.
func (q *Queries) CountUsers(ctx context.Context, isActive sql.NullBool) (int64, error) {
	query := `SELECT COUNT(*) FROM users`
	args := []any{}
	if isActive.Valid {
		query += ` WHERE is_active = ?`
		args = append(args, isActive.Bool)
	}
	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// UpdateUserParams holds the full set of mutable user fields. Callers do
// read-modify-write: load the row, overlay changed fields, then update.
type UpdateUserParams struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FirstName    sql.NullString
	LastName     sql.NullString
	AvatarURL    sql.NullString
	IsActive     bool
	UpdatedAt    time.Time
}

// UpdateUser updates a user and returns the stored row.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE users
		SET email = ?, username = ?, password_hash = ?, first_name = ?, last_name = ?,
			avatar_url = ?, is_active = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+userColumns,
		arg.Email, arg.Username, arg.PasswordHash, arg.FirstName, arg.LastName,
		arg.AvatarURL, arg.IsActive, arg.UpdatedAt, arg.ID,
	)
	return scanUser(row)
}

// DeactivateUser soft-deletes a user by clearing is_active.
func (q *Queries) DeactivateUser(ctx context.Context, id string, updatedAt time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE users SET is_active = 0, updated_at = ? WHERE id = ?`, updatedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchLastLogin stamps the user's last login time.
func (q *Queries) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, at, id)
	return err
}

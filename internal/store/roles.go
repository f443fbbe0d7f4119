package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/socialit/cms-go/internal/model"
)

const roleColumns = `id, name, description, is_system_role, created_at, updated_at`

func scanRole(row interface{ Scan(...any) error }) (model.Role, error) {
	var r model.Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.IsSystemRole, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// CreateRoleParams holds the fields for inserting a role.
type CreateRoleParams struct {
	ID           string
	Name         string
	Description  sql.NullString
	IsSystemRole bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateRole inserts a role and returns the stored row.
func (q *Queries) CreateRole(ctx context.Context, arg CreateRoleParams) (model.Role, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO roles (id, name, description, is_system_role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+roleColumns,
		arg.ID, arg.Name, arg.Description, arg.IsSystemRole, arg.CreatedAt, arg.UpdatedAt,
	)
	return scanRole(row)
}

// GetRoleByID returns the role with the given ID.
func (q *Queries) GetRoleByID(ctx context.Context, id string) (model.Role, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = ?`, id)
	return scanRole(row)
}

// GetRoleByName returns the role with the given name.
func (q *Queries) GetRoleByName(ctx context.Context, name string) (model.Role, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = ?`, name)
	return scanRole(row)
}

// ListRoles returns all roles ordered by name.
func (q *Queries) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetUserRoles returns the roles granted to a user, ordered by name.
func (q *Queries) GetUserRoles(ctx context.Context, userID string) ([]model.Role, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.is_system_role, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// GetUserRoleNames returns the names of the roles granted to a user.
func (q *Queries) GetUserRoleNames(ctx context.Context, userID string) ([]string, error) {
	roles, err := q.GetUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// AssignRoleParams holds the fields for granting a role to a user.
type AssignRoleParams struct {
	UserID     string
	RoleID     string
	AssignedAt time.Time
	AssignedBy sql.NullString
}

// AssignRole grants a role to a user. Granting an already held role is a no-op.
func (q *Queries) AssignRole(ctx context.Context, arg AssignRoleParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id, assigned_at, assigned_by)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		arg.UserID, arg.RoleID, arg.AssignedAt, arg.AssignedBy,
	)
	return err
}

// ClearUserRoles removes every role grant for a user.
func (q *Queries) ClearUserRoles(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID)
	return err
}

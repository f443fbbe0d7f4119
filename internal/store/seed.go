package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/model"
)

// Default admin credentials used when the environment provides none.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminUsername = "admin"
)

// systemRoles are created on first start and cannot be removed through the API.
var systemRoles = []struct {
	name        string
	description string
}{
	{model.RoleAdmin, "Full access to all content and administration"},
	{model.RoleEditor, "Create and edit content of every type"},
	{model.RoleViewer, "Read-only access to published content"},
}

// Seed creates the system roles and a bootstrap admin account. It is
// idempotent: existing roles and users are left untouched.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	queries := New(db)
	now := time.Now()

	roleIDs := make(map[string]string, len(systemRoles))
	for _, sr := range systemRoles {
		role, err := queries.GetRoleByName(ctx, sr.name)
		if err == nil {
			roleIDs[sr.name] = role.ID
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking for role %s: %w", sr.name, err)
		}

		created, err := queries.CreateRole(ctx, CreateRoleParams{
			ID:           uuid.NewString(),
			Name:         sr.name,
			Description:  sql.NullString{String: sr.description, Valid: true},
			IsSystemRole: true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating role %s: %w", sr.name, err)
		}
		roleIDs[sr.name] = created.ID
		slog.Info("created system role", "name", sr.name)
	}

	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	if adminPassword == "" {
		adminPassword = DefaultAdminPassword
	}

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, adminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		ID:           uuid.NewString(),
		Email:        adminEmail,
		Username:     DefaultAdminUsername,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if err := queries.AssignRole(ctx, AssignRoleParams{
		UserID:     user.ID,
		RoleID:     roleIDs[model.RoleAdmin],
		AssignedAt: now,
	}); err != nil {
		return fmt.Errorf("granting admin role: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
	)
	if adminPassword == DefaultAdminPassword {
		slog.Warn("admin account uses the default password, change it immediately")
	}

	return nil
}

// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/model"
)

// Demo mode credentials
const (
	DemoEditorEmail    = "editor@example.com"
	DemoEditorPassword = "demo1234demo"
	DemoEditorUsername = "demo-editor"

	DemoViewerEmail    = "viewer@example.com"
	DemoViewerPassword = "demo1234demo"
	DemoViewerUsername = "demo-viewer"
)

// SeedDemo creates demo accounts and sample published content for trying out
// the API. It runs after the regular Seed() when CMS_DEMO_MODE=true and is
// idempotent.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	if os.Getenv("CMS_DEMO_MODE") != "true" {
		return nil
	}

	slog.Info("seeding demo content")
	queries := New(db)
	now := time.Now()

	editorID, err := seedDemoUser(ctx, queries, DemoEditorEmail, DemoEditorUsername,
		DemoEditorPassword, model.RoleEditor, now)
	if err != nil {
		return fmt.Errorf("seeding demo editor: %w", err)
	}
	if _, err := seedDemoUser(ctx, queries, DemoViewerEmail, DemoViewerUsername,
		DemoViewerPassword, model.RoleViewer, now); err != nil {
		return fmt.Errorf("seeding demo viewer: %w", err)
	}

	if err := seedDemoContent(ctx, db, editorID, now); err != nil {
		return fmt.Errorf("seeding demo content: %w", err)
	}

	return nil
}

func seedDemoUser(ctx context.Context, queries *Queries, email, username, password, roleName string, now time.Time) (string, error) {
	existing, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", err
	}

	role, err := queries.GetRoleByName(ctx, roleName)
	if err != nil {
		return "", err
	}
	if err := queries.AssignRole(ctx, AssignRoleParams{
		UserID:     user.ID,
		RoleID:     role.ID,
		AssignedAt: now,
	}); err != nil {
		return "", err
	}

	slog.Info("created demo user", "email", email, "role", roleName)
	return user.ID, nil
}

func seedDemoContent(ctx context.Context, db *sql.DB, authorID string, now time.Time) error {
	var count int64
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE slug = 'welcome'`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO pages (id, slug, title, content, status, published_at, published_by,
			created_by, updated_by, created_at, updated_at)
		VALUES (?, 'welcome', 'Welcome', ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		`{"sections":[{"type":"hero","data":{"heading":"Welcome to the demo site"}}]}`,
		model.StatusPublished, now, authorID, authorID, authorID, now, now,
	)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO services (id, slug, title, subtitle, description, status, published_at,
			published_by, created_by, updated_by, created_at, updated_at)
		VALUES (?, 'consulting', 'Consulting', 'Strategy and delivery',
			'Hands-on engineering consulting.', ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), model.StatusPublished, now, authorID, authorID, authorID, now, now,
	)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO blogs (id, slug, title, excerpt, content, status, published_at,
			published_by, author_id, created_by, updated_by, created_at, updated_at)
		VALUES (?, 'hello-world', 'Hello World', 'First demo post.',
			'{"blocks":[{"type":"paragraph","text":"Hello from the demo seed."}]}',
			?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), model.StatusPublished, now, authorID, authorID, authorID, authorID, now, now,
	)
	return err
}

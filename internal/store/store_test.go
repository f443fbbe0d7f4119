package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "cms-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	// Open database
	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	// Run migrations
	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	// Return cleanup function
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func mustCreateUser(t *testing.T, q *Queries, email, username string) model.User {
	t.Helper()
	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: "hashed-password",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	user := mustCreateUser(t, q, "test@example.com", "test")

	if user.ID == "" {
		t.Error("user.ID should not be empty")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if !user.IsActive {
		t.Error("IsActive should be true")
	}
	if user.IsEmailVerified {
		t.Error("IsEmailVerified should default to false")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	mustCreateUser(t, q, "dup@example.com", "first")

	now := time.Now()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		ID:           uuid.NewString(),
		Email:        "dup@example.com",
		Username:     "second",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate email")
	}
}

func TestGetUserByEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	created := mustCreateUser(t, q, "find@example.com", "findme")

	found, err := q.GetUserByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	_, err := q.GetUserByEmail(context.Background(), "nonexistent@example.com")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := mustCreateUser(t, q, "update@example.com", "original")

	updated, err := q.UpdateUser(ctx, UpdateUserParams{
		ID:           created.ID,
		Email:        "updated@example.com",
		Username:     "updated",
		PasswordHash: created.PasswordHash,
		FirstName:    sql.NullString{String: "New", Valid: true},
		IsActive:     true,
		UpdatedAt:    time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if updated.Email != "updated@example.com" {
		t.Errorf("Email = %q, want %q", updated.Email, "updated@example.com")
	}
	if updated.Username != "updated" {
		t.Errorf("Username = %q, want %q", updated.Username, "updated")
	}
	if !updated.FirstName.Valid || updated.FirstName.String != "New" {
		t.Errorf("FirstName = %+v, want New", updated.FirstName)
	}
}

func TestDeactivateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	created := mustCreateUser(t, q, "delete@example.com", "deleteme")

	if err := q.DeactivateUser(ctx, created.ID, time.Now()); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}

	// Row remains but is inactive
	found, err := q.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if found.IsActive {
		t.Error("IsActive should be false after deactivation")
	}
}

func TestDeactivateUser_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	err := q.DeactivateUser(context.Background(), uuid.NewString(), time.Now())
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	for i := 0; i < 5; i++ {
		mustCreateUser(t, q, fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("user%d", i))
	}

	users, err := q.ListUsers(ctx, ListUsersParams{Limit: 3, Offset: 0})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("len(users) = %d, want 3", len(users))
	}

	users2, err := q.ListUsers(ctx, ListUsersParams{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("ListUsers page 2: %v", err)
	}
	if len(users2) != 2 {
		t.Errorf("len(users2) = %d, want 2", len(users2))
	}
}

func TestListUsers_ActiveFilter(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	active := mustCreateUser(t, q, "active@example.com", "active")
	inactive := mustCreateUser(t, q, "inactive@example.com", "inactive")
	if err := q.DeactivateUser(ctx, inactive.ID, time.Now()); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}

	users, err := q.ListUsers(ctx, ListUsersParams{
		IsActive: sql.NullBool{Bool: true, Valid: true},
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].ID != active.ID {
		t.Errorf("expected only the active user, got %d users", len(users))
	}

	count, err := q.CountUsers(ctx, sql.NullBool{Bool: false, Valid: true})
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("inactive count = %d, want 1", count)
	}
}

func TestTouchLastLogin(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := mustCreateUser(t, q, "login@example.com", "login")

	if user.LastLoginAt.Valid {
		t.Error("LastLoginAt should start unset")
	}

	if err := q.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}

	found, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !found.LastLoginAt.Valid {
		t.Error("LastLoginAt should be set after TouchLastLogin")
	}
}

// Role tests

func TestCreateRole(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	now := time.Now()
	role, err := q.CreateRole(ctx, CreateRoleParams{
		ID:        uuid.NewString(),
		Name:      "publisher",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	if role.Name != "publisher" {
		t.Errorf("Name = %q, want publisher", role.Name)
	}
	if role.IsSystemRole {
		t.Error("IsSystemRole should be false")
	}
}

func TestUserRoles(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := mustCreateUser(t, q, "roles@example.com", "roles")

	now := time.Now()
	editor, err := q.CreateRole(ctx, CreateRoleParams{
		ID: uuid.NewString(), Name: "editor", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	viewer, err := q.CreateRole(ctx, CreateRoleParams{
		ID: uuid.NewString(), Name: "viewer", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	for _, roleID := range []string{editor.ID, viewer.ID} {
		if err := q.AssignRole(ctx, AssignRoleParams{
			UserID: user.ID, RoleID: roleID, AssignedAt: now,
		}); err != nil {
			t.Fatalf("AssignRole: %v", err)
		}
	}

	names, err := q.GetUserRoleNames(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserRoleNames: %v", err)
	}
	if len(names) != 2 || names[0] != "editor" || names[1] != "viewer" {
		t.Errorf("names = %v, want [editor viewer]", names)
	}

	// Re-assigning an existing role is a no-op
	if err := q.AssignRole(ctx, AssignRoleParams{
		UserID: user.ID, RoleID: editor.ID, AssignedAt: now,
	}); err != nil {
		t.Fatalf("AssignRole repeat: %v", err)
	}

	if err := q.ClearUserRoles(ctx, user.ID); err != nil {
		t.Fatalf("ClearUserRoles: %v", err)
	}
	names, err = q.GetUserRoleNames(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserRoleNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}

// Settings tests

func TestUpsertSetting(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	created, err := q.UpsertSetting(ctx, UpsertSettingParams{
		ID:          uuid.NewString(),
		Key:         "header",
		Value:       `{"logo":"/logo.png"}`,
		Description: sql.NullString{String: "Site header", Valid: true},
		Now:         time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertSetting: %v", err)
	}
	if created.Value != `{"logo":"/logo.png"}` {
		t.Errorf("Value = %q", created.Value)
	}

	// Second upsert replaces the value wholesale but keeps the description
	// when none is supplied.
	updated, err := q.UpsertSetting(ctx, UpsertSettingParams{
		ID:    uuid.NewString(),
		Key:   "header",
		Value: `{"logo":"/new.png"}`,
		Now:   time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertSetting update: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("ID changed on upsert: %q != %q", updated.ID, created.ID)
	}
	if updated.Value != `{"logo":"/new.png"}` {
		t.Errorf("Value = %q, want replaced document", updated.Value)
	}
	if !updated.Description.Valid || updated.Description.String != "Site header" {
		t.Errorf("Description = %+v, want preserved", updated.Description)
	}
}

func TestGetSetting_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	_, err := q.GetSetting(context.Background(), "missing")
	if err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

// Seed tests

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	// First seed should create roles and admin
	if err := Seed(ctx, db, "", ""); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	admin, err := q.GetUserByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}

	names, err := q.GetUserRoleNames(ctx, admin.ID)
	if err != nil {
		t.Fatalf("GetUserRoleNames: %v", err)
	}
	if len(names) != 1 || names[0] != model.RoleAdmin {
		t.Errorf("admin roles = %v, want [admin]", names)
	}

	roles, err := q.ListRoles(ctx)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 3 {
		t.Fatalf("len(roles) = %d, want 3", len(roles))
	}
	for _, r := range roles {
		if !r.IsSystemRole {
			t.Errorf("role %s should be a system role", r.Name)
		}
	}

	// Second seed should skip (no error, no duplicates)
	if err := Seed(ctx, db, "", ""); err != nil {
		t.Fatalf("Second Seed: %v", err)
	}

	count, err := q.CountUsers(ctx, sql.NullBool{})
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (seed should skip if exists)", count)
	}
}

// Slug uniqueness: the partial unique index only applies to live rows.

func TestContentSlugUniqueness(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	insert := func(id, slug string, deleted bool) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO pages (id, slug, title, status, is_deleted, created_at, updated_at)
			VALUES (?, ?, 'T', 'draft', ?, ?, ?)`, id, slug, deleted, now, now)
		return err
	}

	if err := insert(uuid.NewString(), "about", false); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// Duplicate live slug must be rejected by the partial unique index
	if err := insert(uuid.NewString(), "about", false); err == nil {
		t.Fatal("expected unique constraint violation for duplicate live slug")
	}

	// A soft-deleted row does not block the slug
	if err := insert(uuid.NewString(), "contact", true); err != nil {
		t.Fatalf("deleted insert: %v", err)
	}
	if err := insert(uuid.NewString(), "contact", false); err != nil {
		t.Errorf("live insert after soft delete should succeed: %v", err)
	}
}

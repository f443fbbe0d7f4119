// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/service"
	"github.com/socialit/cms-go/internal/store"
	"github.com/socialit/cms-go/internal/version"
)

// testEnv bundles everything an API test needs: a migrated database
// with seeded roles, the handler, and a mounted router.
type testEnv struct {
	db      *sql.DB
	queries *store.Queries
	tokens  *auth.TokenService
	handler *Handler
	router  http.Handler
}

const testAdminPassword = "test-admin-pw-1"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	f, err := os.CreateTemp("", "cms-api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := store.Seed(context.Background(), db, "admin@test.local", testAdminPassword); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Issuer:     "cms-go",
		AccessTTL:  time.Hour,
		SigningKey: []byte("api-test-signing-key-0123456789abcd"),
	})

	events := service.NewEventService(db)
	settings := service.NewSettingsService(db, nil, events)
	ver := version.Info{Version: "test"}

	h := NewHandler(db, tokens, settings, events, ver)
	health := NewHealthHandler(db, nil, ver, "test")

	return &testEnv{
		db:      db,
		queries: store.New(db),
		tokens:  tokens,
		handler: h,
		router:  h.Routes(health),
	}
}

// createUser inserts an active user with the given roles and returns
// the user and a valid bearer token.
func (env *testEnv) createUser(t *testing.T, password string, roles ...string) (model.User, string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	id := uuid.NewString()
	user, err := env.queries.CreateUser(ctx, store.CreateUserParams{
		ID:           id,
		Email:        id[:8] + "@test.local",
		Username:     "u" + id[:8],
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	for _, name := range roles {
		role, roleErr := env.queries.GetRoleByName(ctx, name)
		if roleErr != nil {
			t.Fatalf("GetRoleByName(%q): %v", name, roleErr)
		}
		if err := env.queries.AssignRole(ctx, store.AssignRoleParams{
			UserID:     user.ID,
			RoleID:     role.ID,
			AssignedAt: now,
		}); err != nil {
			t.Fatalf("AssignRole: %v", err)
		}
	}

	token, err := env.tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return user, token
}

// editorToken creates an editor and returns their token.
func (env *testEnv) editorToken(t *testing.T) string {
	t.Helper()
	_, token := env.createUser(t, "editor-pw-12345", model.RoleEditor)
	return token
}

// adminToken creates an admin and returns their token.
func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	_, token := env.createUser(t, "admin-pw-123456", model.RoleAdmin)
	return token
}

// do executes a request against the router. body is JSON-encoded when
// non-nil; token, when non-empty, is sent as a bearer credential.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the data field of a response envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v; body: %s", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decoding data: %v; body: %s", err, rec.Body.String())
	}
}

// decodeMeta returns the meta field of a list response.
func decodeMeta(t *testing.T, rec *httptest.ResponseRecorder) Meta {
	t.Helper()

	var envelope struct {
		Meta Meta `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding envelope: %v; body: %s", err, rec.Body.String())
	}
	return envelope.Meta
}

// errorCode extracts the error code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding error envelope: %v; body: %s", err, rec.Body.String())
	}
	return envelope.Error.Code
}

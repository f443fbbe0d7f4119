// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/store"
	"github.com/socialit/cms-go/internal/util"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username"`
	FirstName       *string   `json:"first_name,omitempty"`
	LastName        *string   `json:"last_name,omitempty"`
	AvatarURL       *string   `json:"avatar_url,omitempty"`
	IsActive        bool      `json:"is_active"`
	IsEmailVerified bool      `json:"is_email_verified"`
	LastLoginAt     *string   `json:"last_login_at,omitempty"`
	Roles           []string  `json:"roles"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// userToResponse converts a model.User and their role names to the
// response shape.
func userToResponse(u model.User, roles []string) UserResponse {
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Username:        u.Username,
		FirstName:       util.PtrFromNullString(u.FirstName),
		LastName:        util.PtrFromNullString(u.LastName),
		AvatarURL:       util.PtrFromNullString(u.AvatarURL),
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLoginAt:     util.PtrFromNullTimeRFC3339(u.LastLoginAt),
		Roles:           roles,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// CreateUserRequest is the payload for POST /cms/users. Grants can be
// given as role ids, role names, or both.
type CreateUserRequest struct {
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	IsActive  *bool    `json:"is_active,omitempty"`
	RoleIDs   []string `json:"role_ids,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// UpdateUserRequest is the payload for PUT /cms/users/{id}. Absent
// fields are left unchanged; a role_ids or roles list replaces the
// grant set wholesale.
type UpdateUserRequest struct {
	Email     *string   `json:"email,omitempty"`
	Username  *string   `json:"username,omitempty"`
	Password  *string   `json:"password,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsActive  *bool     `json:"is_active,omitempty"`
	RoleIDs   *[]string `json:"role_ids,omitempty"`
	Roles     *[]string `json:"roles,omitempty"`
}

// isUniqueConstraint reports whether err is a SQLite unique violation.
func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueConstraintColumn extracts the colliding column from a SQLite
// unique violation, whose message names the index as table.column
// ("UNIQUE constraint failed: users.email (2067)").
func uniqueConstraintColumn(err error) string {
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return ""
	}
	col := msg[idx+len(marker):]
	if dot := strings.Index(col, "."); dot >= 0 {
		col = col[dot+1:]
	}
	if end := strings.IndexAny(col, " ,("); end >= 0 {
		col = col[:end]
	}
	return col
}

// writeUserConflict reports which unique user field collided.
func writeUserConflict(w http.ResponseWriter, err error) {
	switch uniqueConstraintColumn(err) {
	case "email":
		WriteConflict(w, "Email already in use", map[string]string{"email": "email already exists"})
	case "username":
		WriteConflict(w, "Username already in use", map[string]string{"username": "username already exists"})
	default:
		WriteConflict(w, "Email or username already in use", nil)
	}
}

// resolveRoles maps role ids and names to role rows, writing the error
// response on failure. An unresolved role is a 404: roles are a fixed
// vocabulary, not free-form input. Resolution happens before any user
// row is written, so a bad grant list leaves nothing behind.
func (h *Handler) resolveRoles(w http.ResponseWriter, r *http.Request, ids, names []string) ([]model.Role, bool) {
	roles := make([]model.Role, 0, len(ids)+len(names))
	for _, id := range ids {
		role, err := h.queries.GetRoleByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteNotFound(w, "Role not found: "+id)
			} else {
				WriteInternalError(w, "Failed to resolve roles")
			}
			return nil, false
		}
		roles = append(roles, role)
	}
	for _, name := range names {
		role, err := h.queries.GetRoleByName(r.Context(), name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteNotFound(w, "Role not found: "+name)
			} else {
				WriteInternalError(w, "Failed to resolve roles")
			}
			return nil, false
		}
		roles = append(roles, role)
	}
	return roles, true
}

// replaceUserRoles swaps the user's grant set for the given roles inside
// a transaction.
func (h *Handler) replaceUserRoles(r *http.Request, userID string, roles []model.Role, actorID string) error {
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := h.queries.WithTx(tx)
	if err := qtx.ClearUserRoles(r.Context(), userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	var assignedBy sql.NullString
	if actorID != "" {
		assignedBy = sql.NullString{String: actorID, Valid: true}
	}
	for _, role := range roles {
		if err := qtx.AssignRole(r.Context(), store.AssignRoleParams{
			UserID:     userID,
			RoleID:     role.ID,
			AssignedAt: now,
			AssignedBy: assignedBy,
		}); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListUsers handles GET /cms/users. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := parseListWindow(r)

	var isActive sql.NullBool
	switch r.URL.Query().Get("is_active") {
	case "true":
		isActive = sql.NullBool{Bool: true, Valid: true}
	case "false":
		isActive = sql.NullBool{Bool: false, Valid: true}
	}

	users, err := h.queries.ListUsers(r.Context(), store.ListUsersParams{
		IsActive: isActive,
		Limit:    limit,
		Offset:   skip,
	})
	if err != nil {
		WriteInternalError(w, "Failed to list users")
		return
	}
	total, err := h.queries.CountUsers(r.Context(), isActive)
	if err != nil {
		WriteInternalError(w, "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		roles, rolesErr := h.queries.GetUserRoleNames(r.Context(), u.ID)
		if rolesErr != nil {
			WriteInternalError(w, "Failed to list users")
			return
		}
		responses = append(responses, userToResponse(u, roles))
	}

	WriteSuccess(w, responses, &Meta{Total: total, Skip: skip, Limit: limit})
}

// GetUser handles GET /cms/users/{id}. Admin only.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
		} else {
			WriteInternalError(w, "Failed to retrieve user")
		}
		return
	}

	roles, err := h.queries.GetUserRoleNames(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve user")
		return
	}

	WriteSuccess(w, userToResponse(user, roles), nil)
}

// CreateUser handles POST /cms/users. Admin only.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	fieldErrors := map[string]string{}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		fieldErrors["email"] = "email is required"
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		fieldErrors["username"] = "username is required"
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	roles, ok := h.resolveRoles(w, r, req.RoleIDs, req.Roles)
	if !ok {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hash failed", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	now := time.Now().UTC()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    util.NullStringFromPtr(req.FirstName),
		LastName:     util.NullStringFromPtr(req.LastName),
		AvatarURL:    util.NullStringFromPtr(req.AvatarURL),
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if isUniqueConstraint(err) {
			writeUserConflict(w, err)
			return
		}
		slog.Error("user create failed", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	actorID := middleware.GetUserID(r)
	if len(roles) > 0 {
		if err := h.replaceUserRoles(r, user.ID, roles, actorID); err != nil {
			slog.Error("role assignment failed", "user_id", user.ID, "error", err)
			WriteInternalError(w, "Failed to assign roles")
			return
		}
	}

	roleNames, err := h.queries.GetUserRoleNames(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User created: "+user.Email, actorID, map[string]any{"id": user.ID})

	WriteCreated(w, userToResponse(user, roleNames))
}

// UpdateUser handles PUT /cms/users/{id}. Admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
		} else {
			WriteInternalError(w, "Failed to retrieve user")
		}
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	params := store.UpdateUserParams{
		ID:           existing.ID,
		Email:        existing.Email,
		Username:     existing.Username,
		PasswordHash: existing.PasswordHash,
		FirstName:    existing.FirstName,
		LastName:     existing.LastName,
		AvatarURL:    existing.AvatarURL,
		IsActive:     existing.IsActive,
		UpdatedAt:    time.Now().UTC(),
	}

	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if email == "" {
			WriteValidationError(w, map[string]string{"email": "email must not be empty"})
			return
		}
		params.Email = email
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			WriteValidationError(w, map[string]string{"username": "username must not be empty"})
			return
		}
		params.Username = username
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			WriteValidationError(w, map[string]string{"password": err.Error()})
			return
		}
		hash, hashErr := auth.HashPassword(*req.Password)
		if hashErr != nil {
			slog.Error("password hash failed", "error", hashErr)
			WriteInternalError(w, "Failed to update user")
			return
		}
		params.PasswordHash = hash
	}
	if req.FirstName != nil {
		params.FirstName = util.NullStringFromPtr(req.FirstName)
	}
	if req.LastName != nil {
		params.LastName = util.NullStringFromPtr(req.LastName)
	}
	if req.AvatarURL != nil {
		params.AvatarURL = util.NullStringFromPtr(req.AvatarURL)
	}
	if req.IsActive != nil {
		params.IsActive = *req.IsActive
	}

	var newRoles []model.Role
	replaceRoles := req.RoleIDs != nil || req.Roles != nil
	if replaceRoles {
		var ids, names []string
		if req.RoleIDs != nil {
			ids = *req.RoleIDs
		}
		if req.Roles != nil {
			names = *req.Roles
		}
		var ok bool
		newRoles, ok = h.resolveRoles(w, r, ids, names)
		if !ok {
			return
		}
	}

	user, err := h.queries.UpdateUser(r.Context(), params)
	if err != nil {
		if isUniqueConstraint(err) {
			writeUserConflict(w, err)
			return
		}
		slog.Error("user update failed", "user_id", id, "error", err)
		WriteInternalError(w, "Failed to update user")
		return
	}

	actorID := middleware.GetUserID(r)
	if replaceRoles {
		if err := h.replaceUserRoles(r, user.ID, newRoles, actorID); err != nil {
			slog.Error("role replacement failed", "user_id", user.ID, "error", err)
			WriteInternalError(w, "Failed to update roles")
			return
		}
	}

	roleNames, err := h.queries.GetUserRoleNames(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to update user")
		return
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User updated: "+user.Email, actorID, map[string]any{"id": user.ID})

	WriteSuccess(w, userToResponse(user, roleNames), nil)
}

// DeleteUser handles DELETE /cms/users/{id}. Deactivates the account
// rather than removing the row, so audit references stay intact. Admin
// only.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.queries.DeactivateUser(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
		} else {
			slog.Error("user deactivate failed", "user_id", id, "error", err)
			WriteInternalError(w, "Failed to delete user")
		}
		return
	}

	_ = h.events.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User deactivated", middleware.GetUserID(r), map[string]any{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

// RoleResponse represents a role in API responses.
type RoleResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	IsSystemRole bool    `json:"is_system_role"`
}

// ListRoles handles GET /cms/roles. Admin only.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.queries.ListRoles(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list roles")
		return
	}

	responses := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		responses = append(responses, RoleResponse{
			ID:           role.ID,
			Name:         role.Name,
			Description:  util.PtrFromNullString(role.Description),
			IsSystemRole: role.IsSystemRole,
		})
	}

	WriteSuccess(w, responses, nil)
}

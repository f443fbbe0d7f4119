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

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/model"
)

// LoginRequest is the credentials payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}

// Login handles POST /auth/login. Invalid credentials return 401 without
// revealing whether the email exists; a deactivated account returns 403.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
		return
	}

	ctx := r.Context()

	user, err := h.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = h.events.LogAuthEvent(ctx, model.EventLevelWarning,
				"Login failed: unknown email", "", r.RemoteAddr, r.URL.Path,
				map[string]any{"email": email})
			WriteUnauthorized(w, "Invalid email or password")
			return
		}
		slog.Error("login lookup failed", "error", err)
		WriteInternalError(w, "Failed to process login")
		return
	}

	match, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		_ = h.events.LogAuthEvent(ctx, model.EventLevelWarning,
			"Login failed: bad password", user.ID, r.RemoteAddr, r.URL.Path, nil)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	if !user.IsActive {
		_ = h.events.LogAuthEvent(ctx, model.EventLevelWarning,
			"Login rejected: account deactivated", user.ID, r.RemoteAddr, r.URL.Path, nil)
		WriteForbidden(w, "Account is deactivated")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		slog.Error("token issue failed", "user_id", user.ID, "error", err)
		WriteInternalError(w, "Failed to process login")
		return
	}

	if err := h.queries.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		slog.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	roles, err := h.queries.GetUserRoleNames(ctx, user.ID)
	if err != nil {
		slog.Error("failed to load roles at login", "user_id", user.ID, "error", err)
		WriteInternalError(w, "Failed to process login")
		return
	}

	_ = h.events.LogAuthEvent(ctx, model.EventLevelInfo,
		"Login succeeded", user.ID, r.RemoteAddr, r.URL.Path, nil)

	WriteSuccess(w, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokens.AccessTTL().Seconds()),
		User:      userToResponse(user, roles),
	}, nil)
}

// Me handles GET /auth/me for the authenticated caller.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, userToResponse(*principal.User, principal.Roles), nil)
}

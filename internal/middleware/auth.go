// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, rate limiting, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyPrincipal is the context key for the authenticated principal.
const ContextKeyPrincipal ContextKey = "principal"

// resolvePrincipal parses the Authorization header, validates the bearer
// token, and loads the user with their role names.
// If required is true and validation fails, it writes an error response;
// the second return value indicates whether a response was written.
func resolvePrincipal(w http.ResponseWriter, r *http.Request, tokens *auth.TokenService, queries *store.Queries, required bool) (*model.Principal, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return nil, true
		}
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
			return nil, true
		}
		return nil, false
	}

	userID, err := tokens.Parse(parts[1])
	if err != nil {
		if required {
			if errors.Is(err, auth.ErrTokenExpired) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Token has expired", nil)
			} else {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			}
			return nil, true
		}
		return nil, false
	}

	user, err := queries.GetUserByID(r.Context(), userID)
	if err != nil {
		if required {
			if errors.Is(err, sql.ErrNoRows) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			} else {
				slog.Error("failed to load user for token", "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to authenticate request", nil)
			}
			return nil, true
		}
		return nil, false
	}

	if !user.IsActive {
		if required {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "Account is deactivated", nil)
			return nil, true
		}
		return nil, false
	}

	roles, err := queries.GetUserRoleNames(r.Context(), user.ID)
	if err != nil {
		if required {
			slog.Error("failed to load roles for user", "user_id", user.ID, "error", err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to authenticate request", nil)
			return nil, true
		}
		return nil, false
	}

	return &model.Principal{User: &user, Roles: roles}, false
}

// Auth creates middleware that requires bearer token authentication.
// Requests without a valid token for an active user are rejected.
func Auth(tokens *auth.TokenService, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, errorWritten := resolvePrincipal(w, r, tokens, queries, true)
			if errorWritten {
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates middleware that resolves the principal when a valid
// bearer token is present and treats the request as anonymous otherwise.
// It never rejects a request: a missing, malformed, expired, or otherwise
// invalid token simply leaves the context without a principal.
func OptionalAuth(tokens *auth.TokenService, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := resolvePrincipal(w, r, tokens, queries, false)
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from the request context.
// Returns nil for anonymous requests.
func GetPrincipal(r *http.Request) *model.Principal {
	principal, ok := r.Context().Value(ContextKeyPrincipal).(*model.Principal)
	if !ok {
		return nil
	}
	return principal
}

// GetUserID returns the current user's ID from context, or "" if anonymous.
func GetUserID(r *http.Request) string {
	if p := GetPrincipal(r); p != nil {
		return p.User.ID
	}
	return ""
}

// GetUserIDNull returns the current user's ID as a nullable value for event
// logging.
func GetUserIDNull(r *http.Request) sql.NullString {
	if p := GetPrincipal(r); p != nil {
		return sql.NullString{String: p.User.ID, Valid: true}
	}
	return sql.NullString{}
}

// RequireRole creates middleware that requires the principal to hold at
// least one of the named roles. It must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r)
			if principal == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if !principal.HasAnyRole(roles...) {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", principal.User.ID,
					"user_roles", strings.Join(principal.Roles, ","),
					"required_roles", strings.Join(roles, ","),
					"remote_addr", r.RemoteAddr,
				)
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires the admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireEditor creates middleware that allows admin and editor users.
func RequireEditor() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin, model.RoleEditor)
}

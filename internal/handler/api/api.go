// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers for the headless CMS.
package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/socialit/cms-go/internal/auth"
	"github.com/socialit/cms-go/internal/content"
	"github.com/socialit/cms-go/internal/service"
	"github.com/socialit/cms-go/internal/store"
	"github.com/socialit/cms-go/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	tokens   *auth.TokenService
	settings *service.SettingsService
	events   *service.EventService

	services    *content.Manager
	pages       *content.Manager
	blogs       *content.Manager
	caseStudies *content.Manager
	jobs        *content.Manager

	version version.Info
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, tokens *auth.TokenService, settings *service.SettingsService, events *service.EventService, ver version.Info) *Handler {
	return &Handler{
		db:          db,
		queries:     store.New(db),
		tokens:      tokens,
		settings:    settings,
		events:      events,
		services:    content.NewManager(db, content.Services),
		pages:       content.NewManager(db, content.Pages),
		blogs:       content.NewManager(db, content.Blogs),
		caseStudies: content.NewManager(db, content.CaseStudies),
		jobs:        content.NewManager(db, content.Jobs),
		version:     ver,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int64 `json:"total"`
	Skip  int64 `json:"skip"`
	Limit int64 `json:"limit"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusConflict, "conflict", message, details)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// defaultLimit and maxLimit bound list page sizes. Clients that send no
// limit get a full first page of 100.
const (
	defaultLimit = 100
	maxLimit     = 1000
)

// parseListWindow reads skip/limit query parameters with bounds applied.
func parseListWindow(r *http.Request) (skip, limit int64) {
	limit = defaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if s := r.URL.Query().Get("skip"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			skip = v
		}
	}
	return skip, limit
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:  "ok",
		Version: h.version.Version,
	}, nil)
}

// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/util"
)

// SettingResponse represents a settings document in API responses.
// Value is emitted as structured JSON, not a string.
type SettingResponse struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description *string         `json:"description,omitempty"`
	IsDefault   bool            `json:"is_default"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// GetSetting handles GET /cms/site-settings/{key}. Public: serves the stored
// document or the built-in default when nothing has been stored.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		WriteBadRequest(w, "Setting key is required", nil)
		return
	}

	doc, isDefault, err := h.settings.GetOrDefault(r.Context(), key)
	if err != nil {
		WriteInternalError(w, "Failed to retrieve setting")
		return
	}

	resp := SettingResponse{
		Key:       key,
		Value:     json.RawMessage(doc),
		IsDefault: isDefault,
	}
	if !isDefault {
		if setting, getErr := h.settings.Get(r.Context(), key); getErr == nil {
			resp.Description = util.PtrFromNullString(setting.Description)
			updatedAt := setting.UpdatedAt
			resp.UpdatedAt = &updatedAt
		}
	}

	WriteSuccess(w, resp, nil)
}

// ListSettings handles GET /cms/site-settings. Editorial roles only; returns stored
// documents, not defaults.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list settings")
		return
	}

	responses := make([]SettingResponse, 0, len(settings))
	for _, s := range settings {
		updatedAt := s.UpdatedAt
		responses = append(responses, SettingResponse{
			Key:         s.Key,
			Value:       json.RawMessage(s.Value),
			Description: util.PtrFromNullString(s.Description),
			UpdatedAt:   &updatedAt,
		})
	}

	WriteSuccess(w, responses, nil)
}

// UpsertSettingRequest is the payload for PUT /cms/site-settings/{key}.
type UpsertSettingRequest struct {
	Value       json.RawMessage `json:"value"`
	Description *string         `json:"description,omitempty"`
}

// UpsertSetting handles PUT /cms/site-settings/{key}. Replaces the stored
// document wholesale. Editorial roles only.
func (h *Handler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		WriteBadRequest(w, "Setting key is required", nil)
		return
	}

	var req UpsertSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if len(req.Value) == 0 {
		WriteValidationError(w, map[string]string{"value": "value is required"})
		return
	}

	setting, err := h.settings.Set(r.Context(), key, string(req.Value), req.Description, middleware.GetUserID(r))
	if err != nil {
		WriteValidationError(w, map[string]string{"value": "value must be a JSON document"})
		return
	}

	updatedAt := setting.UpdatedAt
	WriteSuccess(w, SettingResponse{
		Key:         setting.Key,
		Value:       json.RawMessage(setting.Value),
		Description: util.PtrFromNullString(setting.Description),
		UpdatedAt:   &updatedAt,
	}, nil)
}

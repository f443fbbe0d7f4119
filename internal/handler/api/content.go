// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/socialit/cms-go/internal/content"
	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/util"
)

// commonFields are the request keys shared by every content type.
// Everything else in a payload is treated as a type-specific column.
var commonFields = map[string]bool{
	"slug":             true,
	"title":            true,
	"content":          true,
	"status":           true,
	"meta_title":       true,
	"meta_description": true,
	"meta_keywords":    true,
	"og_image_url":     true,
}

// ContentResource exposes the CRUD handlers for one content type.
type ContentResource struct {
	h       *Handler
	manager *content.Manager
	label   string // capitalized singular, used in messages

	// normalizeBody, when set, rewrites the raw content field before
	// storage. Pages use it to coerce content into a section list.
	normalizeBody func(json.RawMessage) json.RawMessage
}

// Resource builders, one per content type.

func (h *Handler) ServicesResource() *ContentResource {
	return &ContentResource{h: h, manager: h.services, label: "Service"}
}

func (h *Handler) PagesResource() *ContentResource {
	return &ContentResource{h: h, manager: h.pages, label: "Page", normalizeBody: normalizePageContent}
}

func (h *Handler) BlogsResource() *ContentResource {
	return &ContentResource{h: h, manager: h.blogs, label: "Blog post"}
}

func (h *Handler) CaseStudiesResource() *ContentResource {
	return &ContentResource{h: h, manager: h.caseStudies, label: "Case study"}
}

func (h *Handler) JobsResource() *ContentResource {
	return &ContentResource{h: h, manager: h.jobs, label: "Job"}
}

// canReadUnpublished reports whether the request may see drafts and
// archived records.
func canReadUnpublished(r *http.Request) bool {
	p := middleware.GetPrincipal(r)
	return p != nil && p.CanReadUnpublished()
}

// looksLikeJSON reports whether s starts with a JSON container, in which
// case stored text is re-emitted as structured JSON.
func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// emitStored converts a stored TEXT value to its response representation:
// JSON documents come back structured, everything else as a plain string.
func emitStored(s string) any {
	if looksLikeJSON(s) {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return s
}

// contentPayload flattens a record into the response shape: common fields
// plus every type-specific column, null when unset.
func (cr *ContentResource) contentPayload(c model.Content) map[string]any {
	payload := map[string]any{
		"id":               c.ID,
		"slug":             c.Slug,
		"title":            c.Title,
		"content":          nil,
		"status":           c.Status,
		"published_at":     util.PtrFromNullTimeRFC3339(c.PublishedAt),
		"published_by":     util.PtrFromNullString(c.PublishedBy),
		"meta_title":       util.PtrFromNullString(c.MetaTitle),
		"meta_description": util.PtrFromNullString(c.MetaDescription),
		"meta_keywords":    nil,
		"og_image_url":     util.PtrFromNullString(c.OGImageURL),
		"created_by":       util.PtrFromNullString(c.CreatedBy),
		"updated_by":       util.PtrFromNullString(c.UpdatedBy),
		"created_at":       c.CreatedAt,
		"updated_at":       c.UpdatedAt,
	}

	if c.Body.Valid {
		payload["content"] = emitStored(c.Body.String)
	}
	if c.MetaKeywords.Valid {
		payload["meta_keywords"] = emitStored(c.MetaKeywords.String)
	}

	for _, col := range cr.manager.Descriptor().Columns {
		v, ok := c.Extra[col.Name]
		if !ok || !v.Valid {
			payload[col.Name] = nil
			continue
		}
		payload[col.Name] = emitStored(v.String)
	}

	return payload
}

// decodeBody splits a JSON payload into common fields and type-specific
// extras. Returns false after writing an error response on malformed JSON.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return nil, false
	}
	return raw, true
}

// stringField decodes a JSON value as a string pointer. JSON null and
// absent both return nil; non-string containers are stored as their
// compact JSON text so array-valued columns round-trip.
func stringField(raw json.RawMessage) *string {
	if string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		text := string(raw)
		return &text
	}
	text := buf.String()
	return &text
}

// extractExtras collects every non-common key from the payload. Keys
// present with a JSON null map to nil, which clears the column.
func extractExtras(raw map[string]json.RawMessage) map[string]*string {
	extras := map[string]*string{}
	for key, value := range raw {
		if commonFields[key] {
			continue
		}
		if string(value) == "null" {
			extras[key] = nil
			continue
		}
		extras[key] = stringField(value)
	}
	if len(extras) == 0 {
		return nil
	}
	return extras
}

// applyBodyNormalization rewrites the content field in place when the
// resource defines a normalizer. JSON null passes through untouched so
// an explicit clear stays a clear.
func (cr *ContentResource) applyBodyNormalization(raw map[string]json.RawMessage) {
	if cr.normalizeBody == nil {
		return
	}
	if v, present := raw["content"]; present && string(v) != "null" {
		raw["content"] = cr.normalizeBody(v)
	}
}

// normalizePageContent coerces a page content payload into a list of
// sections, each shaped {type, data, id}. A bare object becomes a
// one-element list; list items missing section keys get defaults; any
// other shape becomes an empty list.
func normalizePageContent(raw json.RawMessage) json.RawMessage {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items = []any{t}
	}

	sections := make([]map[string]any, 0, len(items))
	for i, item := range items {
		section := map[string]any{
			"type": "raw",
			"data": map[string]any{},
			"id":   fmt.Sprintf("section-%d", i),
		}
		if m, ok := item.(map[string]any); ok {
			if typ, ok := m["type"].(string); ok {
				section["type"] = typ
			}
			if data, present := m["data"]; present {
				section["data"] = data
			} else {
				section["data"] = m
			}
			if id, ok := m["id"].(string); ok {
				section["id"] = id
			}
		}
		sections = append(sections, section)
	}

	out, err := json.Marshal(sections)
	if err != nil {
		return raw
	}
	return out
}

// writeContentError translates manager errors into API responses.
func (cr *ContentResource) writeContentError(w http.ResponseWriter, err error) {
	if ve, ok := content.AsValidation(err); ok {
		WriteValidationError(w, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, content.ErrNotFound):
		WriteNotFound(w, cr.label+" not found")
	case errors.Is(err, content.ErrSlugExists):
		WriteConflict(w, "Slug already in use", map[string]string{"slug": "slug already exists"})
	default:
		WriteInternalError(w, "Failed to process "+strings.ToLower(cr.label))
	}
}

// List handles GET /cms/<type>.
// Anonymous and viewer callers see published records only; requesting any
// other status without editorial access is forbidden.
func (cr *ContentResource) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	if !canReadUnpublished(r) {
		if status != "" && status != model.StatusPublished {
			WriteForbidden(w, "Editorial access required to list non-published records")
			return
		}
		status = model.StatusPublished
	} else if status != "" && !model.ValidStatus(status) {
		WriteValidationError(w, map[string]string{"status": "unknown status"})
		return
	}

	filters := map[string]string{}
	for _, col := range cr.manager.Descriptor().Columns {
		if !col.Filterable {
			continue
		}
		if v := r.URL.Query().Get(col.Name); v != "" {
			filters[col.Name] = v
		}
	}

	skip, limit := parseListWindow(r)

	records, total, err := cr.manager.List(r.Context(), content.ListParams{
		Status:  status,
		Filters: filters,
		Skip:    skip,
		Limit:   limit,
	})
	if err != nil {
		WriteInternalError(w, "Failed to list "+strings.ToLower(cr.label)+"s")
		return
	}

	payloads := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, cr.contentPayload(rec))
	}

	WriteSuccess(w, payloads, &Meta{Total: total, Skip: skip, Limit: limit})
}

// Get handles GET /cms/<type>/{id}.
// Non-published records are hidden from callers without editorial access.
func (cr *ContentResource) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := cr.manager.GetByID(r.Context(), id)
	if err != nil {
		cr.writeContentError(w, err)
		return
	}

	if !record.IsPublished() && !canReadUnpublished(r) {
		WriteNotFound(w, cr.label+" not found")
		return
	}

	WriteSuccess(w, cr.contentPayload(record), nil)
}

// GetBySlug handles GET /cms/<type>/slug/{slug}.
func (cr *ContentResource) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		WriteBadRequest(w, "Slug is required", nil)
		return
	}

	record, err := cr.manager.GetBySlug(r.Context(), slug)
	if err != nil {
		cr.writeContentError(w, err)
		return
	}

	if !record.IsPublished() && !canReadUnpublished(r) {
		WriteNotFound(w, cr.label+" not found")
		return
	}

	WriteSuccess(w, cr.contentPayload(record), nil)
}

// Create handles POST /cms/<type>. Requires editorial access.
func (cr *ContentResource) Create(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeBody(w, r)
	if !ok {
		return
	}
	cr.applyBodyNormalization(raw)

	params := content.CreateParams{
		ActorID: middleware.GetUserID(r),
		Extra:   extractExtras(raw),
	}
	if v, present := raw["slug"]; present {
		if s := stringField(v); s != nil {
			params.Slug = *s
		}
	}
	if v, present := raw["title"]; present {
		if s := stringField(v); s != nil {
			params.Title = *s
		}
	}
	if v, present := raw["status"]; present {
		if s := stringField(v); s != nil {
			params.Status = *s
		}
	}
	params.Body = optionalField(raw, "content")
	params.MetaTitle = optionalField(raw, "meta_title")
	params.MetaDescription = optionalField(raw, "meta_description")
	params.MetaKeywords = optionalField(raw, "meta_keywords")
	params.OGImageURL = optionalField(raw, "og_image_url")

	record, err := cr.manager.Create(r.Context(), params)
	if err != nil {
		cr.writeContentError(w, err)
		return
	}

	_ = cr.h.events.LogContentEvent(r.Context(), model.EventLevelInfo,
		cr.label+" created: "+record.Slug, params.ActorID,
		map[string]any{"id": record.ID, "slug": record.Slug})

	WriteCreated(w, cr.contentPayload(record))
}

// optionalField returns the decoded string for a key, or nil if absent
// or null.
func optionalField(raw map[string]json.RawMessage, key string) *string {
	v, present := raw[key]
	if !present {
		return nil
	}
	return stringField(v)
}

// nullableField maps a key to its partial-update semantics: absent is
// nil (leave unchanged), JSON null is an invalid NullString (clear),
// anything else the decoded text.
func nullableField(raw map[string]json.RawMessage, key string) *sql.NullString {
	v, present := raw[key]
	if !present {
		return nil
	}
	s := stringField(v)
	if s == nil {
		return &sql.NullString{}
	}
	return &sql.NullString{String: *s, Valid: true}
}

// Update handles PUT /cms/<type>/{id}. Requires editorial access.
// Absent fields are left unchanged.
func (cr *ContentResource) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	raw, ok := decodeBody(w, r)
	if !ok {
		return
	}
	cr.applyBodyNormalization(raw)

	params := content.UpdateParams{
		ActorID:         middleware.GetUserID(r),
		Extra:           extractExtras(raw),
		Slug:            optionalField(raw, "slug"),
		Title:           optionalField(raw, "title"),
		Status:          optionalField(raw, "status"),
		Body:            nullableField(raw, "content"),
		MetaTitle:       nullableField(raw, "meta_title"),
		MetaDescription: nullableField(raw, "meta_description"),
		MetaKeywords:    nullableField(raw, "meta_keywords"),
		OGImageURL:      nullableField(raw, "og_image_url"),
	}

	record, err := cr.manager.Update(r.Context(), id, params)
	if err != nil {
		cr.writeContentError(w, err)
		return
	}

	_ = cr.h.events.LogContentEvent(r.Context(), model.EventLevelInfo,
		cr.label+" updated: "+record.Slug, params.ActorID,
		map[string]any{"id": record.ID, "slug": record.Slug})

	WriteSuccess(w, cr.contentPayload(record), nil)
}

// Delete handles DELETE /cms/<type>/{id}. Soft-deletes the record and
// releases its slug. Requires editorial access.
func (cr *ContentResource) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actorID := middleware.GetUserID(r)

	if err := cr.manager.Delete(r.Context(), id, actorID); err != nil {
		cr.writeContentError(w, err)
		return
	}

	_ = cr.h.events.LogContentEvent(r.Context(), model.EventLevelInfo,
		cr.label+" deleted", actorID, map[string]any{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

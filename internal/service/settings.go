// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/socialit/cms-go/internal/cache"
	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/store"
)

// ErrSettingNotFound is returned when no stored document exists for a key.
var ErrSettingNotFound = errors.New("setting not found")

// defaultDocuments holds the fallback JSON document per well-known key.
// These are served when nothing has been stored yet and are never
// persisted, so a later write starts from the stored value, not from
// a merged default.
var defaultDocuments = map[string]string{
	model.SettingHeader:      `{"logo_text":"Site","nav_links":[]}`,
	model.SettingFooter:      `{"copyright":"","columns":[]}`,
	model.SettingTheme:       `{"primary_color":"#1a1a2e","accent_color":"#0f3460","font_family":"system-ui"}`,
	model.SettingUI:          `{"show_breadcrumbs":true,"posts_per_page":10}`,
	model.SettingAboutPage:   `{"title":"About Us","sections":[]}`,
	model.SettingContactInfo: `{"email":"","phone":"","address":""}`,
	model.SettingServicesAI:  `{"enabled":false,"title":"AI & Machine Learning","items":[]}`,
	model.SettingHero:        `{"headline":"","subheadline":"","cta_label":"","cta_url":""}`,
}

// emptyDocument is served for keys that have neither a stored value nor
// a well-known default.
const emptyDocument = `{}`

// SettingsService serves site settings documents with per-key defaults
// and an optional read-through cache.
type SettingsService struct {
	queries *store.Queries
	cache   *cache.SettingsCache
	events  *EventService
}

// NewSettingsService creates a settings service. The cache and event
// service are optional.
func NewSettingsService(db *sql.DB, sc *cache.SettingsCache, events *EventService) *SettingsService {
	return &SettingsService{
		queries: store.New(db),
		cache:   sc,
		events:  events,
	}
}

// DefaultDocument returns the fallback document for a key and whether
// the key has a well-known default.
func DefaultDocument(key string) (string, bool) {
	doc, ok := defaultDocuments[key]
	return doc, ok
}

// Get returns the stored setting for a key, or ErrSettingNotFound.
func (s *SettingsService) Get(ctx context.Context, key string) (model.Setting, error) {
	setting, err := s.queries.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Setting{}, ErrSettingNotFound
		}
		return model.Setting{}, fmt.Errorf("getting setting %q: %w", key, err)
	}
	return setting, nil
}

// GetOrDefault returns the document for a key, falling back to the
// built-in default when nothing is stored. The second return value is
// true when the default was served.
func (s *SettingsService) GetOrDefault(ctx context.Context, key string) (string, bool, error) {
	if s.cache != nil {
		if doc, ok := s.cache.Get(ctx, key); ok {
			return doc, false, nil
		}
	}

	setting, err := s.queries.GetSetting(ctx, key)
	if err == nil {
		if s.cache != nil {
			s.cache.Set(ctx, key, setting.Value)
		}
		return setting.Value, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("getting setting %q: %w", key, err)
	}

	// Defaults are served, never cached: the cache holds stored
	// documents only.
	if doc, ok := defaultDocuments[key]; ok {
		return doc, true, nil
	}
	return emptyDocument, true, nil
}

// Set stores a settings document, replacing any previous value
// wholesale, and invalidates the cache entry for the key.
func (s *SettingsService) Set(ctx context.Context, key, value string, description *string, actorID string) (model.Setting, error) {
	if !json.Valid([]byte(value)) {
		return model.Setting{}, fmt.Errorf("setting %q: value is not valid JSON", key)
	}

	// An absent or empty description keeps whatever is stored.
	var desc sql.NullString
	if description != nil && strings.TrimSpace(*description) != "" {
		desc = sql.NullString{String: *description, Valid: true}
	}

	setting, err := s.queries.UpsertSetting(ctx, store.UpsertSettingParams{
		ID:          uuid.NewString(),
		Key:         key,
		Value:       value,
		Description: desc,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		return model.Setting{}, fmt.Errorf("storing setting %q: %w", key, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, key)
	}
	if s.events != nil {
		_ = s.events.LogSettingsEvent(ctx, model.EventLevelInfo,
			"Setting updated: "+key, actorID, map[string]any{"key": key})
	}

	return setting, nil
}

// List returns all stored settings ordered by key.
func (s *SettingsService) List(ctx context.Context) ([]model.Setting, error) {
	return s.queries.ListSettings(ctx)
}

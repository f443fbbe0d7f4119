// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic on top of the store layer:
// site settings with defaults and audit event logging.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/store"
)

// EventService writes audit trail entries to the event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry. userID may be empty for
// anonymous or system events.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID, ipAddress, path string, metadata map[string]any) error {
	var nullUserID sql.NullString
	if userID != "" {
		nullUserID = sql.NullString{String: userID, Valid: true}
	}
	var nullIP sql.NullString
	if ipAddress != "" {
		nullIP = sql.NullString{String: ipAddress, Valid: true}
	}
	var nullPath sql.NullString
	if path != "" {
		nullPath = sql.NullString{String: path, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		IPAddress: nullIP,
		Path:      nullPath,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to write event log entry", "error", err)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message, userID, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, path, metadata)
}

// LogContentEvent logs a content-related event.
func (s *EventService) LogContentEvent(ctx context.Context, level, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryContent, message, userID, "", "", metadata)
}

// LogUserEvent logs a user management event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, "", "", metadata)
}

// LogSettingsEvent logs a site settings change.
func (s *EventService) LogSettingsEvent(ctx context.Context, level, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySettings, message, userID, "", "", metadata)
}

// LogSystemEvent logs a system-level event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, "", "", "", metadata)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}

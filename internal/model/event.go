// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryContent  = "content"
	EventCategoryUser     = "user"
	EventCategorySettings = "settings"
	EventCategorySystem   = "system"
	EventCategoryCache    = "cache"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string // JSON string
	CreatedAt time.Time
}

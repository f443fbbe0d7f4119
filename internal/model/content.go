// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Content lifecycle statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Content is the common shape shared by every content type. Type-specific
// columns (excerpt, job_type, client_name, ...) live in Extra, keyed by
// column name.
type Content struct {
	ID              string         `json:"id"`
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	Body            sql.NullString `json:"-"` // content column, JSON document
	Status          string         `json:"status"`
	PublishedAt     sql.NullTime   `json:"-"`
	PublishedBy     sql.NullString `json:"-"`
	MetaTitle       sql.NullString `json:"-"`
	MetaDescription sql.NullString `json:"-"`
	MetaKeywords    sql.NullString `json:"-"` // JSON array of strings
	OGImageURL      sql.NullString `json:"-"`
	CreatedBy       sql.NullString `json:"-"`
	UpdatedBy       sql.NullString `json:"-"`
	IsDeleted       bool           `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	// Extra holds type-specific TEXT columns keyed by column name.
	Extra map[string]sql.NullString `json:"-"`
}

// IsPublished returns true if the record is published.
func (c *Content) IsPublished() bool {
	return c.Status == StatusPublished
}

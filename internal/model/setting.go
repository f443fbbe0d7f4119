// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Well-known site setting keys. The API serves exactly these; unknown keys
// fall back to an empty default document.
const (
	SettingHeader      = "header"
	SettingFooter      = "footer"
	SettingTheme       = "theme"
	SettingUI          = "ui"
	SettingAboutPage   = "about_page"
	SettingContactInfo = "contact_info"
	SettingServicesAI  = "services_ai_ml_section"
	SettingHero        = "hero"
)

// Setting is a single site-settings document stored by key.
type Setting struct {
	ID          string         `json:"id"`
	Key         string         `json:"key"`
	Value       string         `json:"-"` // JSON document
	Description sql.NullString `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Role, content records, and site settings.
package model

import (
	"database/sql"
	"time"
)

// System role names. Role checks match on name, not ID.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// User represents a CMS user account.
type User struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	Username        string         `json:"username"`
	PasswordHash    string         `json:"-"` // Never expose in JSON
	FirstName       sql.NullString `json:"-"`
	LastName        sql.NullString `json:"-"`
	AvatarURL       sql.NullString `json:"-"`
	IsActive        bool           `json:"is_active"`
	IsEmailVerified bool           `json:"is_email_verified"`
	LastLoginAt     sql.NullTime   `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Role represents a named role that can be granted to users.
type Role struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  sql.NullString `json:"-"`
	IsSystemRole bool           `json:"is_system_role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Principal is an authenticated caller: a user plus the names of the
// roles granted to them. It is what middleware places in the request
// context and what authorization checks consume.
type Principal struct {
	User  *User
	Roles []string
}

// HasRole returns true if the principal holds the named role.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// HasAnyRole returns true if the principal holds at least one of the named roles.
func (p *Principal) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if p.HasRole(n) {
			return true
		}
	}
	return false
}

// CanReadUnpublished returns true if the principal may see draft and
// archived content. Admins and editors can; viewers cannot.
func (p *Principal) CanReadUnpublished() bool {
	return p.HasAnyRole(RoleAdmin, RoleEditor)
}

// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "database/sql"

// NullStringFromPtr converts a pointer to string into sql.NullString.
// Returns a valid NullString if the pointer is non-nil, otherwise an invalid one.
func NullStringFromPtr(ptr *string) sql.NullString {
	if ptr != nil {
		return sql.NullString{String: *ptr, Valid: true}
	}
	return sql.NullString{}
}

// PtrFromNullString converts sql.NullString into a pointer, nil when invalid.
func PtrFromNullString(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

// PtrFromNullTimeRFC3339 formats sql.NullTime as an RFC 3339 string pointer,
// nil when invalid.
func PtrFromNullTimeRFC3339(nt sql.NullTime) *string {
	if nt.Valid {
		s := nt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
		return &s
	}
	return nil
}

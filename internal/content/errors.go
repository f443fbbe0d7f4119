// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Manager operations.
var (
	// ErrNotFound means the record does not exist or is soft-deleted.
	ErrNotFound = errors.New("content not found")
	// ErrSlugExists means another live record of the same type holds the slug.
	ErrSlugExists = errors.New("slug already exists")
)

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// AsValidation unwraps a *ValidationError if err is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

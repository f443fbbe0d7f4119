// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/socialit/cms-go/internal/model"
	"github.com/socialit/cms-go/internal/util"
)

// htmlSanitizer strips dangerous markup from rich-text fields on write.
// UGCPolicy allows safe formatting tags while removing scripts and event
// handlers.
var htmlSanitizer = bluemonday.UGCPolicy()

// commonColumns are shared by every content table, in scan order.
var commonColumns = []string{
	"id", "slug", "title", "content", "status", "published_at", "published_by",
	"meta_title", "meta_description", "meta_keywords", "og_image_url",
	"created_by", "updated_by", "is_deleted", "created_at", "updated_at",
}

// Manager executes the content lifecycle against one content table.
type Manager struct {
	db   *sql.DB
	desc Descriptor
}

// NewManager returns a Manager for the given descriptor.
func NewManager(db *sql.DB, desc Descriptor) *Manager {
	return &Manager{db: db, desc: desc}
}

// Descriptor returns the descriptor this manager serves.
func (m *Manager) Descriptor() Descriptor {
	return m.desc
}

func (m *Manager) selectColumns() string {
	cols := append([]string{}, commonColumns...)
	for _, c := range m.desc.Columns {
		cols = append(cols, c.Name)
	}
	return strings.Join(cols, ", ")
}

func (m *Manager) scan(row interface{ Scan(...any) error }) (model.Content, error) {
	var c model.Content
	extras := make([]sql.NullString, len(m.desc.Columns))

	dest := []any{
		&c.ID, &c.Slug, &c.Title, &c.Body, &c.Status, &c.PublishedAt, &c.PublishedBy,
		&c.MetaTitle, &c.MetaDescription, &c.MetaKeywords, &c.OGImageURL,
		&c.CreatedBy, &c.UpdatedBy, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	}
	for i := range extras {
		dest = append(dest, &extras[i])
	}

	if err := row.Scan(dest...); err != nil {
		return model.Content{}, err
	}

	c.Extra = make(map[string]sql.NullString, len(m.desc.Columns))
	for i, col := range m.desc.Columns {
		c.Extra[col.Name] = extras[i]
	}
	return c, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateParams holds the fields accepted when creating a record. A nil
// pointer leaves the column NULL. Extra values are keyed by column name;
// unknown keys are rejected.
type CreateParams struct {
	Slug            string // derived from Title when empty
	Title           string
	Body            *string
	Status          string // defaults to draft
	MetaTitle       *string
	MetaDescription *string
	MetaKeywords    *string
	OGImageURL      *string
	Extra           map[string]*string
	ActorID         string
}

// Create validates and inserts a record. A published status stamps the
// publish metadata with the acting user.
func (m *Manager) Create(ctx context.Context, arg CreateParams) (model.Content, error) {
	fields := map[string]string{}

	if strings.TrimSpace(arg.Title) == "" {
		fields["title"] = "title is required"
	}

	status := arg.Status
	if status == "" {
		status = model.StatusDraft
	}
	if !model.ValidStatus(status) {
		fields["status"] = fmt.Sprintf("unknown status %q", status)
	}

	slug := arg.Slug
	if slug == "" {
		slug = util.Slugify(arg.Title)
	}
	if !util.IsValidSlug(slug) {
		fields["slug"] = fmt.Sprintf("invalid slug %q", slug)
	}

	extra, extraFields := m.normalizeExtra(arg.Extra, true)
	for k, v := range extraFields {
		fields[k] = v
	}

	if len(fields) > 0 {
		return model.Content{}, &ValidationError{Fields: fields}
	}

	now := time.Now()
	id := uuid.NewString()

	cols := []string{"id", "slug", "title", "content", "status", "meta_title",
		"meta_description", "meta_keywords", "og_image_url", "created_by",
		"updated_by", "created_at", "updated_at"}
	actor := sql.NullString{String: arg.ActorID, Valid: arg.ActorID != ""}
	args := []any{id, slug, arg.Title, util.NullStringFromPtr(arg.Body), status,
		util.NullStringFromPtr(arg.MetaTitle), util.NullStringFromPtr(arg.MetaDescription),
		util.NullStringFromPtr(arg.MetaKeywords), util.NullStringFromPtr(arg.OGImageURL),
		actor, actor, now, now}

	if status == model.StatusPublished {
		cols = append(cols, "published_at", "published_by")
		args = append(args, now, actor)
	}

	for _, col := range m.desc.Columns {
		cols = append(cols, col.Name)
		args = append(args, extra[col.Name])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		m.desc.Table, strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
		m.selectColumns())

	record, err := m.scan(m.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Content{}, ErrSlugExists
		}
		return model.Content{}, fmt.Errorf("creating %s: %w", m.desc.Name, err)
	}
	return record, nil
}

// normalizeExtra validates extra values against the descriptor and applies
// sanitization. When requireAll is set, Required columns must be present.
func (m *Manager) normalizeExtra(in map[string]*string, requireAll bool) (map[string]sql.NullString, map[string]string) {
	fields := map[string]string{}
	out := make(map[string]sql.NullString, len(m.desc.Columns))

	for name, value := range in {
		col, ok := m.desc.Column(name)
		if !ok {
			fields[name] = "unknown field"
			continue
		}
		if value == nil {
			out[name] = sql.NullString{}
			continue
		}
		v := *value
		if col.Sanitize {
			v = htmlSanitizer.Sanitize(v)
		}
		out[name] = sql.NullString{String: v, Valid: true}
	}

	if requireAll {
		for _, col := range m.desc.Columns {
			if !col.Required {
				continue
			}
			v, ok := out[col.Name]
			if !ok || !v.Valid || strings.TrimSpace(v.String) == "" {
				fields[col.Name] = col.Name + " is required"
			}
		}
	}

	return out, fields
}

// GetByID returns the live record with the given ID.
func (m *Manager) GetByID(ctx context.Context, id string) (model.Content, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND is_deleted = 0",
		m.selectColumns(), m.desc.Table)
	record, err := m.scan(m.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Content{}, ErrNotFound
	}
	if err != nil {
		return model.Content{}, fmt.Errorf("getting %s: %w", m.desc.Name, err)
	}
	return record, nil
}

// GetBySlug returns the live record with the given slug.
func (m *Manager) GetBySlug(ctx context.Context, slug string) (model.Content, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE slug = ? AND is_deleted = 0",
		m.selectColumns(), m.desc.Table)
	record, err := m.scan(m.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Content{}, ErrNotFound
	}
	if err != nil {
		return model.Content{}, fmt.Errorf("getting %s by slug: %w", m.desc.Name, err)
	}
	return record, nil
}

// ListParams filters and paginates List. Filters are equality matches on
// Filterable descriptor columns; unknown or non-filterable keys are ignored.
type ListParams struct {
	Status  string
	Filters map[string]string
	Skip    int64
	Limit   int64
}

// List returns live records ordered by creation time, newest first, plus the
// total count matching the filters.
func (m *Manager) List(ctx context.Context, arg ListParams) ([]model.Content, int64, error) {
	where := []string{"is_deleted = 0"}
	args := []any{}

	if arg.Status != "" {
		where = append(where, "status = ?")
		args = append(args, arg.Status)
	}
	for name, value := range arg.Filters {
		col, ok := m.desc.Column(name)
		if !ok || !col.Filterable {
			continue
		}
		where = append(where, col.Name+" = ?")
		args = append(args, value)
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", m.desc.Table, whereClause)
	if err := m.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting %ss: %w", m.desc.Name, err)
	}

	limit := arg.Limit
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		m.selectColumns(), m.desc.Table, whereClause)
	rows, err := m.db.QueryContext(ctx, query, append(args, limit, arg.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing %ss: %w", m.desc.Name, err)
	}
	defer rows.Close()

	var records []model.Content
	for rows.Next() {
		record, err := m.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}
	return records, total, rows.Err()
}

// UpdateParams holds a partial update. A nil pointer leaves the field
// unchanged; for the nullable columns an invalid NullString clears the
// stored value. Extra entries present with a nil value clear the column.
type UpdateParams struct {
	Slug            *string
	Title           *string
	Status          *string
	Body            *sql.NullString
	MetaTitle       *sql.NullString
	MetaDescription *sql.NullString
	MetaKeywords    *sql.NullString
	OGImageURL      *sql.NullString
	Extra           map[string]*string
	ActorID         string
}

// Update applies a partial update inside a transaction. Moving into the
// published status stamps published_at and published_by; moving out of it
// clears both.
func (m *Manager) Update(ctx context.Context, id string, arg UpdateParams) (model.Content, error) {
	fields := map[string]string{}

	if arg.Status != nil && !model.ValidStatus(*arg.Status) {
		fields["status"] = fmt.Sprintf("unknown status %q", *arg.Status)
	}
	if arg.Title != nil && strings.TrimSpace(*arg.Title) == "" {
		fields["title"] = "title must not be empty"
	}
	if arg.Slug != nil && !util.IsValidSlug(*arg.Slug) {
		fields["slug"] = fmt.Sprintf("invalid slug %q", *arg.Slug)
	}

	extra, extraFields := m.normalizeExtra(arg.Extra, false)
	for k, v := range extraFields {
		fields[k] = v
	}
	if len(fields) > 0 {
		return model.Content{}, &ValidationError{Fields: fields}
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Content{}, fmt.Errorf("beginning update: %w", err)
	}
	defer tx.Rollback()

	current, err := m.scan(tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND is_deleted = 0",
			m.selectColumns(), m.desc.Table), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Content{}, ErrNotFound
	}
	if err != nil {
		return model.Content{}, fmt.Errorf("loading %s: %w", m.desc.Name, err)
	}

	now := time.Now()
	actor := sql.NullString{String: arg.ActorID, Valid: arg.ActorID != ""}

	merged := current
	if arg.Slug != nil {
		merged.Slug = *arg.Slug
	}
	if arg.Title != nil {
		merged.Title = *arg.Title
	}
	if arg.Body != nil {
		merged.Body = *arg.Body
	}
	if arg.MetaTitle != nil {
		merged.MetaTitle = *arg.MetaTitle
	}
	if arg.MetaDescription != nil {
		merged.MetaDescription = *arg.MetaDescription
	}
	if arg.MetaKeywords != nil {
		merged.MetaKeywords = *arg.MetaKeywords
	}
	if arg.OGImageURL != nil {
		merged.OGImageURL = *arg.OGImageURL
	}
	for name := range arg.Extra {
		merged.Extra[name] = extra[name]
	}

	if arg.Status != nil {
		wasPublished := current.Status == model.StatusPublished
		willPublish := *arg.Status == model.StatusPublished
		merged.Status = *arg.Status
		switch {
		case willPublish && !wasPublished:
			merged.PublishedAt = sql.NullTime{Time: now, Valid: true}
			merged.PublishedBy = actor
		case !willPublish && wasPublished:
			merged.PublishedAt = sql.NullTime{}
			merged.PublishedBy = sql.NullString{}
		}
	}

	sets := []string{"slug = ?", "title = ?", "content = ?", "status = ?",
		"published_at = ?", "published_by = ?", "meta_title = ?",
		"meta_description = ?", "meta_keywords = ?", "og_image_url = ?",
		"updated_by = ?", "updated_at = ?"}
	args := []any{merged.Slug, merged.Title, merged.Body, merged.Status,
		merged.PublishedAt, merged.PublishedBy, merged.MetaTitle,
		merged.MetaDescription, merged.MetaKeywords, merged.OGImageURL,
		actor, now}
	for _, col := range m.desc.Columns {
		sets = append(sets, col.Name+" = ?")
		args = append(args, merged.Extra[col.Name])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? RETURNING %s",
		m.desc.Table, strings.Join(sets, ", "), m.selectColumns())
	record, err := m.scan(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Content{}, ErrSlugExists
		}
		return model.Content{}, fmt.Errorf("updating %s: %w", m.desc.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Content{}, fmt.Errorf("committing update: %w", err)
	}
	return record, nil
}

// Delete soft-deletes the record. Deleting an already deleted or missing
// record returns ErrNotFound.
func (m *Manager) Delete(ctx context.Context, id, actorID string) error {
	actor := sql.NullString{String: actorID, Valid: actorID != ""}
	res, err := m.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET is_deleted = 1, updated_by = ?, updated_at = ? WHERE id = ? AND is_deleted = 0",
			m.desc.Table), actor, time.Now(), id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", m.desc.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

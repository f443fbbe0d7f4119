// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"
)

func TestContentCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/blogs", token, map[string]any{
		"slug":    "first-post",
		"title":   "First Post",
		"content": "<p>Hello</p>",
		"excerpt": "Hello",
		"tags":    []string{"go", "cms"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	var created map[string]any
	decodeData(t, rec, &created)

	if created["status"] != "draft" {
		t.Errorf("status = %v, want draft", created["status"])
	}
	if created["published_at"] != nil {
		t.Errorf("published_at = %v, want null for a draft", created["published_at"])
	}
	tags, ok := created["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("tags = %v, want a two-element array", created["tags"])
	}

	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created record has no id")
	}

	rec = env.do(t, http.MethodGet, "/cms/blogs/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var fetched map[string]any
	decodeData(t, rec, &fetched)
	if fetched["slug"] != "first-post" {
		t.Errorf("slug = %v, want first-post", fetched["slug"])
	}
}

func TestContentGetBySlug(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/pages", token, map[string]any{
		"slug":   "about",
		"title":  "About",
		"status": "published",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/cms/pages/slug/about", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by slug: got %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var page map[string]any
	decodeData(t, rec, &page)
	if page["title"] != "About" {
		t.Errorf("title = %v, want About", page["title"])
	}

	rec = env.do(t, http.MethodGet, "/cms/pages/slug/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing slug: got %d, want 404", rec.Code)
	}
}

func TestContentDraftVisibility(t *testing.T) {
	env := newTestEnv(t)
	editor := env.editorToken(t)
	_, viewer := env.createUser(t, "viewer-pw-12345", "viewer")

	rec := env.do(t, http.MethodPost, "/cms/services", editor, map[string]any{
		"slug":  "secret-service",
		"title": "Not Yet Public",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)
	id := created["id"].(string)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusNotFound},
		{"viewer", viewer, http.StatusNotFound},
		{"editor", editor, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/cms/services/"+id, tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d; body: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	// Draft never appears in an anonymous listing.
	rec = env.do(t, http.MethodGet, "/cms/services", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous list: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var listed []map[string]any
	decodeData(t, rec, &listed)
	for _, item := range listed {
		if item["id"] == id {
			t.Error("draft leaked into anonymous listing")
		}
	}
}

func TestContentListStatusFilter(t *testing.T) {
	env := newTestEnv(t)
	editor := env.editorToken(t)

	for _, p := range []map[string]any{
		{"slug": "live", "title": "Live", "status": "published"},
		{"slug": "wip", "title": "WIP"},
	} {
		rec := env.do(t, http.MethodPost, "/cms/pages", editor, p)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %v: got %d; body: %s", p["slug"], rec.Code, rec.Body.String())
		}
	}

	// Anonymous requests may not ask for non-published records.
	rec := env.do(t, http.MethodGet, "/cms/pages?status=draft", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("anonymous draft filter: got %d, want 403", rec.Code)
	}

	// Editors see drafts when they ask.
	rec = env.do(t, http.MethodGet, "/cms/pages?status=draft", editor, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("editor draft filter: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var drafts []map[string]any
	decodeData(t, rec, &drafts)
	if len(drafts) != 1 || drafts[0]["slug"] != "wip" {
		t.Errorf("draft listing = %v, want only wip", drafts)
	}

	// An unknown status is a validation error, not an empty result.
	rec = env.do(t, http.MethodGet, "/cms/pages?status=bogus", editor, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bogus status: got %d, want 422", rec.Code)
	}
}

func TestContentListColumnFilterAndPaging(t *testing.T) {
	env := newTestEnv(t)
	editor := env.editorToken(t)

	jobs := []map[string]any{
		{"slug": "backend-dev", "title": "Backend Developer", "job_type": "engineering", "status": "published"},
		{"slug": "frontend-dev", "title": "Frontend Developer", "job_type": "engineering", "status": "published"},
		{"slug": "designer", "title": "Designer", "job_type": "design", "status": "published"},
	}
	for _, p := range jobs {
		rec := env.do(t, http.MethodPost, "/cms/jobs", editor, p)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %v: got %d; body: %s", p["slug"], rec.Code, rec.Body.String())
		}
	}

	rec := env.do(t, http.MethodGet, "/cms/jobs?job_type=engineering", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var filtered []map[string]any
	decodeData(t, rec, &filtered)
	if len(filtered) != 2 {
		t.Fatalf("got %d engineering jobs, want 2", len(filtered))
	}
	meta := decodeMeta(t, rec)
	if meta.Total != 2 {
		t.Errorf("meta.total = %d, want 2", meta.Total)
	}

	rec = env.do(t, http.MethodGet, "/cms/jobs?limit=2&skip=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("paged list: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var page []map[string]any
	decodeData(t, rec, &page)
	if len(page) != 1 {
		t.Errorf("got %d records on second page, want 1", len(page))
	}
	meta = decodeMeta(t, rec)
	if meta.Total != 3 || meta.Skip != 2 || meta.Limit != 2 {
		t.Errorf("meta = %+v, want total 3, skip 2, limit 2", meta)
	}
}

func TestContentListDefaultLimit(t *testing.T) {
	env := newTestEnv(t)

	// No limit parameter means a full first page of 100.
	rec := env.do(t, http.MethodGet, "/cms/services", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d; body: %s", rec.Code, rec.Body.String())
	}
	if meta := decodeMeta(t, rec); meta.Limit != 100 {
		t.Errorf("default limit = %d, want 100", meta.Limit)
	}

	// Oversized limits clamp to the cap.
	rec = env.do(t, http.MethodGet, "/cms/services?limit=5000", "", nil)
	if meta := decodeMeta(t, rec); meta.Limit != 1000 {
		t.Errorf("clamped limit = %d, want 1000", meta.Limit)
	}
}

func TestContentPublishStamping(t *testing.T) {
	env := newTestEnv(t)
	editor, token := env.createUser(t, "editor-pw-12345", "editor")

	rec := env.do(t, http.MethodPost, "/cms/case-studies", token, map[string]any{
		"slug":  "acme-migration",
		"title": "Acme Migration",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)
	id := created["id"].(string)

	// draft -> published stamps the publish metadata.
	rec = env.do(t, http.MethodPut, "/cms/case-studies/"+id, token, map[string]any{
		"status": "published",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var published map[string]any
	decodeData(t, rec, &published)
	publishedAt, _ := published["published_at"].(string)
	if publishedAt == "" {
		t.Fatal("published_at not stamped on publish")
	}
	if published["published_by"] != editor.ID {
		t.Errorf("published_by = %v, want %s", published["published_by"], editor.ID)
	}

	// An edit that stays published keeps the original stamp.
	rec = env.do(t, http.MethodPut, "/cms/case-studies/"+id, token, map[string]any{
		"title": "Acme Cloud Migration",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var edited map[string]any
	decodeData(t, rec, &edited)
	if edited["published_at"] != publishedAt {
		t.Errorf("published_at changed on a non-status edit: %v != %v", edited["published_at"], publishedAt)
	}

	// published -> archived clears the stamp.
	rec = env.do(t, http.MethodPut, "/cms/case-studies/"+id, token, map[string]any{
		"status": "archived",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("archive: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var archived map[string]any
	decodeData(t, rec, &archived)
	if archived["published_at"] != nil || archived["published_by"] != nil {
		t.Errorf("publish metadata not cleared on archive: %v / %v",
			archived["published_at"], archived["published_by"])
	}
}

func TestContentSlugConflict(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/services", token, map[string]any{
		"slug": "consulting", "title": "Consulting",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/cms/services", token, map[string]any{
		"slug": "consulting", "title": "Consulting Again",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate slug: got %d, want 409; body: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "conflict" {
		t.Errorf("error code = %q, want conflict", code)
	}

	// A slug in another collection does not conflict.
	rec = env.do(t, http.MethodPost, "/cms/pages", token, map[string]any{
		"slug": "consulting", "title": "Consulting Page",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("cross-collection slug: got %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
}

func TestContentValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	tests := []struct {
		name    string
		path    string
		payload map[string]any
	}{
		{"missing title", "/cms/pages", map[string]any{"slug": "untitled"}},
		{"invalid slug", "/cms/pages", map[string]any{"slug": "Bad Slug!", "title": "Bad"}},
		{"missing job_type", "/cms/jobs", map[string]any{"slug": "mystery", "title": "Mystery Role"}},
		{"bad status", "/cms/pages", map[string]any{"slug": "p", "title": "P", "status": "pending"}},
		{"unknown field", "/cms/pages", map[string]any{"slug": "p", "title": "P", "colour": "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, token, tt.payload)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("got %d, want 422; body: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != "validation_error" {
				t.Errorf("error code = %q, want validation_error", code)
			}
		})
	}
}

func TestContentDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/blogs", token, map[string]any{
		"slug": "short-lived", "title": "Short Lived", "status": "published",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)
	id := created["id"].(string)

	rec = env.do(t, http.MethodDelete, "/cms/blogs/"+id, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204; body: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/cms/blogs/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/cms/blogs/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete: got %d, want 404", rec.Code)
	}

	// The slug is free again after the soft delete.
	rec = env.do(t, http.MethodPost, "/cms/blogs", token, map[string]any{
		"slug": "short-lived", "title": "Short Lived II",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("slug reuse after delete: got %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
}

func TestContentWritePermissions(t *testing.T) {
	env := newTestEnv(t)
	_, viewer := env.createUser(t, "viewer-pw-12345", "viewer")

	payload := map[string]any{"slug": "nope", "title": "Nope"}

	rec := env.do(t, http.MethodPost, "/cms/pages", "", payload)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: got %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/cms/pages", viewer, payload)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer create: got %d, want 403", rec.Code)
	}

	// Admins can write content too.
	admin := env.adminToken(t)
	rec = env.do(t, http.MethodPost, "/cms/pages", admin, payload)
	if rec.Code != http.StatusCreated {
		t.Errorf("admin create: got %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
}

func TestPageContentNormalization(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	// A bare object becomes a single section with defaults filled in.
	rec := env.do(t, http.MethodPost, "/cms/pages", token, map[string]any{
		"slug":  "home",
		"title": "Home",
		"content": map[string]any{
			"headline": "Welcome",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)

	sections, ok := created["content"].([]any)
	if !ok || len(sections) != 1 {
		t.Fatalf("content = %v, want a one-section list", created["content"])
	}
	section := sections[0].(map[string]any)
	if section["type"] != "raw" || section["id"] != "section-0" {
		t.Errorf("section = %v, want raw/section-0 defaults", section)
	}
	data, ok := section["data"].(map[string]any)
	if !ok || data["headline"] != "Welcome" {
		t.Errorf("section data = %v, want the original object", section["data"])
	}

	// Section lists keep explicit type/data/id and default the rest.
	rec = env.do(t, http.MethodPost, "/cms/pages", token, map[string]any{
		"slug":  "landing",
		"title": "Landing",
		"content": []any{
			map[string]any{"type": "hero", "data": map[string]any{"cta": "Go"}, "id": "hero-1"},
			map[string]any{"text": "plain block"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &created)
	sections = created["content"].([]any)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	first := sections[0].(map[string]any)
	if first["type"] != "hero" || first["id"] != "hero-1" {
		t.Errorf("first section = %v, want explicit hero/hero-1", first)
	}
	second := sections[1].(map[string]any)
	if second["type"] != "raw" || second["id"] != "section-1" {
		t.Errorf("second section = %v, want raw/section-1 defaults", second)
	}

	// Other content types pass their body through untouched.
	rec = env.do(t, http.MethodPost, "/cms/blogs", token, map[string]any{
		"slug":    "raw-body",
		"title":   "Raw Body",
		"content": "<p>unwrapped html</p>",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &created)
	if created["content"] != "<p>unwrapped html</p>" {
		t.Errorf("blog content = %v, want untouched string", created["content"])
	}
}

func TestContentSlugDerivedFromTitle(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/blogs", token, map[string]any{
		"title": "Schöne Grüße from Göteborg",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)
	if created["slug"] != "schone-grusse-from-goteborg" {
		t.Errorf("slug = %v, want schone-grusse-from-goteborg", created["slug"])
	}
}

func TestContentUpdateClearsField(t *testing.T) {
	env := newTestEnv(t)
	token := env.editorToken(t)

	rec := env.do(t, http.MethodPost, "/cms/services", token, map[string]any{
		"slug": "audit", "title": "Audit", "subtitle": "Deep dive",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeData(t, rec, &created)
	id := created["id"].(string)

	rec = env.do(t, http.MethodPut, "/cms/services/"+id, token, map[string]any{
		"subtitle": nil,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d; body: %s", rec.Code, rec.Body.String())
	}
	var updated map[string]any
	decodeData(t, rec, &updated)
	if updated["subtitle"] != nil {
		t.Errorf("subtitle = %v, want null after explicit clear", updated["subtitle"])
	}
	if updated["title"] != "Audit" {
		t.Errorf("title = %v, want unchanged Audit", updated["title"])
	}
}

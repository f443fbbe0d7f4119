// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content implements the shared lifecycle for all content types:
// creation, slug-addressed reads, filtered listing, partial update with
// publish stamping, and soft delete. Each content type contributes a
// Descriptor naming its table and type-specific columns; one Manager per
// descriptor executes the common policy against that table.
package content

// Column describes a type-specific TEXT column on a content table.
type Column struct {
	Name       string
	Required   bool // must be present and non-empty on create
	Filterable bool // usable as an equality filter on List
	Sanitize   bool // HTML-sanitized on write
}

// Descriptor binds a content type to its table and extra columns.
type Descriptor struct {
	Name    string // singular entity name, used in error messages
	Table   string
	Columns []Column
}

// Column returns the named column and whether it exists.
func (d Descriptor) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Services describes the service content type.
var Services = Descriptor{
	Name:  "service",
	Table: "services",
	Columns: []Column{
		{Name: "subtitle"},
		{Name: "description", Sanitize: true},
		{Name: "featured_image_url"},
		{Name: "icon_url"},
	},
}

// Pages describes the page content type.
var Pages = Descriptor{
	Name:  "page",
	Table: "pages",
	Columns: []Column{
		{Name: "template"},
	},
}

// Blogs describes the blog post content type.
var Blogs = Descriptor{
	Name:  "blog",
	Table: "blogs",
	Columns: []Column{
		{Name: "excerpt", Sanitize: true},
		{Name: "featured_image_url"},
		{Name: "author_id"},
		{Name: "category", Filterable: true},
		{Name: "tags"},
	},
}

// CaseStudies describes the case study content type.
var CaseStudies = Descriptor{
	Name:  "case study",
	Table: "case_studies",
	Columns: []Column{
		{Name: "client_name"},
		{Name: "client_logo_url"},
		{Name: "excerpt", Sanitize: true},
		{Name: "challenge", Sanitize: true},
		{Name: "solution", Sanitize: true},
		{Name: "results", Sanitize: true},
		{Name: "featured_image_url"},
		{Name: "gallery_images"},
		{Name: "industry", Filterable: true},
		{Name: "tags"},
	},
}

// Jobs describes the job posting content type.
var Jobs = Descriptor{
	Name:  "job",
	Table: "jobs",
	Columns: []Column{
		{Name: "job_type", Required: true, Filterable: true},
		{Name: "location"},
		{Name: "employment_type", Filterable: true},
		{Name: "description", Sanitize: true},
		{Name: "requirements"},
	},
}

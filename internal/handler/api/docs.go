// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
)

//go:embed docs/*.md
var docsFS embed.FS

// docsPage is the HTML shell wrapped around rendered markdown.
var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #222; }
pre { background: #f4f4f4; padding: 1rem; overflow-x: auto; border-radius: 4px; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.7rem; text-align: left; }
a { color: #0f3460; }
</style>
</head>
<body>
<nav><a href="/docs">Documentation</a></nav>
{{.Body}}
</body>
</html>
`))

type docsPageData struct {
	Title string
	Body  template.HTML
}

// DocsIndex handles GET /docs - lists the available guides.
func (h *Handler) DocsIndex(w http.ResponseWriter, _ *http.Request) {
	entries, err := fs.ReadDir(docsFS, "docs")
	if err != nil {
		WriteInternalError(w, "Failed to read documentation")
		return
	}

	var slugs []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".md"); ok {
			slugs = append(slugs, name)
		}
	}
	sort.Strings(slugs)

	var md bytes.Buffer
	md.WriteString("# Documentation\n\n")
	for _, slug := range slugs {
		md.WriteString("- [" + docsSlugTitle(slug) + "](/docs/" + slug + ")\n")
	}

	h.renderDocsPage(w, "Documentation", md.Bytes())
}

// DocsGuide handles GET /docs/{slug} - renders one markdown guide.
func (h *Handler) DocsGuide(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !isValidDocsSlug(slug) {
		WriteNotFound(w, "Guide not found")
		return
	}

	source, err := docsFS.ReadFile("docs/" + slug + ".md")
	if err != nil {
		WriteNotFound(w, "Guide not found")
		return
	}

	h.renderDocsPage(w, docsSlugTitle(slug), source)
}

// renderDocsPage converts markdown to HTML and writes the page shell.
func (h *Handler) renderDocsPage(w http.ResponseWriter, title string, source []byte) {
	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		WriteInternalError(w, "Failed to render documentation")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsPage.Execute(w, docsPageData{
		Title: title,
		Body:  template.HTML(buf.String()), //nolint:gosec // embedded markdown, not user input
	})
}

// isValidDocsSlug permits only [a-z0-9_-], preventing path traversal.
func isValidDocsSlug(slug string) bool {
	if slug == "" {
		return false
	}
	for _, c := range slug {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// docsSlugTitle converts a filename slug to a display title.
func docsSlugTitle(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, word := range words {
		if word == "api" || word == "rest" {
			words[i] = strings.ToUpper(word)
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/socialit/cms-go/internal/middleware"
	"github.com/socialit/cms-go/internal/model"
)

// Brute-force protection on the login endpoint, per client IP.
const (
	loginRPS   = 1
	loginBurst = 5
)

// Routes mounts the full API surface: auth, content collections,
// users, roles, settings, health, and docs.
func (h *Handler) Routes(health *HealthHandler) http.Handler {
	r := chi.NewRouter()

	auth := middleware.Auth(h.tokens, h.db)
	optionalAuth := middleware.OptionalAuth(h.tokens, h.db)

	r.Get("/health", health.Health)
	r.With(auth).Get("/health/detailed", health.HealthDetailed)

	r.Get("/docs", h.DocsIndex)
	r.Get("/docs/{slug}", h.DocsGuide)

	r.With(middleware.LoginRateLimit(loginRPS, loginBurst)).Post("/auth/login", h.Login)
	r.With(auth).Get("/auth/me", h.Me)

	r.Route("/cms", func(r chi.Router) {
		r.Get("/status", h.Status)

		mountContent := func(base string, res *ContentResource) {
			r.Route(base, func(r chi.Router) {
				// Reads resolve the principal when present so editors
				// see drafts; anonymous requests still pass.
				r.Group(func(r chi.Router) {
					r.Use(optionalAuth)
					r.Get("/", res.List)
					r.Get("/{id}", res.Get)
					r.Get("/slug/{slug}", res.GetBySlug)
				})
				r.Group(func(r chi.Router) {
					r.Use(auth, middleware.RequireEditor())
					r.Post("/", res.Create)
					r.Put("/{id}", res.Update)
					r.Delete("/{id}", res.Delete)
				})
			})
		}

		mountContent("/services", h.ServicesResource())
		mountContent("/pages", h.PagesResource())
		mountContent("/blogs", h.BlogsResource())
		mountContent("/case-studies", h.CaseStudiesResource())
		mountContent("/jobs", h.JobsResource())

		r.Route("/site-settings", func(r chi.Router) {
			r.Get("/{key}", h.GetSetting)
			r.Group(func(r chi.Router) {
				r.Use(auth, middleware.RequireEditor())
				r.Get("/", h.ListSettings)
				r.Put("/{key}", h.UpsertSetting)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth, middleware.RequireRole(model.RoleAdmin))

			r.Get("/users", h.ListUsers)
			r.Post("/users", h.CreateUser)
			r.Get("/users/{id}", h.GetUser)
			r.Put("/users/{id}", h.UpdateUser)
			r.Delete("/users/{id}", h.DeleteUser)

			r.Get("/roles", h.ListRoles)
		})
	})

	return r
}

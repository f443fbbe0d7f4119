// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig holds configuration for cross-origin request handling.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API.
	// A single "*" entry allows any origin.
	AllowedOrigins []string

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge string
}

// DefaultCORSConfig allows any origin, suitable for a public content API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		MaxAge:         "300",
	}
}

// CORS creates middleware that answers preflight requests and sets
// cross-origin headers on API responses. It also sets
// X-Content-Type-Options since every response here is JSON.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowAny := len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*"

	allowed := func(origin string) bool {
		if allowAny {
			return true
		}
		for _, o := range cfg.AllowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")

			origin := r.Header.Get("Origin")
			if origin != "" && allowed(origin) {
				if allowAny {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.Header().Set("Access-Control-Max-Age", cfg.MaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

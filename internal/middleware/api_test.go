package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, http.StatusConflict, "conflict", "Slug already in use", map[string]string{"slug": "taken"})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var apiErr APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if apiErr.Error.Code != "conflict" {
		t.Errorf("code = %q, want conflict", apiErr.Error.Code)
	}
	if apiErr.Error.Details["slug"] != "taken" {
		t.Errorf("details = %v", apiErr.Error.Details)
	}
}

func TestGlobalRateLimiter(t *testing.T) {
	rl := NewGlobalRateLimiter(1, 2)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/cms/pages", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 allowed, third rejected
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Errorf("request 1 status = %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Errorf("request 2 status = %d, want 200", code)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("request 3 status = %d, want 429", code)
	}

	// Separate IP gets its own bucket
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	h := LoginRateLimit(0.1, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("first attempt status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second attempt status = %d, want 429", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"X-Real-IP wins", "203.0.113.7", "198.51.100.1", "127.0.0.1:999", "203.0.113.7"},
		{"X-Forwarded-For fallback", "", "198.51.100.1, 10.0.0.1", "127.0.0.1:999", "198.51.100.1, 10.0.0.1"},
		{"RemoteAddr fallback", "", "", "127.0.0.1:999", "127.0.0.1:999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

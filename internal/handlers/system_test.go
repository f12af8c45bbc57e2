package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tmrp/users-api/internal/config"
)

func TestRoot(t *testing.T) {
	h := NewSystemHandler(&config.Config{AppName: "Users API"})
	r := chi.NewRouter()
	h.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Message   string            `json:"message"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Welcome to Users API" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Endpoints["health"] != "/health" || body.Endpoints["users"] != "/api/users" {
		t.Fatalf("unexpected endpoints %v", body.Endpoints)
	}
}

func TestHealth(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.FixedZone("CET", 3600))
	h := NewSystemHandler(&config.Config{})
	h.now = func() time.Time { return fixed }

	r := chi.NewRouter()
	h.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status %q", body["status"])
	}
	if body["timestamp"] != "2024-03-01T11:30:45.123Z" {
		t.Fatalf("unexpected timestamp %q", body["timestamp"])
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"]); err != nil {
		t.Fatalf("timestamp does not parse: %v", err)
	}
}

func TestPrettyQueryIndents(t *testing.T) {
	h := NewSystemHandler(&config.Config{AppName: "Users API"})
	r := chi.NewRouter()
	h.Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if strings.Contains(rec.Body.String(), "\n  ") {
		t.Fatalf("expected compact output, got %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?pretty", nil))
	if !strings.Contains(rec.Body.String(), "{\n  \"status\": \"healthy\"") {
		t.Fatalf("expected indented output, got %q", rec.Body.String())
	}
}

func TestFallbackHandlers(t *testing.T) {
	tests := []struct {
		name   string
		h      http.HandlerFunc
		status int
		msg    string
	}{
		{"not found", NotFound, http.StatusNotFound, "Not found"},
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed"},
		{"internal error", InternalError, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.h(rec, httptest.NewRequest(http.MethodGet, "/whatever", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body["error"])
			}
		})
	}
}

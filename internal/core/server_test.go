package core

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"weatherwatch/internal/config"
)

func TestNewServer_RequiresDependencies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := NewServer(nil, logger); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(&config.Config{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
	if _, err := NewServer(&config.Config{}, logger); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMountRoutes_ServesRegistrarsAndHealth(t *testing.T) {
	s := testServer(t)
	s.V1RouteRegistrars = []RouteRegistrar{
		func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				JSON(w, r, http.StatusOK, APIResponse{Data: "pong"})
			})
		},
	}
	s.MountRoutes()

	tests := []struct {
		path   string
		status int
	}{
		{"/v1/ping", http.StatusOK},
		{"/health", http.StatusOK},
		{"/v1/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Result().StatusCode != tt.status {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.status, w.Result().StatusCode)
		}
	}
}

func TestMountRoutes_GlobalMiddlewareApplied(t *testing.T) {
	s := testServer(t)
	s.MountRoutes()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := w.Header().Get("X-Request-Id"); got == "" {
		t.Error("expected X-Request-Id header on response")
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected security headers applied, got %q", got)
	}
}

func TestMountRoutes_MetricsEndpointOptional(t *testing.T) {
	s := testServer(t)
	s.MountRoutes()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a metrics handler, got %d", w.Result().StatusCode)
	}

	s2 := testServer(t)
	s2.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s2.MountRoutes()

	w = httptest.NewRecorder()
	s2.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("expected 200 from mounted metrics handler, got %d", w.Result().StatusCode)
	}
}

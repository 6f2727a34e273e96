// Package core provides the API chassis for the weatherwatch service.
// It creates a chi router and enforces cross-cutting concerns -- recovery,
// request correlation, logging, CORS, and metrics -- before requests reach
// domain-specific handlers.
package core

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"weatherwatch/internal/config"
)

// MetricsCollector records API request telemetry. Implemented by
// telemetry.Metrics; a nil collector disables recording.
type MetricsCollector interface {
	RecordRequest(method, route, status string, duration time.Duration)
}

// RouteRegistrar mounts a group of domain handler routes onto a router.
// Handler packages expose registrars and main wires them in; the indirection
// avoids import cycles between core and the handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the dependencies of the HTTP API, allowing injection
// during testing and distinct configuration per environment.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// MetricsHandler, when set, is served at GET /metrics.
	MetricsHandler http.Handler

	// V1RouteRegistrars are mounted under /v1 by MountRoutes.
	V1RouteRegistrars []RouteRegistrar

	// HealthProbes are executed by GET /health; empty means always healthy.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes dependencies and prepares the server for route
// mounting. The caller mounts routes via MountRoutes after construction;
// the separation lets tests customize route registration.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Package main is the entry point for the weatherwatch API server.
//
// It loads configuration, wires the subscription store, schedule registry,
// forecast service, push dispatcher, and watcher, builds the HTTP server
// with the core chassis (middleware, routing, health checks), and starts
// listening for requests.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weatherwatch/internal/api/handlers"
	"weatherwatch/internal/config"
	"weatherwatch/internal/core"
	"weatherwatch/internal/forecasts"
	"weatherwatch/internal/push"
	"weatherwatch/internal/scheduler"
	"weatherwatch/internal/subscriptions"
	"weatherwatch/internal/telemetry"
	"weatherwatch/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("weatherwatch API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"latitude", cfg.Forecast.Latitude,
		"longitude", cfg.Forecast.Longitude,
	)

	metrics := telemetry.New()

	// Domain wiring: store, registry, forecast pipeline, push transport,
	// and the watcher that orchestrates them.
	store := subscriptions.NewStore()
	registry := scheduler.NewRegistry(logger)

	client := forecasts.NewClient(&cfg.Forecast, logger)
	forecastSvc := forecasts.NewService(client, &cfg.Forecast, logger)

	dispatcher, err := push.NewDispatcher(&cfg.Push, logger)
	if err != nil {
		return fmt.Errorf("creating push dispatcher: %w", err)
	}

	query := types.ForecastQuery{
		Latitude:  cfg.Forecast.Latitude,
		Longitude: cfg.Forecast.Longitude,
		Hours:     cfg.Forecast.LookaheadHours,
		Timezone:  "UTC",
	}
	watcher := scheduler.NewWatcher(
		scheduler.WatcherConfig{
			Query:           query,
			Payload:         types.NotificationPayload{Title: cfg.Notify.Title, Body: cfg.Notify.Body},
			DefaultTimezone: cfg.Schedule.DefaultTimezone,
		},
		store, registry, forecastSvc, dispatcher, metrics, logger,
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.MetricsHandler = metrics.Handler()

	subscriptionHandler := handlers.NewSubscriptionHandler(watcher, srv.Validator, logger, cfg.Push.VAPIDPublicKey)
	scheduleHandler := handlers.NewScheduleHandler(watcher, srv.Validator, logger, cfg.Push.AllowInsecureEndpoints)
	forecastHandler := handlers.NewForecastHandler(forecastSvc, query, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		subscriptionHandler.RegisterRoutes,
		scheduleHandler.RegisterRoutes,
		forecastHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return runHTTPServer(srv, registry, cfg, logger)
}

// runHTTPServer starts the listener and blocks until a shutdown signal or a
// fatal server error.
func runHTTPServer(srv *core.Server, registry *scheduler.Registry, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the cron runner and wait for in-flight ticks to drain.
	if err := registry.Stop(ctx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
		return fmt.Errorf("scheduler shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

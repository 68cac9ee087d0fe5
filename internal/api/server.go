// Package api provides the Commentariat REST API server.
package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/internal/logging"
	"github.com/FocuswithJustin/commentariat/internal/server"
)

// ServerStore is the store backing the API handlers.
var ServerStore store.Store

// Start runs the API server on cfg.Addr until the context is cancelled or a
// SIGINT/SIGTERM arrives, then drains in-flight requests for up to
// cfg.ShutdownTimeout before returning.
func Start(ctx context.Context, cfg Config, s store.Store) error {
	if cfg.Addr == "" {
		cfg.Addr = ":8750"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	ServerConfig = cfg
	ServerStore = s

	handler := buildHandler(setupRoutes())

	if len(cfg.AllowedOrigins) > 0 {
		logging.Info("cors configured", "mode", "restricted",
			"allowed_origins_count", len(cfg.AllowedOrigins))
	} else {
		logging.Info("cors configured", "mode", "permissive",
			"note", "allowing all origins (*)")
	}

	logging.ServerStartup("rest_api", "http", cfg.Addr, "version", cfg.Version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server failed")
	case <-sigChan:
		logging.Info("shutdown signal received")
	case <-ctx.Done():
		logging.Info("context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}

	logging.Info("server stopped")
	return nil
}

// buildHandler wraps the mux in the middleware chain. Request IDs are
// assigned outermost so every later stage logs under the same ID.
func buildHandler(mux *http.ServeMux) http.Handler {
	var handler http.Handler = mux
	handler = server.CORSMiddleware(server.CORSConfig{AllowedOrigins: ServerConfig.AllowedOrigins}, handler)
	handler = server.SecurityHeaders(server.APICSPConfig(), handler)
	handler = MetricsMiddleware(handler)
	handler = logging.LoggingMiddleware(handler)
	handler = logging.RequestIDMiddleware(handler)
	return handler
}

// setupRoutes configures all HTTP routes.
func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/books", handleBooks)
	mux.HandleFunc("/api/v1/commentaries", handleCommentaries)
	mux.HandleFunc("/api/v1/commentaries/", handleCommentaryPath)

	return mux
}

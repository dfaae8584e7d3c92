// Package api serves a read-only REST view of one SLOW5/BLOW5 file
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewRouter builds the HTTP routes for s. gatherer backs /metrics; nil
// serves the default registry.
func NewRouter(s *Server, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	if gatherer == nil {
		r.Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	m := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, m))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/header", m.InstrumentHandler("GET", "/api/v1/header", s.handleHeader))
		r.Get("/reads", m.InstrumentHandler("GET", "/api/v1/reads", s.handleListReads))
		r.Get("/reads/{id}", m.InstrumentHandler("GET", "/api/v1/reads/{id}", s.handleGetRead))
	})

	return r
}

// StartServer serves s until ctx is cancelled, then shuts down gracefully
func StartServer(ctx context.Context, s *Server, gatherer prometheus.Gatherer) error {
	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("file", s.source.Path()).Msg("serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		s.logger.Info().Msg("server stopped")
		return nil
	}
}

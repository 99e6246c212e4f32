// Package server is the HTTP API in front of the triage engine and the
// result store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ShayCichocki/bugtriage/internal/logging"
	"github.com/ShayCichocki/bugtriage/internal/metrics"
	"github.com/ShayCichocki/bugtriage/internal/store"
	"github.com/ShayCichocki/bugtriage/internal/triage"
)

// Server serves the triage API.
type Server struct {
	engine  *triage.Engine
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server and builds its routes.
func New(engine *triage.Engine, st store.Store, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  st,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/triage", s.handleTriage)
		r.Route("/results", func(r chi.Router) {
			r.Get("/", s.handleListResults)
			r.Get("/count", s.handleCountResults)
			r.Get("/{id}", s.handleGetResult)
			r.Delete("/{id}", s.handleDeleteResult)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Config holds listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Package api provides the dashboard's HTTP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/narvanalabs/sgt-web/internal/api/handlers"
	"github.com/narvanalabs/sgt-web/internal/api/health"
	"github.com/narvanalabs/sgt-web/internal/api/middleware"
	"github.com/narvanalabs/sgt-web/internal/live"
	"github.com/narvanalabs/sgt-web/internal/runner"
	"github.com/narvanalabs/sgt-web/internal/town"
	"github.com/narvanalabs/sgt-web/pkg/config"
	"github.com/narvanalabs/sgt-web/ui"
)

// Version is the current version of the dashboard.
// This should be set at build time using ldflags.
var Version = "dev"

// apiTimeout bounds a single REST request. Commands have their own, shorter
// timeout; this only catches handlers that never return.
const apiTimeout = 60 * time.Second

// Server represents the dashboard HTTP server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	runner        runner.Runner
	town          *town.Town
	hub           *live.Hub
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new dashboard server with the given dependencies.
func NewServer(cfg *config.Config, r runner.Runner, t *town.Town, hub *live.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		runner: r,
		town:   t,
		hub:    hub,
		config: cfg,
		logger: logger,
	}

	s.healthChecker = health.NewChecker(Version)
	s.healthChecker.Register("sgt_binary", health.ExecutableCheck(cfg.SGTBin))
	s.healthChecker.Register("sgt_root", health.DirCheck(cfg.SGTRoot))
	s.healthChecker.Register("live", health.SessionsCheck(hub))

	s.httpServer = &http.Server{
		Addr:        cfg.Addr(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	s.setupRouter()
	s.httpServer.Handler = s.router
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))

	r.Get("/health", s.healthChecker.Handler())

	statusHandler := handlers.NewStatusHandler(s.runner, s.logger)
	townHandler := handlers.NewTownHandler(s.town, s.logger)
	slingHandler := handlers.NewSlingHandler(s.runner, s.logger)
	overviewHandler := handlers.NewOverviewHandler(s.runner, s.town, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(apiTimeout))
		r.NotFound(handlers.WriteNotFound)

		// Backed by sgt commands
		r.Get("/status", statusHandler.Status)
		r.Get("/rigs", statusHandler.Rigs)
		r.Get("/peek/{target}", statusHandler.Peek)
		r.Post("/sling", slingHandler.Sling)
		r.Post("/sling-dog", slingHandler.SlingDog)

		// Backed by state files
		r.Get("/polecats", townHandler.Polecats)
		r.Get("/dogs", townHandler.Dogs)
		r.Get("/merge-queue", townHandler.MergeQueue)
		r.Get("/crew", townHandler.Crew)
		r.Get("/molecules", townHandler.Molecules)
		r.Get("/escalation", townHandler.Escalation)
		r.Get("/agents", townHandler.Agents)
		r.Get("/logs", townHandler.Logs)

		r.Get("/overview", overviewHandler.Get)
	})

	// Live channel. Long-lived, so it sits outside the request timeout.
	liveHandler := handlers.NewLiveHandler(s.hub, s.logger)
	r.Get("/ws", liveHandler.ServeWS)

	r.Handle("/*", ui.Handler())

	s.router = r
}

// Start starts the HTTP server and blocks until it fails or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting dashboard server", "addr", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// HTTPServer returns the underlying http.Server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}

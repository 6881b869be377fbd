package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lyfesaver74/embywatch/internal/api/handlers"
	"github.com/lyfesaver74/embywatch/internal/api/middleware"
	"github.com/lyfesaver74/embywatch/internal/config"
	"github.com/lyfesaver74/embywatch/internal/controllers"
	"github.com/lyfesaver74/embywatch/internal/publish"
	"github.com/lyfesaver74/embywatch/internal/scheduler"
)

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	registry    *publish.Registry
	sessionCtrl *controllers.SessionController
	sched       *scheduler.Scheduler
	logger      *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, registry *publish.Registry, sessionCtrl *controllers.SessionController, sched *scheduler.Scheduler, logger *logrus.Logger) *Server {
	s := &Server{
		registry:    registry,
		sessionCtrl: sessionCtrl,
		sched:       sched,
		logger:      logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.sched, s.registry, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	entitiesHandler := handlers.NewEntitiesHandler(s.registry, s.logger)
	mux.HandleFunc("/api/entities", entitiesHandler.ServeHTTP)

	sessionsHandler := handlers.NewSessionsHandler(s.registry, s.sessionCtrl, s.logger)
	mux.HandleFunc("/api/sessions", sessionsHandler.List)
	mux.HandleFunc("/api/sessions/", sessionsHandler.ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Package server exposes the cached market snapshot over HTTP: an HTML
// dashboard page, a JSON API, and a manual refresh action.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"marketdash/internal/config"
	"marketdash/internal/logger"
	"marketdash/internal/market"
)

// Server is the dashboard HTTP surface.
type Server struct {
	cfg    *config.Config
	client *market.Client
	log    *logger.Logger
	router *http.ServeMux
	tmpl   *template.Template
}

// New creates the server and registers its routes.
func New(cfg *config.Config, client *market.Client, log *logger.Logger) (*Server, error) {
	tmpl, err := template.New("dashboard").Parse(dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		client: client,
		log:    log,
		router: http.NewServeMux(),
		tmpl:   tmpl,
	}

	s.setRoutes()

	return s, nil
}

func (s *Server) setRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleDashboard)
	s.router.HandleFunc("POST /refresh", s.handleRefresh)
	s.router.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the route handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("dashboard listening", "addr", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}

		s.log.Info("dashboard stopped")

		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	}
}

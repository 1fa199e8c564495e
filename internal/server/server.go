// Package server serves emitted reports and the run history over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/soyeahso/d20stats/internal/config"
	"github.com/soyeahso/d20stats/internal/logging"
	"github.com/soyeahso/d20stats/internal/store"
)

// Server is the report viewer HTTP server.
type Server struct {
	cfg       config.ServerConfig
	runs      *store.RunStore
	staticDir string
	allLabel  string
	log       *logging.Logger

	httpServer *http.Server
	addr       string
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithRuns serves the run history API from the given store.
func WithRuns(runs *store.RunStore) ServerOption {
	return func(s *Server) {
		s.runs = runs
	}
}

// WithStaticDir serves emitted report files from dir.
func WithStaticDir(dir string) ServerOption {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithAllLabel sets the slice the history endpoint defaults to.
func WithAllLabel(label string) ServerOption {
	return func(s *Server) {
		s.allLabel = label
	}
}

// New creates a report server.
func New(cfg config.ServerConfig, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:      cfg,
		allLabel: "All",
		log:      log.Sub("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.AllowedOrigins)
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.ListenAddr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.addr = ln.Addr().String()

	s.log.Info().
		Str("addr", s.addr).
		Str("bind", s.cfg.Bind).
		Str("static", s.staticDir).
		Bool("history", s.runs != nil).
		Msg("report server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down report server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the bound address, or empty before Start.
func (s *Server) Addr() string {
	return s.addr
}

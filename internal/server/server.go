// Package server provides the local preview HTTP server: it serves the
// build output directory and exposes Prometheus metrics and a health
// endpoint alongside.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/foliate/foliate/internal/metrics"
)

// Server serves a static directory for local preview.
type Server struct {
	dir      string
	port     int
	log      *slog.Logger
	registry *prom.Registry

	httpServer *http.Server
}

// New creates a preview Server for dir on port.
func New(dir string, port int) *Server {
	return &Server{
		dir:  dir,
		port: port,
		log:  slog.Default(),
	}
}

// WithLogger injects a logger.
func (s *Server) WithLogger(log *slog.Logger) *Server {
	s.log = log
	return s
}

// WithMetricsRegistry exposes reg at /metrics.
func (s *Server) WithMetricsRegistry(reg *prom.Registry) *Server {
	s.registry = reg
	return s
}

// URL is the address the server listens on.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Start binds the listener and serves in a background goroutine. It returns
// once the listener is bound, so a success means the port was available.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.dir)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}

	addr := fmt.Sprintf(":%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("preview server failed", slog.Any("error", err))
		}
	}()

	s.log.Info("preview server listening",
		slog.Int("port", s.port), slog.String("url", s.URL()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server exposes a collector on a dedicated listener.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a metrics server for addr serving c at path.
func NewServer(addr, path string, c *Collector, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(path, c.Handler())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until Shutdown and then returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("starting metrics server", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the handler of the listener.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

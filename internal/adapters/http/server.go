// Package http provides the HTTP router and handlers of the airport API.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jobrunner/airportdb/internal/adapters/metrics"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/config"
	"github.com/jobrunner/airportdb/internal/ports/input"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Syncer triggers an on-demand database sync.
type Syncer interface {
	TriggerSync(ctx context.Context) (application.SyncResult, error)
}

// Options holds the optional collaborators of the server.
type Options struct {
	Sync        Syncer              // enables POST /api/v1/sync
	Database    output.PathResolver // enables GET /assets/airports.sqlite
	Metrics     *metrics.Collector  // request metrics
	MetricsPath string              // serves Metrics on the router when set
}

// Server routes HTTP requests to the airport services.
type Server struct {
	router   *mux.Router
	airports input.AirportQueries
	health   input.HealthChecker
	opts     Options
	logger   *slog.Logger
	config   config.ServerConfig
}

// NewServer creates the router for the airport API.
func NewServer(
	cfg config.ServerConfig,
	airports input.AirportQueries,
	health input.HealthChecker,
	opts Options,
	logger *slog.Logger,
) *Server {
	s := &Server{
		airports: airports,
		health:   health,
		opts:     opts,
		logger:   logger,
		config:   cfg,
	}

	s.router = s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	// Add middleware
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
	}

	// Add CORS middleware if configured
	if s.config.CORS.Enabled() {
		r.Use(newCORSPolicy(s.config.CORS.AllowedOrigins).middleware)
	}

	// Health endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReadiness).Methods(http.MethodGet)

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Lookup endpoints
	api.HandleFunc("/airports", s.handleListAirports).Methods(http.MethodGet)
	api.HandleFunc("/airports/iata/{code}", s.handleAirportByIATA).Methods(http.MethodGet)
	api.HandleFunc("/airports/faa/{code}", s.handleAirportByFAA).Methods(http.MethodGet)
	api.HandleFunc("/airports/{icao}", s.handleAirportByICAO).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	// Sync endpoint (only if sync service is configured)
	if s.opts.Sync != nil {
		api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	}

	// Database download for browser clients
	if s.opts.Database != nil {
		r.HandleFunc("/assets/airports.sqlite", s.handleDatabaseAsset).Methods(http.MethodGet, http.MethodHead)
	}

	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, s.opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	// OpenAPI spec and Swagger UI
	r.HandleFunc("/openapi.json", s.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/docs", s.handleSwaggerUI).Methods(http.MethodGet)
	r.HandleFunc("/swagger", s.handleSwaggerUI).Methods(http.MethodGet)

	// Lookup page (if enabled)
	if s.config.Frontend {
		r.HandleFunc("/", s.handleFrontend).Methods(http.MethodGet)
	}

	// Preflight requests for routes that only register GET/POST.
	if s.config.CORS.Enabled() {
		r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	}

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// loggingMiddleware logs incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package airportdb is the embedding API of the airport database.
//
// OpenNative reads a SQLite file from disk. NewBrowser holds a database
// loaded from bytes or over HTTP, which is how the js/wasm build runs.
// Both return clients exposing the same lookups.
package airportdb

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jobrunner/airportdb/internal/adapters/sqlite"
	"github.com/jobrunner/airportdb/internal/adapters/wasmsqlite"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Domain types.
type (
	Airport               = domain.Airport
	AirportIdentity       = domain.AirportIdentity
	AirportLocation       = domain.AirportLocation
	AirportInfrastructure = domain.AirportInfrastructure
	AirportOperational    = domain.AirportOperational
	AirportFrequencies    = domain.AirportFrequencies
	AirportType           = domain.AirportType
	AirportTypeSource     = domain.AirportTypeSource
	AirportStatus         = domain.AirportStatus
	Runway                = domain.Runway
	RunwaySurface         = domain.RunwaySurface
	FuelType              = domain.FuelType
	SearchOptions         = domain.SearchOptions
	ValidationError       = domain.ValidationError
	AssetError            = domain.AssetError
	FetchError            = domain.FetchError

	// MetricsCollector receives query and connection metrics.
	MetricsCollector = output.MetricsCollector
)

// Errors callers test for with errors.Is.
var (
	ErrInvalidInput   = domain.ErrInvalidInput
	ErrUnavailable    = domain.ErrUnavailable
	ErrNotInitialized = domain.ErrNotInitialized
	ErrAssetNotFound  = domain.ErrAssetNotFound
	ErrNetwork        = domain.ErrNetwork
	ErrCORS           = domain.ErrCORS
)

// MaxSearchResults caps SearchAirports.
const MaxSearchResults = domain.MaxSearchResults

// Ptr returns a pointer to v, for filling SearchOptions.
func Ptr[T any](v T) *T {
	return domain.Ptr(v)
}

type settings struct {
	logger  *slog.Logger
	metrics output.MetricsCollector
}

// Option configures a client.
type Option func(*settings)

// WithLogger sets the logger. Clients log nothing by default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics reports query and connection metrics to m.
func WithMetrics(m MetricsCollector) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:  slog.New(slog.DiscardHandler),
		metrics: &output.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client runs airport queries. The connection opens on the first query.
type Client struct {
	*application.AirportService
	native *application.NativeDatabase
}

// OpenNative returns a client for the database file at path. When path is
// empty or missing, AIRPORTDB_DATABASE_PATH, data/airports.sqlite next to
// the executable and ./data/airports.sqlite are tried in turn.
func OpenNative(path string, opts ...Option) *Client {
	s := newSettings(opts)
	db := application.NewNativeDatabase(sqlite.NewResolver(path), sqlite.Opener, s.metrics, s.logger)
	return &Client{
		AirportService: application.NewAirportService(db, s.metrics, s.logger),
		native:         db,
	}
}

// Path returns the file of the most recent connection, or "" before the
// first query.
func (c *Client) Path() string {
	return c.native.Path()
}

// Close releases the connection. A later query opens it again.
func (c *Client) Close() error {
	return c.native.Close()
}

// BrowserOptions selects the database and engine a browser client loads.
// Without Bytes or DatabaseURL the database comes from the CDN, falling back
// to the bundled copy.
type BrowserOptions struct {
	Bytes       []byte
	DatabaseURL string
	CDNURL      string
	BundledURL  string
	WASMURL     string
	BaseURL     string
	HTTPClient  *http.Client
}

// BrowserClient runs airport queries against an in-memory database. Queries
// fail with ErrNotInitialized until InitializeBrowserDatabase succeeds.
type BrowserClient struct {
	*application.AirportService
	browser *application.BrowserDatabase
}

// NewBrowser returns an uninitialized browser client.
func NewBrowser(opts ...Option) *BrowserClient {
	s := newSettings(opts)
	db := application.NewBrowserDatabase(wasmsqlite.Driver{}, s.metrics, s.logger)
	return &BrowserClient{
		AirportService: application.NewAirportService(db, s.metrics, s.logger),
		browser:        db,
	}
}

// InitializeBrowserDatabase loads the engine and the database. Calls after
// the first success do nothing.
func (c *BrowserClient) InitializeBrowserDatabase(ctx context.Context, opts BrowserOptions) error {
	return c.browser.Initialize(ctx, application.BrowserOptions(opts))
}

// IsBrowserDatabaseInitialized reports whether queries can run.
func (c *BrowserClient) IsBrowserDatabaseInitialized() bool {
	return c.browser.IsInitialized()
}

// Close releases the database. InitializeBrowserDatabase loads it again.
func (c *BrowserClient) Close() error {
	return c.browser.Close()
}

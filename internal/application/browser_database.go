package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jobrunner/airportdb/internal/assets"
	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// BrowserOptions configures InitializeBrowserDatabase.
type BrowserOptions struct {
	Bytes       []byte // database image, no network access
	DatabaseURL string // fetched without fallback
	CDNURL      string
	BundledURL  string
	WASMURL     string // SQLite engine binary; empty uses the bundled one
	BaseURL     string // page location for relative URLs
	HTTPClient  *http.Client
}

// BrowserDatabase owns the in-memory connection of the browser build.
// Queries fail until Initialize has completed, including while it is
// still loading. mu is never held across I/O.
type BrowserDatabase struct {
	mu         sync.Mutex
	engine     output.QueryEngine
	generation uint64 // bumped by Close to discard loads already in flight
	inflight   singleflight.Group
	driver     output.BytesEngine
	metrics    output.MetricsCollector
	logger     *slog.Logger
}

// NewBrowserDatabase creates an uninitialized browser database.
func NewBrowserDatabase(driver output.BytesEngine, metrics output.MetricsCollector, logger *slog.Logger) *BrowserDatabase {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &BrowserDatabase{
		driver:  driver,
		metrics: metrics,
		logger:  logger,
	}
}

// Initialize loads the engine and the database. Concurrent calls share a
// single load. Once initialized, further calls return immediately without
// fetching anything.
func (d *BrowserDatabase) Initialize(ctx context.Context, opts BrowserOptions) error {
	d.mu.Lock()
	if d.engine != nil {
		d.mu.Unlock()
		return nil
	}
	gen := d.generation
	d.mu.Unlock()

	ch := d.inflight.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, d.initialize(ctx, opts, gen)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// initialize runs one load and publishes the engine unless Close ran
// in the meantime.
func (d *BrowserDatabase) initialize(ctx context.Context, opts BrowserOptions, gen uint64) error {
	engine, err := d.load(ctx, opts)
	if err != nil {
		d.metrics.IncConnectionOpens(RuntimeBrowser, false)
		return err
	}

	d.mu.Lock()
	if d.generation != gen || d.engine != nil {
		d.mu.Unlock()
		_ = engine.Close()
		d.logger.Debug("discarding browser database loaded across Close")
		return domain.ErrClosed
	}
	d.engine = engine
	d.mu.Unlock()

	d.metrics.IncConnectionOpens(RuntimeBrowser, true)
	d.metrics.SetConnectionOpen(RuntimeBrowser, true)
	d.logger.Info("browser database initialized")
	return nil
}

func (d *BrowserDatabase) load(ctx context.Context, opts BrowserOptions) (output.QueryEngine, error) {
	bin, err := assets.ResolveEngineBinary(ctx, opts.HTTPClient, opts.BaseURL, opts.WASMURL)
	if err != nil {
		return nil, err
	}
	if err := d.driver.SetEngineBinary(bin); err != nil {
		d.logger.Warn("custom sqlite engine ignored", "error", err)
	}

	pipeline, err := assets.DatabasePipeline(assets.DatabaseOptions{
		Bytes:       opts.Bytes,
		DatabaseURL: opts.DatabaseURL,
		CDNURL:      opts.CDNURL,
		BundledURL:  opts.BundledURL,
		BaseURL:     opts.BaseURL,
	}, opts.HTTPClient, d.metrics, d.logger)
	if err != nil {
		return nil, err
	}

	data, err := pipeline.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := d.driver.OpenBytes(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("opening browser database: %w", err)
	}
	return engine, nil
}

// IsInitialized reports whether Initialize has completed successfully.
func (d *BrowserDatabase) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine != nil
}

// Database returns the engine or domain.ErrNotInitialized.
func (d *BrowserDatabase) Database(_ context.Context) (output.QueryEngine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine == nil {
		return nil, domain.ErrNotInitialized
	}
	return d.engine, nil
}

// Close releases the database and abandons any load in flight, whose
// Initialize then fails with domain.ErrClosed. A later Initialize loads
// it again.
func (d *BrowserDatabase) Close() error {
	d.mu.Lock()
	d.generation++
	engine := d.engine
	d.engine = nil
	d.mu.Unlock()

	if engine == nil {
		return nil
	}

	err := engine.Close()
	d.metrics.SetConnectionOpen(RuntimeBrowser, false)

	if err != nil {
		return fmt.Errorf("closing browser database: %w", err)
	}
	return nil
}

// Package app provides application initialization and wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/jobrunner/airportdb/internal/adapters/http"
	"github.com/jobrunner/airportdb/internal/adapters/metrics"
	"github.com/jobrunner/airportdb/internal/adapters/sqlite"
	"github.com/jobrunner/airportdb/internal/adapters/storage"
	tlsAdapter "github.com/jobrunner/airportdb/internal/adapters/tls"
	"github.com/jobrunner/airportdb/internal/adapters/wasmsqlite"
	"github.com/jobrunner/airportdb/internal/adapters/watcher"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/config"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// App holds all application components.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Resolver      *sqlite.Resolver
	Database      *application.NativeDatabase
	Airports      *application.AirportService
	HealthService *application.HealthService
	Storage       output.ObjectStorage
	SyncService   *application.SyncService
	HTTPServer    *httpAdapter.Server
	Server        *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// NewQueries wires the native runtime without any listener. The CLI uses
// it for one-shot lookups.
func NewQueries(cfg *config.Config, collector output.MetricsCollector, logger *slog.Logger) (*sqlite.Resolver, *application.NativeDatabase, *application.AirportService) {
	if collector == nil {
		collector = &output.NoOpMetrics{}
	}
	resolver := sqlite.NewResolver(cfg.Database.Path)
	db := application.NewNativeDatabase(resolver, sqlite.Opener, collector, logger)
	return resolver, db, application.NewAirportService(db, collector, logger)
}

// NewBrowserQueries wires the in-memory runtime. The database stays
// unavailable until Initialize is called with BrowserOptions(cfg).
func NewBrowserQueries(collector output.MetricsCollector, logger *slog.Logger) (*application.BrowserDatabase, *application.AirportService) {
	if collector == nil {
		collector = &output.NoOpMetrics{}
	}
	db := application.NewBrowserDatabase(wasmsqlite.Driver{}, collector, logger)
	return db, application.NewAirportService(db, collector, logger)
}

// BrowserOptions maps the browser section of cfg onto loader options.
func BrowserOptions(cfg *config.Config) application.BrowserOptions {
	return application.BrowserOptions{
		CDNURL:     cfg.Browser.CDNURL,
		BundledURL: cfg.Browser.BundledURL,
		WASMURL:    cfg.Browser.WASMURL,
		BaseURL:    cfg.Browser.BaseURL,
	}
}

// New creates and initializes a new application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize metrics
	var metricsCollector output.MetricsCollector = &output.NoOpMetrics{}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(metrics.DefaultNamespace)
		metricsCollector = app.Metrics
		if cfg.Metrics.Port != 0 {
			app.MetricsServer = metrics.NewServer(cfg.MetricsAddress(), cfg.Metrics.Path, app.Metrics, logger)
		}
	}

	app.Resolver, app.Database, app.Airports = NewQueries(cfg, metricsCollector, logger)
	app.HealthService = application.NewHealthService(app.Airports, app.Database)

	// Initialize storage adapter and sync
	if cfg.Storage.Enabled() {
		store, err := InitStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("initializing storage: %w", err)
		}
		app.Storage = store
		app.SyncService = application.NewSyncService(store, app.Database, application.SyncConfig{
			Key:      cfg.Database.Key,
			Dest:     SyncDestination(cfg, app.Resolver),
			Interval: cfg.Database.SyncInterval,
		}, logger)
	}

	opts := httpAdapter.Options{Database: app.Resolver}
	if app.SyncService != nil {
		opts.Sync = app.SyncService
	}
	if app.Metrics != nil {
		opts.Metrics = app.Metrics
		if app.MetricsServer == nil {
			opts.MetricsPath = cfg.Metrics.Path
		}
	}
	app.HTTPServer = httpAdapter.NewServer(cfg.Server, app.Airports, app.HealthService, opts, logger)

	server, err := tlsAdapter.NewServer(
		tlsAdapter.Config{
			Enabled:  cfg.TLS.Enabled,
			Domains:  cfg.TLS.Domains,
			Email:    cfg.TLS.Email,
			CacheDir: cfg.TLS.CacheDir,
			Staging:  cfg.TLS.Staging,
			DNS: tlsAdapter.DNSConfig{
				SubscriptionID:    cfg.TLS.DNS.SubscriptionID,
				ResourceGroupName: cfg.TLS.DNS.ResourceGroupName,
				ClientID:          cfg.TLS.DNS.ClientID,
			},
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		cfg.Server.Address(),
		app.HTTPServer.Handler(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initializing TLS: %w", err)
	}
	app.Server = server

	// Initialize file watcher for hot-reload
	if cfg.Database.Watch {
		w, err := watcher.New(
			watcher.Config{
				Files: []string{SyncDestination(cfg, app.Resolver)},
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components and serves until a listener
// fails or Shutdown is called.
func (a *App) Start(ctx context.Context) error {
	// Fetch the database before serving when it is missing locally
	if a.SyncService != nil {
		if _, err := a.Resolver.Resolve(); err != nil {
			a.Logger.Info("database not found locally, syncing from storage")
			if _, err := a.SyncService.Sync(ctx); err != nil {
				a.Logger.Warn("initial sync failed", "error", err)
			}
		}
		a.SyncService.Start(ctx)
	}

	// Start file watcher
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	if err := a.Server.ManageCertificates(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreClosed(a.Server.ListenAndServe())
	})
	if a.MetricsServer != nil {
		g.Go(func() error {
			return ignoreClosed(a.MetricsServer.Start())
		})
	}

	// A failing listener takes the others down with it.
	stopped := make(chan struct{})
	go func() {
		select {
		case <-gctx.Done():
			a.shutdownServers(context.Background())
		case <-stopped:
		}
	}()
	defer close(stopped)

	return g.Wait()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	// Stop watcher
	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	// Stop sync scheduler
	if a.SyncService != nil {
		a.SyncService.Stop()
	}

	a.shutdownServers(ctx)

	// Close the database connection
	if err := a.Database.Close(); err != nil {
		a.Logger.Error("failed to close database", "error", err)
		return err
	}

	return nil
}

func (a *App) shutdownServers(ctx context.Context) {
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}
}

// handleFileEvent drops the connection when the database file changes so
// that the next query opens the new file.
func (a *App) handleFileEvent(_ context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())
	return a.Database.Reload()
}

// SyncDestination returns the local file that sync writes and the watcher
// follows: the configured path, else the resolved file, else the default
// data directory.
func SyncDestination(cfg *config.Config, resolver output.PathResolver) string {
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	if path, err := resolver.Resolve(); err == nil {
		return path
	}
	return filepath.Join(".", sqlite.DefaultDataDir, sqlite.DefaultDatabaseFile)
}

// InitStorage initializes the appropriate storage adapter.
func InitStorage(ctx context.Context, cfg config.StorageConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case config.StorageLocal:
		return storage.NewLocalStorage(cfg.LocalPath), nil

	case config.StorageS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case config.StorageAzure:
		return storage.NewAzureStorage(storage.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case config.StorageHTTP:
		return storage.NewHTTPStorage(storage.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

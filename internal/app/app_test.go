package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobrunner/airportdb/internal/adapters/sqlite"
	"github.com/jobrunner/airportdb/internal/adapters/watcher"
	"github.com/jobrunner/airportdb/internal/config"
	"github.com/jobrunner/airportdb/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(dbPath string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: dbPath},
		Storage:  config.StorageConfig{Type: config.StorageNone},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestNewServesFixture(t *testing.T) {
	path := testutil.WriteFixture(t, t.TempDir())
	app, err := New(context.Background(), testConfig(path), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	if app.SyncService != nil {
		t.Error("sync service should not exist without storage")
	}
	if app.MetricsServer != nil {
		t.Error("metrics should share the API listener when no port is set")
	}

	for _, target := range []string{"/api/v1/airports/KLAX", "/metrics", "/assets/airports.sqlite"} {
		rr := httptest.NewRecorder()
		app.HTTPServer.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, rr.Code)
		}
	}
}

func TestNewWithLocalStorage(t *testing.T) {
	releases := t.TempDir()
	testutil.WriteFixture(t, releases)
	dest := filepath.Join(t.TempDir(), "airports.sqlite")

	cfg := testConfig(dest)
	cfg.Storage = config.StorageConfig{Type: config.StorageLocal, LocalPath: releases}
	cfg.Metrics.Port = 9091

	app, err := New(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	if app.SyncService == nil {
		t.Fatal("sync service should exist with storage")
	}
	if app.MetricsServer == nil {
		t.Error("metrics server should exist with a dedicated port")
	}

	result, err := app.SyncService.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !result.Updated {
		t.Error("first sync should download the database")
	}

	count, err := app.Airports.CountAirports(context.Background())
	if err != nil {
		t.Fatalf("CountAirports() error = %v", err)
	}
	if count != testutil.FixtureAirports {
		t.Errorf("CountAirports() = %d, want %d", count, testutil.FixtureAirports)
	}
}

func TestNewRejectsBadTLS(t *testing.T) {
	cfg := testConfig("")
	cfg.TLS = config.TLSConfig{Enabled: true}
	if _, err := New(context.Background(), cfg, testLogger()); err == nil {
		t.Error("New() should fail for TLS without domains")
	}
}

func TestSyncDestination(t *testing.T) {
	path := testutil.WriteFixture(t, t.TempDir())

	tests := []struct {
		name       string
		configured string
		resolver   *sqlite.Resolver
		want       string
	}{
		{"configured", "/srv/airports.sqlite", sqlite.NewResolverWith(), "/srv/airports.sqlite"},
		{"resolved", "", sqlite.NewResolverWith(sqlite.Strategy{Name: "fixed", Candidate: func() string { return path }}), path},
		{"fallback", "", sqlite.NewResolverWith(), filepath.Join(".", "data", "airports.sqlite")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SyncDestination(testConfig(tt.configured), tt.resolver); got != tt.want {
				t.Errorf("SyncDestination() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInitStorage(t *testing.T) {
	ctx := context.Background()

	if _, err := InitStorage(ctx, config.StorageConfig{Type: config.StorageLocal, LocalPath: t.TempDir()}); err != nil {
		t.Errorf("local: %v", err)
	}
	if _, err := InitStorage(ctx, config.StorageConfig{Type: config.StorageHTTP, HTTP: config.HTTPConfig{BaseURL: "https://example.com"}}); err != nil {
		t.Errorf("http: %v", err)
	}
	if _, err := InitStorage(ctx, config.StorageConfig{Type: "ftp"}); err == nil {
		t.Error("unknown storage type should fail")
	}
}

func TestFileEventReloads(t *testing.T) {
	path := testutil.WriteFixture(t, t.TempDir())
	app, err := New(context.Background(), testConfig(path), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = app.Shutdown(context.Background()) }()

	if _, err := app.Airports.CountAirports(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !app.Database.IsOpen() {
		t.Fatal("database should be open after a query")
	}

	if err := app.handleFileEvent(context.Background(), watcher.Event{Path: path, Operation: watcher.OpModify}); err != nil {
		t.Fatalf("handleFileEvent() error = %v", err)
	}
	if app.Database.IsOpen() {
		t.Error("file event should drop the connection")
	}
}

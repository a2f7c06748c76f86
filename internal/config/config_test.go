package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jobrunner/airportdb/internal/assets"
)

func validConfig() Config {
	return Config{
		Storage: StorageConfig{Type: StorageNone},
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty storage type", func(c *Config) { c.Storage.Type = "" }, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"metrics port", func(c *Config) { c.Metrics.Port = -1 }, "invalid metrics port"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics path"},
		{"negative sync interval", func(c *Config) { c.Database.SyncInterval = -time.Second }, "invalid sync interval"},
		{"sync without storage", func(c *Config) { c.Database.SyncInterval = time.Hour }, "no storage configured"},
		{"tls without domains", func(c *Config) { c.TLS.Enabled = true; c.TLS.Email = "ops@example.com" }, "no domains"},
		{"tls without email", func(c *Config) { c.TLS.Enabled = true; c.TLS.Domains = []string{"airports.example.com"} }, "no email"},
		{"local without path", func(c *Config) { c.Storage.Type = StorageLocal }, "local storage path"},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = StorageS3; c.Storage.S3.Region = "eu-west-1" }, "S3 bucket"},
		{"s3 without region", func(c *Config) { c.Storage.Type = StorageS3; c.Storage.S3.Bucket = "airports" }, "S3 region"},
		{"azure without container", func(c *Config) { c.Storage.Type = StorageAzure }, "azure container"},
		{"azure without account", func(c *Config) {
			c.Storage.Type = StorageAzure
			c.Storage.Azure.Container = "db"
		}, "azure account"},
		{"http without base url", func(c *Config) { c.Storage.Type = StorageHTTP }, "HTTP base URL"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }, "unknown storage type"},
		{"bad wasm url", func(c *Config) { c.Browser.WASMURL = "http://[::1" }, "invalid browser wasm_url"},
		{"periodic s3 sync", func(c *Config) {
			c.Database.SyncInterval = time.Hour
			c.Storage.Type = StorageS3
			c.Storage.S3.Bucket = "airports"
			c.Storage.S3.Region = "eu-west-1"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Type != StorageNone || cfg.Storage.Enabled() {
		t.Errorf("Storage.Type = %q, want none", cfg.Storage.Type)
	}
	if cfg.Browser.CDNURL != assets.DefaultCDNURL {
		t.Errorf("Browser.CDNURL = %q", cfg.Browser.CDNURL)
	}
	if cfg.Browser.BundledURL != assets.DefaultBundledURL {
		t.Errorf("Browser.BundledURL = %q", cfg.Browser.BundledURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Database.SyncInterval != 0 {
		t.Errorf("Database.SyncInterval = %v, want 0", cfg.Database.SyncInterval)
	}
}

func TestLoadEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	t.Setenv("AIRPORTDB_DATABASE_PATH", "/srv/airports.sqlite")
	t.Setenv("AIRPORTDB_SERVER_PORT", "9090")
	t.Setenv("AIRPORTDB_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/srv/airports.sqlite" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  path: /var/lib/airportdb/airports.sqlite
  sync_interval: 6h
  watch: true
storage:
  type: http
  http:
    base_url: https://releases.example.com/airports
server:
  port: 8181
  cors:
    allowed_origins:
      - "*.example.com"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.SyncInterval != 6*time.Hour || !cfg.Database.Watch {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Storage.HTTP.IndexFile != "index.txt" {
		t.Errorf("Storage.HTTP.IndexFile = %q, want default", cfg.Storage.HTTP.IndexFile)
	}
	if !cfg.Server.CORS.Enabled() || cfg.Server.CORS.AllowedOrigins[0] != "*.example.com" {
		t.Errorf("CORS = %+v", cfg.Server.CORS)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  type: ftp\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unknown storage type") {
		t.Errorf("Load() error = %v, want validation failure", err)
	}
}

func TestAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Metrics.Port = 9100

	if got := cfg.Server.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q", got)
	}
	if got := cfg.MetricsAddress(); got != "127.0.0.1:9100" {
		t.Errorf("MetricsAddress() = %q", got)
	}
}

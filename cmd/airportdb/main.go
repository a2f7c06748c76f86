// Package main provides the airportdb command line and API server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/airportdb/internal/app"
	"github.com/jobrunner/airportdb/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli carries the state shared by the commands of one invocation.
type cli struct {
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "airportdb",
		Short: "Query airport data from the command line",
		Long: `airportdb queries the airport database.

It looks airports up by ICAO, IATA or FAA code, lists them by country,
state, city, type or tower, runs combined searches and serves the same
queries as a REST API.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          c.runRoot,
	}

	// Global flags
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().String("database", "", "path of the airports database file")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "log format (json, text)")
	root.PersistentFlags().Bool("remote", false, "load the database from the CDN, falling back to the bundled URL")
	root.PersistentFlags().String("base-url", "", "base for relative asset URLs (e.g., http://localhost:8080/)")

	// Lookup flags
	root.Flags().String("icao", "", "get airport by ICAO code")
	root.Flags().String("iata", "", "get airport by IATA code")
	root.Flags().String("faa", "", "get airport by FAA code")
	root.Flags().Bool("stats", false, "show database statistics")

	// Bind flags to viper
	_ = viper.BindPFlag("database.path", root.PersistentFlags().Lookup("database"))
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("browser.base_url", root.PersistentFlags().Lookup("base-url"))

	root.AddCommand(
		c.lookupCmd("icao", "ICAO"),
		c.lookupCmd("iata", "IATA"),
		c.lookupCmd("faa", "FAA"),
		c.countryCmd(),
		c.stateCmd(),
		c.cityCmd(),
		c.typeCmd(),
		c.towersCmd(),
		c.searchCmd(),
		c.statsCmd(),
		c.serveCmd(),
		c.syncCmd(),
		versionCmd(),
	)

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "airportdb %s\n", version)
			fmt.Fprintf(w, "  Commit:     %s\n", commit)
			fmt.Fprintf(w, "  Build Date: %s\n", buildDate)
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the airport API over HTTP",
		RunE:  c.runServer,
	}

	// Server flags
	cmd.Flags().String("host", "0.0.0.0", "server host")
	cmd.Flags().Int("port", 8080, "server port")
	cmd.Flags().Bool("tls", false, "enable TLS")
	cmd.Flags().StringSlice("tls-domains", nil, "TLS domains")
	cmd.Flags().String("tls-email", "", "TLS email for Let's Encrypt")
	cmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")
	cmd.Flags().Bool("watch", false, "reopen the database when the file changes")

	cmd.PreRun = func(cmd *cobra.Command, _ []string) {
		_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
		_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
		_ = viper.BindPFlag("tls.enabled", cmd.Flags().Lookup("tls"))
		_ = viper.BindPFlag("tls.domains", cmd.Flags().Lookup("tls-domains"))
		_ = viper.BindPFlag("tls.email", cmd.Flags().Lookup("tls-email"))
		_ = viper.BindPFlag("server.cors.allowed_origins", cmd.Flags().Lookup("cors"))
		_ = viper.BindPFlag("database.watch", cmd.Flags().Lookup("watch"))
	}

	return cmd
}

func (c *cli) runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting airportdb",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Server.Address())
		if err := application.Start(ctx); err != nil {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	logger.Info("shutting down server")
	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Default asset locations.
const (
	DefaultCDNURL     = "https://cdn.tabletopandroid.com/v0.2.1/airports.sqlite"
	DefaultBundledURL = "./assets/airports.sqlite"
)

// Pipeline tries its sources in order and returns the first success.
type Pipeline struct {
	sources []Source
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewPipeline creates a pipeline over sources.
func NewPipeline(metrics output.MetricsCollector, logger *slog.Logger, sources ...Source) *Pipeline {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sources: sources,
		metrics: metrics,
		logger:  logger,
	}
}

// Sources returns the sources in the order they are tried.
func (p *Pipeline) Sources() []Source {
	return p.sources
}

// Fetch returns the bytes of the first source that succeeds. With a single
// source its error is returned as is; otherwise every failure is joined.
func (p *Pipeline) Fetch(ctx context.Context) ([]byte, error) {
	if len(p.sources) == 0 {
		return nil, errors.New("no asset sources configured")
	}

	var errs []error
	for _, src := range p.sources {
		start := time.Now()
		data, err := src.Fetch(ctx)
		p.metrics.ObserveAssetFetchDuration(src.Name(), time.Since(start))
		p.metrics.IncAssetFetch(src.Name(), err == nil)

		if err == nil {
			p.logger.Debug("asset loaded", "source", src.Name(), "bytes", len(data))
			return data, nil
		}

		p.logger.Warn("asset source failed", "source", src.Name(), "error", err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 1 {
		return nil, errs[0]
	}
	return nil, fmt.Errorf("all asset sources failed: %w", errors.Join(errs...))
}

// DatabaseOptions selects where the browser database comes from.
type DatabaseOptions struct {
	Bytes       []byte // takes precedence over DatabaseURL
	DatabaseURL string // explicit URL, no fallback
	CDNURL      string // defaults to DefaultCDNURL
	BundledURL  string // defaults to DefaultBundledURL
	BaseURL     string // relative URLs are resolved against it
}

// DatabasePipeline builds the source chain for opts: caller bytes, else the
// explicit URL alone, else the CDN followed by the bundled copy.
func DatabasePipeline(opts DatabaseOptions, client *http.Client, metrics output.MetricsCollector, logger *slog.Logger) (*Pipeline, error) {
	if len(opts.Bytes) > 0 {
		return NewPipeline(metrics, logger, &BytesSource{Data: opts.Bytes}), nil
	}

	if opts.DatabaseURL != "" {
		u, err := ResolveAgainst(opts.BaseURL, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPipeline(metrics, logger, &URLSource{Label: "url", URL: u, Client: client}), nil
	}

	cdn := opts.CDNURL
	if cdn == "" {
		cdn = DefaultCDNURL
	}
	bundled := opts.BundledURL
	if bundled == "" {
		bundled = DefaultBundledURL
	}

	cdnURL, err := ResolveAgainst(opts.BaseURL, cdn)
	if err != nil {
		return nil, err
	}
	bundledURL, err := ResolveAgainst(opts.BaseURL, bundled)
	if err != nil {
		return nil, err
	}

	return NewPipeline(metrics, logger,
		&URLSource{Label: "cdn", URL: cdnURL, Client: client},
		&URLSource{Label: "bundled", URL: bundledURL, Client: client},
	), nil
}

// ResolveEngineBinary fetches a caller-provided SQLite WASM binary. An empty
// URL returns nil, meaning the bundled binary is used.
func ResolveEngineBinary(ctx context.Context, client *http.Client, base, wasmURL string) ([]byte, error) {
	if wasmURL == "" {
		return nil, nil
	}

	u, err := ResolveAgainst(base, wasmURL)
	if err != nil {
		return nil, err
	}

	src := &URLSource{Label: "wasm", URL: u, Client: client}
	bin, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading sqlite engine: %w", err)
	}
	return bin, nil
}

// ResolveAgainst resolves ref relative to base. An empty base leaves ref
// unchanged.
func ResolveAgainst(base, ref string) (string, error) {
	if base == "" {
		return ref, nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing asset URL %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

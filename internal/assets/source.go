// Package assets loads the airport database and engine binaries from an
// ordered list of sources.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Source produces the bytes of an asset.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Fetch returns the asset bytes.
	Fetch(ctx context.Context) ([]byte, error)
}

// BytesSource serves caller-provided bytes without touching the network.
type BytesSource struct {
	Data []byte
}

// Name implements Source.
func (s *BytesSource) Name() string {
	return "bytes"
}

// Fetch implements Source.
func (s *BytesSource) Fetch(_ context.Context) ([]byte, error) {
	if len(s.Data) == 0 {
		return nil, fmt.Errorf("no database bytes provided: %w", domain.ErrInvalidInput)
	}
	return s.Data, nil
}

// URLSource downloads an asset over HTTP.
type URLSource struct {
	Label  string // metrics label, defaults to "url"
	URL    string
	Client *http.Client
}

// Name implements Source.
func (s *URLSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "url"
}

// Fetch implements Source. A request that never produced a response is
// classified as a CORS or network restriction; an HTTP error status is
// reported with its code.
func (s *URLSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: s.URL, Err: fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)}
	}
	setFetchOptions(req)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req) //#nosec G107 -- asset URLs are configured by the embedding application
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &domain.FetchError{URL: s.URL, Err: ctxErr}
		}
		return nil, &domain.FetchError{URL: s.URL, Err: fmt.Errorf("%w: %v", domain.ErrCORS, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.FetchError{
			URL:        s.URL,
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{URL: s.URL, Err: fmt.Errorf("%w: reading body: %v", domain.ErrNetwork, err)}
	}
	return data, nil
}

// StorageSource reads an object from remote storage.
type StorageSource struct {
	Storage output.ObjectStorage
	Key     string
}

// Name implements Source.
func (s *StorageSource) Name() string {
	return "storage"
}

// Fetch implements Source.
func (s *StorageSource) Fetch(ctx context.Context) ([]byte, error) {
	if s.Storage == nil {
		return nil, errors.New("no storage configured")
	}

	r, err := s.Storage.GetReader(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Key, err)
	}
	return data, nil
}

package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")
)

// Specific errors.
var (
	ErrNotInitialized = fmt.Errorf(
		"[airport-db] browser database is not initialized, call InitializeBrowserDatabase(...) before querying: %w",
		ErrUnavailable,
	)
	ErrAssetNotFound = fmt.Errorf("database asset: %w", ErrUnavailable)
	ErrNetwork       = fmt.Errorf("network: %w", ErrUnavailable)
	ErrCORS          = fmt.Errorf("likely CORS or network restriction: %w", ErrNetwork)
	ErrClosed        = fmt.Errorf("database closed: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// QueryError represents an error while reading the store.
type QueryError struct {
	Operation string // e.g. "identity", "search"
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// AssetError is returned when no strategy could locate the database file.
type AssetError struct {
	Probes []string // Every location that was tried, in order
	Err    error    // Underlying error
}

// Error implements the error interface.
func (e *AssetError) Error() string {
	return fmt.Sprintf("could not resolve airports database (tried %v): %v", e.Probes, e.Err)
}

// Unwrap returns the underlying error.
func (e *AssetError) Unwrap() error {
	return e.Err
}

// FetchError represents a failed download of a remote asset.
// Status is zero when the request never produced a response.
type FetchError struct {
	URL        string
	Status     int
	StatusText string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("[airport-db] failed to fetch SQLite database from %q (%d %s)",
			e.URL, e.Status, e.StatusText)
	}
	if errors.Is(e.Err, ErrCORS) {
		return fmt.Sprintf("[airport-db] could not fetch SQLite database from %q. "+
			"This is commonly caused by CORS or network restrictions. "+
			"If you use a custom CDN/database URL, ensure it serves Access-Control-Allow-Origin. "+
			"You can also pass a same-origin URL or the database bytes to InitializeBrowserDatabase(...)",
			e.URL)
	}
	return fmt.Sprintf("[airport-db] failed to fetch SQLite database from %q: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	if e.Err == nil {
		return ErrNetwork
	}
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}

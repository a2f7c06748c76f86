package output

import (
	"context"
	"fmt"
	"strconv"
)

// QueryEngine is the capability every database backend provides.
// The native cgo engine and the in-browser WASM engine both satisfy it.
type QueryEngine interface {
	// Prepare returns a reusable parameterized statement.
	Prepare(ctx context.Context, query string) (Statement, error)

	// Close releases all engine resources.
	Close() error
}

// Statement is a prepared, parameterized query.
type Statement interface {
	// Get returns the first matching row. The bool is false when no row matched.
	Get(ctx context.Context, args ...any) (Row, bool, error)

	// All returns every matching row in store order unless the query orders them.
	All(ctx context.Context, args ...any) ([]Row, error)

	// Close releases the backend statement handle.
	Close() error
}

// DatabaseProvider hands out the current engine, opening it when needed.
type DatabaseProvider interface {
	Database(ctx context.Context) (QueryEngine, error)
}

// FileOpener opens a database file.
type FileOpener func(ctx context.Context, path string) (QueryEngine, error)

// PathResolver locates the database file.
type PathResolver interface {
	Resolve() (string, error)
}

// BytesEngine opens databases from serialized bytes.
type BytesEngine interface {
	// SetEngineBinary installs a SQLite binary; nil keeps the bundled one.
	SetEngineBinary(bin []byte) error

	// OpenBytes opens a read-only database image.
	OpenBytes(ctx context.Context, data []byte) (QueryEngine, error)
}

// WithStatement prepares query, hands the statement to fn and releases it
// on every exit path, including panics inside fn.
func WithStatement(ctx context.Context, engine QueryEngine, query string, fn func(Statement) error) (err error) {
	stmt, err := engine.Prepare(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing statement: %w", cerr)
		}
	}()
	return fn(stmt)
}

// GetRow runs query with args and returns its first row.
func GetRow(ctx context.Context, engine QueryEngine, query string, args ...any) (row Row, found bool, err error) {
	err = WithStatement(ctx, engine, query, func(stmt Statement) error {
		row, found, err = stmt.Get(ctx, args...)
		return err
	})
	return row, found, err
}

// AllRows runs query with args and returns every row.
func AllRows(ctx context.Context, engine QueryEngine, query string, args ...any) (rows []Row, err error) {
	err = WithStatement(ctx, engine, query, func(stmt Statement) error {
		rows, err = stmt.All(ctx, args...)
		return err
	})
	return rows, err
}

// Row maps column names to the dynamically typed values SQLite returns:
// int64, float64, string, []byte or nil.
type Row map[string]any

// Has reports whether the column is present and not NULL.
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// String returns the column as text; NULL and missing columns yield "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// OptString returns nil for NULL, missing or empty text.
func (r Row) OptString(col string) *string {
	if !r.Has(col) {
		return nil
	}
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}

// Int64 returns the column as an integer; REAL values are truncated.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseFloat(v, 64)
		return int64(n)
	case []byte:
		n, _ := strconv.ParseFloat(string(v), 64)
		return int64(n)
	default:
		return 0
	}
}

// Float64 returns the column as a float.
func (r Row) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// OptFloat64 returns nil for NULL or missing columns.
func (r Row) OptFloat64(col string) *float64 {
	if !r.Has(col) {
		return nil
	}
	f := r.Float64(col)
	return &f
}

// Bool interprets SQLite's 0/1 integers as a boolean.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return r.Int64(col) != 0
	}
}

// OptBool returns nil for NULL or missing columns.
func (r Row) OptBool(col string) *bool {
	if !r.Has(col) {
		return nil
	}
	b := r.Bool(col)
	return &b
}

// Package sqlite provides the native read-only airport database engine.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver

	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Engine implements output.QueryEngine on top of mattn/go-sqlite3.
type Engine struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only and verifies the connection.
func Open(ctx context.Context, path string) (*Engine, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}

	return &Engine{db: db, path: path}, nil
}

// uriPath escapes the characters SQLite treats specially in a file URI.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds a read-only URI. The file is treated as immutable so SQLite
// skips locking entirely.
func dsn(path string) string {
	q := url.Values{}
	q.Set("mode", "ro")
	q.Set("immutable", "1")
	return "file:" + uriPath.Replace(path) + "?" + q.Encode()
}

// Path returns the database file the engine was opened on.
func (e *Engine) Path() string {
	return e.path
}

// Prepare implements output.QueryEngine.
func (e *Engine) Prepare(ctx context.Context, query string) (output.Statement, error) {
	stmt, err := e.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &statement{stmt: stmt}, nil
}

// Close implements output.QueryEngine.
func (e *Engine) Close() error {
	return e.db.Close()
}

type statement struct {
	stmt *sql.Stmt
}

func (s *statement) Get(ctx context.Context, args ...any) (output.Row, bool, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, false, rows.Err()
	}

	columns, err := rows.Columns()
	if err != nil {
		return nil, false, err
	}
	row, err := scanRow(rows, columns)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (s *statement) All(ctx context.Context, args ...any) ([]output.Row, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []output.Row
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *statement) Close() error {
	return s.stmt.Close()
}

// scanRow scans the current row into a column-name map.
func scanRow(rows *sql.Rows, columns []string) (output.Row, error) {
	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	row := make(output.Row, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}
	return row, nil
}

// Opener adapts Open to output.FileOpener.
func Opener(ctx context.Context, path string) (output.QueryEngine, error) {
	e, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Package wasmsqlite provides the in-memory airport database engine used by
// the browser build. The database is opened from raw bytes with the
// WASM-compiled SQLite of github.com/ncruces/go-sqlite3.
package wasmsqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed" // bundled SQLite binary
	"github.com/ncruces/go-sqlite3/vfs/memdb"

	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

var (
	binaryMu sync.Mutex
	started  bool
)

// ErrEngineStarted is returned by SetEngineBinary once a database was opened.
var ErrEngineStarted = errors.New("sqlite engine already started")

var errEmptyStatement = errors.New("empty statement")

// SetEngineBinary installs a caller-provided SQLite WASM binary. It must be
// called before the first OpenBytes; a nil or empty binary keeps the
// bundled one.
func SetEngineBinary(bin []byte) error {
	binaryMu.Lock()
	defer binaryMu.Unlock()

	if len(bin) == 0 {
		return nil
	}
	if started {
		return ErrEngineStarted
	}
	sqlite3.Binary = bin
	return nil
}

// Engine implements output.QueryEngine over a memdb database.
type Engine struct {
	mu   sync.Mutex
	conn *sqlite3.Conn
	name string
}

// OpenBytes opens a read-only database from its serialized bytes.
// The engine takes ownership of data.
func OpenBytes(ctx context.Context, data []byte) (*Engine, error) {
	if len(data) == 0 {
		return nil, errors.New("empty database image")
	}

	binaryMu.Lock()
	started = true
	binaryMu.Unlock()

	name := "airports-" + uuid.NewString() + ".db"
	memdb.Create(name, data)

	conn, err := sqlite3.OpenFlags("file:/"+name+"?vfs=memdb", sqlite3.OPEN_READONLY|sqlite3.OPEN_URI)
	if err != nil {
		memdb.Delete(name)
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	e := &Engine{conn: conn, name: name}
	if err := e.check(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

// check reads the schema so that garbage bytes fail at open time.
func (e *Engine) check(ctx context.Context) error {
	stmt, err := e.Prepare(ctx, "SELECT count(*) FROM sqlite_master")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if _, _, err := stmt.Get(ctx); err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	return nil
}

// Prepare implements output.QueryEngine. The returned statement keeps only
// the SQL; each execution prepares and frees its own native handle.
func (e *Engine) Prepare(_ context.Context, query string) (output.Statement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return nil, domain.ErrClosed
	}

	stmt, tail, err := e.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, errEmptyStatement
	}
	_ = stmt.Close()

	if tail = trimTail(tail); tail != "" {
		return nil, fmt.Errorf("multiple statements not supported: %q", tail)
	}
	return &statement{engine: e, query: query}, nil
}

// Close implements output.QueryEngine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	memdb.Delete(e.name)
	return err
}

// run prepares query, binds args and calls fn for each row until fn
// returns false. The native statement is freed on every path.
func (e *Engine) run(ctx context.Context, query string, args []any, fn func(*sqlite3.Stmt) bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return domain.ErrClosed
	}

	old := e.conn.SetInterrupt(ctx)
	defer e.conn.SetInterrupt(old)

	stmt, _, err := e.conn.Prepare(query)
	if err != nil {
		return err
	}
	if stmt == nil {
		return errEmptyStatement
	}
	defer func() { _ = stmt.Close() }()

	if err := bind(stmt, args); err != nil {
		return err
	}
	for stmt.Step() {
		if !fn(stmt) {
			break
		}
	}
	return stmt.Err()
}

type statement struct {
	engine *Engine
	query  string
}

func (s *statement) Get(ctx context.Context, args ...any) (output.Row, bool, error) {
	var row output.Row
	err := s.engine.run(ctx, s.query, args, func(stmt *sqlite3.Stmt) bool {
		row = readRow(stmt)
		return false
	})
	if err != nil {
		return nil, false, err
	}
	return row, row != nil, nil
}

func (s *statement) All(ctx context.Context, args ...any) ([]output.Row, error) {
	var rows []output.Row
	err := s.engine.run(ctx, s.query, args, func(stmt *sqlite3.Stmt) bool {
		rows = append(rows, readRow(stmt))
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *statement) Close() error {
	return nil
}

// bind binds positional parameters; SQLite numbers them from 1.
func bind(stmt *sqlite3.Stmt, args []any) error {
	for i, arg := range args {
		param := i + 1
		var err error
		switch v := arg.(type) {
		case nil:
			err = stmt.BindNull(param)
		case string:
			err = stmt.BindText(param, v)
		case []byte:
			err = stmt.BindBlob(param, v)
		case int:
			err = stmt.BindInt64(param, int64(v))
		case int64:
			err = stmt.BindInt64(param, v)
		case float64:
			err = stmt.BindFloat(param, v)
		case bool:
			err = stmt.BindBool(param, v)
		default:
			err = fmt.Errorf("unsupported parameter type %T", arg)
		}
		if err != nil {
			return fmt.Errorf("binding parameter %d: %w", param, err)
		}
	}
	return nil
}

// readRow copies the current row out of WASM memory.
func readRow(stmt *sqlite3.Stmt) output.Row {
	n := stmt.ColumnCount()
	row := make(output.Row, n)
	for i := 0; i < n; i++ {
		name := stmt.ColumnName(i)
		switch stmt.ColumnType(i) {
		case sqlite3.INTEGER:
			row[name] = stmt.ColumnInt64(i)
		case sqlite3.FLOAT:
			row[name] = stmt.ColumnFloat(i)
		case sqlite3.TEXT:
			row[name] = stmt.ColumnText(i)
		case sqlite3.BLOB:
			row[name] = stmt.ColumnBlob(i, nil)
		default:
			row[name] = nil
		}
	}
	return row
}

func trimTail(tail string) string {
	for i, r := range tail {
		switch r {
		case ' ', '\t', '\n', '\r', ';':
		default:
			return tail[i:]
		}
	}
	return ""
}

// Driver exposes the package as an output.BytesEngine.
type Driver struct{}

// SetEngineBinary implements output.BytesEngine.
func (Driver) SetEngineBinary(bin []byte) error {
	return SetEngineBinary(bin)
}

// OpenBytes implements output.BytesEngine.
func (Driver) OpenBytes(ctx context.Context, data []byte) (output.QueryEngine, error) {
	e, err := OpenBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	return e, nil
}

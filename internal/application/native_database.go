package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Runtime labels used in logs and metrics.
const (
	RuntimeNative  = "native"
	RuntimeBrowser = "browser"
)

// NativeDatabase owns the single read-only connection of a native process.
// The connection is opened lazily on first use and can be closed and
// reopened any number of times. A replaced connection stays usable until
// the statements prepared on it are closed.
type NativeDatabase struct {
	mu       sync.Mutex
	resolver output.PathResolver
	open     output.FileOpener
	engine   *leasedEngine
	path     string
	metrics  output.MetricsCollector
	logger   *slog.Logger
}

// NewNativeDatabase creates a closed native database handle.
func NewNativeDatabase(
	resolver output.PathResolver,
	open output.FileOpener,
	metrics output.MetricsCollector,
	logger *slog.Logger,
) *NativeDatabase {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &NativeDatabase{
		resolver: resolver,
		open:     open,
		metrics:  metrics,
		logger:   logger,
	}
}

// Database returns the open engine, opening it on first use.
func (d *NativeDatabase) Database(ctx context.Context) (output.QueryEngine, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.engine != nil {
		return d.engine, nil
	}
	if err := d.openLocked(ctx); err != nil {
		return nil, err
	}
	return d.engine, nil
}

func (d *NativeDatabase) openLocked(ctx context.Context) error {
	path, err := d.resolver.Resolve()
	if err != nil {
		d.metrics.IncConnectionOpens(RuntimeNative, false)
		return err
	}

	engine, err := d.open(ctx, path)
	if err != nil {
		d.metrics.IncConnectionOpens(RuntimeNative, false)
		return fmt.Errorf("opening airports database: %w", err)
	}

	d.engine = &leasedEngine{owner: d, engine: engine, path: path}
	d.path = path
	d.metrics.IncConnectionOpens(RuntimeNative, true)
	d.metrics.SetConnectionOpen(RuntimeNative, true)
	d.logger.Info("airports database opened", "path", path)
	return nil
}

// Close detaches the connection. It is closed at once when idle, otherwise
// when its last statement is released. It is safe to call before any open
// and more than once.
func (d *NativeDatabase) Close() error {
	d.mu.Lock()
	engine := d.engine
	d.mu.Unlock()

	if engine == nil {
		return nil
	}
	if err := engine.Close(); err != nil {
		return fmt.Errorf("closing airports database: %w", err)
	}
	return nil
}

// Reload drops the current connection so the next access reopens the file.
// Queries already running finish on the old connection.
func (d *NativeDatabase) Reload() error {
	d.logger.Info("reloading airports database", "path", d.Path())
	return d.Close()
}

// IsOpen reports whether a connection is currently open.
func (d *NativeDatabase) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engine != nil
}

// Path returns the file of the most recent connection.
func (d *NativeDatabase) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// leasedEngine counts the statements prepared on one connection so that
// retiring it never cuts off a running query. Prepare on a connection that
// is already closed moves to the current one.
type leasedEngine struct {
	owner  *NativeDatabase
	engine output.QueryEngine
	path   string

	mu      sync.Mutex
	active  int
	retired bool
	closed  bool
}

func (e *leasedEngine) Prepare(ctx context.Context, query string) (output.Statement, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		current, err := e.owner.Database(ctx)
		if err != nil {
			return nil, err
		}
		return current.Prepare(ctx, query)
	}
	e.active++
	e.mu.Unlock()

	stmt, err := e.engine.Prepare(ctx, query)
	if err != nil {
		e.release()
		return nil, err
	}
	return &leasedStatement{Statement: stmt, engine: e}, nil
}

// Close detaches the connection from its owner and retires it.
func (e *leasedEngine) Close() error {
	d := e.owner
	d.mu.Lock()
	if d.engine == e {
		d.engine = nil
		d.metrics.SetConnectionOpen(RuntimeNative, false)
	}
	d.mu.Unlock()

	e.mu.Lock()
	e.retired = true
	if e.closed || e.active > 0 {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.owner.logger.Debug("airports database closed", "path", e.path)
	return e.engine.Close()
}

func (e *leasedEngine) release() {
	e.mu.Lock()
	e.active--
	if !e.retired || e.closed || e.active > 0 {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	if err := e.engine.Close(); err != nil {
		e.owner.logger.Warn("closing replaced airports database", "path", e.path, "error", err)
		return
	}
	e.owner.logger.Debug("airports database closed", "path", e.path)
}

type leasedStatement struct {
	output.Statement
	engine *leasedEngine
	once   sync.Once
}

func (s *leasedStatement) Close() error {
	err := s.Statement.Close()
	s.once.Do(s.engine.release)
	return err
}

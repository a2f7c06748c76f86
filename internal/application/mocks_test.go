package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jobrunner/airportdb/internal/ports/output"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockStorage implements output.ObjectStorage for testing.
type mockStorage struct {
	mu          sync.Mutex
	objects     []output.StorageObject
	content     map[string][]byte
	downloads   int
	downloadErr error
	listErr     error
}

func (m *mockStorage) List(_ context.Context) ([]output.StorageObject, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.objects, nil
}

func (m *mockStorage) Download(_ context.Context, key, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads++
	if m.downloadErr != nil {
		return m.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}
	return os.WriteFile(dest, m.content[key], 0o600)
}

func (m *mockStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.content[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.content[key]
	return ok, nil
}

// mockReloader counts reloads.
type mockReloader struct {
	reloads int
}

func (m *mockReloader) Reload() error {
	m.reloads++
	return nil
}

// fixedResolver implements output.PathResolver.
type fixedResolver struct {
	path string
	err  error
}

func (r *fixedResolver) Resolve() (string, error) {
	return r.path, r.err
}

// mockProvider implements output.DatabaseProvider.
type mockProvider struct {
	engine output.QueryEngine
	err    error
}

func (p *mockProvider) Database(_ context.Context) (output.QueryEngine, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.engine, nil
}

// scriptedEngine answers queries from canned rows keyed by SQL text.
type scriptedEngine struct {
	rows   map[string][]output.Row
	errs   map[string]error
	closed bool
}

func (e *scriptedEngine) Prepare(_ context.Context, query string) (output.Statement, error) {
	return &scriptedStatement{engine: e, query: query}, nil
}

func (e *scriptedEngine) Close() error {
	e.closed = true
	return nil
}

type scriptedStatement struct {
	engine *scriptedEngine
	query  string
}

func (s *scriptedStatement) Get(_ context.Context, _ ...any) (output.Row, bool, error) {
	if err := s.engine.errs[s.query]; err != nil {
		return nil, false, err
	}
	rows := s.engine.rows[s.query]
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (s *scriptedStatement) All(_ context.Context, _ ...any) ([]output.Row, error) {
	if err := s.engine.errs[s.query]; err != nil {
		return nil, err
	}
	return s.engine.rows[s.query], nil
}

func (s *scriptedStatement) Close() error {
	return nil
}

// countingEngine wraps an engine and counts statement lifecycles.
type countingEngine struct {
	output.QueryEngine
	mu       sync.Mutex
	prepared int
	released int
	closes   int
}

func (e *countingEngine) Prepare(ctx context.Context, query string) (output.Statement, error) {
	stmt, err := e.QueryEngine.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.prepared++
	e.mu.Unlock()
	return &countingStatement{Statement: stmt, engine: e}, nil
}

func (e *countingEngine) Close() error {
	e.mu.Lock()
	e.closes++
	e.mu.Unlock()
	return e.QueryEngine.Close()
}

func (e *countingEngine) balance() (prepared, released int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prepared, e.released
}

type countingStatement struct {
	output.Statement
	engine *countingEngine
}

func (s *countingStatement) Close() error {
	s.engine.mu.Lock()
	s.engine.released++
	s.engine.mu.Unlock()
	return s.Statement.Close()
}

// mockBytesEngine implements output.BytesEngine on top of a delegate.
type mockBytesEngine struct {
	mu       sync.Mutex
	open     func(ctx context.Context, data []byte) (output.QueryEngine, error)
	binaries [][]byte
	opens    int
}

func (m *mockBytesEngine) SetEngineBinary(bin []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binaries = append(m.binaries, bin)
	return nil
}

func (m *mockBytesEngine) OpenBytes(ctx context.Context, data []byte) (output.QueryEngine, error) {
	m.mu.Lock()
	m.opens++
	m.mu.Unlock()
	if m.open == nil {
		return &scriptedEngine{}, nil
	}
	return m.open(ctx, data)
}

// recordingMetrics implements output.MetricsCollector for assertions.
type recordingMetrics struct {
	mu          sync.Mutex
	queries     map[string][]bool
	connection  map[string]bool
	opens       map[string][]bool
	assetloads  map[string][]bool
	durationOps []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		queries:    make(map[string][]bool),
		connection: make(map[string]bool),
		opens:      make(map[string][]bool),
		assetloads: make(map[string][]bool),
	}
}

func (m *recordingMetrics) IncQueryCount(op string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[op] = append(m.queries[op], success)
}

func (m *recordingMetrics) ObserveQueryDuration(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durationOps = append(m.durationOps, op)
}

func (m *recordingMetrics) SetConnectionOpen(runtime string, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connection[runtime] = open
}

func (m *recordingMetrics) IncConnectionOpens(runtime string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens[runtime] = append(m.opens[runtime], success)
}

func (m *recordingMetrics) IncAssetFetch(source string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assetloads[source] = append(m.assetloads[source], success)
}

func (m *recordingMetrics) ObserveAssetFetchDuration(_ string, _ time.Duration) {}

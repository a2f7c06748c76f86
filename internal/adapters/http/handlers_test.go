package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jobrunner/airportdb/internal/adapters/metrics"
	"github.com/jobrunner/airportdb/internal/adapters/sqlite"
	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/config"
	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockSyncer implements Syncer for testing.
type mockSyncer struct {
	result application.SyncResult
	err    error
	calls  int
}

func (m *mockSyncer) TriggerSync(_ context.Context) (application.SyncResult, error) {
	m.calls++
	return m.result, m.err
}

type fixedPath string

func (p fixedPath) Resolve() (string, error) {
	if p == "" {
		return "", &domain.AssetError{Err: domain.ErrAssetNotFound}
	}
	return string(p), nil
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Frontend:     true,
	}
}

// newTestServer serves the fixture database through the real services.
func newTestServer(t *testing.T, opts Options) (*Server, string) {
	t.Helper()
	logger := testLogger()

	path := testutil.WriteFixture(t, t.TempDir())
	native := application.NewNativeDatabase(sqlite.NewResolverWith(sqlite.Strategy{
		Name:      "configured",
		Candidate: func() string { return path },
	}), sqlite.Opener, nil, logger)
	t.Cleanup(func() { _ = native.Close() })

	airports := application.NewAirportService(native, nil, logger)
	health := application.NewHealthService(airports, native)

	return NewServer(testServerConfig(), airports, health, opts, logger), path
}

// newUnavailableServer has no database file to open.
func newUnavailableServer(t *testing.T) *Server {
	t.Helper()
	logger := testLogger()

	native := application.NewNativeDatabase(fixedPath(""), sqlite.Opener, nil, logger)
	airports := application.NewAirportService(native, nil, logger)
	health := application.NewHealthService(airports, native)

	return NewServer(testServerConfig(), airports, health, Options{}, logger)
}

func serve(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rr.Body.String(), err)
	}
}

type listResponse struct {
	Airports []domain.Airport `json:"airports"`
	Count    int              `json:"count"`
	Total    int              `json:"total"`
}

func (l listResponse) icaos() []string {
	out := make([]string, len(l.Airports))
	for i, a := range l.Airports {
		out[i] = a.Identity.ICAO
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	srv, path := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want %q", resp["status"], "ok")
	}
	if resp["ready"] != true {
		t.Errorf("ready = %v, want true", resp["ready"])
	}
	if resp["airports"] != float64(testutil.FixtureAirports) {
		t.Errorf("airports = %v, want %d", resp["airports"], testutil.FixtureAirports)
	}
	if resp["database_path"] != path {
		t.Errorf("database_path = %v, want %s", resp["database_path"], path)
	}
}

func TestHandleLiveness(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/health/live")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want %q", resp["status"], "ok")
	}
}

func TestHandleReadiness(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	if rr := serve(t, srv, http.MethodGet, "/health/ready"); rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	unavailable := newUnavailableServer(t)
	if rr := serve(t, unavailable, http.MethodGet, "/health/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	// Liveness does not depend on the database.
	if rr := serve(t, unavailable, http.MethodGet, "/health/live"); rr.Code != http.StatusOK {
		t.Errorf("live status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestHandleAirportLookup(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name     string
		url      string
		wantCode int
		wantICAO string
	}{
		{"icao", "/api/v1/airports/KLAX", http.StatusOK, testutil.ICAOLosAngeles},
		{"icao lower case", "/api/v1/airports/egll", http.StatusOK, testutil.ICAOHeathrow},
		{"iata", "/api/v1/airports/iata/lax", http.StatusOK, testutil.ICAOLosAngeles},
		{"faa", "/api/v1/airports/faa/ASH", http.StatusOK, testutil.ICAOGrassStrip},
		{"unknown icao", "/api/v1/airports/ZZZZ", http.StatusNotFound, ""},
		{"unknown iata", "/api/v1/airports/iata/QQQ", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, srv, http.MethodGet, tt.url)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantICAO == "" {
				return
			}
			var airport domain.Airport
			decode(t, rr, &airport)
			if airport.Identity.ICAO != tt.wantICAO {
				t.Errorf("ICAO = %s, want %s", airport.Identity.ICAO, tt.wantICAO)
			}
		})
	}
}

func TestHandleAirportRecordShape(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/api/v1/airports/KJFK")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp map[string]interface{}
	decode(t, rr, &resp)
	for _, key := range []string{"identity", "location", "infrastructure"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response lacks %q", key)
		}
	}
	if _, ok := resp["operational"]; ok {
		t.Error("operational should be omitted when the store has none")
	}
	infra := resp["infrastructure"].(map[string]interface{})
	if runways, ok := infra["runways"].([]interface{}); !ok || len(runways) != 0 {
		t.Errorf("runways = %v, want empty array", infra["runways"])
	}
}

func TestHandleListAirports(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name      string
		query     string
		want      []string
		wantTotal int
	}{
		{"country", "country=us", []string{testutil.ICAOGrassStrip, testutil.ICAOHeliport, testutil.ICAOKennedy, testutil.ICAOLosAngeles}, 4},
		{"state", "state=CA", []string{testutil.ICAOHeliport, testutil.ICAOLosAngeles}, 2},
		{"state in country", "state=CA&country=GB", []string{}, 0},
		{"city", "city=Los+Angeles", []string{testutil.ICAOHeliport, testutil.ICAOLosAngeles}, 2},
		{"type", "type=SEAPLANE_BASE", []string{testutil.ICAOSeaplane}, 1},
		{"towers", "towers=true", []string{testutil.ICAOHeathrow, testutil.ICAOLosAngeles}, 2},
		{"limit", "country=US&limit=1", []string{testutil.ICAOGrassStrip}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, srv, http.MethodGet, "/api/v1/airports?"+tt.query)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
			}
			var resp listResponse
			decode(t, rr, &resp)
			if got := resp.icaos(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("airports = %v, want %v", got, tt.want)
			}
			if resp.Count != len(tt.want) || resp.Total != tt.wantTotal {
				t.Errorf("count/total = %d/%d, want %d/%d", resp.Count, resp.Total, len(tt.want), tt.wantTotal)
			}
		})
	}
}

func TestHandleListAirportsInvalid(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	for _, query := range []string{
		"",
		"city=Nashua&type=heliport",
		"type=spaceport",
		"towers=maybe",
		"towers=false",
		"country=US&limit=0",
		"country=US&limit=abc",
	} {
		t.Run(query, func(t *testing.T) {
			rr := serve(t, srv, http.MethodGet, "/api/v1/airports?"+query)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name     string
		query    string
		wantCode int
		want     []string
	}{
		{"name", "name=International", http.StatusOK, []string{testutil.ICAOKennedy, testutil.ICAOLosAngeles}},
		{"surface", "surface=Water", http.StatusOK, []string{testutil.ICAOSeaplane}},
		{"runway", "min_runway=12000", http.StatusOK, []string{testutil.ICAOHeathrow, testutil.ICAOLosAngeles}},
		{"combined", "country_code=us&city=Los+Angeles&type=heliport", http.StatusOK, []string{testutil.ICAOHeliport}},
		{"no tower", "towers=false", http.StatusOK, []string{testutil.ICAOGrassStrip, testutil.ICAOHeliport, testutil.ICAOSeaplane}},
		{"empty params ignored", "name=&country_code=GB", http.StatusOK, []string{testutil.ICAOHeathrow}},
		{"unknown type", "type=spaceport", http.StatusBadRequest, nil},
		{"unknown surface", "surface=ice", http.StatusBadRequest, nil},
		{"bad runway", "min_runway=long", http.StatusBadRequest, nil},
		{"negative runway", "max_runway=-1", http.StatusBadRequest, nil},
		{"inverted range", "min_runway=5000&max_runway=100", http.StatusBadRequest, nil},
		{"bad towers", "towers=sometimes", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, srv, http.MethodGet, "/api/v1/search?"+tt.query)
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp listResponse
			decode(t, rr, &resp)
			if got := resp.icaos(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("airports = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSearchOptions(t *testing.T) {
	q := url.Values{
		"icao":       {" klax "},
		"type":       {"Large_Airport"},
		"towers":     {"1"},
		"min_runway": {"3000"},
		"name":       {""},
	}

	opts, err := ParseSearchOptions(q)
	if err != nil {
		t.Fatalf("ParseSearchOptions() error = %v", err)
	}
	if opts.ICAO == nil || *opts.ICAO != "klax" {
		t.Errorf("ICAO = %v, want trimmed klax", opts.ICAO)
	}
	if opts.Type == nil || *opts.Type != domain.TypeLargeAirport {
		t.Errorf("Type = %v", opts.Type)
	}
	if opts.HasTower == nil || !*opts.HasTower {
		t.Errorf("HasTower = %v", opts.HasTower)
	}
	if opts.MinRunwayFt == nil || *opts.MinRunwayFt != 3000 {
		t.Errorf("MinRunwayFt = %v", opts.MinRunwayFt)
	}
	if opts.Name != nil {
		t.Errorf("Name = %v, want nil for empty parameter", *opts.Name)
	}

	if _, err := ParseSearchOptions(url.Values{"max_runway": {"x"}}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestHandleStats(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/api/v1/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]int
	decode(t, rr, &resp)
	if resp["airports"] != testutil.FixtureAirports {
		t.Errorf("airports = %d, want %d", resp["airports"], testutil.FixtureAirports)
	}
}

func TestHandleUnavailableDatabase(t *testing.T) {
	srv := newUnavailableServer(t)

	for _, target := range []string{"/api/v1/airports/KLAX", "/api/v1/stats", "/api/v1/search?name=x", "/api/v1/airports?city=x"} {
		rr := serve(t, srv, http.MethodGet, target)
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want %d", target, rr.Code, http.StatusServiceUnavailable)
		}
	}
}

func TestHandleSync(t *testing.T) {
	tests := []struct {
		name      string
		syncer    *mockSyncer
		wantCode  int
		wantRetry string
	}{
		{"success", &mockSyncer{result: application.SyncResult{Key: "airports.sqlite", Updated: true}}, http.StatusOK, ""},
		{"rate limited", &mockSyncer{err: application.ErrRateLimited}, http.StatusTooManyRequests, "30"},
		{"no object", &mockSyncer{err: application.ErrNoDatabaseObject}, http.StatusNotFound, ""},
		{"failure", &mockSyncer{err: errors.New("bucket gone")}, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, Options{Sync: tt.syncer})

			rr := serve(t, srv, http.MethodPost, "/api/v1/sync")
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Header().Get("Retry-After"); got != tt.wantRetry {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetry)
			}
			if tt.syncer.calls != 1 {
				t.Errorf("TriggerSync calls = %d, want 1", tt.syncer.calls)
			}
		})
	}
}

func TestSyncRouteRequiresSyncer(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	if rr := serve(t, srv, http.MethodPost, "/api/v1/sync"); rr.Code == http.StatusOK {
		t.Errorf("status = %d, sync should not be routed without a syncer", rr.Code)
	}
}

func TestHandleDatabaseAsset(t *testing.T) {
	path := testutil.WriteFixture(t, t.TempDir())
	srv, _ := newTestServer(t, Options{Database: fixedPath(path)})

	rr := serve(t, srv, http.MethodGet, "/assets/airports.sqlite")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want, err := os.ReadFile(path) //#nosec G304 -- test fixture
	if err != nil {
		t.Fatal(err)
	}
	if rr.Body.Len() != len(want) {
		t.Errorf("body = %d bytes, want %d", rr.Body.Len(), len(want))
	}
	if !strings.HasPrefix(rr.Body.String(), "SQLite format 3") {
		t.Error("body is not an SQLite database")
	}

	missing, _ := newTestServer(t, Options{Database: fixedPath("")})
	if rr := serve(t, missing, http.MethodGet, "/assets/airports.sqlite"); rr.Code != http.StatusNotFound {
		t.Errorf("missing asset status = %d, want 404", rr.Code)
	}
}

func TestHandleOpenAPI(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/openapi.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var doc map[string]interface{}
	decode(t, rr, &doc)
	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("document has no paths")
	}
	for _, p := range []string{"/api/v1/airports/{icao}", "/api/v1/search", "/api/v1/sync"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("document lacks path %s", p)
		}
	}

	for _, page := range []string{"/docs", "/swagger"} {
		if rr := serve(t, srv, http.MethodGet, page); rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "openapi.json") {
			t.Errorf("%s did not serve the Swagger UI", page)
		}
	}
}

func TestHandleFrontend(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", rr.Header().Get("Content-Type"))
	}

	cfg := testServerConfig()
	cfg.Frontend = false
	disabled := NewServer(cfg, srv.airports, srv.health, Options{}, testLogger())
	if rr := serve(t, disabled, http.MethodGet, "/"); rr.Code != http.StatusNotFound {
		t.Errorf("disabled frontend status = %d, want 404", rr.Code)
	}
}

func TestServerMetrics(t *testing.T) {
	collector := metrics.NewCollector("test")
	srv, _ := newTestServer(t, Options{Metrics: collector, MetricsPath: "/metrics"})

	serve(t, srv, http.MethodGet, "/api/v1/airports/KLAX")

	rr := serve(t, srv, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `path="/api/v1/airports/{icao}"`) {
		t.Error("metrics should label requests by route template")
	}
}

func TestServerCORSPreflight(t *testing.T) {
	cfg := testServerConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	base, _ := newTestServer(t, Options{})
	srv := NewServer(cfg, base.airports, base.health, Options{}, testLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/airports/KLAX", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	handler := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := serve(t, srv, http.MethodGet, "/health/live")
	if id := rr.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("generated request ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "trace-42" {
		t.Errorf("request ID = %q, want the caller's", got)
	}
}

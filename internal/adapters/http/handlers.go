package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jobrunner/airportdb/internal/application"
	"github.com/jobrunner/airportdb/internal/domain"
)

// DefaultListLimit caps list responses unless the client asks otherwise.
const DefaultListLimit = 100

// lookupFunc finds one airport by a code.
type lookupFunc func(ctx context.Context, code string) (domain.Airport, bool, error)

// handleAirportByICAO returns the airport with the given ICAO code.
func (s *Server) handleAirportByICAO(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, mux.Vars(r)["icao"], s.airports.GetAirportByICAO)
}

// handleAirportByIATA returns the airport with the given IATA code.
func (s *Server) handleAirportByIATA(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, mux.Vars(r)["code"], s.airports.GetAirportByIATA)
}

// handleAirportByFAA returns the airport with the given FAA identifier.
func (s *Server) handleAirportByFAA(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, mux.Vars(r)["code"], s.airports.GetAirportByFAA)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, code string, find lookupFunc) {
	code = strings.ToUpper(strings.TrimSpace(code))

	airport, found, err := find(r.Context(), code)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, "Airport not found: "+code)
		return
	}

	s.writeJSON(w, http.StatusOK, airport)
}

// handleListAirports lists airports matching exactly one filter.
// state may be combined with country.
func (s *Server) handleListAirports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	airports, err := s.listAirports(r.Context(), q)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}

	total := len(airports)
	if len(airports) > limit {
		airports = airports[:limit]
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"airports": nonNil(airports),
		"count":    len(airports),
		"total":    total,
	})
}

func (s *Server) listAirports(ctx context.Context, q url.Values) ([]domain.Airport, error) {
	country := strings.ToUpper(strings.TrimSpace(q.Get("country")))
	state := strings.TrimSpace(q.Get("state"))
	city := strings.TrimSpace(q.Get("city"))
	kind := strings.TrimSpace(q.Get("type"))
	towers := strings.TrimSpace(q.Get("towers"))

	set := 0
	for _, v := range []string{city, kind, towers} {
		if v != "" {
			set++
		}
	}
	if country != "" || state != "" {
		set++
	}

	switch {
	case set == 0:
		return nil, &domain.ValidationError{
			Field:   "filter",
			Message: "one of country, state, city, type or towers is required",
		}
	case set > 1:
		return nil, &domain.ValidationError{
			Field:   "filter",
			Message: "only one of country/state, city, type or towers may be given",
		}
	case state != "":
		return s.airports.GetAirportsByState(ctx, state, country)
	case country != "":
		return s.airports.GetAirportsByCountry(ctx, country)
	case city != "":
		return s.airports.GetAirportsByCity(ctx, city)
	case kind != "":
		t, err := domain.ParseAirportType(kind)
		if err != nil {
			return nil, err
		}
		return s.airports.GetAirportsByType(ctx, t)
	default:
		with, err := strconv.ParseBool(towers)
		if err != nil || !with {
			return nil, &domain.ValidationError{
				Field:   "towers",
				Value:   towers,
				Message: "towers must be true",
			}
		}
		return s.airports.GetAirportsWithTowers(ctx)
	}
}

// handleSearch runs an advanced search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := ParseSearchOptions(r.URL.Query())
	if err != nil {
		s.handleQueryError(w, err)
		return
	}

	airports, err := s.airports.SearchAirports(r.Context(), opts)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"airports": nonNil(airports),
		"count":    len(airports),
	})
}

// ParseSearchOptions maps query parameters onto search options.
// Empty parameters are ignored.
func ParseSearchOptions(q url.Values) (domain.SearchOptions, error) {
	var opts domain.SearchOptions

	str := func(key string) *string {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return &v
		}
		return nil
	}

	opts.ICAO = str("icao")
	opts.IATA = str("iata")
	opts.Name = str("name")
	opts.Country = str("country")
	opts.CountryCode = str("country_code")
	opts.State = str("state")
	opts.City = str("city")

	if v := str("type"); v != nil {
		t := domain.AirportType(strings.ToLower(*v))
		opts.Type = &t
	}
	if v := str("surface"); v != nil {
		surface := domain.RunwaySurface(strings.ToLower(*v))
		opts.Surface = &surface
	}

	if v := str("towers"); v != nil {
		b, err := strconv.ParseBool(*v)
		if err != nil {
			return opts, &domain.ValidationError{Field: "towers", Value: *v, Constraint: "boolean", Message: "invalid towers parameter"}
		}
		opts.HasTower = &b
	}

	for key, dst := range map[string]**int64{"min_runway": &opts.MinRunwayFt, "max_runway": &opts.MaxRunwayFt} {
		v := str(key)
		if v == nil {
			continue
		}
		n, err := strconv.ParseInt(*v, 10, 64)
		if err != nil || n < 0 {
			return opts, &domain.ValidationError{Field: key, Value: *v, Constraint: "non-negative integer", Message: "invalid " + key + " parameter"}
		}
		*dst = &n
	}

	return opts, opts.Validate()
}

// handleStats returns database statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.airports.CountAirports(r.Context())
	if err != nil {
		s.handleQueryError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"airports": count})
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{
		"status":     boolToStatus(details.Healthy),
		"ready":      details.Ready,
		"airports":   details.Airports,
		"components": details.Components,
	}
	if details.DatabasePath != "" {
		body["database_path"] = details.DatabasePath
	}
	s.writeJSON(w, status, body)
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleDatabaseAsset serves the database file to browser clients.
func (s *Server) handleDatabaseAsset(w http.ResponseWriter, r *http.Request) {
	path, err := s.opts.Database.Resolve()
	if err != nil {
		s.logger.Warn("database asset unavailable", "error", err)
		s.writeError(w, http.StatusNotFound, "Database asset not available")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	http.ServeFile(w, r, path)
}

// handleOpenAPI returns the OpenAPI document as JSON.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	doc, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to load OpenAPI document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI document")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// handleSwaggerUI serves a Swagger UI page for the OpenAPI document.
func (s *Server) handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerUIHTML))
}

// handleQueryError handles query errors and returns appropriate HTTP status.
func (s *Server) handleQueryError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.writeError(w, http.StatusBadRequest, validationErr.Message)
		return
	}

	if errors.Is(err, domain.ErrUnavailable) {
		s.logger.Warn("database unavailable", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, "Airport database unavailable")
		return
	}

	s.logger.Error("query error", "error", err)
	s.writeError(w, http.StatusInternalServerError, "Query failed")
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// nonNil keeps empty results encoded as [] instead of null.
func nonNil(airports []domain.Airport) []domain.Airport {
	if airports == nil {
		return []domain.Airport{}
	}
	return airports
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.opts.Sync.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", "30")
			s.writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in 30 seconds.")
			return
		}
		if errors.Is(err, application.ErrNoDatabaseObject) {
			s.writeError(w, http.StatusNotFound, "No database file in storage")
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

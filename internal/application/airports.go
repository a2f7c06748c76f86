package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobrunner/airportdb/internal/domain"
	"github.com/jobrunner/airportdb/internal/ports/output"
)

// Store queries. The schema is owned by the dataset, not by this package.
const (
	queryAirportID  = "SELECT id FROM airports WHERE icao = ?"
	queryICAOByIATA = "SELECT icao FROM airports WHERE iata = ?"
	queryICAOByFAA  = "SELECT icao FROM airports WHERE faa = ?"

	queryIdentity = `SELECT icao, iata, faa, local, name, type, type_source, status, is_public_use
		FROM airports WHERE id = ?`
	queryLocation = `SELECT latitude, longitude, elevation_ft, country, country_code,
		state, county, city, zip, timezone, magnetic_variation
		FROM airports WHERE id = ?`

	queryTowerFlag  = "SELECT has_tower FROM airports WHERE id = ? AND has_tower IS NOT NULL"
	queryRunways    = "SELECT id, length_ft, width_ft, surface, lighting FROM runways WHERE airport_id = ?"
	queryFacilities = "SELECT has_fbo, has_hangars, has_tie_downs FROM infrastructure WHERE airport_id = ?"
	queryFuel       = "SELECT fuel_type FROM fuel_available WHERE airport_id = ?"

	queryOperational = "SELECT airac_cycle FROM operational WHERE airport_id = ?"
	queryFrequencies = `SELECT atis, tower, ground, clearance, unicom, approach, departure
		FROM frequencies WHERE airport_id = ?`

	queryByCountry        = "SELECT icao FROM airports WHERE country_code = ? ORDER BY name"
	queryByState          = "SELECT icao FROM airports WHERE state = ? ORDER BY name"
	queryByStateInCountry = "SELECT icao FROM airports WHERE state = ? AND country_code = ? ORDER BY name"
	queryByCity           = "SELECT icao FROM airports WHERE city = ? ORDER BY name"
	queryByType           = "SELECT icao FROM airports WHERE type = ? ORDER BY name"
	queryWithTowers       = "SELECT icao FROM airports WHERE has_tower = 1 ORDER BY name"
	queryCount            = "SELECT COUNT(*) AS count FROM airports"
)

// AirportService assembles airport records from the store. It depends only
// on the engine abstraction and works the same on every runtime.
type AirportService struct {
	db      output.DatabaseProvider
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewAirportService creates a new airport service.
func NewAirportService(db output.DatabaseProvider, metrics output.MetricsCollector, logger *slog.Logger) *AirportService {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &AirportService{
		db:      db,
		metrics: metrics,
		logger:  logger,
	}
}

// GetAirportByICAO returns the airport with the given ICAO code.
func (s *AirportService) GetAirportByICAO(ctx context.Context, icao string) (airport domain.Airport, found bool, err error) {
	defer s.observe("icao", time.Now(), &err, func() int { return boolCount(found) })

	engine, err := s.db.Database(ctx)
	if err != nil {
		return domain.Airport{}, false, err
	}
	return s.assemble(ctx, engine, icao)
}

// GetAirportByIATA returns the airport with the given IATA code.
func (s *AirportService) GetAirportByIATA(ctx context.Context, iata string) (domain.Airport, bool, error) {
	return s.lookupVia(ctx, "iata", queryICAOByIATA, iata)
}

// GetAirportByFAA returns the airport with the given FAA identifier.
func (s *AirportService) GetAirportByFAA(ctx context.Context, faa string) (domain.Airport, bool, error) {
	return s.lookupVia(ctx, "faa", queryICAOByFAA, faa)
}

// lookupVia maps a secondary code to its ICAO code and assembles that record.
func (s *AirportService) lookupVia(ctx context.Context, op, query, code string) (airport domain.Airport, found bool, err error) {
	defer s.observe(op, time.Now(), &err, func() int { return boolCount(found) })

	engine, err := s.db.Database(ctx)
	if err != nil {
		return domain.Airport{}, false, err
	}

	row, ok, err := output.GetRow(ctx, engine, query, code)
	if err != nil {
		return domain.Airport{}, false, &domain.QueryError{Operation: op, Err: err}
	}
	if !ok {
		return domain.Airport{}, false, nil
	}
	return s.assemble(ctx, engine, row.String("icao"))
}

// GetAirportsByCountry returns all airports with the given ISO country code.
func (s *AirportService) GetAirportsByCountry(ctx context.Context, countryCode string) ([]domain.Airport, error) {
	return s.list(ctx, "country", queryByCountry, countryCode)
}

// GetAirportsByState returns all airports in a state, optionally restricted
// to a country. An empty country code matches any country.
func (s *AirportService) GetAirportsByState(ctx context.Context, state, countryCode string) ([]domain.Airport, error) {
	if countryCode != "" {
		return s.list(ctx, "state", queryByStateInCountry, state, countryCode)
	}
	return s.list(ctx, "state", queryByState, state)
}

// GetAirportsByCity returns all airports serving a city.
func (s *AirportService) GetAirportsByCity(ctx context.Context, city string) ([]domain.Airport, error) {
	return s.list(ctx, "city", queryByCity, city)
}

// GetAirportsByType returns all airports of a classification.
func (s *AirportService) GetAirportsByType(ctx context.Context, airportType domain.AirportType) ([]domain.Airport, error) {
	return s.list(ctx, "type", queryByType, string(airportType))
}

// GetAirportsWithTowers returns all airports with a control tower.
func (s *AirportService) GetAirportsWithTowers(ctx context.Context) ([]domain.Airport, error) {
	return s.list(ctx, "towers", queryWithTowers)
}

// SearchAirports returns at most domain.MaxSearchResults airports matching
// every supplied criterion, ordered by name.
func (s *AirportService) SearchAirports(ctx context.Context, opts domain.SearchOptions) ([]domain.Airport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	query, args := buildSearchQuery(opts)
	return s.list(ctx, "search", query, args...)
}

// CountAirports returns the number of airports in the store.
func (s *AirportService) CountAirports(ctx context.Context) (count int, err error) {
	defer s.observe("count", time.Now(), &err, func() int { return 1 })

	engine, err := s.db.Database(ctx)
	if err != nil {
		return 0, err
	}

	row, _, err := output.GetRow(ctx, engine, queryCount)
	if err != nil {
		return 0, &domain.QueryError{Operation: "count", Err: err}
	}
	return int(row.Int64("count")), nil
}

// list resolves the ICAO codes selected by query and assembles each one.
// Codes that no longer assemble into a record are skipped.
func (s *AirportService) list(ctx context.Context, op, query string, args ...any) (airports []domain.Airport, err error) {
	defer s.observe(op, time.Now(), &err, func() int { return len(airports) })

	engine, err := s.db.Database(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := output.AllRows(ctx, engine, query, args...)
	if err != nil {
		return nil, &domain.QueryError{Operation: op, Err: err}
	}

	airports = make([]domain.Airport, 0, len(rows))
	for _, row := range rows {
		airport, found, err := s.assemble(ctx, engine, row.String("icao"))
		if err != nil {
			return nil, err
		}
		if found {
			airports = append(airports, airport)
		}
	}
	return airports, nil
}

// assemble builds the full record of one airport from its scoped lookups.
func (s *AirportService) assemble(ctx context.Context, engine output.QueryEngine, icao string) (domain.Airport, bool, error) {
	idRow, found, err := output.GetRow(ctx, engine, queryAirportID, icao)
	if err != nil {
		return domain.Airport{}, false, &domain.QueryError{Operation: "airport id", Err: err}
	}
	if !found {
		return domain.Airport{}, false, nil
	}
	id := idRow.Int64("id")

	identity, found, err := s.identity(ctx, engine, id)
	if err != nil || !found {
		return domain.Airport{}, false, err
	}

	location, found, err := s.location(ctx, engine, id)
	if err != nil || !found {
		return domain.Airport{}, false, err
	}

	infrastructure, err := s.infrastructure(ctx, engine, id)
	if err != nil {
		return domain.Airport{}, false, err
	}

	operational, err := s.operational(ctx, engine, id)
	if err != nil {
		return domain.Airport{}, false, err
	}

	return domain.Airport{
		Identity:       identity,
		Location:       location,
		Infrastructure: infrastructure,
		Operational:    operational,
	}, true, nil
}

func (s *AirportService) identity(ctx context.Context, engine output.QueryEngine, id int64) (domain.AirportIdentity, bool, error) {
	row, found, err := output.GetRow(ctx, engine, queryIdentity, id)
	if err != nil {
		return domain.AirportIdentity{}, false, &domain.QueryError{Operation: "identity", Err: err}
	}
	if !found {
		return domain.AirportIdentity{}, false, nil
	}

	return domain.AirportIdentity{
		ICAO:        row.String("icao"),
		IATA:        row.OptString("iata"),
		FAA:         row.OptString("faa"),
		Local:       row.OptString("local"),
		Name:        row.String("name"),
		Type:        domain.AirportType(row.String("type")),
		TypeSource:  optEnum[domain.AirportTypeSource](row.OptString("type_source")),
		Status:      optEnum[domain.AirportStatus](row.OptString("status")),
		IsPublicUse: row.OptBool("is_public_use"),
	}, true, nil
}

func (s *AirportService) location(ctx context.Context, engine output.QueryEngine, id int64) (domain.AirportLocation, bool, error) {
	row, found, err := output.GetRow(ctx, engine, queryLocation, id)
	if err != nil {
		return domain.AirportLocation{}, false, &domain.QueryError{Operation: "location", Err: err}
	}
	if !found {
		return domain.AirportLocation{}, false, nil
	}

	return domain.AirportLocation{
		Latitude:          row.Float64("latitude"),
		Longitude:         row.Float64("longitude"),
		ElevationFt:       row.Int64("elevation_ft"),
		Country:           row.String("country"),
		CountryCode:       row.String("country_code"),
		State:             row.OptString("state"),
		County:            row.OptString("county"),
		City:              row.OptString("city"),
		Zip:               row.OptString("zip"),
		Timezone:          row.OptString("timezone"),
		MagneticVariation: row.OptFloat64("magnetic_variation"),
	}, true, nil
}

// infrastructure gates on the tower flag: without it the airport has no
// infrastructure record at all, whatever the facility tables contain.
func (s *AirportService) infrastructure(ctx context.Context, engine output.QueryEngine, id int64) (domain.AirportInfrastructure, error) {
	tower, found, err := output.GetRow(ctx, engine, queryTowerFlag, id)
	if err != nil {
		return domain.AirportInfrastructure{}, &domain.QueryError{Operation: "tower", Err: err}
	}
	if !found {
		return domain.DefaultInfrastructure(), nil
	}

	runwayRows, err := output.AllRows(ctx, engine, queryRunways, id)
	if err != nil {
		return domain.AirportInfrastructure{}, &domain.QueryError{Operation: "runways", Err: err}
	}
	runways := make([]domain.Runway, 0, len(runwayRows))
	for _, r := range runwayRows {
		runways = append(runways, domain.Runway{
			ID:       r.String("id"),
			LengthFt: r.Int64("length_ft"),
			WidthFt:  r.Int64("width_ft"),
			Surface:  domain.NormalizeSurface(r.String("surface")),
			Lighting: r.Bool("lighting"),
		})
	}

	infra := domain.AirportInfrastructure{
		Runways:  runways,
		HasTower: tower.Bool("has_tower"),
	}

	facilities, found, err := output.GetRow(ctx, engine, queryFacilities, id)
	if err != nil {
		return domain.AirportInfrastructure{}, &domain.QueryError{Operation: "facilities", Err: err}
	}
	if found {
		infra.HasFBO = facilities.OptBool("has_fbo")
		infra.HasHangars = facilities.OptBool("has_hangars")
		infra.HasTieDowns = facilities.OptBool("has_tie_downs")
	}

	fuelRows, err := output.AllRows(ctx, engine, queryFuel, id)
	if err != nil {
		return domain.AirportInfrastructure{}, &domain.QueryError{Operation: "fuel", Err: err}
	}
	for _, f := range fuelRows {
		infra.FuelTypes = append(infra.FuelTypes, domain.FuelType(f.String("fuel_type")))
	}

	return infra, nil
}

func (s *AirportService) operational(ctx context.Context, engine output.QueryEngine, id int64) (*domain.AirportOperational, error) {
	row, found, err := output.GetRow(ctx, engine, queryOperational, id)
	if err != nil {
		return nil, &domain.QueryError{Operation: "operational", Err: err}
	}
	if !found {
		return nil, nil
	}

	op := &domain.AirportOperational{AIRACCycle: row.String("airac_cycle")}

	freq, found, err := output.GetRow(ctx, engine, queryFrequencies, id)
	if err != nil {
		return nil, &domain.QueryError{Operation: "frequencies", Err: err}
	}
	if found {
		op.Frequencies = &domain.AirportFrequencies{
			ATIS:      freq.OptString("atis"),
			Tower:     freq.OptString("tower"),
			Ground:    freq.OptString("ground"),
			Clearance: freq.OptString("clearance"),
			Unicom:    freq.OptString("unicom"),
			Approach:  freq.OptString("approach"),
			Departure: freq.OptString("departure"),
		}
	}
	return op, nil
}

// observe records duration and outcome of an operation. results is only
// evaluated after the operation returned.
func (s *AirportService) observe(op string, start time.Time, err *error, results func() int) {
	elapsed := time.Since(start)
	s.metrics.ObserveQueryDuration(op, elapsed)
	s.metrics.IncQueryCount(op, *err == nil)

	if *err != nil {
		s.logger.Debug("query failed", "operation", op, "duration", elapsed, "error", *err)
		return
	}
	s.logger.Debug("query completed", "operation", op, "results", results(), "duration", elapsed)
}

func optEnum[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}

func boolCount(found bool) int {
	if found {
		return 1
	}
	return 0
}

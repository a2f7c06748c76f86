// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/jobrunner/airportdb/internal/domain"
)

// AirportQueries defines the primary port for airport lookups.
// Lookups report a missing airport with found == false, never with an error.
type AirportQueries interface {
	GetAirportByICAO(ctx context.Context, icao string) (domain.Airport, bool, error)
	GetAirportByIATA(ctx context.Context, iata string) (domain.Airport, bool, error)
	GetAirportByFAA(ctx context.Context, faa string) (domain.Airport, bool, error)

	GetAirportsByCountry(ctx context.Context, countryCode string) ([]domain.Airport, error)
	GetAirportsByState(ctx context.Context, state, countryCode string) ([]domain.Airport, error)
	GetAirportsByCity(ctx context.Context, city string) ([]domain.Airport, error)
	GetAirportsByType(ctx context.Context, airportType domain.AirportType) ([]domain.Airport, error)
	GetAirportsWithTowers(ctx context.Context) ([]domain.Airport, error)

	// SearchAirports returns at most domain.MaxSearchResults airports ordered by name.
	SearchAirports(ctx context.Context, opts domain.SearchOptions) ([]domain.Airport, error)

	// CountAirports returns the number of airports in the store.
	CountAirports(ctx context.Context) (int, error)
}

// HealthChecker defines the primary port for health checks.
type HealthChecker interface {
	// IsHealthy returns true if the service is healthy.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if the service is ready to accept requests.
	IsReady(ctx context.Context) bool

	// GetHealthDetails returns detailed health information.
	GetHealthDetails(ctx context.Context) HealthDetails
}

// HealthDetails contains detailed health information.
type HealthDetails struct {
	Healthy      bool              // Overall health status
	Ready        bool              // Ready to accept requests
	DatabasePath string            // File of the current connection
	Airports     int               // Number of airports, -1 when unknown
	Components   map[string]string // Component statuses
}

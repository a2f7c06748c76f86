package application

import (
	"context"

	"github.com/jobrunner/airportdb/internal/ports/input"
)

// HealthService provides health check functionality.
type HealthService struct {
	airports *AirportService
	native   *NativeDatabase // nil in the browser
}

// NewHealthService creates a new health service.
func NewHealthService(airports *AirportService, native *NativeDatabase) *HealthService {
	return &HealthService{
		airports: airports,
		native:   native,
	}
}

// IsHealthy returns true if the service is healthy.
func (s *HealthService) IsHealthy(_ context.Context) bool {
	return true // Basic health check
}

// IsReady returns true once the database opens and answers a count query.
func (s *HealthService) IsReady(ctx context.Context) bool {
	_, err := s.airports.CountAirports(ctx)
	return err == nil
}

// GetHealthDetails returns detailed health information.
func (s *HealthService) GetHealthDetails(ctx context.Context) input.HealthDetails {
	details := input.HealthDetails{
		Healthy:    s.IsHealthy(ctx),
		Airports:   -1,
		Components: map[string]string{},
	}

	count, err := s.airports.CountAirports(ctx)
	if err != nil {
		details.Components["database"] = err.Error()
	} else {
		details.Ready = true
		details.Airports = count
		details.Components["database"] = "ok"
	}

	if s.native != nil {
		details.DatabasePath = s.native.Path()
		if s.native.IsOpen() {
			details.Components["connection"] = "open"
		} else {
			details.Components["connection"] = "closed"
		}
	}

	return details
}

// Package domain contains the airport data model and error taxonomy.
package domain

import "strings"

// AirportType is the classification of an airport.
type AirportType string

// Airport classification types.
const (
	TypeLargeAirport   AirportType = "large_airport"
	TypeMediumAirport  AirportType = "medium_airport"
	TypeSmallAirport   AirportType = "small_airport"
	TypeHeliport       AirportType = "heliport"
	TypeSeaplaneBase   AirportType = "seaplane_base"
	TypeBalloonport    AirportType = "balloonport"
	TypeUltralightPark AirportType = "ultralight_park"
	TypeGliderport     AirportType = "gliderport"
	TypeClosed         AirportType = "closed"
	TypeOther          AirportType = "other"
)

// AirportTypes lists every classification in display order.
var AirportTypes = []AirportType{
	TypeLargeAirport, TypeMediumAirport, TypeSmallAirport,
	TypeHeliport, TypeSeaplaneBase, TypeBalloonport,
	TypeUltralightPark, TypeGliderport, TypeClosed, TypeOther,
}

// Valid reports whether t is one of the known classifications.
func (t AirportType) Valid() bool {
	for _, known := range AirportTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseAirportType parses a classification, accepting any letter case.
func ParseAirportType(s string) (AirportType, error) {
	t := AirportType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &ValidationError{
			Field:      "type",
			Value:      s,
			Constraint: "known airport type",
			Message:    "unknown airport type",
		}
	}
	return t, nil
}

// AirportTypeSource is the data source of a type classification.
type AirportTypeSource string

// Classification sources.
const (
	SourceOurAirports AirportTypeSource = "ourairports"
	SourceOpenFlights AirportTypeSource = "openflights"
	SourceFAA         AirportTypeSource = "faa"
	SourceICAO        AirportTypeSource = "icao"
	SourceDerived     AirportTypeSource = "derived"
	SourceUnknown     AirportTypeSource = "unknown"
)

// AirportStatus is the operational status of an airport.
type AirportStatus string

// Operational statuses.
const (
	StatusOperational AirportStatus = "operational"
	StatusClosed      AirportStatus = "closed"
	StatusMilitary    AirportStatus = "military"
	StatusPrivate     AirportStatus = "private"
)

// AirportIdentity holds the stable identifiers and classification of an airport.
type AirportIdentity struct {
	ICAO        string             `json:"icao"`
	IATA        *string            `json:"iata,omitempty"`
	FAA         *string            `json:"faa,omitempty"`
	Local       *string            `json:"local,omitempty"`
	Name        string             `json:"name"`
	Type        AirportType        `json:"type"`
	TypeSource  *AirportTypeSource `json:"typeSource,omitempty"`
	Status      *AirportStatus     `json:"status,omitempty"`
	IsPublicUse *bool              `json:"isPublicUse,omitempty"`
}

// AirportLocation holds geographic and regional metadata.
type AirportLocation struct {
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	ElevationFt       int64    `json:"elevationFt"`
	Country           string   `json:"country"`
	CountryCode       string   `json:"countryCode"` // ISO 3166-1 alpha-2
	State             *string  `json:"state,omitempty"`
	County            *string  `json:"county,omitempty"`
	City              *string  `json:"city,omitempty"`
	Zip               *string  `json:"zip,omitempty"`
	Timezone          *string  `json:"timezone,omitempty"` // IANA identifier
	MagneticVariation *float64 `json:"magneticVariation,omitempty"`
}

// Airport is the complete airport record.
//
// Identity and Location are always populated. Infrastructure is always
// present, possibly as DefaultInfrastructure. Operational is nil when the
// store has no operational row for the airport.
type Airport struct {
	Identity       AirportIdentity       `json:"identity"`
	Location       AirportLocation       `json:"location"`
	Infrastructure AirportInfrastructure `json:"infrastructure"`
	Operational    *AirportOperational   `json:"operational,omitempty"`
}

// DisplayCode returns the IATA code, or "N/A" when the airport has none.
func (a *Airport) DisplayCode() string {
	if a.Identity.IATA != nil && *a.Identity.IATA != "" {
		return *a.Identity.IATA
	}
	return "N/A"
}

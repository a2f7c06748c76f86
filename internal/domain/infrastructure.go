package domain

import "strings"

// RunwaySurface is the surface material of a runway.
type RunwaySurface string

// Runway surfaces.
const (
	SurfaceAsphalt  RunwaySurface = "asphalt"
	SurfaceConcrete RunwaySurface = "concrete"
	SurfaceGrass    RunwaySurface = "grass"
	SurfaceGravel   RunwaySurface = "gravel"
	SurfaceWater    RunwaySurface = "water"
	SurfaceDirt     RunwaySurface = "dirt"
	SurfaceUnknown  RunwaySurface = "unknown"
)

var runwaySurfaces = []RunwaySurface{
	SurfaceAsphalt, SurfaceConcrete, SurfaceGrass, SurfaceGravel,
	SurfaceWater, SurfaceDirt, SurfaceUnknown,
}

// Valid reports whether s is one of the known surfaces.
func (s RunwaySurface) Valid() bool {
	for _, known := range runwaySurfaces {
		if s == known {
			return true
		}
	}
	return false
}

// NormalizeSurface maps a stored surface value onto the closed set.
// Anything unrecognised is reported as SurfaceUnknown.
func NormalizeSurface(raw string) RunwaySurface {
	s := RunwaySurface(strings.ToLower(strings.TrimSpace(raw)))
	if s.Valid() {
		return s
	}
	return SurfaceUnknown
}

// FuelType is an available fuel classification. The set is open.
type FuelType string

// Well-known fuel types.
const (
	Fuel100LL FuelType = "100LL"
	FuelJetA  FuelType = "JetA"
	FuelMOGAS FuelType = "MOGAS"
	FuelUL94  FuelType = "UL94"
	FuelSAF   FuelType = "SAF"
)

// Runway describes a single runway.
type Runway struct {
	ID       string        `json:"id"`
	LengthFt int64         `json:"lengthFt"`
	WidthFt  int64         `json:"widthFt"`
	Surface  RunwaySurface `json:"surface"`
	Lighting bool          `json:"lighting"`
}

// AirportInfrastructure holds the physical characteristics of an airport.
type AirportInfrastructure struct {
	Runways     []Runway   `json:"runways"`
	HasTower    bool       `json:"hasTower"`
	FuelTypes   []FuelType `json:"fuelTypes,omitempty"`
	HasFBO      *bool      `json:"hasFBO,omitempty"`
	HasHangars  *bool      `json:"hasHangars,omitempty"`
	HasTieDowns *bool      `json:"hasTieDowns,omitempty"`
}

// DefaultInfrastructure is used when the store has no tower flag for an airport.
func DefaultInfrastructure() AirportInfrastructure {
	return AirportInfrastructure{
		Runways:  []Runway{},
		HasTower: false,
	}
}

// LongestRunway returns the longest runway, if any.
func (i *AirportInfrastructure) LongestRunway() (Runway, bool) {
	var longest Runway
	found := false
	for _, r := range i.Runways {
		if !found || r.LengthFt > longest.LengthFt {
			longest = r
			found = true
		}
	}
	return longest, found
}

package domain

// MaxSearchResults caps the number of rows returned by an advanced search.
const MaxSearchResults = 100

// SearchOptions holds the optional criteria of an advanced search.
// Nil fields impose no constraint.
type SearchOptions struct {
	ICAO        *string        `json:"icao,omitempty"`        // exact, upper-cased
	IATA        *string        `json:"iata,omitempty"`        // exact, upper-cased
	Name        *string        `json:"name,omitempty"`        // substring
	Country     *string        `json:"country,omitempty"`     // substring of the country name
	CountryCode *string        `json:"countryCode,omitempty"` // exact ISO code, upper-cased
	State       *string        `json:"state,omitempty"`       // exact
	City        *string        `json:"city,omitempty"`        // exact
	Type        *AirportType   `json:"type,omitempty"`        // exact
	HasTower    *bool          `json:"hasTower,omitempty"`    // exact
	MinRunwayFt *int64         `json:"minRunwayFt,omitempty"` // at least one runway this long or longer
	MaxRunwayFt *int64         `json:"maxRunwayFt,omitempty"` // at least one runway this long or shorter
	Surface     *RunwaySurface `json:"surface,omitempty"`     // at least one runway with this surface
}

// IsEmpty reports whether no criterion is set.
func (o SearchOptions) IsEmpty() bool {
	return o.ICAO == nil && o.IATA == nil && o.Name == nil &&
		o.Country == nil && o.CountryCode == nil && o.State == nil &&
		o.City == nil && o.Type == nil && o.HasTower == nil &&
		o.MinRunwayFt == nil && o.MaxRunwayFt == nil && o.Surface == nil
}

// Validate checks the option values that have a closed domain.
func (o SearchOptions) Validate() error {
	if o.Type != nil && !o.Type.Valid() {
		return &ValidationError{
			Field:      "type",
			Value:      string(*o.Type),
			Constraint: "known airport type",
			Message:    "unknown airport type",
		}
	}
	if o.Surface != nil && !o.Surface.Valid() {
		return &ValidationError{
			Field:      "surface",
			Value:      string(*o.Surface),
			Constraint: "known runway surface",
			Message:    "unknown runway surface",
		}
	}
	if o.MinRunwayFt != nil && o.MaxRunwayFt != nil && *o.MinRunwayFt > *o.MaxRunwayFt {
		return &ValidationError{
			Field:      "runway_length",
			Value:      *o.MinRunwayFt,
			Constraint: "min <= max",
			Message:    "minimum runway length exceeds maximum",
		}
	}
	return nil
}

// Ptr returns a pointer to v. It keeps option literals short.
func Ptr[T any](v T) *T {
	return &v
}

package application

import (
	"strconv"
	"strings"

	"github.com/jobrunner/airportdb/internal/domain"
)

// buildSearchQuery builds the ICAO selection for opts. Only supplied,
// non-empty criteria contribute a condition; all conditions must hold.
func buildSearchQuery(opts domain.SearchOptions) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString("SELECT icao FROM airports WHERE 1=1")

	if v, ok := text(opts.ICAO); ok {
		b.WriteString(" AND icao = ?")
		args = append(args, strings.ToUpper(v))
	}
	if v, ok := text(opts.IATA); ok {
		b.WriteString(" AND iata = ?")
		args = append(args, strings.ToUpper(v))
	}
	if v, ok := text(opts.Name); ok {
		b.WriteString(" AND name LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v, ok := text(opts.Country); ok {
		b.WriteString(" AND country LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v, ok := text(opts.CountryCode); ok {
		b.WriteString(" AND country_code = ?")
		args = append(args, strings.ToUpper(v))
	}
	if v, ok := text(opts.State); ok {
		b.WriteString(" AND state = ?")
		args = append(args, v)
	}
	if v, ok := text(opts.City); ok {
		b.WriteString(" AND city = ?")
		args = append(args, v)
	}
	if opts.Type != nil && *opts.Type != "" {
		b.WriteString(" AND type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.HasTower != nil {
		b.WriteString(" AND has_tower = ?")
		args = append(args, boolInt(*opts.HasTower))
	}

	// Runway criteria must all hold for the same runway.
	var runway []string
	if opts.MinRunwayFt != nil {
		runway = append(runway, "r.length_ft >= ?")
		args = append(args, *opts.MinRunwayFt)
	}
	if opts.MaxRunwayFt != nil {
		runway = append(runway, "r.length_ft <= ?")
		args = append(args, *opts.MaxRunwayFt)
	}
	if opts.Surface != nil && *opts.Surface != "" {
		runway = append(runway, "LOWER(r.surface) = ?")
		args = append(args, string(*opts.Surface))
	}
	if len(runway) > 0 {
		b.WriteString(" AND EXISTS (SELECT 1 FROM runways r WHERE r.airport_id = airports.id AND ")
		b.WriteString(strings.Join(runway, " AND "))
		b.WriteString(")")
	}

	b.WriteString(" ORDER BY name LIMIT ")
	b.WriteString(strconv.Itoa(domain.MaxSearchResults))

	return b.String(), args
}

func text(p *string) (string, bool) {
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jobrunner/airportdb/internal/domain"
)

const rule = "════════════════════════════════════════════════════════════"

// listLine renders the lines printed under the index of a list entry.
type listLine func(a *domain.Airport) []string

func printAirport(w io.Writer, a *domain.Airport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, a.Identity.Name)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Identity:")
	fmt.Fprintf(w, "  ICAO: %s\n", a.Identity.ICAO)
	printOpt(w, "  IATA", a.Identity.IATA)
	printOpt(w, "  FAA", a.Identity.FAA)
	fmt.Fprintf(w, "  Type: %s\n", a.Identity.Type)
	if a.Identity.Status != nil {
		fmt.Fprintf(w, "  Status: %s\n", *a.Identity.Status)
	}
	fmt.Fprintln(w)

	loc := &a.Location
	fmt.Fprintln(w, "Location:")
	fmt.Fprintf(w, "  Coordinates: %.4f, %.4f\n", loc.Latitude, loc.Longitude)
	fmt.Fprintf(w, "  Elevation: %s ft\n", thousands(loc.ElevationFt))
	fmt.Fprintf(w, "  Country: %s\n", loc.Country)
	printOpt(w, "  State", loc.State)
	printOpt(w, "  City", loc.City)
	printOpt(w, "  Timezone", loc.Timezone)
	fmt.Fprintln(w)

	infra := &a.Infrastructure
	fmt.Fprintln(w, "Infrastructure:")
	if len(infra.Runways) == 0 {
		fmt.Fprintln(w, "  Runways: Unknown")
	} else {
		fmt.Fprintf(w, "  Runways: %d\n", len(infra.Runways))
		for _, r := range infra.Runways {
			lit := ""
			if r.Lighting {
				lit = " (Lit)"
			}
			fmt.Fprintf(w, "    - Runway %s: %dx%d ft, %s%s\n", r.ID, r.LengthFt, r.WidthFt, r.Surface, lit)
		}
	}
	fmt.Fprintf(w, "  Control Tower: %s\n", yesNo(infra.HasTower))
	if len(infra.FuelTypes) > 0 {
		fuels := make([]string, len(infra.FuelTypes))
		for i, f := range infra.FuelTypes {
			fuels[i] = string(f)
		}
		fmt.Fprintf(w, "  Fuel Types: %s\n", strings.Join(fuels, ", "))
	}
	fmt.Fprintf(w, "  FBO: %s\n", yesNo(deref(infra.HasFBO)))
	fmt.Fprintf(w, "  Hangars: %s\n", yesNo(deref(infra.HasHangars)))
	fmt.Fprintf(w, "  Tie-downs: %s\n", yesNo(deref(infra.HasTieDowns)))

	if op := a.Operational; op != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Operational:")
		fmt.Fprintf(w, "  AIRAC Cycle: %s\n", op.AIRACCycle)
		if f := op.Frequencies; f != nil {
			fmt.Fprintln(w, "  Frequencies:")
			printOpt(w, "    ATIS", f.ATIS)
			printOpt(w, "    Tower", f.Tower)
			printOpt(w, "    Ground", f.Ground)
			printOpt(w, "    Clearance", f.Clearance)
			printOpt(w, "    UNICOM", f.Unicom)
			printOpt(w, "    Approach", f.Approach)
			printOpt(w, "    Departure", f.Departure)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// printList prints a header, the first limit airports and a remainder note.
func printList(w io.Writer, header string, airports []domain.Airport, limit int, withIATA bool, details listLine) {
	fmt.Fprintln(w, header)
	fmt.Fprintln(w)

	for i := range airports {
		if i == limit {
			break
		}
		a := &airports[i]
		if withIATA {
			fmt.Fprintf(w, "%d. %s %s - %s\n", i+1, a.Identity.ICAO, a.DisplayCode(), a.Identity.Name)
		} else {
			fmt.Fprintf(w, "%d. %s - %s\n", i+1, a.Identity.ICAO, a.Identity.Name)
		}
		for _, line := range details(a) {
			fmt.Fprintf(w, "   %s\n", line)
		}
		fmt.Fprintln(w)
	}

	if len(airports) > limit {
		fmt.Fprintf(w, "... and %d more results\n", len(airports)-limit)
	}
}

func typeAndLocation(a *domain.Airport) []string {
	return []string{
		"Type: " + string(a.Identity.Type),
		"Location: " + orNA(a.Location.City) + ", " + orNA(a.Location.State),
	}
}

func cityLine(a *domain.Airport) []string {
	return []string{"City: " + orNA(a.Location.City)}
}

func countryLine(a *domain.Airport) []string {
	return []string{"Country: " + a.Location.Country}
}

func printStats(w io.Writer, total int) {
	fmt.Fprintln(w, "Airport Database Statistics")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Airports: %d\n", total)
}

func printOpt(w io.Writer, label string, v *string) {
	if v != nil && *v != "" {
		fmt.Fprintf(w, "%s: %s\n", label, *v)
	}
}

func orNA(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}

func deref(b *bool) bool {
	return b != nil && *b
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// thousands formats n with comma separators.
func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

package domain

import (
	"fmt"
	"strconv"
	"time"
)

// AirportFrequencies holds the radio frequencies of an airport.
type AirportFrequencies struct {
	ATIS      *string `json:"atis,omitempty"`
	Tower     *string `json:"tower,omitempty"`
	Ground    *string `json:"ground,omitempty"`
	Clearance *string `json:"clearance,omitempty"`
	Unicom    *string `json:"unicom,omitempty"`
	Approach  *string `json:"approach,omitempty"`
	Departure *string `json:"departure,omitempty"`
}

// AirportOperational holds metadata that may change every AIRAC cycle.
type AirportOperational struct {
	AIRACCycle  string              `json:"airacCycle"`
	Frequencies *AirportFrequencies `json:"frequencies,omitempty"`
}

// AIRAC cycles are 28 days long. Cycle 2001 became effective on 2 January 2020.
const airacCycleLength = 28 * 24 * time.Hour

var airacEpoch = time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC)

// AIRACCycle identifies an AIRAC cycle by its two-digit year and its
// ordinal within that year, formatted as "YYCC".
type AIRACCycle struct {
	Year   int // full year, e.g. 2026
	Number int // 1-based ordinal within the year
}

// ParseAIRACCycle parses a "YYCC" cycle identifier.
func ParseAIRACCycle(s string) (AIRACCycle, error) {
	invalid := &ValidationError{
		Field:      "airac_cycle",
		Value:      s,
		Constraint: "YYCC",
		Message:    "AIRAC cycle must be four digits",
	}
	if len(s) != 4 {
		return AIRACCycle{}, invalid
	}
	yy, err := strconv.Atoi(s[:2])
	if err != nil {
		return AIRACCycle{}, invalid
	}
	cc, err := strconv.Atoi(s[2:])
	if err != nil {
		return AIRACCycle{}, invalid
	}

	c := AIRACCycle{Year: 2000 + yy, Number: cc}
	if cc < 1 || cc > c.cyclesInYear() {
		invalid.Message = fmt.Sprintf("cycle %02d does not exist in %d", cc, c.Year)
		return AIRACCycle{}, invalid
	}
	return c, nil
}

// AIRACCycleAt returns the cycle in force at t.
func AIRACCycleAt(t time.Time) AIRACCycle {
	t = t.UTC()
	year := t.Year()
	first := firstCycleStart(year)
	if t.Before(first) {
		year--
		first = firstCycleStart(year)
	}
	n := int(t.Sub(first)/airacCycleLength) + 1
	return AIRACCycle{Year: year, Number: n}
}

// String formats the cycle as "YYCC".
func (c AIRACCycle) String() string {
	return fmt.Sprintf("%02d%02d", c.Year%100, c.Number)
}

// EffectiveDate returns the date the cycle comes into force.
func (c AIRACCycle) EffectiveDate() time.Time {
	return firstCycleStart(c.Year).Add(time.Duration(c.Number-1) * airacCycleLength)
}

// Next returns the following cycle.
func (c AIRACCycle) Next() AIRACCycle {
	return AIRACCycleAt(c.EffectiveDate().Add(airacCycleLength))
}

func (c AIRACCycle) cyclesInYear() int {
	next := firstCycleStart(c.Year + 1)
	return int(next.Sub(firstCycleStart(c.Year)) / airacCycleLength)
}

// firstCycleStart returns the effective date of the first cycle of year.
func firstCycleStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(jan1.Sub(airacEpoch).Hours() / 24)
	// ceil(days/28); integer division already rounds up for negative days
	k := days / 28
	if days > 0 && days%28 != 0 {
		k++
	}
	return airacEpoch.AddDate(0, 0, 28*k)
}

package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAIRACEffectiveDate(t *testing.T) {
	tests := []struct {
		cycle string
		want  time.Time
	}{
		{"2001", date(2020, time.January, 2)},
		{"2014", date(2020, time.December, 31)},
		{"2101", date(2021, time.January, 28)},
		{"2313", date(2023, time.December, 28)},
		{"2401", date(2024, time.January, 25)},
		{"2501", date(2025, time.January, 23)},
		{"2513", date(2025, time.December, 25)},
		{"2601", date(2026, time.January, 22)},
	}

	for _, tt := range tests {
		t.Run(tt.cycle, func(t *testing.T) {
			c, err := ParseAIRACCycle(tt.cycle)
			if err != nil {
				t.Fatalf("ParseAIRACCycle(%q) error = %v", tt.cycle, err)
			}
			if got := c.EffectiveDate(); !got.Equal(tt.want) {
				t.Errorf("EffectiveDate() = %s, want %s", got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
			}
			if got := c.String(); got != tt.cycle {
				t.Errorf("String() = %q, want %q", got, tt.cycle)
			}
		})
	}
}

func TestParseAIRACCycleInvalid(t *testing.T) {
	for _, s := range []string{"", "26", "26011", "ab01", "26xx", "2600", "2515", "2115"} {
		t.Run(s, func(t *testing.T) {
			if _, err := ParseAIRACCycle(s); err == nil {
				t.Errorf("ParseAIRACCycle(%q) should fail", s)
			}
		})
	}

	// 2020 had fourteen cycles.
	if _, err := ParseAIRACCycle("2014"); err != nil {
		t.Errorf("ParseAIRACCycle(2014) error = %v", err)
	}
}

func TestAIRACCycleAt(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{date(2020, time.January, 2), "2001"},
		{date(2020, time.January, 29), "2001"},
		{date(2020, time.January, 30), "2002"},
		{date(2026, time.January, 10), "2513"},
		{date(2026, time.January, 22), "2601"},
		{date(2026, time.October, 14), "2610"},
	}

	for _, tt := range tests {
		t.Run(tt.at.Format(time.DateOnly), func(t *testing.T) {
			if got := AIRACCycleAt(tt.at).String(); got != tt.want {
				t.Errorf("AIRACCycleAt(%s) = %s, want %s", tt.at.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestAIRACNext(t *testing.T) {
	c, err := ParseAIRACCycle("2513")
	if err != nil {
		t.Fatalf("ParseAIRACCycle error = %v", err)
	}
	if got := c.Next().String(); got != "2601" {
		t.Errorf("Next() = %s, want 2601", got)
	}
}

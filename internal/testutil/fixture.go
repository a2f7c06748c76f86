// Package testutil builds small airport databases for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Fixture airports, in name order.
const (
	ICAOGrassStrip = "KASH" // Alpha Skypark: small, no tower, mixed surfaces
	ICAOHeliport   = "KBHP" // Bravo Heliport: no runways
	ICAOSeaplane   = "CSB1" // Charlie Seaplane Base: Canada, water runway
	ICAOHeathrow   = "EGLL" // operational row without frequencies
	ICAOKennedy    = "KJFK" // no tower flag, no operational data
	ICAOLosAngeles = "KLAX" // full record
)

// FixtureAirports is the number of airports in the base fixture.
const FixtureAirports = 6

const schema = `
CREATE TABLE airports (
	id INTEGER PRIMARY KEY,
	icao TEXT NOT NULL UNIQUE,
	iata TEXT,
	faa TEXT,
	local TEXT,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	type_source TEXT,
	status TEXT,
	is_public_use INTEGER,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	elevation_ft INTEGER,
	country TEXT NOT NULL,
	country_code TEXT NOT NULL,
	state TEXT,
	county TEXT,
	city TEXT,
	zip TEXT,
	timezone TEXT,
	magnetic_variation REAL,
	has_tower INTEGER
);
CREATE TABLE runways (
	airport_id INTEGER NOT NULL REFERENCES airports(id),
	id TEXT NOT NULL,
	length_ft INTEGER,
	width_ft INTEGER,
	surface TEXT,
	lighting INTEGER
);
CREATE TABLE infrastructure (
	airport_id INTEGER NOT NULL REFERENCES airports(id),
	has_fbo INTEGER,
	has_hangars INTEGER,
	has_tie_downs INTEGER
);
CREATE TABLE fuel_available (
	airport_id INTEGER NOT NULL REFERENCES airports(id),
	fuel_type TEXT NOT NULL
);
CREATE TABLE operational (
	airport_id INTEGER NOT NULL REFERENCES airports(id),
	airac_cycle TEXT NOT NULL
);
CREATE TABLE frequencies (
	airport_id INTEGER NOT NULL REFERENCES airports(id),
	atis TEXT,
	tower TEXT,
	ground TEXT,
	clearance TEXT,
	unicom TEXT,
	approach TEXT,
	departure TEXT
);
`

const seed = `
INSERT INTO airports VALUES
	(1, 'KJFK', 'JFK', 'JFK', NULL, 'John F Kennedy International Airport', 'large_airport', 'ourairports', 'operational', 1,
	 40.639447, -73.779317, 13, 'United States', 'US', 'NY', 'Queens', 'New York', '11430', 'America/New_York', -13.0, NULL),
	(2, 'KLAX', 'LAX', 'LAX', 'LAX', 'Los Angeles International Airport', 'large_airport', 'faa', 'operational', 1,
	 33.942536, -118.408075, 125, 'United States', 'US', 'CA', 'Los Angeles', 'Los Angeles', '90045', 'America/Los_Angeles', 12.0, 1),
	(3, 'EGLL', 'LHR', NULL, NULL, 'Heathrow Airport', 'large_airport', 'icao', 'operational', 1,
	 51.4706, -0.461941, 83, 'United Kingdom', 'GB', 'England', NULL, 'London', NULL, 'Europe/London', NULL, 1),
	(4, 'KASH', NULL, 'ASH', NULL, 'Alpha Skypark', 'small_airport', NULL, NULL, 0,
	 42.7817, -71.5148, 199, 'United States', 'US', 'NH', NULL, 'Nashua', NULL, NULL, NULL, 0),
	(5, 'KBHP', NULL, NULL, NULL, 'Bravo Heliport', 'heliport', 'derived', 'private', 0,
	 34.05, -118.25, 300, 'United States', 'US', 'CA', NULL, 'Los Angeles', NULL, NULL, NULL, 0),
	(6, 'CSB1', NULL, NULL, NULL, 'Charlie Seaplane Base', 'seaplane_base', NULL, NULL, NULL,
	 49.2827, -123.1207, 0, 'Canada', 'CA', 'BC', NULL, 'Vancouver', NULL, 'America/Vancouver', NULL, 0);

INSERT INTO runways VALUES
	(2, '06R/24L', 10885, 150, 'asphalt', 1),
	(2, '07L/25R', 12923, 150, 'concrete', 1),
	(3, '09L/27R', 12802, 164, 'asphalt', 1),
	(4, '14/32', 2100, 60, 'grass', 0),
	(4, '02/20', 1650, 40, 'TURF', 0),
	(6, 'NW/SE', 5000, 200, 'water', 0);

INSERT INTO infrastructure VALUES
	(2, 1, 1, 0),
	(4, 0, 1, 1),
	(1, 1, 1, 1);

INSERT INTO fuel_available VALUES
	(2, '100LL'),
	(2, 'JetA'),
	(4, '100LL'),
	(4, 'MOGAS');

INSERT INTO operational VALUES
	(2, '2610'),
	(3, '2610');

INSERT INTO frequencies VALUES
	(2, '133.8', '120.95', '121.65', '120.35', NULL, '124.5', '125.2');
`

type options struct {
	bulk int
}

// Option customises a fixture.
type Option func(*options)

// WithBulkAirports adds n generated small airports named "Zulu Field NNNN"
// so that result caps can be exercised.
func WithBulkAirports(n int) Option {
	return func(o *options) {
		o.bulk = n
	}
}

// WriteFixture writes the fixture database into dir and returns its path.
func WriteFixture(tb testing.TB, dir string, opts ...Option) string {
	tb.Helper()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	path := filepath.Join(dir, "airports.sqlite")
	if err := build(context.Background(), path, o); err != nil {
		tb.Fatalf("building fixture database: %v", err)
	}
	return path
}

// FixtureBytes returns the serialized fixture database.
func FixtureBytes(tb testing.TB, opts ...Option) []byte {
	tb.Helper()

	path := WriteFixture(tb, tb.TempDir(), opts...)
	data, err := os.ReadFile(path) //#nosec G304 -- path is inside the test temp dir
	if err != nil {
		tb.Fatalf("reading fixture database: %v", err)
	}
	return data
}

func build(ctx context.Context, path string, o *options) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, seed); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	for i := 0; i < o.bulk; i++ {
		id := 1000 + i
		_, err := db.ExecContext(ctx,
			`INSERT INTO airports (id, icao, name, type, latitude, longitude, elevation_ft, country, country_code, has_tower)
			 VALUES (?, ?, ?, 'small_airport', 0, 0, 0, 'Testland', 'ZZ', 0)`,
			id, fmt.Sprintf("Z%03d", i), fmt.Sprintf("Zulu Field %04d", i))
		if err != nil {
			return fmt.Errorf("inserting bulk airport %d: %w", i, err)
		}
	}
	return nil
}

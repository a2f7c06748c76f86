package sqlite

import (
	"os"
	"path/filepath"

	"github.com/jobrunner/airportdb/internal/domain"
)

// Default locations of the database file.
const (
	EnvDatabasePath     = "AIRPORTDB_DATABASE_PATH"
	DefaultDatabaseFile = "airports.sqlite"
	DefaultDataDir      = "data"
)

// Strategy yields a candidate path. An empty string means the strategy
// has nothing to offer.
type Strategy struct {
	Name      string
	Candidate func() string
}

// Resolver locates the database file by trying strategies in order.
type Resolver struct {
	strategies []Strategy
	stat       func(string) (os.FileInfo, error)
}

// NewResolver creates a resolver with the default strategy chain:
// configured path, environment variable, next to the executable and
// finally the working directory.
func NewResolver(configured string) *Resolver {
	return NewResolverWith(
		Strategy{Name: "configured", Candidate: func() string { return configured }},
		Strategy{Name: "environment", Candidate: func() string { return os.Getenv(EnvDatabasePath) }},
		Strategy{Name: "executable", Candidate: executableCandidate},
		Strategy{Name: "working directory", Candidate: func() string {
			return filepath.Join(".", DefaultDataDir, DefaultDatabaseFile)
		}},
	)
}

// NewResolverWith creates a resolver with a custom strategy chain.
func NewResolverWith(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, stat: os.Stat}
}

// Resolve returns the first candidate that names an existing regular file.
func (r *Resolver) Resolve() (string, error) {
	var probes []string
	for _, s := range r.strategies {
		path := s.Candidate()
		if path == "" {
			continue
		}
		probes = append(probes, s.Name+": "+path)

		info, err := r.stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return path, nil
	}

	return "", &domain.AssetError{Probes: probes, Err: domain.ErrAssetNotFound}
}

func executableCandidate() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultDataDir, DefaultDatabaseFile)
}

package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobrunner/airportdb/internal/domain"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolverOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.sqlite")
	second := filepath.Join(dir, "second.sqlite")
	touch(t, second)

	tests := []struct {
		name   string
		create []string
		want   string
	}{
		{"falls through missing", nil, second},
		{"first existing wins", []string{first}, first},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range tt.create {
				touch(t, p)
			}
			r := NewResolverWith(
				Strategy{Name: "empty", Candidate: func() string { return "" }},
				Strategy{Name: "first", Candidate: func() string { return first }},
				Strategy{Name: "second", Candidate: func() string { return second }},
			)
			got, err := r.Resolve()
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolverSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "airports.sqlite")
	touch(t, file)

	r := NewResolverWith(
		Strategy{Name: "dir", Candidate: func() string { return dir }},
		Strategy{Name: "file", Candidate: func() string { return file }},
	)
	got, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != file {
		t.Errorf("Resolve() = %q, want %q", got, file)
	}
}

func TestResolverExhausted(t *testing.T) {
	dir := t.TempDir()
	r := NewResolverWith(
		Strategy{Name: "a", Candidate: func() string { return filepath.Join(dir, "a.sqlite") }},
		Strategy{Name: "b", Candidate: func() string { return filepath.Join(dir, "b.sqlite") }},
	)

	_, err := r.Resolve()
	if !errors.Is(err, domain.ErrAssetNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrAssetNotFound", err)
	}

	var assetErr *domain.AssetError
	if !errors.As(err, &assetErr) {
		t.Fatalf("Resolve() error should be *domain.AssetError, got %T", err)
	}
	if len(assetErr.Probes) != 2 {
		t.Errorf("Probes = %v, want 2 entries", assetErr.Probes)
	}
	if !strings.Contains(err.Error(), "a.sqlite") || !strings.Contains(err.Error(), "b.sqlite") {
		t.Errorf("error %q should list every probe", err.Error())
	}
}

func TestNewResolverEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.sqlite")
	touch(t, path)
	t.Setenv(EnvDatabasePath, path)

	got, err := NewResolver("").Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != path {
		t.Errorf("Resolve() = %q, want %q", got, path)
	}
}

func TestNewResolverConfiguredWins(t *testing.T) {
	dir := t.TempDir()
	configured := filepath.Join(dir, "configured.sqlite")
	env := filepath.Join(dir, "env.sqlite")
	touch(t, configured)
	touch(t, env)
	t.Setenv(EnvDatabasePath, env)

	got, err := NewResolver(configured).Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != configured {
		t.Errorf("Resolve() = %q, want %q", got, configured)
	}
}

package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newIndexServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Join([]string{
			"# airport database builds",
			"",
			"airports.sqlite 7 abc123",
			"archive/2025.sqlite3",
			"README.md",
			"broken.db notanumber",
		}, "\n")))
	})
	mux.HandleFunc("/airports.sqlite", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "reader" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("sqlite!"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPStorageList(t *testing.T) {
	server := newIndexServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: server.URL + "/"})

	objects, err := storage.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(objects) != 3 {
		t.Fatalf("len(objects) = %d, want 3: %+v", len(objects), objects)
	}

	if objects[0].Key != "airports.sqlite" || objects[0].Size != 7 || objects[0].ETag != "abc123" {
		t.Errorf("objects[0] = %+v", objects[0])
	}
	if objects[1].Key != "archive/2025.sqlite3" || objects[1].Size != 0 {
		t.Errorf("objects[1] = %+v", objects[1])
	}
	if objects[2].Key != "broken.db" || objects[2].Size != 0 {
		t.Errorf("objects[2] = %+v", objects[2])
	}
}

func TestHTTPStorageListMissingIndex(t *testing.T) {
	server := newIndexServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: server.URL, IndexFile: "missing.txt"})

	if _, err := storage.List(context.Background()); err == nil {
		t.Error("List() should fail when the index is missing")
	}
}

func TestHTTPStorageDownload(t *testing.T) {
	server := newIndexServer(t)
	dest := filepath.Join(t.TempDir(), "data", "airports.sqlite")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"authorized", "reader", "secret", false},
		{"unauthorized", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewHTTPStorage(HTTPConfig{BaseURL: server.URL, Username: tt.username, Password: tt.password})
			err := storage.Download(context.Background(), "airports.sqlite", dest)
			if tt.wantErr {
				if err == nil {
					t.Error("Download() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			content, _ := os.ReadFile(dest) //#nosec G304 -- test temp file
			if string(content) != "sqlite!" {
				t.Errorf("content = %q", content)
			}
		})
	}
}

func TestHTTPStorageExists(t *testing.T) {
	server := newIndexServer(t)
	storage := NewHTTPStorage(HTTPConfig{BaseURL: server.URL, Username: "reader", Password: "secret"})

	tests := []struct {
		key     string
		want    bool
		wantErr bool
	}{
		{"airports.sqlite", true, false},
		{"nothere.sqlite", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := storage.Exists(context.Background(), tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

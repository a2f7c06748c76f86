package domain

import (
	"errors"
	"testing"
)

func TestSearchOptionsIsEmpty(t *testing.T) {
	if !(SearchOptions{}).IsEmpty() {
		t.Error("zero SearchOptions should be empty")
	}

	tests := []struct {
		name string
		opts SearchOptions
	}{
		{"icao", SearchOptions{ICAO: Ptr("KJFK")}},
		{"name", SearchOptions{Name: Ptr("Kennedy")}},
		{"tower false", SearchOptions{HasTower: Ptr(false)}},
		{"surface", SearchOptions{Surface: Ptr(SurfaceGrass)}},
		{"min runway", SearchOptions{MinRunwayFt: Ptr(int64(3000))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.opts.IsEmpty() {
				t.Error("IsEmpty() = true, want false")
			}
		})
	}
}

func TestSearchOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SearchOptions
		wantErr bool
	}{
		{"empty", SearchOptions{}, false},
		{"valid type", SearchOptions{Type: Ptr(TypeHeliport)}, false},
		{"invalid type", SearchOptions{Type: Ptr(AirportType("spaceport"))}, true},
		{"invalid surface", SearchOptions{Surface: Ptr(RunwaySurface("ice"))}, true},
		{"min above max", SearchOptions{MinRunwayFt: Ptr(int64(9000)), MaxRunwayFt: Ptr(int64(3000))}, true},
		{"min below max", SearchOptions{MinRunwayFt: Ptr(int64(3000)), MaxRunwayFt: Ptr(int64(9000))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Validate() error should wrap ErrInvalidInput, got %v", err)
			}
		})
	}
}

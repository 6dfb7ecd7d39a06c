package coordinates

import (
	"math"
	"testing"
)

// TestNormalizeAzimuth tests wrapping into [0, 360).
func TestNormalizeAzimuth(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{370, 10},
		{-90, 270},
		{-720, 0},
	}

	for _, tt := range tests {
		if got := NormalizeAzimuth(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeAzimuth(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestBearing tests cardinal bearings.
func TestBearing(t *testing.T) {
	origin := Geographic{Latitude: 40, Longitude: -74}
	tests := []struct {
		name string
		to   Geographic
		want float64
	}{
		{"North", Geographic{Latitude: 41, Longitude: -74}, 0},
		{"South", Geographic{Latitude: 39, Longitude: -74}, 180},
		{"East", Geographic{Latitude: 40, Longitude: -73}, 90},
		{"West", Geographic{Latitude: 40, Longitude: -75}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 1.0 {
				t.Errorf("Expected bearing ~%.0f, got %.2f", tt.want, got)
			}
		})
	}
}

// TestDistanceNauticalMiles tests that one degree of latitude is ~60 nm.
func TestDistanceNauticalMiles(t *testing.T) {
	d := DistanceNauticalMiles(Geographic{Latitude: 0, Longitude: 0}, Geographic{Latitude: 1, Longitude: 0})
	if math.Abs(d-60.0) > 0.1 {
		t.Errorf("Expected ~60 nm, got %.3f", d)
	}
	if d := DistanceNauticalMiles(Geographic{Latitude: 51, Longitude: 0}, Geographic{Latitude: 51, Longitude: 0}); d != 0 {
		t.Errorf("Expected 0 for identical points, got %f", d)
	}
}

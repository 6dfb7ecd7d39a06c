package main

import "testing"

func TestCardinal(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "N"},
		{11.2, "N"},
		{11.25, "NNE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{350, "N"},
		{-90, "W"},
		{720, "N"},
	}

	for _, tt := range tests {
		if got := cardinal(tt.bearing); got != tt.want {
			t.Errorf("cardinal(%v) = %s, want %s", tt.bearing, got, tt.want)
		}
	}
}

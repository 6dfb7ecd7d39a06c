// Package adsb defines the aircraft telemetry model and the sources that
// supply it to the panel.
package adsb

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned by a Source when no telemetry is available this poll.
var ErrNoData = errors.New("telemetry unavailable")

// Aircraft is a single ADS-B record as reported by a receiver or aggregator.
// Every field except ICAO is optional; nil means the receiver has not decoded it.
type Aircraft struct {
	// ICAO is the 24-bit ICAO address in hex (e.g., "4ca7b5")
	ICAO string

	// Callsign is the flight number or registration, empty if unknown
	Callsign string

	// Latitude and Longitude in decimal degrees
	Latitude  *float64
	Longitude *float64

	// Altitude is the barometric altitude in feet (0 on the ground)
	Altitude *float64

	// Track is the ground track in degrees (0 = North, 90 = East)
	Track *float64

	// MagHeading is the magnetic heading in degrees
	MagHeading *float64

	// NavHeading is the heading selected on the autopilot in degrees
	NavHeading *float64

	// LastSeen is the time of the last message from the aircraft
	LastSeen time.Time
}

// Valid reports whether the aircraft has a position.
func (a Aircraft) Valid() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Heading returns the best available direction of travel: track, then
// magnetic heading, then autopilot heading, else 0.
func (a Aircraft) Heading() float64 {
	switch {
	case a.Track != nil:
		return *a.Track
	case a.MagHeading != nil:
		return *a.MagHeading
	case a.NavHeading != nil:
		return *a.NavHeading
	}
	return 0
}

// AltitudeFt returns the altitude in feet, 0 if unknown.
func (a Aircraft) AltitudeFt() float64 {
	if a.Altitude == nil {
		return 0
	}
	return *a.Altitude
}

// Source is implemented by everything that can supply aircraft to the panel:
// a local dump1090 receiver, an online aggregator, or the collector database.
//
// Poll is called once per frame and must return quickly. Any error means the
// data is unavailable for this frame; the panel shows its error banner and
// tries again next frame.
type Source interface {
	Poll(ctx context.Context) ([]Aircraft, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Aircraft, error)

// Poll calls f(ctx).
func (f SourceFunc) Poll(ctx context.Context) ([]Aircraft, error) {
	return f(ctx)
}

// parseAltitude safely extracts altitude from interface{} which can be float64 or string.
// Returns nil if the value is invalid; "ground" is reported as 0.
func parseAltitude(val interface{}) *float64 {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case float64:
		return &v
	case string:
		if v == "ground" {
			zero := 0.0
			return &zero
		}
		return nil
	default:
		return nil
	}
}

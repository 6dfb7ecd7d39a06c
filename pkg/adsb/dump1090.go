package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// FileSource reads the aircraft.json file maintained by dump1090-fa,
// readsb and similar decoders.
// JSON format: https://github.com/flightaware/dump1090/blob/master/README-json.md
type FileSource struct {
	path string

	// maxPositionAge drops aircraft whose position is older; 0 disables
	maxPositionAge time.Duration

	now func() time.Time
}

// NewFileSource creates a source for the given aircraft.json path.
func NewFileSource(path string, maxPositionAge time.Duration) *FileSource {
	return &FileSource{
		path:           path,
		maxPositionAge: maxPositionAge,
		now:            time.Now,
	}
}

// Path returns the file being polled.
func (s *FileSource) Path() string {
	return s.path
}

// Poll reads and parses the file. A missing, unreadable or malformed file
// is reported as unavailable.
func (s *FileSource) Poll(ctx context.Context) ([]Aircraft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}

	var doc dump1090Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrNoData, s.path, err)
	}
	if doc.Aircraft == nil {
		return nil, fmt.Errorf("%w: %s has no aircraft list", ErrNoData, s.path)
	}

	now := s.now().UTC()
	aircraft := make([]Aircraft, 0, len(*doc.Aircraft))
	for _, ac := range *doc.Aircraft {
		if s.maxPositionAge > 0 && ac.SeenPos != nil &&
			time.Duration(*ac.SeenPos*float64(time.Second)) > s.maxPositionAge {
			continue
		}
		aircraft = append(aircraft, ac.toAircraft(now))
	}

	return aircraft, nil
}

// dump1090Document is the top level of aircraft.json.
type dump1090Document struct {
	// Now is the file timestamp in seconds since the epoch
	Now float64 `json:"now"`

	// Messages is the total number of messages decoded
	Messages int `json:"messages"`

	// Aircraft is nil when the key is missing
	Aircraft *[]dump1090Aircraft `json:"aircraft"`
}

// dump1090Aircraft is a single entry of aircraft.json.
type dump1090Aircraft struct {
	Hex        string      `json:"hex"`
	Flight     *string     `json:"flight"`
	Lat        *float64    `json:"lat"`
	Lon        *float64    `json:"lon"`
	AltBaro    interface{} `json:"alt_baro"`
	Track      *float64    `json:"track"`
	MagHeading *float64    `json:"mag_heading"`
	NavHeading *float64    `json:"nav_heading"`

	// Seen is seconds since any message, SeenPos since the last position
	Seen    *float64 `json:"seen"`
	SeenPos *float64 `json:"seen_pos"`
}

func (ac dump1090Aircraft) toAircraft(now time.Time) Aircraft {
	aircraft := Aircraft{
		ICAO:       ac.Hex,
		Latitude:   ac.Lat,
		Longitude:  ac.Lon,
		Altitude:   parseAltitude(ac.AltBaro),
		Track:      ac.Track,
		MagHeading: ac.MagHeading,
		NavHeading: ac.NavHeading,
		LastSeen:   now,
	}

	// dump1090 pads callsigns to 8 characters
	if ac.Flight != nil {
		aircraft.Callsign = strings.TrimSpace(*ac.Flight)
	}
	if ac.Seen != nil {
		aircraft.LastSeen = now.Add(-time.Duration(*ac.Seen * float64(time.Second)))
	}

	return aircraft
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/unklstewy/ads-panel/pkg/adsb"
)

// AircraftRepository reads the collector's aircraft table.
type AircraftRepository struct {
	db *DB

	// bound restricts Poll to the map area
	bound orb.Bound

	// maxAge drops aircraft not updated recently; 0 disables
	maxAge time.Duration

	// timeout bounds a single Poll
	timeout time.Duration

	now func() time.Time
}

// NewAircraftRepository creates a repository that polls aircraft inside bound.
func NewAircraftRepository(db *DB, bound orb.Bound, maxAge, timeout time.Duration) *AircraftRepository {
	return &AircraftRepository{
		db:      db,
		bound:   bound,
		maxAge:  maxAge,
		timeout: timeout,
		now:     time.Now,
	}
}

// GetAircraftInBound returns visible aircraft with a position inside bound
// that were seen at or after since.
func (r *AircraftRepository) GetAircraftInBound(ctx context.Context, bound orb.Bound, since time.Time) ([]adsb.Aircraft, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT icao, callsign, latitude, longitude, altitude_ft, track_deg, last_seen
		 FROM aircraft
		 WHERE is_visible = TRUE
		   AND latitude BETWEEN $1 AND $2
		   AND longitude BETWEEN $3 AND $4
		   AND last_seen >= $5
		 ORDER BY icao`,
		bound.Min.Lat(), bound.Max.Lat(),
		bound.Min.Lon(), bound.Max.Lon(),
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	var aircraft []adsb.Aircraft
	for rows.Next() {
		var (
			ac       adsb.Aircraft
			callsign sql.NullString
		)
		err := rows.Scan(
			&ac.ICAO, &callsign,
			&ac.Latitude, &ac.Longitude, &ac.Altitude,
			&ac.Track, &ac.LastSeen,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		ac.Callsign = callsign.String
		aircraft = append(aircraft, ac)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aircraft: %w", err)
	}
	return aircraft, nil
}

// Poll implements adsb.Source. A failed query or lost connection is
// reported as unavailable.
func (r *AircraftRepository) Poll(ctx context.Context) ([]adsb.Aircraft, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var since time.Time
	if r.maxAge > 0 {
		since = r.now().UTC().Add(-r.maxAge)
	}

	aircraft, err := r.GetAircraftInBound(ctx, r.bound, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", adsb.ErrNoData, err)
	}
	return aircraft, nil
}

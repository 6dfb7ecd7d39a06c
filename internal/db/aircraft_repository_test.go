package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/unklstewy/ads-panel/pkg/adsb"
	"github.com/unklstewy/ads-panel/pkg/config"
)

var aircraftColumns = []string{"icao", "callsign", "latitude", "longitude", "altitude_ft", "track_deg", "last_seen"}

var londonBound = orb.Bound{
	Min: orb.Point{-0.531184, 51.229317},
	Max: orb.Point{0.300493, 51.748699},
}

func openFake(t *testing.T, dsn string, res *fakeResult) *DB {
	t.Helper()
	setResult(dsn, res)
	db, err := open("fakepg", dsn, config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Failed to open fake database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNewAircraftRepository tests repository construction.
func TestNewAircraftRepository(t *testing.T) {
	repo := NewAircraftRepository(nil, londonBound, time.Minute, 2*time.Second)

	if repo == nil {
		t.Fatal("Expected non-nil repository")
	}
	if repo.bound != londonBound {
		t.Errorf("Expected bound %v, got %v", londonBound, repo.bound)
	}
	if repo.maxAge != time.Minute {
		t.Errorf("Expected max age 1m, got %v", repo.maxAge)
	}
}

// TestGetAircraftInBound tests scanning rows, including NULL columns.
func TestGetAircraftInBound(t *testing.T) {
	seen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	res := &fakeResult{
		columns: aircraftColumns,
		rows: [][]driver.Value{
			{"4ca7b5", "RYR12AB", 51.47, -0.45, 3500.0, 270.0, seen},
			{"406a3c", nil, 51.5, 0.1, nil, nil, seen},
		},
	}
	repo := NewAircraftRepository(openFake(t, "in-bound", res), londonBound, 0, 0)

	since := seen.Add(-time.Minute)
	aircraft, err := repo.GetAircraftInBound(context.Background(), londonBound, since)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(aircraft) != 2 {
		t.Fatalf("Expected 2 aircraft, got %d", len(aircraft))
	}

	first := aircraft[0]
	if first.ICAO != "4ca7b5" || first.Callsign != "RYR12AB" {
		t.Errorf("Unexpected identity %s/%s", first.ICAO, first.Callsign)
	}
	if !first.Valid() || *first.Latitude != 51.47 || *first.Longitude != -0.45 {
		t.Errorf("Unexpected position %+v", first)
	}
	if first.AltitudeFt() != 3500 || first.Heading() != 270 {
		t.Errorf("Expected 3500 ft heading 270, got %v ft heading %v", first.AltitudeFt(), first.Heading())
	}
	if !first.LastSeen.Equal(seen) {
		t.Errorf("Expected last seen %v, got %v", seen, first.LastSeen)
	}

	second := aircraft[1]
	if second.Callsign != "" || second.Altitude != nil || second.Track != nil {
		t.Errorf("Expected NULL columns to stay empty, got %+v", second)
	}

	// Bound is passed as lat range, lon range, then the cutoff
	want := []driver.Value{51.229317, 51.748699, -0.531184, 0.300493}
	for i, v := range want {
		if res.args[i] != v {
			t.Errorf("Arg %d: expected %v, got %v", i+1, v, res.args[i])
		}
	}
	if got, ok := res.args[4].(time.Time); !ok || !got.Equal(since) {
		t.Errorf("Expected since %v, got %v", since, res.args[4])
	}
}

// TestPoll tests the adsb.Source behaviour.
func TestPoll(t *testing.T) {
	t.Run("Available", func(t *testing.T) {
		res := &fakeResult{columns: aircraftColumns}
		repo := NewAircraftRepository(openFake(t, "poll-empty", res), londonBound, time.Minute, time.Second)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return now }

		var source adsb.Source = repo
		aircraft, err := source.Poll(context.Background())
		if err != nil {
			t.Fatalf("Expected empty table to be available, got: %v", err)
		}
		if len(aircraft) != 0 {
			t.Errorf("Expected no aircraft, got %d", len(aircraft))
		}
		if got := res.args[4].(time.Time); !got.Equal(now.Add(-time.Minute)) {
			t.Errorf("Expected cutoff one minute ago, got %v", got)
		}
	})

	t.Run("Query failure is unavailable", func(t *testing.T) {
		res := &fakeResult{err: errors.New("relation \"aircraft\" does not exist")}
		repo := NewAircraftRepository(openFake(t, "poll-error", res), londonBound, 0, time.Second)

		_, err := repo.Poll(context.Background())
		if !errors.Is(err, adsb.ErrNoData) {
			t.Errorf("Expected ErrNoData, got %v", err)
		}
	})
}

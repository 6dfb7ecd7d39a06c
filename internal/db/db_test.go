package db

import (
	"strings"
	"testing"

	"github.com/unklstewy/ads-panel/pkg/config"
)

// TestConnString tests the lib/pq connection string.
func TestConnString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Username: "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	got := connString(cfg)
	want := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

// TestConnect tests database connection with various configurations.
func TestConnect(t *testing.T) {
	t.Run("Unreachable server", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Host:         "127.0.0.1",
			Port:         1,
			Username:     "testuser",
			Password:     "testpass",
			Database:     "testdb",
			SSLMode:      "disable",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}

		db, err := Connect(cfg)
		if err == nil {
			db.Close()
			t.Fatal("Expected error connecting to port 1")
		}
		if !strings.Contains(err.Error(), "failed to ping database") {
			t.Errorf("Expected ping error, got: %v", err)
		}
	})

	t.Run("Pool settings kept", func(t *testing.T) {
		setResult("connect-ok", &fakeResult{})
		cfg := config.DatabaseConfig{Host: "fake", MaxOpenConns: 2, MaxIdleConns: 1}

		db, err := open("fakepg", "connect-ok", cfg)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		defer db.Close()

		if db.config.Host != "fake" {
			t.Errorf("Expected host fake, got %s", db.config.Host)
		}
		if got := db.Stats().MaxOpenConnections; got != 2 {
			t.Errorf("Expected 2 max open connections, got %d", got)
		}
	})
}

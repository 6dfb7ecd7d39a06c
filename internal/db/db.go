// Package db reads aircraft positions from the PostgreSQL database kept up
// to date by the ads-bscope collector.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/unklstewy/ads-panel/pkg/config"
)

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// connString builds a lib/pq keyword/value connection string.
func connString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database.
// The panel only reads, so the pool is kept small.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	return open("postgres", connString(cfg), cfg)
}

func open(driver, dsn string, cfg config.DatabaseConfig) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

// GetStats returns the number of visible aircraft and the age of the
// newest report, for the startup log.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var visibleCount int
	var newest sql.NullTime
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(last_seen) FROM aircraft WHERE is_visible = TRUE`,
	).Scan(&visibleCount, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft stats: %w", err)
	}
	stats["visible_aircraft"] = visibleCount
	if newest.Valid {
		stats["newest_report_age"] = time.Since(newest.Time).Round(time.Second).String()
	}

	return stats, nil
}

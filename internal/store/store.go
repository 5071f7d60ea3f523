// Package store manages the local SQLite observation archive
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// Store wraps the SQL database connection with application-specific methods.
type Store struct {
	*sql.DB
	path string
}

// New creates a new database connection and initializes the schema.
func New(path string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database connection
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		DB:   sqlDB,
		path: path,
	}

	// Configure database
	if err := s.configure(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	// Create schema
	if err := s.createSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// configure sets up database pragmas for optimal performance.
func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000", // 64MB cache
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := s.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

func (s *Store) createSchema() error {
	if err := s.createObservationsTable(); err != nil {
		return err
	}
	return s.createSyncRunsTable()
}

// observations holds one value per (field, day, metric). Metric names are the
// dotted column names produced by table normalization, e.g. temperatures.max.
func (s *Store) createObservationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		field_id TEXT NOT NULL,
		date TEXT NOT NULL,
		metric TEXT NOT NULL,
		value REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(field_id, date, metric)
	);
	CREATE INDEX IF NOT EXISTS idx_observations_field_metric ON observations(field_id, metric, date);
	CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date);
	`
	_, err := s.ExecContext(context.Background(), query)
	return err
}

func (s *Store) createSyncRunsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		field_id TEXT NOT NULL,
		synced_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		rows_written INTEGER DEFAULT 0,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sync_runs_field ON sync_runs(field_id, synced_at);
	`
	_, err := s.ExecContext(context.Background(), query)
	return err
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	// Checkpoint WAL before closing
	_, _ = s.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return s.DB.Close()
}

// Vacuum performs database maintenance to reclaim space.
func (s *Store) Vacuum() error {
	_, err := s.ExecContext(context.Background(), "VACUUM")
	return err
}

package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const SchemaVersion = 1

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the history database at the given path
func Open(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(1) // SQLite works best with single writer
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn: conn,
		path: dbPath,
	}

	// Initialize schema if needed
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file location
func (db *DB) Path() string {
	return db.path
}

// initSchema initializes the database schema if not already present
func (db *DB) initSchema() error {
	// Check current schema version
	var currentVersion int
	err := db.conn.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)

	// If table doesn't exist or is empty, create schema
	if errors.Is(err, sql.ErrNoRows) || (err != nil && strings.Contains(err.Error(), "no such table")) {
		if _, err := db.conn.Exec(schemaSQL); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
		return nil
	}

	// If other error, fail
	if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	// Check if migration is needed
	if currentVersion < SchemaVersion {
		return fmt.Errorf("schema migration needed from version %d to %d (not implemented)", currentVersion, SchemaVersion)
	}

	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Stats returns database statistics
func (db *DB) Stats() (*Stats, error) {
	stats := &Stats{}

	// Count runs
	err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&stats.RunCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	// Count predictions
	err = db.QueryRow("SELECT COUNT(*) FROM predictions").Scan(&stats.PredictionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}

	// Get date range
	var first, last time.Time
	err = db.QueryRow("SELECT created_at FROM runs ORDER BY created_at ASC LIMIT 1").Scan(&first)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get first run: %w", err)
	}
	if err == nil {
		stats.FirstRun = &first
		if err := db.QueryRow("SELECT created_at FROM runs ORDER BY created_at DESC LIMIT 1").Scan(&last); err != nil {
			return nil, fmt.Errorf("failed to get last run: %w", err)
		}
		stats.LastRun = &last
	}

	// Get database file size
	if info, err := os.Stat(db.path); err == nil {
		stats.DatabaseSize = info.Size()
	}

	return stats, nil
}

// Stats represents database statistics
type Stats struct {
	RunCount        int64      `json:"run_count"`
	PredictionCount int64      `json:"prediction_count"`
	FirstRun        *time.Time `json:"first_run,omitempty"`
	LastRun         *time.Time `json:"last_run,omitempty"`
	DatabaseSize    int64      `json:"database_size"`
}

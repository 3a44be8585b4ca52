// Package duckdb exports comparison results to DuckDB so that runs can be
// queried and compared after the fact.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported comparison runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// NewRunID returns a fresh identifier for a comparison run.
func NewRunID() string {
	return uuid.NewString()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS comparison_runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		mode VARCHAR,
		invert_score BOOLEAN,
		truth_path VARCHAR,
		truth_size BIGINT,
		truth_mtime TIMESTAMP,
		truth_records BIGINT,
		candidate_path VARCHAR,
		candidate_size BIGINT,
		candidate_mtime TIMESTAMP,
		candidate_records BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS category_counts (
		run_id VARCHAR,
		ord BIGINT,
		category VARCHAR,
		tp BIGINT,
		fp BIGINT,
		fn BIGINT,
		cm BIGINT,
		candidate_total BIGINT,
		truth_total BIGINT,
		warnings BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS stratification (
		run_id VARCHAR,
		category VARCHAR,
		axis VARCHAR,
		bucket BIGINT,
		tp_count BIGINT,
		fp_count BIGINT,
		tp_pct DOUBLE,
		tp_cum DOUBLE,
		fp_pct DOUBLE,
		fp_cum DOUBLE
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

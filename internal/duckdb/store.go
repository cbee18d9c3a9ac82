// Package duckdb stores validation runs and their diagnostics in DuckDB so
// past results can be queried (append-only).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for validation reports.
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
			return nil, fmt.Errorf("create report directory: %w", err)
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

// Path returns the database path; empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS run_ids START 1`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id BIGINT PRIMARY KEY,
			input VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			level VARCHAR,
			valid BOOLEAN,
			halted BOOLEAN,
			version VARCHAR,
			content VARCHAR,
			encoding VARCHAR,
			samples INTEGER,
			lines BIGINT,
			records BIGINT,
			invalid_records BIGINT,
			warnings BIGINT,
			errors BIGINT,
			dropped BIGINT,
			error VARCHAR,
			checked_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			run_id BIGINT,
			line BIGINT,
			severity VARCHAR,
			kind VARCHAR,
			rule VARCHAR,
			message VARCHAR
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

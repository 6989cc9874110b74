// Package sqlite provides a SQLite-backed implementation of the repository
// ports for single-machine deployments where running PostgreSQL is overkill.
// It uses the pure Go driver, so builds stay CGO-free.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	portsrepo "github.com/DubeTracker/dube_ledger_app/internal/core/ports/repositories"
)

// Store owns the SQLite database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and bootstraps the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Transactions open as BEGIN IMMEDIATE, so a writer holds the write lock
	// from its first read and a second writer waits on busy_timeout instead of
	// failing with SQLITE_BUSY. WAL keeps readers unblocked while a lump-sum
	// transaction commits. The pragmas ride on the DSN so every pooled
	// connection gets them.
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRepositoryProvider wires the SQLite repositories behind the port interfaces.
func (s *Store) NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Customer:  &customerRepository{db: s.db},
		Credit:    &creditRepository{db: s.db},
		User:      &userRepository{db: s.db},
		Reporting: &reportingRepository{db: s.db},
	}
}

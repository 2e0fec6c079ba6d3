// Package store persists the cleaned fact table and its derived aggregate
// tables in an embedded SQLite database. Every pipeline run rebuilds all
// four tables inside a single transaction; readers never observe a
// half-rebuilt state.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// ErrPersistence marks terminal store failures. When a rebuild fails the
// transaction is rolled back and the prior persisted state is left untouched.
var ErrPersistence = errors.New("persistence error")

// Table names of the persisted store.
const (
	TableRides           = "rides"
	TableVehicleSummary  = "vehicle_summary"
	TableDailySummary    = "daily_summary"
	TableCustomerSummary = "customer_summary"
)

// Store wraps the SQLite database holding ride facts and aggregates.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New creates an unopened store. Pass a nil logger to discard logs.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the SQLite database at path. Use ":memory:" for an in-memory
// database. WAL mode keeps concurrent external readers from blocking the
// exclusive writer during a rebuild.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%w: opening database: %v", ErrPersistence, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: pinging database: %v", ErrPersistence, err)
	}

	s.db = db
	s.path = path
	return nil
}

// OpenReadOnly opens an independent read-only connection to an existing
// store database. Query consumers use this so they can never mutate state.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// NewWithDB wraps an already opened handle, typically one from OpenReadOnly.
// The caller keeps ownership of the handle.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	s := New(logger)
	s.db = db
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for the query catalog and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

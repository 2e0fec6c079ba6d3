package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate runs all pending schema migrations. The fact table, its secondary
// indexes and the run-history table are migration-managed; the aggregate
// tables are not, since they are dropped and recreated on every rebuild.
func (s *Store) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("%w: database not opened", ErrPersistence)
	}
	return MigrateWithDB(s.db)
}

// MigrateWithDB runs migrations against a raw database connection. Useful in
// tests that manage their own connection.
func MigrateWithDB(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("%w: setting dialect: %v", ErrPersistence, err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%w: running migrations: %v", ErrPersistence, err)
	}

	return nil
}

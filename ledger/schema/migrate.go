// Package schema owns CreatorLedger's schema_version bookkeeping
// (C6): it applies the embedded SQL migrations strictly greater than
// the stored version, in ascending order, each inside a transaction.
package schema

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.up.sql *.down.sql
var migrationFiles embed.FS

// versionTable is the table golang-migrate records the schema version in.
const versionTable = "schema_version"

// Migrate applies every migration with a version strictly greater
// than the schema's current version, in ascending order. It is safe
// to call on every process start: a schema already at the latest
// version is a no-op.
func Migrate(db *sql.DB) error {
	source, err := iofs.New(migrationFiles, ".")
	if err != nil {
		return fmt.Errorf("ledger/schema: failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: versionTable})
	if err != nil {
		return fmt.Errorf("ledger/schema: failed to attach migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("ledger/schema: failed to construct migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ledger/schema: migration failed: %w", err)
	}
	return nil
}

// Version reports the schema's current version (0 when no migration
// has ever been applied) and whether the last migration attempt left
// the schema dirty.
func Version(db *sql.DB) (version uint, dirty bool, err error) {
	source, err := iofs.New(migrationFiles, ".")
	if err != nil {
		return 0, false, fmt.Errorf("ledger/schema: failed to load embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: versionTable})
	if err != nil {
		return 0, false, fmt.Errorf("ledger/schema: failed to attach migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, false, fmt.Errorf("ledger/schema: failed to construct migrator: %w", err)
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("ledger/schema: failed to read version: %w", err)
	}
	return v, dirty, nil
}

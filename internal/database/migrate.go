package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending up migration embedded in the binary.
func Migrate(db *sql.DB, logger zerolog.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info().
		Str("event", "migrations_applied").
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("Database migrations completed")
	return nil
}

// Reset drops every table in the schema, migration bookkeeping included.
// Run Migrate afterwards to rebuild it.
func Reset(db *sql.DB, logger zerolog.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Drop(); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}

	logger.Warn().Str("event", "database_reset").Msg("Database reset executed")
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

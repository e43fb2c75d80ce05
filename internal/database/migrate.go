package database

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations to the database at connString.
func Migrate(connString string, logger zerolog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(connString))
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("could not read migration version: %w", err)
	}

	logger.Info().
		Uint("version", version).
		Bool("dirty", dirty).
		Msg("database schema is up to date")

	return nil
}

// SchemaStatus compares the version recorded in schema_migrations with the
// newest embedded migration.
type SchemaStatus struct {
	Current uint `json:"current"`
	Latest  uint `json:"latest"`
	Dirty   bool `json:"dirty"`
}

// Pending reports whether embedded migrations have not been applied yet.
func (s SchemaStatus) Pending() bool {
	return s.Current < s.Latest
}

// Status reads the migration state of the database at connString without
// applying anything. Current is zero when no migration has run.
func Status(connString string) (SchemaStatus, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("could not open embedded migrations: %w", err)
	}

	latest, err := latestVersion(src)
	if err != nil {
		return SchemaStatus{}, err
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(connString))
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	status := SchemaStatus{Latest: latest}
	status.Current, status.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return SchemaStatus{}, fmt.Errorf("could not read migration version: %w", err)
	}

	return status, nil
}

// LatestVersion returns the version of the newest embedded migration.
func LatestVersion() (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("could not open embedded migrations: %w", err)
	}
	defer src.Close()
	return latestVersion(src)
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no embedded migrations: %w", err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, os.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("could not walk migrations: %w", err)
		}
		version = next
	}
}

// migrateURL rewrites a postgres:// URL to the scheme registered by the pgx/v5 driver.
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

// Package migrate applies the embedded schema migrations with golang-migrate.
package migrate

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"crpstore/internal/platform/database"
	"crpstore/migrations"
)

// Direction selects which way migrations run.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Run applies migrations for the substrate named by databaseURL.
// Running up when already at the latest version is not an error.
func Run(databaseURL string, direction Direction) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if direction != Up && direction != Down {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	driver, _, err := database.ParseURL(databaseURL)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.FS, string(driver))
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}

// Version reports the applied schema version and whether it is dirty.
// It returns migrate.ErrNilVersion before the first migration.
func Version(databaseURL string) (uint, bool, error) {
	driver, _, err := database.ParseURL(databaseURL)
	if err != nil {
		return 0, false, err
	}
	source, err := iofs.New(migrations.FS, string(driver))
	if err != nil {
		return 0, false, fmt.Errorf("migrate source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return 0, false, fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	return m.Version()
}

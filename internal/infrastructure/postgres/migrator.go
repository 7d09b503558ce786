package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

// ErrInvalidSteps is returned by Down for a non-positive step count.
var ErrInvalidSteps = errors.New("steps must be positive")

// Migrator applies the schema migrations under a directory.
type Migrator struct {
	m *migrate.Migrate
}

// NewMigrator opens databaseURL with the migrations found at path. A bare
// directory and a file:// URL are both accepted.
func NewMigrator(databaseURL, path string) (*Migrator, error) {
	m, err := migrate.New(sourceURL(path), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("database migrations: no change")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := mg.m.Version()
	log.Info().Uint("version", version).Msg("database migrations: applied")
	return nil
}

// Down rolls back the last steps migrations.
func (mg *Migrator) Down(steps int) error {
	if steps <= 0 {
		return ErrInvalidSteps
	}
	if err := mg.m.Steps(-steps); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	log.Info().Int("steps", steps).Msg("database migrations: rolled back")
	return nil
}

// Version reports the applied schema version. A database without migrations
// reports version 0.
func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations applies every pending migration and closes the migrator.
func RunMigrations(databaseURL, path string) error {
	mg, err := NewMigrator(databaseURL, path)
	if err != nil {
		return err
	}
	defer mg.Close()

	return mg.Up()
}

package database

import (
	"embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

func newMigrate(url string) (*migrate.Migrate, error) {
	source, err := httpfs.New(http.FS(migrations), "migrations")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("embed", source, url)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}

// Migrate applies every pending up migration. An already current schema is
// not an error.
func Migrate(url string, log *zerolog.Logger) error {
	m, err := newMigrate(url)
	if err != nil {
		return err
	}
	defer closeMigrate(m, log)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	logVersion(m, log)
	return nil
}

// MigrateDown rolls back every migration.
func MigrateDown(url string, log *zerolog.Logger) error {
	m, err := newMigrate(url)
	if err != nil {
		return err
	}
	defer closeMigrate(m, log)

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info().Msg("schema rolled back")
	return nil
}

func logVersion(m *migrate.Migrate, log *zerolog.Logger) {
	version, dirty, err := m.Version()
	if err != nil {
		log.Info().Msg("schema has no migrations applied")
		return
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema up to date")
}

func closeMigrate(m *migrate.Migrate, log *zerolog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Warn().Err(srcErr).Msg("close migration source")
	}
	if dbErr != nil {
		log.Warn().Err(dbErr).Msg("close migration database")
	}
}

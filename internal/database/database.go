// Package database opens the Postgres handle, runs the versioned schema
// migrations and reports whether the schema is usable.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bigbiz/catalog-api/internal/config"
)

const pingTimeout = 5 * time.Second

// Now is the clock used for created_at and updated_at. Postgres keeps
// microseconds, so anything finer would not survive a round trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type zerologWriter struct {
	log *zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Warn().Msgf(format, args...)
}

// GormConfig is the GORM configuration shared by the service and tests.
// TranslateError makes unique violations come back as gorm.ErrDuplicatedKey.
func GormConfig(log *zerolog.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        Now,
		Logger: gormlogger.New(zerologWriter{log: log}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Open connects to Postgres and checks the connection before returning.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), GormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("database connected")
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

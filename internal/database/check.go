package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var ErrDirtySchema = errors.New("schema has a failed migration")

// Checker reports whether the database is reachable and the schema clean.
type Checker struct {
	db *gorm.DB
}

func NewChecker(db *gorm.DB) *Checker {
	return &Checker{db: db}
}

// Check pings the pool and looks for a migration left half applied.
func (c *Checker) Check(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	var dirty int64
	err = c.db.WithContext(ctx).
		Raw("SELECT count(*) FROM schema_migrations WHERE dirty").
		Scan(&dirty).Error
	if err != nil {
		return fmt.Errorf("read migration state: %w", err)
	}
	if dirty > 0 {
		return ErrDirtySchema
	}
	return nil
}

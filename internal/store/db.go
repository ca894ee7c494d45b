package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting user. Callers cannot tell the two apart.
var ErrNotFound = errors.New("record not found")

// DB is the SQLite-backed implementation of Ledger.
type DB struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and returns a ready store.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{db: db}, nil
}

// Migrate creates or updates the schema.
func (d *DB) Migrate() error {
	if err := d.db.AutoMigrate(&accountRow{}, &transactionRow{}, &budgetRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

package database

import (
	"fmt"

	"series-catalog/internal/domain/catalog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and migrates the catalog schema. The handle
// is returned to the caller and passed down explicitly; nothing in this
// package holds global state.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all catalog tables. Split out from Open so
// tests can run it against their own handle.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&catalog.Serie{},
		&catalog.Genre{},
		&catalog.Tag{},
		&catalog.Actor{},
		&catalog.SerieActor{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS route_cache (
		device_id  TEXT NOT NULL,
		date       TEXT NOT NULL,
		payload    JSONB NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (device_id, date)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_route_cache_fetched_at ON route_cache (fetched_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

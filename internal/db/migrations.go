package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: Replace hard UNIQUE on barcode_id with a partial unique
	// index that only covers active (non-deleted) participants so that
	// wristband barcodes from past camps can be reissued.
	`DROP INDEX IF EXISTS sqlite_autoindex_participants_1`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_participants_barcode_active
	     ON participants(barcode_id) WHERE deleted_at IS NULL`,
}

// Migrate ensures the schema and runs the database migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// Table bootstrap. Every column is text-typed; no foreign keys are declared,
// referential integrity belongs to the ingestion pipeline. Neither user.name
// nor (patient_case.hospital, report_date) carries a unique constraint, so the
// pipeline's find-or-create is check-then-act and two concurrent requests can
// race duplicate rows in; an accepted limitation under low concurrency.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS "user" (
		"id" TEXT PRIMARY KEY,
		"identity" TEXT,
		"name" TEXT,
		"sex" TEXT,
		"phone" TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS patient_case (
		"id" TEXT PRIMARY KEY,
		"user_id" TEXT,
		"hospital" TEXT,
		"report_date" TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS case_report (
		"id" TEXT PRIMARY KEY,
		"case_id" TEXT,
		"chinese_name" TEXT,
		"english_name" TEXT,
		"value" TEXT,
		"unit" TEXT,
		"range" TEXT,
		"notifaction" TEXT
	)`,
}

// Migrate creates the three tables if they do not exist yet.
func (d *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range migrations {
		if _, err := d.sqlDB.ExecContext(ctx, stmt); err != nil {
			logger.Error("migration failed", "error", err)
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("database tables checked/created")
	return nil
}

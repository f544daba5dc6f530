package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillUpdatedAt(db); err != nil {
		return fmt.Errorf("backfilling deal updated_at: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS contacts (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL,
		email             TEXT NOT NULL,
		phone             TEXT NOT NULL DEFAULT '',
		company           TEXT NOT NULL DEFAULT '',
		position          TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		last_contacted_at TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email)`,

	`CREATE TABLE IF NOT EXISTS deals (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		title               TEXT NOT NULL,
		value               REAL NOT NULL CHECK(value > 0),
		stage               TEXT NOT NULL,
		probability         INTEGER NOT NULL CHECK(probability BETWEEN 0 AND 100),
		contact_id          INTEGER NOT NULL REFERENCES contacts(id) ON DELETE RESTRICT,
		expected_close_date TEXT,
		notes               TEXT NOT NULL DEFAULT '',
		created_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_deals_stage ON deals(stage)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_contact ON deals(contact_id)`,

	`CREATE TABLE IF NOT EXISTS activities (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		type             TEXT NOT NULL
		                 CHECK(type IN ('call','email','meeting','task','note')),
		description      TEXT NOT NULL,
		date             TEXT NOT NULL,
		duration_minutes INTEGER CHECK(duration_minutes IS NULL OR duration_minutes > 0),
		contact_id       INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		deal_id          INTEGER REFERENCES deals(id) ON DELETE SET NULL,
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activities_contact ON activities(contact_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_deal ON activities(deal_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,

	// Tags on contacts and deals, stored comma-joined
	`ALTER TABLE contacts ADD COLUMN tags TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE deals ADD COLUMN tags TEXT NOT NULL DEFAULT ''`,

	// Track the last modification of a deal
	`ALTER TABLE deals ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''`,
}

// migrateBackfillUpdatedAt stamps deals created before updated_at existed
// with their creation time. Idempotent.
func migrateBackfillUpdatedAt(db *sql.DB) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx,
		`UPDATE deals SET updated_at = created_at WHERE updated_at = ''`); err != nil {
		return fmt.Errorf("updating deals: %w", err)
	}
	return nil
}

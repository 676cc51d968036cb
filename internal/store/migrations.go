package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ExpectedSchemaVersion is the schema version this build requires.
const ExpectedSchemaVersion = 2

// Migration is one schema step.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS records (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT UNIQUE NOT NULL,
				own_account_name TEXT NOT NULL DEFAULT '',
				own_account TEXT NOT NULL DEFAULT '',
				counterparty TEXT NOT NULL DEFAULT '',
				counterparty_account TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT '',
				currency TEXT NOT NULL DEFAULT '',
				debit TEXT NOT NULL DEFAULT '0',
				credit TEXT NOT NULL DEFAULT '0',
				summary TEXT NOT NULL DEFAULT '',
				memo TEXT NOT NULL DEFAULT '',
				source TEXT NOT NULL DEFAULT '',
				reference TEXT NOT NULL DEFAULT '',
				date_ms INTEGER NOT NULL DEFAULT 0,
				legacy_account_name TEXT NOT NULL DEFAULT '',
				legacy_account TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`)
			if err != nil {
				return fmt.Errorf("creating records table: %w", err)
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index records by source and date",
		Up: func(tx *sql.Tx) error {
			for _, q := range []string{
				`CREATE INDEX IF NOT EXISTS idx_records_source ON records(source)`,
				`CREATE INDEX IF NOT EXISTS idx_records_date ON records(date_ms)`,
			} {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("executing migration statement: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLite) Migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration: %w", err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("updating schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.Version, err)
		}
		s.logger.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("verifying schema version: %w", err)
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, final)
	}
	return nil
}

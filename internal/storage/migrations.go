package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Correction journal and merchant adjustments",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS corrections (
					seq INTEGER PRIMARY KEY,
					id TEXT UNIQUE NOT NULL,
					original_text TEXT NOT NULL DEFAULT '',
					corrected_merchant TEXT,
					corrected_amount REAL,
					corrected_vat_rate INTEGER,
					corrected_category TEXT,
					feedback TEXT,
					confidence_rating INTEGER NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_corrections_merchant ON corrections(corrected_merchant)`,

				`CREATE TABLE IF NOT EXISTS merchant_adjustments (
					merchant TEXT PRIMARY KEY,
					value REAL NOT NULL,
					seq INTEGER NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Historical transactions for spend prediction",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS historical_transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					hash TEXT UNIQUE NOT NULL,
					date TEXT NOT NULL,
					day TEXT,
					merchant TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					season TEXT,
					cultural_event TEXT,
					amount REAL NOT NULL,
					imported_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_historical_day ON historical_transactions(day)`,
				`CREATE INDEX idx_historical_category ON historical_transactions(category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Database-assigned correction sequence and merchant keys",
		Up: func(tx *sql.Tx) error {
			// Rows written before v3 get an ASCII-uppercased key; new rows carry
			// the learning store's own merchant key.
			queries := []string{
				`CREATE TABLE corrections_v3 (
					seq INTEGER PRIMARY KEY AUTOINCREMENT,
					id TEXT UNIQUE NOT NULL,
					merchant_key TEXT,
					original_text TEXT NOT NULL DEFAULT '',
					corrected_merchant TEXT,
					corrected_amount REAL,
					corrected_vat_rate INTEGER,
					corrected_category TEXT,
					feedback TEXT,
					confidence_rating INTEGER NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`INSERT INTO corrections_v3 (
					seq, id, merchant_key, original_text, corrected_merchant, corrected_amount,
					corrected_vat_rate, corrected_category, feedback, confidence_rating, created_at
				)
				SELECT seq, id, NULLIF(UPPER(TRIM(corrected_merchant)), ''), original_text,
					corrected_merchant, corrected_amount, corrected_vat_rate, corrected_category,
					feedback, confidence_rating, created_at
				FROM corrections`,
				`DROP TABLE corrections`,
				`ALTER TABLE corrections_v3 RENAME TO corrections`,
				`CREATE INDEX idx_corrections_merchant_key ON corrections(merchant_key)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: products, sources, listings",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS products (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					brand TEXT,
					category_id TEXT,
					price REAL,
					gtin TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_products_brand ON products(brand)`,
				`CREATE INDEX idx_products_gtin ON products(gtin)`,

				`CREATE TABLE IF NOT EXISTS listing_sources (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					code TEXT UNIQUE NOT NULL,
					config TEXT,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS external_listings (
					source_code TEXT NOT NULL,
					external_key TEXT NOT NULL,
					title TEXT NOT NULL,
					brand TEXT,
					category_id TEXT,
					price REAL,
					gtin TEXT,
					fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (source_code, external_key)
				)`,
				`CREATE INDEX idx_external_listings_brand ON external_listings(source_code, brand)`,
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
		Description: "Matching rules",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS match_rules (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					algorithm TEXT NOT NULL DEFAULT 'jaro_winkler',
					weight_name REAL NOT NULL DEFAULT 0.4,
					weight_brand REAL NOT NULL DEFAULT 0.3,
					weight_gtin REAL NOT NULL DEFAULT 0.2,
					weight_price REAL NOT NULL DEFAULT 0.1,
					price_band_pct REAL NOT NULL DEFAULT 15,
					min_score REAL NOT NULL DEFAULT 0.65,
					is_default INTEGER NOT NULL DEFAULT 0
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
		Version:     3,
		Description: "Product matches with active-row uniqueness",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS product_matches (
					id TEXT PRIMARY KEY,
					tenant_id TEXT NOT NULL,
					product_id TEXT NOT NULL,
					external_key TEXT NOT NULL,
					source_id TEXT NOT NULL,
					score REAL NOT NULL DEFAULT 0,
					price_delta_pct REAL NOT NULL DEFAULT 0,
					rule_id TEXT,
					session_id TEXT,
					status TEXT NOT NULL,
					reviewed_by TEXT,
					reviewed_at DATETIME,
					notes TEXT,
					version INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				// The store-level guarantee behind concurrent confirms: only
				// one active decision per pair. Superseded rows are exempt.
				`CREATE UNIQUE INDEX idx_product_matches_active
					ON product_matches(tenant_id, external_key, source_id)
					WHERE status IN ('matched', 'not_matched')`,
				`CREATE INDEX idx_product_matches_product ON product_matches(tenant_id, product_id)`,
				`CREATE INDEX idx_product_matches_created ON product_matches(created_at)`,
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
		Version:     4,
		Description: "Index reviewer lookups for audit views",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_product_matches_reviewer
				ON product_matches(reviewed_by)`)
			return err
		},
	},
}

// SchemaVersion reports the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
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

		slog.Info("Applied migration",
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

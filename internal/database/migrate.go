package database

import (
	"database/sql"
	"fmt"
)

// Migrations are embedded rather than read from disk so the cache schema
// travels with the binary; the cmd tools share it.
var migrations = []struct {
	version string
	script  string
}{
	{
		version: "001_cache_tables",
		script: `
CREATE TABLE IF NOT EXISTS manga_cache (
	slug       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS reader_cache (
	slug          TEXT NOT NULL,
	chapter_token TEXT NOT NULL,
	payload       TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (slug, chapter_token)
);
`,
	},
	{
		version: "002_reader_cache_created_idx",
		script: `
CREATE INDEX IF NOT EXISTS idx_reader_cache_created_at ON reader_cache(created_at);
`,
	},
}

func ApplyMigrations(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	for _, migration := range migrations {
		applied, err := migrationApplied(db, migration.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(migration.script); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", migration.version, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, migration.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", migration.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", migration.version, err)
		}
	}

	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func migrationApplied(db *sql.DB, version string) (bool, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE version = ?`, version).Scan(&count); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return count > 0, nil
}

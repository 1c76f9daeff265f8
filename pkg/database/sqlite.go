// Package database opens and migrates the engine's SQLite store.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Open initializes the SQLite database at dataDir/pulseboard.db.
// The dataDir parameter allows tests to use t.TempDir().
func Open(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pulseboard.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Restrict after the file exists (best-effort).
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS companies (
		  id              TEXT PRIMARY KEY,
		  name            TEXT NOT NULL,
		  core_values     TEXT NOT NULL DEFAULT '',
		  themes          TEXT NOT NULL DEFAULT '',
		  decision_making TEXT NOT NULL DEFAULT '',
		  culture         TEXT NOT NULL DEFAULT '',
		  created_at      INTEGER NOT NULL,
		  updated_at      INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS members (
		  id              TEXT PRIMARY KEY,
		  company_id      TEXT NOT NULL,
		  display_name    TEXT NOT NULL,
		  email           TEXT NOT NULL DEFAULT '',
		  role            TEXT NOT NULL DEFAULT '',
		  avatar          TEXT NOT NULL DEFAULT '',
		  influence       TEXT NOT NULL DEFAULT '',
		  project_impacts TEXT NOT NULL DEFAULT '',
		  superpowers     TEXT NOT NULL DEFAULT '[]',
		  growth_areas    TEXT NOT NULL DEFAULT '[]',
		  created_at      INTEGER NOT NULL,
		  updated_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_members_company ON members(company_id);

		CREATE TABLE IF NOT EXISTS diaries (
		  id              TEXT PRIMARY KEY,
		  member_id       TEXT NOT NULL,
		  company_id      TEXT NOT NULL,
		  content         TEXT NOT NULL,
		  entry_timestamp INTEGER NOT NULL,
		  tags            TEXT NOT NULL DEFAULT '[]',
		  projects        TEXT NOT NULL DEFAULT '[]',
		  embedding       TEXT,
		  created_at      INTEGER NOT NULL,
		  updated_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_diaries_member
		ON diaries(member_id, entry_timestamp DESC);

		CREATE INDEX IF NOT EXISTS idx_diaries_company ON diaries(company_id);

		CREATE TABLE IF NOT EXISTS diary_drafts (
		  id                    TEXT PRIMARY KEY,
		  content               TEXT NOT NULL,
		  suggested_member_id   TEXT NOT NULL DEFAULT '',
		  reasoning             TEXT NOT NULL DEFAULT '',
		  mentioned_member_ids  TEXT NOT NULL DEFAULT '[]',
		  mentioned_company_ids TEXT NOT NULL DEFAULT '[]',
		  classified_at         INTEGER NOT NULL DEFAULT 0,
		  created_at            INTEGER NOT NULL,
		  updated_at            INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
		  id         INTEGER PRIMARY KEY CHECK (id = 1),
		  payload    TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

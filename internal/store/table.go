package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 2

// Migrate brings the sqlite schema up to schemaVersion, one PRAGMA
// user_version step at a time.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	if v < 1 {
		// ---- Schema v1: tracked jobs ----
		if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  identity_key TEXT NOT NULL,
  company TEXT NOT NULL,
  role TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_date TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  cover_letter TEXT NOT NULL DEFAULT '',
  apply_link TEXT NOT NULL DEFAULT '',
  contact_email TEXT NOT NULL DEFAULT '',
  origin TEXT NOT NULL DEFAULT 'application',
  inserted_at TEXT NOT NULL
);
`); err != nil {
			return err
		}
		if _, err := tx.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_identity_key
ON jobs(identity_key);
`); err != nil {
			return err
		}
		if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_jobs_inserted_at
ON jobs(inserted_at);
`); err != nil {
			return err
		}
	}

	if v < 2 {
		// ---- Schema v2: alerts + run history ----
		if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  keywords TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  domain TEXT NOT NULL DEFAULT '',
  frequency TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  last_checked TEXT NOT NULL DEFAULT ''
);
`); err != nil {
			return err
		}
		if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  trigger TEXT NOT NULL,
  keywords TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  domain TEXT NOT NULL DEFAULT '',
  phase TEXT NOT NULL,
  found INTEGER NOT NULL DEFAULT 0,
  scored INTEGER NOT NULL DEFAULT 0,
  qualified INTEGER NOT NULL DEFAULT 0,
  drafted INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT '',
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL
);
`); err != nil {
			return err
		}
		if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_runs_started_at
ON runs(started_at);
`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}

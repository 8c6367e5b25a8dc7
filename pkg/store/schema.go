package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version, tracked via
// PRAGMA user_version so a store opened by a newer or older binary fails
// fast instead of reading matches through a mismatched column layout.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist, and checks
// the on-disk user_version against SchemaVersion for an existing database.
func CreateSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	if version != 0 && version != SchemaVersion {
		return fmt.Errorf("database has schema version %d, scanforge requires %d", version, SchemaVersion)
	}

	if err := createBlobsTable(db); err != nil {
		return fmt.Errorf("creating blobs table: %w", err)
	}

	if err := createRulesTable(db); err != nil {
		return fmt.Errorf("creating rules table: %w", err)
	}

	if err := createMatchesTable(db); err != nil {
		return fmt.Errorf("creating matches table: %w", err)
	}

	if err := createFindingsTable(db); err != nil {
		return fmt.Errorf("creating findings table: %w", err)
	}

	if err := createProvenanceTable(db); err != nil {
		return fmt.Errorf("creating provenance table: %w", err)
	}

	if err := createAnnotationsTable(db); err != nil {
		return fmt.Errorf("creating annotations table: %w", err)
	}

	if version == 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("stamping schema version: %w", err)
		}
	}

	return nil
}

func createBlobsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS blobs (
			id TEXT PRIMARY KEY NOT NULL,
			size INTEGER NOT NULL
		)
	`)
	return err
}

func createRulesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			structural_id TEXT NOT NULL
		)
	`)
	return err
}

// createMatchesTable stores one row per participating capture group of a
// verified hit (types.Match is already expanded to that granularity), so
// group_index/match_content round-trip the exact group the rest of the row
// describes rather than only the raw-hit offsets.
func createMatchesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			rule_id TEXT NOT NULL REFERENCES rules(id),
			structural_id TEXT NOT NULL UNIQUE,
			finding_id TEXT,
			offset_start INTEGER NOT NULL,
			offset_end INTEGER NOT NULL,
			group_index INTEGER NOT NULL DEFAULT 0,
			match_content BLOB,
			named_groups_json TEXT,
			snippet_before BLOB,
			snippet_matching BLOB,
			snippet_after BLOB,
			groups_json TEXT,
			start_line INTEGER,
			start_column INTEGER,
			end_line INTEGER,
			end_column INTEGER
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_matches_finding_id ON matches(finding_id)`)
	return err
}

func createFindingsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			structural_id TEXT NOT NULL UNIQUE,
			rule_id TEXT NOT NULL,
			groups_json TEXT
		)
	`)
	return err
}

// createProvenanceTable keeps a single flat table discriminated by type
// rather than the fully normalized per-kind tables a from-scratch design
// might use: a blob's provenance set is always read back as a whole (never
// joined against git_commit/payload_file independently), so the extra
// normalization would only add joins without a matching query to exploit.
func createProvenanceTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS provenance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			type TEXT NOT NULL,
			path TEXT,
			repo_path TEXT,
			commit_hash TEXT,
			commit_author TEXT,
			commit_date TEXT,
			first_seen INTEGER NOT NULL DEFAULT 0,
			UNIQUE(blob_id, type, path, repo_path, commit_hash)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_provenance_blob_id ON provenance(blob_id)
	`)
	return err
}

// createAnnotationsTable stores the triage state the explore TUI attaches to
// a finding or match: a status ("confirmed", "false-positive", ...) plus a
// free-text comment, keyed by the kind of thing annotated and its ID so the
// same table serves both findings and matches without two near-identical ones.
func createAnnotationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS annotations (
			kind TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			comment TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (kind, subject_id)
		)
	`)
	return err
}

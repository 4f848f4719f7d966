package store

import "database/sql"

// Schema is the complete jobtrack schema. The UNIQUE(source_id, identity_key)
// constraint on postings is the dedup invariant: callers may race, the
// database will not duplicate.
const Schema = `
-- Career pages to monitor
CREATE TABLE IF NOT EXISTS sources (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    url                TEXT NOT NULL UNIQUE,
    requires_browser   INTEGER NOT NULL DEFAULT 0,
    last_checked       INTEGER,
    last_error         TEXT NOT NULL DEFAULT '',
    last_posting_count INTEGER NOT NULL DEFAULT 0,
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL
);

-- Postings discovered from sources
CREATE TABLE IF NOT EXISTS postings (
    id           TEXT PRIMARY KEY,
    source_id    TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    identity_key TEXT NOT NULL,
    title        TEXT NOT NULL,
    company      TEXT NOT NULL DEFAULT '',
    location     TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    first_seen   INTEGER NOT NULL,
    notified     INTEGER NOT NULL DEFAULT 0,
    UNIQUE(source_id, identity_key)
);
CREATE INDEX IF NOT EXISTS idx_postings_source ON postings(source_id);
CREATE INDEX IF NOT EXISTS idx_postings_notified ON postings(notified) WHERE notified = 0;

-- Pipeline run records
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    started_at     INTEGER NOT NULL,
    ended_at       INTEGER,
    trigger_mode   TEXT NOT NULL DEFAULT 'manual',
    outcome        TEXT NOT NULL DEFAULT 'running',
    new_count      INTEGER NOT NULL DEFAULT 0,
    sources_ok     INTEGER NOT NULL DEFAULT 0,
    sources_failed INTEGER NOT NULL DEFAULT 0,
    detail_json    TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Process-wide settings (schedule_enabled, schedule_interval_min)
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

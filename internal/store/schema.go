package store

// schemaVersion1 is the initial schema.
const schemaVersion1 = 1

// schemaV1 is the initial DDL (fresh install).
// runs holds cohort aggregates; sessions holds one row per finished
// session with the full trace as a JSON payload; friction holds one row
// per classified friction point for hotspot queries.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	goal            TEXT NOT NULL,
	source_id       INTEGER NOT NULL,
	target_id       INTEGER NOT NULL,
	workers         INTEGER,
	base_seed       INTEGER,
	sessions        INTEGER NOT NULL DEFAULT 0,
	errors          INTEGER NOT NULL DEFAULT 0,
	completion_rate REAL,
	mean_steps      REAL,
	mean_elapsed    REAL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	run_id          TEXT REFERENCES runs(id),
	persona         TEXT,
	goal            TEXT NOT NULL,
	source_id       INTEGER NOT NULL,
	target_id       INTEGER NOT NULL,
	seed            INTEGER,
	outcome         TEXT NOT NULL,
	steps           INTEGER NOT NULL,
	elapsed_seconds REAL NOT NULL,
	final_screen_id INTEGER,
	final_mood      TEXT,
	trace_payload   BLOB,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS friction (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	screen_id  INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	detail     TEXT
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_sessions_run ON sessions(run_id);
CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);
CREATE INDEX IF NOT EXISTS idx_friction_session ON friction(session_id);
CREATE INDEX IF NOT EXISTS idx_friction_screen ON friction(screen_id);
`

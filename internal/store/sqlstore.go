package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wayfarer/internal/sim"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nilIfEmpty passes NULL for optional TEXT params.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersion1

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .wayfarer) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	// Check if schema_version table exists to detect database state.
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		// schema_version exists but is empty — repair it.
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		v = currentSchemaVersion
	}

	switch v {
	case currentSchemaVersion:
		return nil // already at target
	default:
		return fmt.Errorf("unknown schema version %d", v)
	}
}

// freshInstall creates the current schema from scratch on an empty database.
func (s *SqlStore) freshInstall() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

// SaveRun inserts the run aggregate row. Run IDs are caller-assigned
// (UUIDs) and saved once, after the cohort finishes.
func (s *SqlStore) SaveRun(run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.CreatedAt == "" {
		run.CreatedAt = nowUTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO runs(id, goal, source_id, target_id, workers, base_seed,
		                  sessions, errors, completion_rate, mean_steps, mean_elapsed, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Goal, run.SourceID, run.TargetID, run.Workers, int64(run.BaseSeed),
		run.Sessions, run.Errors, run.CompletionRate, run.MeanSteps, run.MeanElapsed, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun returns the run by id.
func (s *SqlStore) GetRun(id string) (*Run, error) {
	var r Run
	var seed sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, goal, source_id, target_id, workers, base_seed,
		        sessions, errors, completion_rate, mean_steps, mean_elapsed, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Goal, &r.SourceID, &r.TargetID, &r.Workers, &seed,
		&r.Sessions, &r.Errors, &r.CompletionRate, &r.MeanSteps, &r.MeanElapsed, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if seed.Valid {
		r.BaseSeed = uint64(seed.Int64)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SqlStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, goal, source_id, target_id, workers, base_seed,
		        sessions, errors, completion_rate, mean_steps, mean_elapsed, created_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		var r Run
		var seed sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Goal, &r.SourceID, &r.TargetID, &r.Workers, &seed,
			&r.Sessions, &r.Errors, &r.CompletionRate, &r.MeanSteps, &r.MeanElapsed, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if seed.Valid {
			r.BaseSeed = uint64(seed.Int64)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// --- Sessions ---

// SaveSession stores one finished trace: a flat row for queries, the
// full trace as JSON, and one friction row per classified point. All
// inserts run in a single transaction.
func (s *SqlStore) SaveSession(runID string, tr *sim.Trace) error {
	if tr == nil {
		return errors.New("trace is nil")
	}
	payload, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO sessions(id, run_id, persona, goal, source_id, target_id, seed,
		                      outcome, steps, elapsed_seconds, final_screen_id, final_mood,
		                      trace_payload, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.SessionID, nilIfEmpty(runID), nilIfEmpty(tr.Persona), tr.Goal,
		tr.SourceID, tr.TargetID, int64(tr.Seed),
		string(tr.Outcome), len(tr.Steps), tr.ElapsedSeconds,
		tr.FinalScreenID, tr.FinalEmotion.Label(), payload, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, pt := range tr.Friction {
		if _, err := tx.Exec(
			"INSERT INTO friction(session_id, screen_id, kind, detail) VALUES(?, ?, ?, ?)",
			tr.SessionID, pt.ScreenID, string(pt.Kind), nilIfEmpty(pt.Description),
		); err != nil {
			return fmt.Errorf("insert friction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// GetSession returns the full trace for the session id.
func (s *SqlStore) GetSession(sessionID string) (*sim.Trace, error) {
	var payload []byte
	err := s.db.QueryRow(
		"SELECT trace_payload FROM sessions WHERE id = ?", sessionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var tr sim.Trace
	if err := json.Unmarshal(payload, &tr); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return &tr, nil
}

// ListSessionsByRun returns the flat rows of all sessions in a run.
func (s *SqlStore) ListSessionsByRun(runID string) ([]*SessionRow, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, persona, goal, outcome, steps, elapsed_seconds,
		        final_screen_id, final_mood, created_at
		 FROM sessions WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessionRows(rows)
}

// ListSessions returns the most recent sessions, newest first.
func (s *SqlStore) ListSessions(limit int) ([]*SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, run_id, persona, goal, outcome, steps, elapsed_seconds,
		        final_screen_id, final_mood, created_at
		 FROM sessions ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessionRows(rows)
}

func scanSessionRows(rows *sql.Rows) ([]*SessionRow, error) {
	var out []*SessionRow
	for rows.Next() {
		var v SessionRow
		var runID, persona, mood sql.NullString
		var finalScreen sql.NullInt64
		if err := rows.Scan(&v.ID, &runID, &persona, &v.Goal, &v.Outcome, &v.Steps,
			&v.ElapsedSeconds, &finalScreen, &mood, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		v.RunID = nullStr(runID)
		v.Persona = nullStr(persona)
		v.FinalMood = nullStr(mood)
		v.FinalScreenID = int(finalScreen.Int64)
		out = append(out, &v)
	}
	return out, rows.Err()
}

// --- Friction ---

// TopFriction tallies friction points per (screen, kind) across all
// stored sessions, most frequent first.
func (s *SqlStore) TopFriction(limit int) ([]FrictionCount, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT screen_id, kind, COUNT(*) AS n
		 FROM friction
		 GROUP BY screen_id, kind
		 ORDER BY n DESC, screen_id, kind
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top friction: %w", err)
	}
	defer rows.Close()
	var out []FrictionCount
	for rows.Next() {
		var f FrictionCount
		if err := rows.Scan(&f.ScreenID, &f.Kind, &f.Count); err != nil {
			return nil, fmt.Errorf("scan friction: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

package store

import (
	"errors"

	"wayfarer/internal/sim"
)

// DefaultDBPath is the default relative path for the SQLite DB (per-workspace).
// Resolve against cwd or workspace root; Open() creates the parent dir (e.g. .wayfarer).
const DefaultDBPath = ".wayfarer/wayfarer.db"

// ErrNotFound flags lookups of runs or sessions that were never saved.
var ErrNotFound = errors.New("store: not found")

// Run is the aggregate row of one finished cohort run. Per-session
// traces live in the sessions table, keyed back by RunID.
type Run struct {
	ID             string
	Goal           string
	SourceID       int
	TargetID       int
	Workers        int
	BaseSeed       uint64
	Sessions       int
	Errors         int
	CompletionRate float64
	MeanSteps      float64
	MeanElapsed    float64
	CreatedAt      string
}

// SessionRow is the flat, queryable projection of a stored session.
// The full trace is kept as a JSON payload and comes back via GetSession.
type SessionRow struct {
	ID             string
	RunID          string // empty for standalone sessions
	Persona        string
	Goal           string
	Outcome        string
	Steps          int
	ElapsedSeconds float64
	FinalScreenID  int
	FinalMood      string
	CreatedAt      string
}

// FrictionCount is one (screen, kind) friction tally for hotspot reports.
type FrictionCount struct {
	ScreenID int
	Kind     string
	Count    int
}

// Store is the persistence facade for finished simulations: runs,
// session traces, and friction tallies. The CLI and MCP server use only
// this interface; implementation is SQLite or in-memory.
type Store interface {
	// Runs
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	// Sessions (runID may be empty for standalone sessions)
	SaveSession(runID string, tr *sim.Trace) error
	GetSession(sessionID string) (*sim.Trace, error)
	ListSessionsByRun(runID string) ([]*SessionRow, error)
	ListSessions(limit int) ([]*SessionRow, error)
	// Friction tallies across all stored sessions
	TopFriction(limit int) ([]FrictionCount, error)
}

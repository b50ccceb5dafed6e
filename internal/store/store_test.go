package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wayfarer/internal/friction"
	"wayfarer/internal/sim"
)

// openTestStore opens an in-memory SQLite store. The pool is pinned to
// one connection because each :memory: connection is its own database.
func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRun(id, createdAt string) *Run {
	return &Run{
		ID: id, Goal: "reach checkout", SourceID: 1, TargetID: 4,
		Workers: 4, BaseSeed: 12345678901234567890,
		Sessions: 8, Errors: 1,
		CompletionRate: 0.75, MeanSteps: 3.5, MeanElapsed: 11.2,
		CreatedAt: createdAt,
	}
}

func sampleTrace(sessionID string, points []friction.Point) *sim.Trace {
	return &sim.Trace{
		SessionID: sessionID, Persona: "skeptic", Goal: "reach checkout",
		SourceID: 1, TargetID: 4, Seed: 42,
		Outcome: sim.OutcomeLoopDetected,
		Steps: []sim.StepRecord{
			{Step: 1, FromID: 1, ToID: 2, LinkID: 10, WaitSeconds: 1.2, ClarityGap: 0.5, Mood: "Neutral"},
			{Step: 2, FromID: 2, ToID: 1, LinkID: 21, WaitSeconds: 2.1, ClarityGap: 0.2, Mood: "Neutral"},
		},
		ElapsedSeconds: 3.3,
		FinalScreenID:  1,
		Friction:       points,
	}
}

func TestSqlStore_RunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := sampleRun("run-1", "2026-08-25T10:00:00Z")
	if err := s.SaveRun(want); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.GetRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun missing: err = %v, want ErrNotFound", err)
	}
}

func TestSqlStore_SaveRunAssignsCreatedAt(t *testing.T) {
	s := openTestStore(t)

	run := sampleRun("run-1", "")
	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.CreatedAt == "" {
		t.Error("created_at not assigned on save")
	}
}

func TestSqlStore_ListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	for i, ts := range []string{"2026-08-25T10:00:00Z", "2026-08-25T11:00:00Z", "2026-08-25T12:00:00Z"} {
		if err := s.SaveRun(sampleRun(string(rune('a'+i)), ts)); err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
	}
	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, ids); diff != "" {
		t.Errorf("run order (-want +got):\n%s", diff)
	}

	limited, err := s.ListRuns(2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("ListRuns(2): got %d err %v", len(limited), err)
	}
}

func TestSqlStore_SessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	want := sampleTrace("sess-1", []friction.Point{
		{Kind: friction.KindOscillation, ScreenID: 1, Description: "stuck circling around A"},
		{Kind: friction.KindBackNav, ScreenID: 2},
	})
	if err := s.SaveSession("run-1", want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}

	rows, err := s.ListSessionsByRun("run-1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListSessionsByRun: got %d err %v", len(rows), err)
	}
	row := rows[0]
	if row.ID != "sess-1" || row.RunID != "run-1" || row.Persona != "skeptic" {
		t.Errorf("row identity: got %+v", row)
	}
	if row.Outcome != string(sim.OutcomeLoopDetected) || row.Steps != 2 || row.FinalScreenID != 1 {
		t.Errorf("row derived fields: got %+v", row)
	}
	if row.FinalMood != "Neutral" {
		t.Errorf("row mood = %q, want Neutral", row.FinalMood)
	}

	if _, err := s.GetSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession missing: err = %v, want ErrNotFound", err)
	}
	if err := s.SaveSession("run-1", want); err == nil {
		t.Error("duplicate session id saved without error")
	}
}

func TestSqlStore_StandaloneSessionHasNoRun(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveSession("", sampleTrace("solo", nil)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	rows, err := s.ListSessions(0)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListSessions: got %d err %v", len(rows), err)
	}
	if rows[0].RunID != "" {
		t.Errorf("standalone session run id = %q, want empty", rows[0].RunID)
	}
}

func TestSqlStore_TopFriction(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveSession("r", sampleTrace("s1", []friction.Point{
		{Kind: friction.KindOverload, ScreenID: 2},
		{Kind: friction.KindBackNav, ScreenID: 1},
	})); err != nil {
		t.Fatalf("SaveSession s1: %v", err)
	}
	if err := s.SaveSession("r", sampleTrace("s2", []friction.Point{
		{Kind: friction.KindOverload, ScreenID: 2},
		{Kind: friction.KindDeadEnd, ScreenID: 3},
	})); err != nil {
		t.Fatalf("SaveSession s2: %v", err)
	}

	got, err := s.TopFriction(0)
	if err != nil {
		t.Fatalf("TopFriction: %v", err)
	}
	want := []FrictionCount{
		{ScreenID: 2, Kind: "choice_overload", Count: 2},
		{ScreenID: 1, Kind: "back_navigation", Count: 1},
		{ScreenID: 3, Kind: "dead_end", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("friction tally (-want +got):\n%s", diff)
	}

	limited, err := s.TopFriction(1)
	if err != nil || len(limited) != 1 || limited[0].Count != 2 {
		t.Fatalf("TopFriction(1): got %+v err %v", limited, err)
	}
}

// TestOpen_FileStore exercises the on-disk path: parent dir creation,
// fresh install, and reopening an already-current database.
func TestOpen_FileStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".wayfarer", "wayfarer.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.SaveRun(sampleRun("run-1", "")); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.GetRun("run-1")
	if err != nil || got == nil {
		t.Fatalf("GetRun after reopen: got %+v err %v", got, err)
	}
}

func TestMemStore_MirrorsSqlBehavior(t *testing.T) {
	m := NewMemStore()

	if err := m.SaveRun(sampleRun("run-1", "2026-08-25T10:00:00Z")); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := m.SaveRun(sampleRun("run-1", "")); err == nil {
		t.Error("duplicate run id saved without error")
	}
	got, err := m.GetRun("run-1")
	if err != nil || got.Goal != "reach checkout" {
		t.Fatalf("GetRun: got %+v err %v", got, err)
	}
	if _, err := m.GetRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun missing: err = %v, want ErrNotFound", err)
	}

	tr := sampleTrace("sess-1", []friction.Point{
		{Kind: friction.KindOverload, ScreenID: 2},
		{Kind: friction.KindOverload, ScreenID: 2},
		{Kind: friction.KindBackNav, ScreenID: 1},
	})
	if err := m.SaveSession("run-1", tr); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	back, err := m.GetSession("sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if diff := cmp.Diff(tr, back); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if _, err := m.GetSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession missing: err = %v, want ErrNotFound", err)
	}

	rows, err := m.ListSessionsByRun("run-1")
	if err != nil || len(rows) != 1 || rows[0].Steps != 2 {
		t.Fatalf("ListSessionsByRun: got %+v err %v", rows, err)
	}

	tally, err := m.TopFriction(0)
	if err != nil {
		t.Fatalf("TopFriction: %v", err)
	}
	want := []FrictionCount{
		{ScreenID: 2, Kind: "choice_overload", Count: 2},
		{ScreenID: 1, Kind: "back_navigation", Count: 1},
	}
	if diff := cmp.Diff(want, tally); diff != "" {
		t.Errorf("friction tally (-want +got):\n%s", diff)
	}
}

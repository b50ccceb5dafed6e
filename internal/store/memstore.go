package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"wayfarer/internal/sim"
)

// MemStore implements Store with in-process maps. Used by tests and by
// callers that do not want a database file. Rows copy on read and write
// so callers cannot mutate stored state.
type MemStore struct {
	mu     sync.Mutex
	runs   map[string]*Run
	traces map[string]*sim.Trace
	rows   map[string]*SessionRow
	points []frictionRow
}

type frictionRow struct {
	sessionID string
	screenID  int
	kind      string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		runs:   make(map[string]*Run),
		traces: make(map[string]*sim.Trace),
		rows:   make(map[string]*SessionRow),
	}
}

// --- Runs ---

func (s *MemStore) SaveRun(run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run %s already saved", run.ID)
	}
	cp := *run
	if cp.CreatedAt == "" {
		cp.CreatedAt = nowUTC()
	}
	s.runs[cp.ID] = &cp
	return nil
}

func (s *MemStore) GetRun(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *MemStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Run, 0, len(s.runs))
	for _, v := range s.runs {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Sessions ---

func (s *MemStore) SaveSession(runID string, tr *sim.Trace) error {
	if tr == nil {
		return errors.New("trace is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.traces[tr.SessionID]; ok {
		return fmt.Errorf("session %s already saved", tr.SessionID)
	}
	cp := *tr
	s.traces[cp.SessionID] = &cp
	s.rows[cp.SessionID] = &SessionRow{
		ID:             cp.SessionID,
		RunID:          runID,
		Persona:        cp.Persona,
		Goal:           cp.Goal,
		Outcome:        string(cp.Outcome),
		Steps:          len(cp.Steps),
		ElapsedSeconds: cp.ElapsedSeconds,
		FinalScreenID:  cp.FinalScreenID,
		FinalMood:      cp.FinalEmotion.Label(),
		CreatedAt:      nowUTC(),
	}
	for _, pt := range cp.Friction {
		s.points = append(s.points, frictionRow{
			sessionID: cp.SessionID, screenID: pt.ScreenID, kind: string(pt.Kind),
		})
	}
	return nil
}

func (s *MemStore) GetSession(sessionID string) (*sim.Trace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.traces[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *MemStore) ListSessionsByRun(runID string) ([]*SessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*SessionRow
	for _, v := range s.rows {
		if v.RunID != runID {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) ListSessions(limit int) ([]*SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SessionRow, 0, len(s.rows))
	for _, v := range s.rows {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Friction ---

func (s *MemStore) TopFriction(limit int) ([]FrictionCount, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	type key struct {
		screen int
		kind   string
	}
	tally := make(map[key]int)
	for _, p := range s.points {
		tally[key{p.screenID, p.kind}]++
	}
	out := make([]FrictionCount, 0, len(tally))
	for k, n := range tally {
		out = append(out, FrictionCount{ScreenID: k.screen, Kind: k.kind, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].ScreenID != out[j].ScreenID {
			return out[i].ScreenID < out[j].ScreenID
		}
		return out[i].Kind < out[j].Kind
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

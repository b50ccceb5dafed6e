// Package mcp exposes the simulator over the Model Context Protocol.
// The server speaks JSON-RPC over stdio; tools run sessions
// synchronously (simulated time is not wall time, so even a full
// cohort returns in milliseconds) and persist finished traces through
// the store facade so get_session can read them back.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"wayfarer/adapters/narrator"
	"wayfarer/adapters/personas"
	"wayfarer/internal/batch"
	"wayfarer/internal/display"
	"wayfarer/internal/flow"
	"wayfarer/internal/friction"
	"wayfarer/internal/logging"
	"wayfarer/internal/persona"
	"wayfarer/internal/sim"
	"wayfarer/internal/store"
	"wayfarer/pkg/journey"
)

// Server wraps the MCP SDK server and serves simulator tools over one
// shared store. Parsed graphs are cached per path and treated as
// immutable for the server's lifetime.
type Server struct {
	MCPServer *sdkmcp.Server
	Store     store.Store

	metrics *journey.MetricsObserver

	mu     sync.Mutex
	graphs map[string]*flow.ScreenGraph
}

// ServerOption configures a Server during construction.
type ServerOption func(*Server)

// WithMetrics attaches a prometheus observer: session events flow through
// it and friction points are counted after every finished session.
func WithMetrics(m *journey.MetricsObserver) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates an MCP server with session and persona tools.
// A nil store keeps finished sessions in memory only.
func NewServer(st store.Store, opts ...ServerOption) *Server {
	if st == nil {
		st = store.NewMemStore()
	}
	s := &Server{
		Store:  st,
		graphs: make(map[string]*flow.ScreenGraph),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "wayfarer", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_session",
		Description: "Run one persona session over a screen graph. Returns the outcome summary with narration and saves the trace for get_session.",
	}, s.handleRunSession)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_cohort",
		Description: "Run a cohort of persona sessions over a bounded worker pool. Returns aggregate outcomes plus per-session ids; all traces are saved.",
	}, s.handleRunCohort)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_personas",
		Description: "List the embedded persona presets accepted by run_session and run_cohort.",
	}, s.handleListPersonas)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Get a stored session trace by id. Works for sessions saved by run_session and run_cohort.",
	}, s.handleGetSession)
}

// --- Tool input/output types ---

type runSessionInput struct {
	Graph         string  `json:"graph" jsonschema:"path to the screen graph JSON export"`
	Persona       string  `json:"persona,omitempty" jsonschema:"persona preset name (default: neutral profile)"`
	PersonaFile   string  `json:"persona_file,omitempty" jsonschema:"path to a persona YAML/JSON record; overrides persona"`
	Goal          string  `json:"goal" jsonschema:"what the persona is trying to accomplish"`
	SourceID      int     `json:"source_id" jsonschema:"screen id the session starts on"`
	TargetID      int     `json:"target_id" jsonschema:"screen id that counts as success"`
	Seed          uint64  `json:"seed,omitempty" jsonschema:"RNG seed; the same seed replays the same walk"`
	MaxSteps      int     `json:"max_steps,omitempty" jsonschema:"step budget (default 40)"`
	MaxSimSeconds float64 `json:"max_sim_seconds,omitempty" jsonschema:"simulated-time budget in seconds (default 180)"`
}

type runSessionOutput struct {
	SessionID      string           `json:"session_id"`
	Persona        string           `json:"persona"`
	Outcome        string           `json:"outcome"`
	OutcomeName    string           `json:"outcome_name"`
	Steps          int              `json:"steps"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	FinalScreenID  int              `json:"final_screen_id"`
	FinalMood      string           `json:"final_mood"`
	Friction       []friction.Point `json:"friction,omitempty"`
	Narration      string           `json:"narration,omitempty"`
}

type runCohortInput struct {
	Graph         string   `json:"graph" jsonschema:"path to the screen graph JSON export"`
	Personas      []string `json:"personas,omitempty" jsonschema:"persona preset names (default: every embedded preset)"`
	Goal          string   `json:"goal" jsonschema:"shared goal for every session"`
	SourceID      int      `json:"source_id" jsonschema:"screen id every session starts on"`
	TargetID      int      `json:"target_id" jsonschema:"screen id that counts as success"`
	BaseSeed      uint64   `json:"base_seed,omitempty" jsonschema:"seed for session 0; session i runs with base_seed+i"`
	Workers       int      `json:"workers,omitempty" jsonschema:"max concurrent sessions (default 8)"`
	MaxSteps      int      `json:"max_steps,omitempty" jsonschema:"per-session step budget (default 40)"`
	MaxSimSeconds float64  `json:"max_sim_seconds,omitempty" jsonschema:"per-session simulated-time budget in seconds (default 180)"`
}

type runCohortOutput struct {
	RunID          string         `json:"run_id"`
	Total          int            `json:"total"`
	Errors         int            `json:"errors,omitempty"`
	Outcomes       map[string]int `json:"outcomes"`
	CompletionRate float64        `json:"completion_rate"`
	MeanSteps      float64        `json:"mean_steps"`
	MeanElapsed    float64        `json:"mean_elapsed_seconds"`
	FrictionByKind map[string]int `json:"friction_by_kind,omitempty"`
	SessionIDs     []string       `json:"session_ids"`
}

type listPersonasInput struct{}

type personaSummary struct {
	Name          string `json:"name"`
	RiskAppetite  string `json:"risk_appetite"`
	Communication string `json:"communication_style"`
	Experience    string `json:"experience_level"`
}

type listPersonasOutput struct {
	Personas []personaSummary `json:"personas"`
	Total    int              `json:"total"`
}

type getSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session id from run_session or run_cohort"`
}

type getSessionOutput struct {
	Summary sim.Summary `json:"summary"`
	Trace   *sim.Trace  `json:"trace"`
}

// --- Tool handlers ---

func (s *Server) handleRunSession(ctx context.Context, _ *sdkmcp.CallToolRequest, input runSessionInput) (*sdkmcp.CallToolResult, runSessionOutput, error) {
	g, err := s.loadGraph(input.Graph)
	if err != nil {
		return nil, runSessionOutput{}, err
	}
	prof, err := resolvePersona(input.Persona, input.PersonaFile)
	if err != nil {
		return nil, runSessionOutput{}, err
	}

	runner := s.newRunner(g)
	tr, err := runner.Run(ctx, sim.Params{
		Goal:          input.Goal,
		SourceID:      input.SourceID,
		TargetID:      input.TargetID,
		MaxSteps:      input.MaxSteps,
		MaxSimSeconds: input.MaxSimSeconds,
		Seed:          input.Seed,
		Persona:       prof,
	})
	if err != nil {
		return nil, runSessionOutput{}, fmt.Errorf("run_session: %w", err)
	}

	if err := s.Store.SaveSession("", tr); err != nil {
		return nil, runSessionOutput{}, fmt.Errorf("save session %s: %w", tr.SessionID, err)
	}
	s.countFriction(tr)

	narration, err := narrator.TemplateNarrator{}.Narrate(ctx, prof, tr)
	if err != nil {
		return nil, runSessionOutput{}, fmt.Errorf("narrate session %s: %w", tr.SessionID, err)
	}

	logging.New("mcp").Info("session finished",
		"session_id", tr.SessionID, "persona", tr.Persona,
		"outcome", tr.Outcome, "steps", len(tr.Steps))

	return nil, runSessionOutput{
		SessionID:      tr.SessionID,
		Persona:        tr.Persona,
		Outcome:        string(tr.Outcome),
		OutcomeName:    display.Outcome(string(tr.Outcome)),
		Steps:          len(tr.Steps),
		ElapsedSeconds: tr.ElapsedSeconds,
		FinalScreenID:  tr.FinalScreenID,
		FinalMood:      tr.FinalEmotion.Label(),
		Friction:       tr.Friction,
		Narration:      narration,
	}, nil
}

func (s *Server) handleRunCohort(ctx context.Context, _ *sdkmcp.CallToolRequest, input runCohortInput) (*sdkmcp.CallToolResult, runCohortOutput, error) {
	g, err := s.loadGraph(input.Graph)
	if err != nil {
		return nil, runCohortOutput{}, err
	}
	profiles, err := resolveCohort(input.Personas)
	if err != nil {
		return nil, runCohortOutput{}, err
	}

	workers := input.Workers
	if workers <= 0 {
		workers = batch.DefaultWorkers
	}

	runner := s.newRunner(g)
	rep, err := batch.RunCohort(ctx, runner, batch.Config{
		Goal:          input.Goal,
		SourceID:      input.SourceID,
		TargetID:      input.TargetID,
		MaxSteps:      input.MaxSteps,
		MaxSimSeconds: input.MaxSimSeconds,
		Workers:       workers,
		BaseSeed:      input.BaseSeed,
	}, profiles)
	if err != nil {
		return nil, runCohortOutput{}, fmt.Errorf("run_cohort: %w", err)
	}

	if err := s.persistCohort(input, workers, rep); err != nil {
		return nil, runCohortOutput{}, err
	}

	out := runCohortOutput{
		RunID:          rep.RunID,
		Total:          rep.Total,
		Errors:         rep.Errors,
		Outcomes:       make(map[string]int, len(rep.Outcomes)),
		CompletionRate: rep.CompletionRate,
		MeanSteps:      rep.MeanSteps,
		MeanElapsed:    rep.MeanElapsed,
	}
	for o, n := range rep.Outcomes {
		out.Outcomes[string(o)] = n
	}
	if len(rep.FrictionByKind) > 0 {
		out.FrictionByKind = make(map[string]int, len(rep.FrictionByKind))
		for k, n := range rep.FrictionByKind {
			out.FrictionByKind[string(k)] = n
		}
	}
	for _, res := range rep.Results {
		if res.Err == nil {
			out.SessionIDs = append(out.SessionIDs, res.Trace.SessionID)
		}
	}
	return nil, out, nil
}

func (s *Server) handleListPersonas(_ context.Context, _ *sdkmcp.CallToolRequest, _ listPersonasInput) (*sdkmcp.CallToolResult, listPersonasOutput, error) {
	profiles, err := personas.LoadAll()
	if err != nil {
		return nil, listPersonasOutput{}, fmt.Errorf("load presets: %w", err)
	}
	out := listPersonasOutput{Total: len(profiles)}
	for _, p := range profiles {
		out.Personas = append(out.Personas, personaSummary{
			Name:          p.Name,
			RiskAppetite:  string(p.RiskAppetite),
			Communication: string(p.Communication),
			Experience:    string(p.Experience),
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetSession(_ context.Context, _ *sdkmcp.CallToolRequest, input getSessionInput) (*sdkmcp.CallToolResult, getSessionOutput, error) {
	if input.SessionID == "" {
		return nil, getSessionOutput{}, fmt.Errorf("session_id is required")
	}
	tr, err := s.Store.GetSession(input.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, getSessionOutput{}, fmt.Errorf("no stored session %s", input.SessionID)
		}
		return nil, getSessionOutput{}, fmt.Errorf("get_session: %w", err)
	}
	return nil, getSessionOutput{Summary: tr.Summarize(), Trace: tr}, nil
}

// persistCohort writes the aggregate run row and every completed
// session trace. Sessions that failed to start have no trace to save.
func (s *Server) persistCohort(input runCohortInput, workers int, rep *batch.Report) error {
	run := &store.Run{
		ID:             rep.RunID,
		Goal:           input.Goal,
		SourceID:       input.SourceID,
		TargetID:       input.TargetID,
		Workers:        workers,
		BaseSeed:       input.BaseSeed,
		Sessions:       rep.Total,
		Errors:         rep.Errors,
		CompletionRate: rep.CompletionRate,
		MeanSteps:      rep.MeanSteps,
		MeanElapsed:    rep.MeanElapsed,
	}
	if err := s.Store.SaveRun(run); err != nil {
		return fmt.Errorf("save run %s: %w", rep.RunID, err)
	}
	for _, res := range rep.Results {
		if res.Err != nil {
			continue
		}
		if err := s.Store.SaveSession(rep.RunID, res.Trace); err != nil {
			return fmt.Errorf("save session %s: %w", res.Trace.SessionID, err)
		}
		s.countFriction(res.Trace)
	}
	return nil
}

func (s *Server) newRunner(g *flow.ScreenGraph) *sim.Runner {
	if s.metrics != nil {
		return sim.NewRunner(g, sim.WithObserver(s.metrics))
	}
	return sim.NewRunner(g)
}

func (s *Server) countFriction(tr *sim.Trace) {
	if s.metrics == nil {
		return
	}
	for _, pt := range tr.Friction {
		s.metrics.CountFriction(string(pt.Kind))
	}
}

// loadGraph parses a graph export once and reuses it for later calls.
func (s *Server) loadGraph(path string) (*flow.ScreenGraph, error) {
	if path == "" {
		return nil, fmt.Errorf("graph is required")
	}
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	s.mu.Lock()
	g, ok := s.graphs[key]
	s.mu.Unlock()
	if ok {
		return g, nil
	}

	g, err := flow.LoadGraph(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.graphs[key] = g
	s.mu.Unlock()
	return g, nil
}

// resolvePersona picks the profile for one session: an on-disk record
// wins over a preset name; with neither, the neutral default runs.
func resolvePersona(preset, file string) (persona.Profile, error) {
	switch {
	case file != "":
		return personas.LoadFile(file)
	case preset != "":
		return personas.Load(preset)
	default:
		return persona.Default(), nil
	}
}

// resolveCohort loads the named presets, or every embedded preset when
// no names are given.
func resolveCohort(names []string) ([]persona.Profile, error) {
	if len(names) == 0 {
		return personas.LoadAll()
	}
	out := make([]persona.Profile, 0, len(names))
	for _, name := range names {
		p, err := personas.Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

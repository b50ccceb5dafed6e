// Package sim runs persona navigation sessions: seeded walks over a
// screen graph that keep choosing, hesitating, and feeling until a
// terminal outcome. One Runner serves any number of sessions; all
// mutable state lives in the session, never in the Runner.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"wayfarer/internal/decision"
	"wayfarer/internal/emotion"
	"wayfarer/internal/flow"
	"wayfarer/internal/friction"
	"wayfarer/internal/persona"
	"wayfarer/pkg/journey"
)

// ErrBadRunParams flags a session that cannot start. The only fatal
// precondition is a source or target missing from the graph; every
// other input problem degrades instead of failing.
var ErrBadRunParams = errors.New("sim: bad run parameters")

// Defaults applied by Run when a budget is left at zero.
const (
	DefaultMaxSteps      = 40
	DefaultMaxSimSeconds = 180.0
)

// seedGamma decorrelates the two PCG stream words derived from one seed.
const seedGamma = 0x9e3779b97f4a7c15

// Params configures one session.
type Params struct {
	Goal          string
	SourceID      int
	TargetID      int
	MaxSteps      int
	MaxSimSeconds float64
	Seed          uint64
	SessionID     string          // assigned when empty
	Persona       persona.Profile // validated by the caller at load time
}

// Runner executes sessions over one shared read-only graph. Safe for
// concurrent use: Run touches only its own session state.
type Runner struct {
	graph    *flow.ScreenGraph
	obs      journey.Observer
	baseWait float64
}

// RunnerOption configures a Runner during construction.
type RunnerOption func(*Runner)

// WithObserver attaches an observer that receives every session event.
func WithObserver(obs journey.Observer) RunnerOption {
	return func(r *Runner) { r.obs = obs }
}

// WithBaseWait overrides the neutral dwell seconds.
func WithBaseWait(seconds float64) RunnerOption {
	return func(r *Runner) { r.baseWait = seconds }
}

// NewRunner wraps a built graph in a session executor.
func NewRunner(g *flow.ScreenGraph, opts ...RunnerOption) *Runner {
	r := &Runner{graph: g, baseWait: DefaultBaseWait}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// session is the exclusive mutable state of one run.
type session struct {
	id      string
	current int
	history []int
	elapsed float64
	mood    emotion.State
	rng     *rand.Rand
	det     *friction.Detector
	steps   []StepRecord
}

// Run walks the graph from source toward target until a terminal
// outcome. Per iteration: cancellation and budget checks, target check,
// outgoing edges (none is a dead end), auto-advance short-circuit or
// scored decision, dwell, emotion update, step record, advance, and
// the oscillation guard. Budget exhaustion and empty-choice endings are
// outcomes on the trace, never errors.
func (r *Runner) Run(ctx context.Context, p Params) (*Trace, error) {
	if _, ok := r.graph.Node(p.SourceID); !ok {
		return nil, fmt.Errorf("%w: source screen %d not in graph", ErrBadRunParams, p.SourceID)
	}
	if _, ok := r.graph.Node(p.TargetID); !ok {
		return nil, fmt.Errorf("%w: target screen %d not in graph", ErrBadRunParams, p.TargetID)
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = DefaultMaxSteps
	}
	if p.MaxSimSeconds <= 0 {
		p.MaxSimSeconds = DefaultMaxSimSeconds
	}
	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}

	distances := flow.Distances(r.graph, p.TargetID)
	scales := persona.DeriveScales(p.Persona)
	eng := decision.NewEngine(r.graph, p.Goal, p.TargetID, distances, scales)

	s := &session{
		id:      p.SessionID,
		current: p.SourceID,
		history: []int{p.SourceID},
		mood:    emotion.Baseline(p.Persona),
		rng:     rand.New(rand.NewPCG(p.Seed, p.Seed^seedGamma)),
		det:     friction.NewDetector(),
	}
	s.det.ObserveVisit(p.SourceID)

	r.emit(journey.Event{
		Type:      journey.EventSessionStart,
		SessionID: s.id,
		Persona:   p.Persona.Name,
		ScreenID:  p.SourceID,
		Screen:    r.graph.NodeName(p.SourceID),
		Text:      p.Goal,
	})
	r.emit(journey.Event{
		Type:      journey.EventEmotion,
		SessionID: s.id,
		ScreenID:  p.SourceID,
		Emotion:   snapshotOf(s.mood),
	})

	for {
		if ctx.Err() != nil {
			return r.finalize(p, s, OutcomeTimeout), nil
		}
		if s.current == p.TargetID {
			return r.finalize(p, s, OutcomeReachedTarget), nil
		}
		if len(s.steps) >= p.MaxSteps || s.elapsed >= p.MaxSimSeconds {
			return r.finalize(p, s, OutcomeTimeout), nil
		}

		curName := r.graph.NodeName(s.current)
		curNode, _ := r.graph.Node(s.current)
		step := len(s.steps) + 1

		edges := r.graph.EdgesFrom(s.current)
		if len(edges) == 0 {
			s.det.Flag(friction.KindDeadEnd, s.current, fmt.Sprintf("no way out of %s", curName))
			return r.finalize(p, s, OutcomeNoOutgoing), nil
		}

		var (
			chosen     flow.NavigationEdge
			auto       bool
			gap        float64
			candidates []journey.Candidate
			thought    string
		)

		if idx := firstAuto(edges); idx >= 0 {
			chosen = edges[idx]
			auto = true
			gap = decision.ClarityGap(nil)
			thought = fmt.Sprintf("Nothing to decide on %s, waiting it out", curName)
			r.emit(journey.Event{
				Type:      journey.EventThought,
				SessionID: s.id,
				Step:      step,
				ScreenID:  s.current,
				Screen:    curName,
				Text:      thought,
			})
		} else {
			thought = fmt.Sprintf("Looking for a way to %q from %s (%d options)", p.Goal, curName, len(edges))
			r.emit(journey.Event{
				Type:      journey.EventThought,
				SessionID: s.id,
				Step:      step,
				ScreenID:  s.current,
				Screen:    curName,
				Text:      thought,
			})

			best, ranked := eng.Choose(edges, s.history)
			gap = decision.ClarityGap(ranked)
			candidates = rankedCandidates(ranked)
			r.emit(journey.Event{
				Type:       journey.EventCandidates,
				SessionID:  s.id,
				Step:       step,
				ScreenID:   s.current,
				Screen:     curName,
				Candidates: candidates,
			})

			if best.Score <= decision.ViabilityFloor {
				s.det.Flag(friction.KindDeadEnd, s.current, fmt.Sprintf("nothing worth clicking on %s", curName))
				return r.finalize(p, s, OutcomeNoChoice), nil
			}
			chosen = best.Edge
		}

		jit := Jitter(s.rng)
		wv := ComputeWait(r.baseWait, DwellInputs{
			Description: curNode.Description,
			OptionCount: len(edges),
			ClarityGap:  gap,
			AutoAdvance: auto,
		}, s.mood, p.Persona, jit)
		s.elapsed += wv
		r.emit(journey.Event{
			Type:        journey.EventWait,
			SessionID:   s.id,
			Step:        step,
			ScreenID:    s.current,
			Screen:      curName,
			WaitSeconds: wv,
		})

		backNav := len(s.history) >= 2 && chosen.DestID == s.history[len(s.history)-2]
		dDest, okDest := distances[chosen.DestID]
		dCur, okCur := distances[s.current]
		reduces := okDest && (!okCur || dDest < dCur)

		s.mood = emotion.Update(s.mood, emotion.Signals{
			WaitSeconds:     wv,
			OptionCount:     len(edges),
			ClarityGap:      gap,
			ReducesDistance: reduces,
			AutoWait:        auto,
		}, p.Persona)

		points := s.det.ObserveStep(friction.StepSignals{
			ScreenID:    s.current,
			ScreenName:  curName,
			WaitSeconds: wv,
			OptionCount: len(edges),
			ClarityGap:  gap,
			AutoAdvance: auto,
			BackNav:     backNav,
		})
		kinds := make([]friction.Kind, 0, len(points))
		for _, pt := range points {
			kinds = append(kinds, pt.Kind)
		}

		s.steps = append(s.steps, StepRecord{
			Step:        step,
			FromID:      s.current,
			ToID:        chosen.DestID,
			LinkID:      chosen.LinkID,
			ClickTarget: chosen.ClickTarget,
			Auto:        auto,
			Thought:     thought,
			WaitSeconds: wv,
			ClarityGap:  gap,
			Candidates:  candidates,
			Emotion:     s.mood,
			Mood:        s.mood.Label(),
			Friction:    kinds,
		})

		destName := r.graph.NodeName(chosen.DestID)
		r.emit(journey.Event{
			Type:      journey.EventAction,
			SessionID: s.id,
			Step:      step,
			ScreenID:  chosen.DestID,
			Screen:    destName,
			Action: &journey.Action{
				FromID: s.current,
				ToID:   chosen.DestID,
				LinkID: chosen.LinkID,
				Target: chosen.ClickTarget,
				Auto:   auto,
			},
		})
		r.emit(journey.Event{
			Type:      journey.EventEmotion,
			SessionID: s.id,
			Step:      step,
			ScreenID:  chosen.DestID,
			Emotion:   snapshotOf(s.mood),
		})

		s.history = append(s.history, chosen.DestID)
		s.det.ObserveVisit(chosen.DestID)
		s.current = chosen.DestID

		if s.det.LoopDetected() {
			s.det.Flag(friction.KindOscillation, s.current, fmt.Sprintf("stuck circling around %s", destName))
			return r.finalize(p, s, OutcomeLoopDetected), nil
		}
	}
}

func (r *Runner) finalize(p Params, s *session, out Outcome) *Trace {
	t := &Trace{
		SessionID:      s.id,
		Persona:        p.Persona.Name,
		Goal:           p.Goal,
		SourceID:       p.SourceID,
		TargetID:       p.TargetID,
		Seed:           p.Seed,
		Outcome:        out,
		Steps:          s.steps,
		ElapsedSeconds: s.elapsed,
		FinalScreenID:  s.current,
		FinalEmotion:   s.mood,
		Friction:       s.det.Points(),
	}
	r.emit(journey.Event{
		Type:      journey.EventTerminal,
		SessionID: s.id,
		Persona:   p.Persona.Name,
		Step:      len(s.steps),
		ScreenID:  s.current,
		Screen:    r.graph.NodeName(s.current),
		Outcome:   string(out),
	})
	return t
}

func (r *Runner) emit(e journey.Event) {
	journey.Emit(r.obs, e)
}

func firstAuto(edges []flow.NavigationEdge) int {
	for i, e := range edges {
		if e.AutoAdvance {
			return i
		}
	}
	return -1
}

func rankedCandidates(ranked []decision.Ranked) []journey.Candidate {
	out := make([]journey.Candidate, len(ranked))
	for i, rk := range ranked {
		out[i] = journey.Candidate{
			LinkID: rk.Edge.LinkID,
			ToID:   rk.Edge.DestID,
			Label:  rk.Edge.ClickTarget,
			Score:  rk.Score,
		}
	}
	return out
}

func snapshotOf(st emotion.State) *journey.EmotionSnapshot {
	return &journey.EmotionSnapshot{
		Valence:     st.Valence,
		Arousal:     st.Arousal,
		Stress:      st.Stress,
		Frustration: st.Frustration,
		Confidence:  st.Confidence,
		Label:       st.Label(),
	}
}

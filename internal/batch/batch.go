// Package batch runs cohorts of persona sessions over a bounded worker
// pool and aggregates their outcomes. Sessions are independent: one
// failing or cancelled session never aborts its siblings.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wayfarer/internal/friction"
	"wayfarer/internal/logging"
	"wayfarer/internal/persona"
	"wayfarer/internal/sim"
)

// ErrEmptyCohort flags a run with no personas to simulate.
var ErrEmptyCohort = errors.New("batch: empty cohort")

// DefaultWorkers bounds concurrent sessions when Config.Workers is zero.
const DefaultWorkers = 8

// Config describes one cohort run. Every session shares the goal and
// route; personas and seeds vary per task.
type Config struct {
	Goal          string
	SourceID      int
	TargetID      int
	MaxSteps      int
	MaxSimSeconds float64
	Workers       int    // 0 = DefaultWorkers
	BaseSeed      uint64 // session i runs with BaseSeed+i
	RunID         string // assigned when empty
}

// Result is one session's outcome within a cohort.
type Result struct {
	Index   int        `json:"index"`
	Persona string     `json:"persona"`
	Trace   *sim.Trace `json:"trace,omitempty"`
	Err     error      `json:"-"`
}

// Report aggregates a finished cohort.
type Report struct {
	RunID          string                `json:"run_id"`
	Total          int                   `json:"total"`
	Errors         int                   `json:"errors,omitempty"`
	Outcomes       map[sim.Outcome]int   `json:"outcomes"`
	CompletionRate float64               `json:"completion_rate"`
	MeanSteps      float64               `json:"mean_steps"`
	MeanElapsed    float64               `json:"mean_elapsed_seconds"`
	FrictionByKind map[friction.Kind]int `json:"friction_by_kind,omitempty"`
	Results        []Result              `json:"results"`
}

// RunCohort executes one session per persona over a bounded pool and
// aggregates after all workers finish. Results keep cohort order
// regardless of completion order.
func RunCohort(ctx context.Context, runner *sim.Runner, cfg Config, personas []persona.Profile) (*Report, error) {
	if len(personas) == 0 {
		return nil, ErrEmptyCohort
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	logger := logging.New("batch")
	logger.Info("cohort started",
		"run_id", cfg.RunID, "sessions", len(personas), "workers", cfg.Workers)

	results := make([]Result, len(personas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, prof := range personas {
		g.Go(func() error {
			tr, err := runner.Run(gctx, sim.Params{
				Goal:          cfg.Goal,
				SourceID:      cfg.SourceID,
				TargetID:      cfg.TargetID,
				MaxSteps:      cfg.MaxSteps,
				MaxSimSeconds: cfg.MaxSimSeconds,
				Seed:          cfg.BaseSeed + uint64(i),
				SessionID:     fmt.Sprintf("%s-%03d", cfg.RunID, i),
				Persona:       prof,
			})
			results[i] = Result{Index: i, Persona: prof.Name, Trace: tr, Err: err}
			return nil
		})
	}
	_ = g.Wait() // errors captured per result

	rep := aggregate(cfg.RunID, results)
	logger.Info("cohort finished",
		"run_id", cfg.RunID,
		"completed", rep.Outcomes[sim.OutcomeReachedTarget],
		"errors", rep.Errors)
	return rep, nil
}

func aggregate(runID string, results []Result) *Report {
	rep := &Report{
		RunID:          runID,
		Total:          len(results),
		Outcomes:       make(map[sim.Outcome]int),
		FrictionByKind: make(map[friction.Kind]int),
		Results:        results,
	}

	var steps, elapsed float64
	for _, res := range results {
		if res.Err != nil {
			rep.Errors++
			continue
		}
		rep.Outcomes[res.Trace.Outcome]++
		steps += float64(len(res.Trace.Steps))
		elapsed += res.Trace.ElapsedSeconds
		for _, pt := range res.Trace.Friction {
			rep.FrictionByKind[pt.Kind]++
		}
	}

	if ok := rep.Total - rep.Errors; ok > 0 {
		rep.CompletionRate = float64(rep.Outcomes[sim.OutcomeReachedTarget]) / float64(ok)
		rep.MeanSteps = steps / float64(ok)
		rep.MeanElapsed = elapsed / float64(ok)
	}
	return rep
}

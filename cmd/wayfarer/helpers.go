package main

import (
	"fmt"
	"strings"

	"wayfarer/adapters/personas"
	"wayfarer/internal/batch"
	"wayfarer/internal/persona"
	"wayfarer/internal/store"
)

// splitList parses a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// resolveProfile picks the persona for a single session. An on-disk
// record wins over a preset name; neither set means the neutral default.
func resolveProfile(preset, file string) (persona.Profile, error) {
	if file != "" {
		return personas.LoadFile(file)
	}
	if preset != "" {
		return personas.Load(preset)
	}
	return persona.Default(), nil
}

// resolveCohort assembles the batch cohort: a cohort file wins, then
// named presets, then every embedded preset.
func resolveCohort(names []string, file string) ([]persona.Profile, error) {
	if file != "" {
		return personas.LoadCohortFile(file)
	}
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

// saveCohort persists the aggregate run row plus every completed session
// trace. Errored sessions have no trace and are skipped; the run row
// keeps their count.
func saveCohort(st store.Store, cfg batch.Config, rep *batch.Report) error {
	run := &store.Run{
		ID:             rep.RunID,
		Goal:           cfg.Goal,
		SourceID:       cfg.SourceID,
		TargetID:       cfg.TargetID,
		Workers:        cfg.Workers,
		BaseSeed:       cfg.BaseSeed,
		Sessions:       rep.Total,
		Errors:         rep.Errors,
		CompletionRate: rep.CompletionRate,
		MeanSteps:      rep.MeanSteps,
		MeanElapsed:    rep.MeanElapsed,
	}
	if err := st.SaveRun(run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	for _, res := range rep.Results {
		if res.Err != nil {
			continue
		}
		if err := st.SaveSession(rep.RunID, res.Trace); err != nil {
			return fmt.Errorf("save session %s: %w", res.Trace.SessionID, err)
		}
	}
	return nil
}

package sim

import (
	"math/rand/v2"
	"strings"

	"wayfarer/internal/emotion"
	"wayfarer/internal/persona"
)

// Dwell bounds in simulated seconds. Auto-advance screens hold the
// persona for a machine-paced beat, so their band is tighter.
const (
	MinWait     = 0.4
	MaxWait     = 6.0
	MinAutoWait = 0.6
	MaxAutoWait = 2.0

	// DefaultBaseWait is the neutral dwell before any signal shifts it.
	DefaultBaseWait = 1.2

	jitterSpan = 0.15
)

// loadingCues mark screens that make people sit and watch.
var loadingCues = []string{
	"loading", "processing", "please wait", "uploading", "syncing",
	"spinner", "progress",
}

// DwellInputs carries the per-screen signals the wait model reads.
type DwellInputs struct {
	Description string
	OptionCount int
	ClarityGap  float64
	AutoAdvance bool
}

// ComputeWait models how long the persona dwells on a screen before
// acting. Crowded or ambiguous screens and anxious moods stretch the
// dwell; decisive choices and confident moods shorten it. Trait terms
// are centered on 0.5 so the all-defaults persona adds nothing. The
// result is total and bounded; jitter is drawn by the caller from the
// session's seeded stream so identical seeds give identical dwells.
func ComputeWait(base float64, in DwellInputs, mood emotion.State, p persona.Profile, jitter float64) float64 {
	w := base

	if hasLoadingCue(in.Description) {
		w += 0.6
	}

	switch {
	case in.OptionCount >= 6:
		w += 0.8
	case in.OptionCount >= 3:
		w += 0.3
	}

	switch {
	case in.ClarityGap >= 2.0:
		w -= 0.4
	case in.ClarityGap <= 0.3:
		w += 0.5
	}

	w += 0.9 * mood.Frustration
	w += 0.7 * mood.Stress
	if mood.Valence > 0 {
		w -= 0.5 * mood.Valence
	}

	w -= 0.8 * (p.Conscientiousness - 0.5)
	w += 0.5 * (p.Openness - 0.5)
	w += 0.7 * (p.Neuroticism - 0.5)

	switch p.AgeBand {
	case persona.AgeOlder:
		w += 0.4
	case persona.AgeYounger:
		w -= 0.2
	}
	switch p.Experience {
	case persona.ExpNovice:
		w += 0.3
	case persona.ExpExpert:
		w -= 0.3
	}

	w += jitter

	if in.AutoAdvance {
		return clampWait(w, MinAutoWait, MaxAutoWait)
	}
	return clampWait(w, MinWait, MaxWait)
}

// Jitter draws the per-step dwell perturbation from the session stream.
func Jitter(rng *rand.Rand) float64 {
	return rng.Float64()*2*jitterSpan - jitterSpan
}

func hasLoadingCue(description string) bool {
	if description == "" {
		return false
	}
	d := strings.ToLower(description)
	for _, cue := range loadingCues {
		if strings.Contains(d, cue) {
			return true
		}
	}
	return false
}

func clampWait(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

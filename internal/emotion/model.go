package emotion

import "wayfarer/internal/persona"

// decayFactor pulls every scalar toward zero each step before signal
// deltas land, so old feelings fade unless the step renews them.
const decayFactor = 0.88

// Signals are the per-step observations feeding one Update call.
type Signals struct {
	// WaitSeconds is the simulated hesitation before acting.
	WaitSeconds float64
	// OptionCount is how many outgoing edges competed this step.
	OptionCount int
	// ClarityGap is the score gap between the top two candidates. Small
	// gaps read as ambiguity.
	ClarityGap float64
	// ReducesDistance reports whether the chosen edge strictly lowered
	// the remaining hop distance to the target.
	ReducesDistance bool
	// AutoWait marks a forced auto-advance transition.
	AutoWait bool
}

// Baseline seeds a session's starting state from the persona: stress from
// Neuroticism, confidence from Conscientiousness against Neuroticism,
// valence from Extraversion against Neuroticism. Clamped like every
// other state.
func Baseline(p persona.Profile) State {
	s := State{
		Valence:     0.10 + 0.40*p.Extraversion - 0.30*p.Neuroticism,
		Arousal:     0.30 + 0.20*p.Extraversion,
		Stress:      0.15 + 0.50*p.Neuroticism,
		Frustration: 0.05 + 0.15*p.Neuroticism,
		Confidence:  0.50 + 0.40*p.Conscientiousness - 0.30*p.Neuroticism,
	}
	return s.clamped()
}

// Update is pure: it returns the next state without touching the input.
// Each field first decays geometrically, then the step's signals apply
// their deltas, then everything is re-clamped.
//
// Signal effects: long waits raise arousal and (scaled by Neuroticism)
// stress; crowded screens raise frustration, more for high Openness;
// ambiguous choices raise frustration; auto-advance reads as loss of
// control, modestly raising stress and frustration; visible progress
// toward the target raises confidence and valence while easing stress
// and frustration.
func Update(prev State, sig Signals, p persona.Profile) State {
	next := State{
		Valence:     prev.Valence * decayFactor,
		Arousal:     prev.Arousal * decayFactor,
		Stress:      prev.Stress * decayFactor,
		Frustration: prev.Frustration * decayFactor,
		Confidence:  prev.Confidence * decayFactor,
	}

	if sig.WaitSeconds >= 3.0 {
		next.Arousal += 0.12
		next.Stress += 0.10 * (0.5 + p.Neuroticism)
	}

	if sig.OptionCount >= 6 {
		next.Frustration += 0.10 + 0.08*p.Openness
	}

	if sig.ClarityGap < 0.5 {
		next.Frustration += 0.08
	}

	if sig.AutoWait {
		next.Stress += 0.05
		next.Frustration += 0.04
	}

	if sig.ReducesDistance {
		next.Confidence += 0.15
		next.Valence += 0.12
		next.Stress -= 0.08
		next.Frustration -= 0.10
	}

	return next.clamped()
}

// Package emotion tracks the affective vector of one simulated session.
// State values are plain data; Update is a pure function so states can be
// snapshotted into traces and shared across goroutines without locking.
package emotion

// State is the five-scalar affective vector. Valence is in [-1,1]; the
// other four are in [0,1]. Every mutation goes through Update, which
// re-clamps all fields.
type State struct {
	Valence     float64 `json:"valence"`
	Arousal     float64 `json:"arousal"`
	Stress      float64 `json:"stress"`
	Frustration float64 `json:"frustration"`
	Confidence  float64 `json:"confidence"`
}

// Label names. The zero value of State labels as Neutral.
const (
	LabelStressed   = "Stressed"
	LabelConfident  = "Confident"
	LabelFocused    = "Focused"
	LabelFrustrated = "Frustrated"
	LabelNeutral    = "Neutral"
)

// Label derives the categorical mood from fixed thresholds, checked in
// priority order: Stressed, Confident, Focused, Frustrated, Neutral.
func (s State) Label() string {
	switch {
	case s.Frustration >= 0.65 || s.Stress >= 0.70:
		return LabelStressed
	case s.Valence > 0.25 && s.Confidence >= 0.60:
		return LabelConfident
	case s.Arousal >= 0.55 && s.Frustration < 0.40 && s.Stress < 0.40:
		return LabelFocused
	case s.Valence < -0.10 && s.Frustration >= 0.35:
		return LabelFrustrated
	default:
		return LabelNeutral
	}
}

// clamped returns a copy with every scalar forced back into its bounds.
func (s State) clamped() State {
	s.Valence = clamp(s.Valence, -1, 1)
	s.Arousal = clamp(s.Arousal, 0, 1)
	s.Stress = clamp(s.Stress, 0, 1)
	s.Frustration = clamp(s.Frustration, 0, 1)
	s.Confidence = clamp(s.Confidence, 0, 1)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

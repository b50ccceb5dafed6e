package sim

import (
	"fmt"
	"sort"

	"wayfarer/internal/emotion"
	"wayfarer/internal/friction"
	"wayfarer/pkg/journey"
)

// Outcome is the terminal state of one session. Every session ends in
// exactly one of these; there is no error-shaped ending.
type Outcome string

const (
	OutcomeReachedTarget Outcome = "reached-target"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeNoOutgoing    Outcome = "no-outgoing"
	OutcomeNoChoice      Outcome = "no-choice"
	OutcomeLoopDetected  Outcome = "loop-detected"
)

// Action is one taken transition in summary form.
type Action struct {
	FromID int `json:"from_id"`
	ToID   int `json:"to_id"`
	LinkID int `json:"linkId"`
}

// StepRecord captures everything observed during one loop iteration.
type StepRecord struct {
	Step        int                 `json:"step"`
	FromID      int                 `json:"from_id"`
	ToID        int                 `json:"to_id"`
	LinkID      int                 `json:"linkId"`
	ClickTarget string              `json:"click_target,omitempty"`
	Auto        bool                `json:"auto,omitempty"`
	Thought     string              `json:"thought,omitempty"`
	WaitSeconds float64             `json:"wait_seconds"`
	ClarityGap  float64             `json:"clarity_gap"`
	Candidates  []journey.Candidate `json:"candidates,omitempty"`
	Emotion     emotion.State       `json:"emotion"`
	Mood        string              `json:"mood"`
	Friction    []friction.Kind     `json:"friction,omitempty"`
}

// Trace is the full record of one session. The final screen equals the
// target exactly when the outcome is reached-target.
type Trace struct {
	SessionID      string           `json:"session_id"`
	Persona        string           `json:"persona,omitempty"`
	Goal           string           `json:"goal"`
	SourceID       int              `json:"source_id"`
	TargetID       int              `json:"target_id"`
	Seed           uint64           `json:"seed"`
	Outcome        Outcome          `json:"outcome"`
	Steps          []StepRecord     `json:"steps"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	FinalScreenID  int              `json:"final_screen_id"`
	FinalEmotion   emotion.State    `json:"final_emotion"`
	Friction       []friction.Point `json:"friction,omitempty"`
}

// Actions returns the ordered transitions taken.
func (t *Trace) Actions() []Action {
	out := make([]Action, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = Action{FromID: s.FromID, ToID: s.ToID, LinkID: s.LinkID}
	}
	return out
}

// DropOff marks a screen where the persona was last seen or kept
// circling. Reported only for sessions that never reached the target.
type DropOff struct {
	ScreenID int    `json:"screen_id"`
	Reason   string `json:"reason"`
	Revisits int    `json:"revisits,omitempty"`
}

// Summary condenses a trace for downstream consumers.
type Summary struct {
	SessionID      string           `json:"session_id"`
	Persona        string           `json:"persona,omitempty"`
	Outcome        Outcome          `json:"outcome"`
	Steps          int              `json:"steps"`
	ElapsedSeconds float64          `json:"elapsed_seconds"`
	FinalScreenID  int              `json:"final_screen_id"`
	FinalMood      string           `json:"final_mood"`
	Actions        []Action         `json:"actions"`
	Friction       []friction.Point `json:"friction,omitempty"`
	DropOffs       []DropOff        `json:"drop_offs,omitempty"`
}

// Summarize derives the session summary, including drop-off points when
// the persona never reached the target.
func (t *Trace) Summarize() Summary {
	s := Summary{
		SessionID:      t.SessionID,
		Persona:        t.Persona,
		Outcome:        t.Outcome,
		Steps:          len(t.Steps),
		ElapsedSeconds: t.ElapsedSeconds,
		FinalScreenID:  t.FinalScreenID,
		FinalMood:      t.FinalEmotion.Label(),
		Actions:        t.Actions(),
		Friction:       t.Friction,
	}
	if t.Outcome != OutcomeReachedTarget {
		s.DropOffs = t.dropOffs()
	}
	return s
}

// dropOffs lists the terminal screen first, then circling hotspots in
// descending revisit order.
func (t *Trace) dropOffs() []DropOff {
	revisits := map[int]int{t.SourceID: 1}
	for _, s := range t.Steps {
		revisits[s.ToID]++
	}

	out := []DropOff{{
		ScreenID: t.FinalScreenID,
		Reason:   fmt.Sprintf("last screen before %s", t.Outcome),
		Revisits: revisits[t.FinalScreenID],
	}}

	var hotspots []DropOff
	for id, n := range revisits {
		if id == t.FinalScreenID || n < 2 {
			continue
		}
		hotspots = append(hotspots, DropOff{
			ScreenID: id,
			Reason:   fmt.Sprintf("revisited %d times", n),
			Revisits: n,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Revisits != hotspots[j].Revisits {
			return hotspots[i].Revisits > hotspots[j].Revisits
		}
		return hotspots[i].ScreenID < hotspots[j].ScreenID
	})
	return append(out, hotspots...)
}

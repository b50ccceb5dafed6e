// Package friction classifies per-step usability signals and owns the
// loop-oscillation guard that terminates pathological sessions.
package friction

import "fmt"

// Kind labels one class of detected friction.
type Kind string

const (
	KindAutoAdvance Kind = "auto_advance"
	KindBackNav     Kind = "back_navigation"
	KindOscillation Kind = "oscillation"
	KindLongWait    Kind = "long_wait"
	KindOverload    Kind = "choice_overload"
	KindAmbiguity   Kind = "ambiguous_choice"
	KindDeadEnd     Kind = "dead_end"
)

// Point is one classified friction occurrence, shaped for the session
// summary.
type Point struct {
	Kind        Kind   `json:"type"`
	ScreenID    int    `json:"screen_id"`
	Description string `json:"description"`
}

// Classification thresholds. Long waits and crowded screens mirror the
// emotion model's trigger points so trace annotations and affect shifts
// line up.
const (
	longWaitSeconds = 3.0
	overloadOptions = 6
	ambiguityGap    = 0.3
	loopWindowSize  = 6
	loopDistinctMax = 2
)

// StepSignals carries one step's observations into the detector.
type StepSignals struct {
	ScreenID    int
	ScreenName  string
	WaitSeconds float64
	OptionCount int
	ClarityGap  float64
	AutoAdvance bool
	BackNav     bool
}

// Detector accumulates friction points and tracks the visit window for
// the oscillation guard. One detector per session; not safe for
// concurrent use and never shared.
type Detector struct {
	window   []int
	revisits map[int]int
	points   []Point
}

func NewDetector() *Detector {
	return &Detector{revisits: make(map[int]int)}
}

// ObserveVisit records entry to a node. Call once per visited node,
// including the session's start node.
func (d *Detector) ObserveVisit(nodeID int) {
	d.revisits[nodeID]++
	d.window = append(d.window, nodeID)
	if len(d.window) > loopWindowSize {
		d.window = d.window[1:]
	}
}

// LoopDetected reports whether the last six visited nodes collapse to at
// most two distinct values. It stays false until the window is full, so
// short legitimate paths never trip it.
func (d *Detector) LoopDetected() bool {
	if len(d.window) < loopWindowSize {
		return false
	}
	distinct := make(map[int]struct{}, loopDistinctMax+1)
	for _, id := range d.window {
		distinct[id] = struct{}{}
		if len(distinct) > loopDistinctMax {
			return false
		}
	}
	return true
}

// ObserveStep classifies one step's signals, appending any detected
// points. Returns the points found this step.
func (d *Detector) ObserveStep(s StepSignals) []Point {
	var found []Point

	if s.AutoAdvance {
		found = append(found, Point{
			Kind:        KindAutoAdvance,
			ScreenID:    s.ScreenID,
			Description: fmt.Sprintf("forced wait on %s", s.ScreenName),
		})
	}
	if s.BackNav {
		found = append(found, Point{
			Kind:        KindBackNav,
			ScreenID:    s.ScreenID,
			Description: fmt.Sprintf("backtracked from %s", s.ScreenName),
		})
	}
	if s.WaitSeconds >= longWaitSeconds {
		found = append(found, Point{
			Kind:        KindLongWait,
			ScreenID:    s.ScreenID,
			Description: fmt.Sprintf("hesitated %.1fs on %s", s.WaitSeconds, s.ScreenName),
		})
	}
	if s.OptionCount >= overloadOptions {
		found = append(found, Point{
			Kind:        KindOverload,
			ScreenID:    s.ScreenID,
			Description: fmt.Sprintf("%d competing options on %s", s.OptionCount, s.ScreenName),
		})
	}
	if !s.AutoAdvance && s.ClarityGap <= ambiguityGap {
		found = append(found, Point{
			Kind:        KindAmbiguity,
			ScreenID:    s.ScreenID,
			Description: fmt.Sprintf("no clear best action on %s", s.ScreenName),
		})
	}

	d.points = append(d.points, found...)
	return found
}

// Flag records a point outside step classification, e.g. the dead end or
// oscillation that terminated the session.
func (d *Detector) Flag(kind Kind, screenID int, description string) {
	d.points = append(d.points, Point{Kind: kind, ScreenID: screenID, Description: description})
}

// Points returns every friction point in detection order.
func (d *Detector) Points() []Point {
	return d.points
}

// Revisits reports how often each node was entered. Nodes entered more
// than once are oscillation hotspots for drop-off reporting.
func (d *Detector) Revisits() map[int]int {
	return d.revisits
}

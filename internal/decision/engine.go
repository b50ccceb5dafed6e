// Package decision scores candidate navigation edges against a goal and
// picks the next one. The engine is single-pass and deterministic: every
// candidate is scored once, the maximum wins, and ties fall to the earliest
// candidate. All scoring is total over its inputs.
package decision

import (
	"math"
	"sort"

	"wayfarer/internal/flow"
	"wayfarer/internal/persona"
)

// Scoring constants. The exact-target bonus is an overriding reward: with
// label-sized texts it dominates every combination of the other terms, so a
// persona standing one click from the target takes it.
const (
	ctaBonus       = 0.3
	backPenalty    = 6.0
	directBonus    = 100.0
	distanceBase   = 40.0
	distancePerHop = 10.0
	loopRecent     = 8.0
	loopSeen       = 4.0
)

// ViabilityFloor is the score at or below which a best candidate is not
// worth taking. A zero-overlap neutral edge scores 0 and stays viable; a
// back-labelled edge into a recently visited node scores -14 or worse and
// does not. The simulation maps an all-unviable step to its no-choice
// terminal.
const ViabilityFloor = -9.0

// soleChoiceGap is the clarity gap reported when fewer than two candidates
// exist: maximally decisive, and finite so traces stay serializable.
const soleChoiceGap = 10.0

// Ranked is one scored candidate.
type Ranked struct {
	Edge  flow.NavigationEdge `json:"edge"`
	Score float64             `json:"score"`
}

// Engine scores edges for one session. It precomputes the goal token set
// and holds the session's read-only inputs: the graph, the target, the
// distance map, and the persona scales. Engines are cheap; build one per
// session and discard it.
type Engine struct {
	graph     *flow.ScreenGraph
	targetID  int
	distances map[int]int
	scales    persona.Scales
	goal      map[string]struct{}
}

// NewEngine builds a session engine. distances may be nil when no distance
// shaping is wanted; scoring then runs without the hop term.
func NewEngine(g *flow.ScreenGraph, goalText string, targetID int, distances map[int]int, scales persona.Scales) *Engine {
	return &Engine{
		graph:     g,
		targetID:  targetID,
		distances: distances,
		scales:    scales,
		goal:      Tokenize(goalText),
	}
}

// ScoreEdge computes the multi-factor score of one candidate:
// token overlap with the goal, the generic CTA bonus, the persona-scaled
// back penalty, the exact-target bonus, distance shaping, and the
// loop-avoidance penalty against the visited history.
func (e *Engine) ScoreEdge(edge flow.NavigationEdge, history []int) float64 {
	var destName, destDesc string
	if dest, ok := e.graph.Node(edge.DestID); ok {
		destName = dest.Name
		destDesc = dest.Description
	}
	tokens := Tokenize(edge.ClickTarget, edge.UserIntent, destName, destDesc)

	score := float64(overlap(e.goal, tokens))

	if intersects(tokens, ctaVocab) {
		score += ctaBonus
	}
	if intersects(tokens, backVocab) {
		score -= backPenalty * e.scales.Back
	}
	if edge.DestID == e.targetID {
		score += directBonus * e.scales.Direct
	}
	if e.distances != nil {
		if hops, ok := e.distances[edge.DestID]; ok {
			score += e.scales.Distance * math.Max(0, distanceBase-distancePerHop*float64(hops))
		}
	}

	score -= e.loopPenalty(edge.DestID, history)
	return score
}

func (e *Engine) loopPenalty(destID int, history []int) float64 {
	n := len(history)
	if n > 0 && history[n-1] == destID {
		return loopRecent
	}
	if n > 1 && history[n-2] == destID {
		return loopRecent
	}
	for _, id := range history {
		if id == destID {
			return loopSeen
		}
	}
	return 0
}

// Choose scores every candidate and returns the winner plus the full
// ranking, ordered by descending score with ties kept in candidate order.
// An empty candidate list returns (nil, nil); the caller treats that as
// its no-outgoing terminal, not an error.
func (e *Engine) Choose(candidates []flow.NavigationEdge, history []int) (*Ranked, []Ranked) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{Edge: c, Score: e.ScoreEdge(c, history)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return &ranked[0], ranked
}

// ClarityGap is the score distance between the two strongest candidates.
// A single candidate (or none, as on auto-advance steps) is maximally
// decisive.
func ClarityGap(ranked []Ranked) float64 {
	if len(ranked) < 2 {
		return soleChoiceGap
	}
	return ranked[0].Score - ranked[1].Score
}

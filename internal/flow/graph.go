package flow

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMalformedGraph is returned when the node set itself is unusable
	// (empty, or duplicate ids). Edges with unresolved endpoints never
	// trigger it; those are dropped and counted instead.
	ErrMalformedGraph = errors.New("flow: malformed graph")

	// ErrUnknownNode is returned when a caller asks for a node id that is
	// not part of the graph.
	ErrUnknownNode = errors.New("flow: unknown node")
)

// EdgeKind distinguishes frame-level transitions (the whole screen is the
// click region) from element-level ones (a specific control).
type EdgeKind int

const (
	KindElement EdgeKind = iota
	KindFrame
)

func (k EdgeKind) String() string {
	if k == KindFrame {
		return "frame"
	}
	return "element"
}

// ScreenNode is a single application screen. Immutable once loaded; owned
// by the ScreenGraph for the duration of a run.
type ScreenNode struct {
	ID          int
	Name        string
	File        string
	Description string
}

// NavigationEdge is a navigable transition between two screens. LinkID is
// unique per edge and is the stable sort key for deterministic ordering.
type NavigationEdge struct {
	SourceID    int
	DestID      int
	LinkID      int
	ClickTarget string
	UserIntent  string
	AutoAdvance bool
	FrameWide   bool
	Kind        EdgeKind
}

// ScreenGraph is the immutable node/edge model built once per run. Adjacency
// lists preserve edge definition order so evaluation is deterministic. The
// graph is read-only after construction and safe to share across sessions.
type ScreenGraph struct {
	nodes     []ScreenNode
	edges     []NavigationEdge
	nodeIndex map[int]ScreenNode
	edgeIndex map[int][]NavigationEdge // source id -> edges in definition order

	dropped int // edges excluded for unresolved endpoints
}

// BuildGraph constructs a ScreenGraph from the provided nodes and edges.
// Edges referencing an unknown node id are dropped, not fatal: partially
// annotated exports routinely contain dangling links, and a run should
// proceed on the resolvable remainder. The dropped count is kept for
// reporting. An empty node list or a duplicate node id wraps
// ErrMalformedGraph.
func BuildGraph(nodes []ScreenNode, edges []NavigationEdge) (*ScreenGraph, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedGraph)
	}

	g := &ScreenGraph{
		nodes:     make([]ScreenNode, len(nodes)),
		nodeIndex: make(map[int]ScreenNode, len(nodes)),
		edgeIndex: make(map[int][]NavigationEdge),
	}
	copy(g.nodes, nodes)

	for _, n := range g.nodes {
		if _, dup := g.nodeIndex[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d", ErrMalformedGraph, n.ID)
		}
		g.nodeIndex[n.ID] = n
	}

	for _, e := range edges {
		if _, ok := g.nodeIndex[e.SourceID]; !ok {
			g.dropped++
			continue
		}
		if _, ok := g.nodeIndex[e.DestID]; !ok {
			g.dropped++
			continue
		}
		g.edges = append(g.edges, e)
		g.edgeIndex[e.SourceID] = append(g.edgeIndex[e.SourceID], e)
	}

	return g, nil
}

// Node returns the node with the given id.
func (g *ScreenGraph) Node(id int) (ScreenNode, bool) {
	n, ok := g.nodeIndex[id]
	return n, ok
}

// Nodes returns all nodes in load order.
func (g *ScreenGraph) Nodes() []ScreenNode { return g.nodes }

// Edges returns all retained edges in definition order.
func (g *ScreenGraph) Edges() []NavigationEdge { return g.edges }

// EdgesFrom returns the outgoing edges of a node in definition order. The
// returned slice is shared; callers must not mutate it.
func (g *ScreenGraph) EdgesFrom(id int) []NavigationEdge {
	return g.edgeIndex[id]
}

// DroppedEdges reports how many input edges were excluded because an
// endpoint did not resolve to a known node.
func (g *ScreenGraph) DroppedEdges() int { return g.dropped }

// NodeName returns the display name for a node id, or a placeholder when
// the id is unknown. For log and narration output only.
func (g *ScreenGraph) NodeName(id int) string {
	if n, ok := g.nodeIndex[id]; ok && n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("screen-%d", id)
}

// SortedNodeIDs returns all node ids ascending. Handy for stable iteration
// in reports and tests.
func (g *ScreenGraph) SortedNodeIDs() []int {
	ids := make([]int, 0, len(g.nodeIndex))
	for id := range g.nodeIndex {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

package flow

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// GraphDoc is the on-disk shape produced by the upstream extractor. Nodes
// carry integer ids; edges reference screens by opaque string identifiers
// that must be resolved before graph construction. The optional screen_ids
// table maps extractor identifiers to node ids; identifiers that are plain
// decimal integers resolve without it.
type GraphDoc struct {
	Name      string         `json:"name,omitempty"`
	Nodes     []NodeDoc      `json:"nodes"`
	Edges     []EdgeDoc      `json:"edges"`
	ScreenIDs map[string]int `json:"screen_ids,omitempty"`
}

// NodeDoc mirrors one entry of the extractor's node list.
type NodeDoc struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	File        string `json:"file,omitempty"`
	Description string `json:"description,omitempty"`
}

// EdgeDoc mirrors one entry of the extractor's edge list.
type EdgeDoc struct {
	SourceScreenID  string `json:"source_screen_id"`
	DestScreenID    string `json:"destination_screen_id"`
	LinkID          int    `json:"linkId"`
	ClickTarget     string `json:"click_target"`
	UserIntent      string `json:"user_intent"`
	IsAutoDelay     bool   `json:"is_auto_delay,omitempty"`
	IsClickAnywhere bool   `json:"is_click_anywhere,omitempty"`
}

// ParseGraph decodes a GraphDoc and builds the ScreenGraph. Edges whose
// endpoints cannot be resolved to known nodes are dropped silently and
// included in DroppedEdges; only an unusable node set is an error.
func ParseGraph(data []byte) (*ScreenGraph, error) {
	var doc GraphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}
	return buildFromDoc(&doc)
}

// LoadGraph reads and parses a graph document from disk.
func LoadGraph(path string) (*ScreenGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph %s: %w", path, err)
	}
	g, err := ParseGraph(data)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}
	return g, nil
}

func buildFromDoc(doc *GraphDoc) (*ScreenGraph, error) {
	nodes := make([]ScreenNode, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = ScreenNode{ID: n.ID, Name: n.Name, File: n.File, Description: n.Description}
	}

	edges, unresolved := ResolveEdges(doc.Edges, doc.ScreenIDs)

	g, err := BuildGraph(nodes, edges)
	if err != nil {
		return nil, err
	}
	g.dropped += unresolved
	return g, nil
}

// ResolveEdges maps the extractor's string screen identifiers to integer
// node ids. Resolution order: the alias table, then plain decimal parse.
// Edges with an unresolvable endpoint are excluded and counted; they are
// never an error (partially annotated exports are the norm, not the
// exception).
func ResolveEdges(docs []EdgeDoc, aliases map[string]int) (edges []NavigationEdge, unresolved int) {
	for _, d := range docs {
		src, ok := resolveScreenID(d.SourceScreenID, aliases)
		if !ok {
			unresolved++
			continue
		}
		dst, ok := resolveScreenID(d.DestScreenID, aliases)
		if !ok {
			unresolved++
			continue
		}
		kind := KindElement
		if d.IsClickAnywhere {
			kind = KindFrame
		}
		edges = append(edges, NavigationEdge{
			SourceID:    src,
			DestID:      dst,
			LinkID:      d.LinkID,
			ClickTarget: d.ClickTarget,
			UserIntent:  d.UserIntent,
			AutoAdvance: d.IsAutoDelay,
			FrameWide:   d.IsClickAnywhere,
			Kind:        kind,
		})
	}
	return edges, unresolved
}

func resolveScreenID(s string, aliases map[string]int) (int, bool) {
	if id, ok := aliases[s]; ok {
		return id, true
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

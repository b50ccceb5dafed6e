package flow

// Distances computes the shortest hop count from every node to target by
// breadth-first search over the reversed edge set. Nodes with no path to
// target are absent from the map; callers treat absence as infinite.
// dist[target] is always 0 when the target exists.
//
// Computed once per run. The returned map is read-only from then on and may
// be shared by reference across concurrent sessions.
func Distances(g *ScreenGraph, targetID int) map[int]int {
	dist := make(map[int]int)
	if _, ok := g.Node(targetID); !ok {
		return dist
	}

	// Inverted adjacency: destination -> sources.
	incoming := make(map[int][]int, len(g.nodeIndex))
	for _, e := range g.edges {
		incoming[e.DestID] = append(incoming[e.DestID], e.SourceID)
	}

	dist[targetID] = 0
	queue := []int{targetID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, src := range incoming[cur] {
			if _, seen := dist[src]; seen {
				continue
			}
			dist[src] = dist[cur] + 1
			queue = append(queue, src)
		}
	}
	return dist
}

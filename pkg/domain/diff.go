package domain

// GraphDiff represents the changes between two graphs, keyed by id.
// It is designed to be serialized to JSON so clients can patch a rendered canvas.
type GraphDiff struct {
	AddedNodes   []string `json:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	ChangedNodes []string `json:"changed_nodes,omitempty"`
	AddedEdges   []string `json:"added_edges,omitempty"`
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// Diff calculates the difference between oldGraph and newGraph.
// If oldGraph is nil, everything in newGraph counts as added (initial load).
// Reordering alone produces no diff.
func Diff(oldGraph, newGraph *Graph) *GraphDiff {
	if newGraph == nil {
		return nil
	}
	if oldGraph == nil {
		oldGraph = &Graph{}
	}

	diff := &GraphDiff{}

	oldNodes := make(map[string]Node, len(oldGraph.Nodes))
	for _, n := range oldGraph.Nodes {
		oldNodes[n.ID] = n
	}
	newNodes := make(map[string]struct{}, len(newGraph.Nodes))
	for _, n := range newGraph.Nodes {
		newNodes[n.ID] = struct{}{}
		prev, existed := oldNodes[n.ID]
		switch {
		case !existed:
			diff.AddedNodes = append(diff.AddedNodes, n.ID)
		case !prev.Equal(n):
			diff.ChangedNodes = append(diff.ChangedNodes, n.ID)
		}
	}
	for _, n := range oldGraph.Nodes {
		if _, ok := newNodes[n.ID]; !ok {
			diff.RemovedNodes = append(diff.RemovedNodes, n.ID)
		}
	}

	oldEdges := make(map[string]Edge, len(oldGraph.Edges))
	for _, e := range oldGraph.Edges {
		oldEdges[e.ID] = e
	}
	newEdges := make(map[string]struct{}, len(newGraph.Edges))
	for _, e := range newGraph.Edges {
		newEdges[e.ID] = struct{}{}
		// Edges are immutable; a changed endpoint is a remove plus an add.
		if prev, existed := oldEdges[e.ID]; !existed || prev != e {
			diff.AddedEdges = append(diff.AddedEdges, e.ID)
			if existed {
				diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
			}
		}
	}
	for _, e := range oldGraph.Edges {
		if _, ok := newEdges[e.ID]; !ok {
			diff.RemovedEdges = append(diff.RemovedEdges, e.ID)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *GraphDiff) IsEmpty() bool {
	return d == nil || (len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.ChangedNodes) == 0 &&
		len(d.AddedEdges) == 0 &&
		len(d.RemovedEdges) == 0)
}

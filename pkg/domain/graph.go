package domain

// Graph is the set of intents and transitions edited in one session.
// Both lists keep insertion order.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// Clone returns a deep, structurally independent copy of g.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

// Node looks a node up by id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n.Clone(), true
		}
	}
	return Node{}, false
}

// EdgesOf returns the edges that start or end at nodeID.
func (g Graph) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Touches(nodeID) {
			out = append(out, e)
		}
	}
	return out
}

// ProtectedIDs returns the ids of protected nodes in graph order.
func (g Graph) ProtectedIDs() []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.IsProtected {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Equal reports structural equality, including node and edge order.
func (g Graph) Equal(o Graph) bool {
	if len(g.Nodes) != len(o.Nodes) || len(g.Edges) != len(o.Edges) {
		return false
	}
	for i := range g.Nodes {
		if !g.Nodes[i].Equal(o.Nodes[i]) {
			return false
		}
	}
	for i := range g.Edges {
		if g.Edges[i] != o.Edges[i] {
			return false
		}
	}
	return true
}

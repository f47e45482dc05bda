package dsl

import (
	"fmt"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/store"
)

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*IntentBuilder
}

// New creates a builder pre-populated with the protected greet and fallback
// intents, so the result is a valid editor seed.
func New() *Builder {
	b := Empty()
	for _, n := range domain.NewSeedGraph().Nodes {
		b.Intent(n.ID).node = n
	}
	return b
}

// Empty creates a builder with no intents.
func Empty() *Builder {
	return &Builder{
		nodes: make(map[string]*IntentBuilder),
	}
}

// Intent adds a new intent to the graph.
// If the intent already exists, it returns the existing builder.
func (b *Builder) Intent(id string) *IntentBuilder {
	if ib, ok := b.nodes[id]; ok {
		return ib
	}
	ib := &IntentBuilder{
		node: domain.Node{
			ID:              id,
			Label:           id,
			TrainingPhrases: []string{},
			Responses:       []string{},
		},
		builder: b,
	}
	b.nodes[id] = ib
	b.order = append(b.order, id)
	return ib
}

// Build compiles the intents into a graph and checks it the same way the
// editor checks a seed. Intents keep their declaration order.
func (b *Builder) Build() (domain.Graph, error) {
	g := domain.Graph{
		Nodes: make([]domain.Node, 0, len(b.order)),
		Edges: []domain.Edge{},
	}
	for _, id := range b.order {
		ib := b.nodes[id]
		g.Nodes = append(g.Nodes, ib.node.Clone())
		for _, target := range ib.targets {
			g.Edges = append(g.Edges, domain.Edge{
				ID:     EdgeID(id, target),
				Source: id,
				Target: target,
			})
		}
	}

	if _, err := store.New(g); err != nil {
		return domain.Graph{}, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}

// MustBuild is like Build but panics on error. Intended for tests and
// package-level seeds.
func (b *Builder) MustBuild() domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// EdgeID is the deterministic id given to a declared transition.
func EdgeID(source, target string) string {
	return "e-" + source + "-" + target
}

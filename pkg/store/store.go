package store

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/intentflow/internal/logging"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Listener is notified after every committed mutation with a snapshot of the
// resulting graph. It is called synchronously, outside the store lock.
type Listener func(domain.Graph)

// Store holds the canonical graph and is the only component that mutates
// its node and edge collections. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	graph     domain.Graph
	protected []string // fixed at creation, sorted

	listeners []Listener
	validate  *validator.Validate
	newEdgeID func() string
	logger    *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithEdgeIDs overrides the edge id generator.
func WithEdgeIDs(fn func() string) Option {
	return func(s *Store) {
		s.newEdgeID = fn
	}
}

// New creates a Store seeded with g. The protected nodes of g become the
// protected set for the store's lifetime.
func New(g domain.Graph, opts ...Option) (*Store, error) {
	s := &Store{
		validate:  validator.New(),
		newEdgeID: func() string { return "edge-" + uuid.NewString() },
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	seed := g.Clone()
	if err := s.check(seed); err != nil {
		return nil, err
	}
	s.graph = seed
	s.protected = sortedIDs(seed.ProtectedIDs())
	return s, nil
}

// AddNode stores a copy of node and returns it. Nodes added after creation
// are stored unprotected.
func (s *Store) AddNode(node domain.Node) (domain.Node, error) {
	if err := s.validate.Struct(node); err != nil {
		return domain.Node{}, fmt.Errorf("%w: node: %v", domain.ErrInvalidGraph, err)
	}

	stored := node.Clone()
	stored.IsProtected = false

	s.mu.Lock()
	if s.indexOfNode(stored.ID) >= 0 {
		s.mu.Unlock()
		return domain.Node{}, fmt.Errorf("%w: node %q", domain.ErrDuplicateID, stored.ID)
	}
	s.graph.Nodes = append(s.graph.Nodes, stored)
	snap := s.graph.Clone()
	s.mu.Unlock()

	s.logger.Debug("node added", "node_id", stored.ID)
	s.notify(snap)
	return stored.Clone(), nil
}

// AddEdge appends a fresh edge from source to target.
func (s *Store) AddEdge(source, target string) (domain.Edge, error) {
	s.mu.Lock()
	for _, id := range []string{source, target} {
		if s.indexOfNode(id) < 0 {
			s.mu.Unlock()
			return domain.Edge{}, fmt.Errorf("%w: node %q", domain.ErrDanglingReference, id)
		}
	}
	edge := domain.Edge{ID: s.newEdgeID(), Source: source, Target: target}
	for s.indexOfEdge(edge.ID) >= 0 {
		edge.ID = s.newEdgeID()
	}
	s.graph.Edges = append(s.graph.Edges, edge)
	snap := s.graph.Clone()
	s.mu.Unlock()

	s.logger.Debug("edge added", "edge_id", edge.ID, "source", source, "target", target)
	s.notify(snap)
	return edge, nil
}

// UpdateNode merges patch into the node with the given id. The id and the
// protection flag never change.
func (s *Store) UpdateNode(id string, patch domain.NodePatch) (domain.Node, error) {
	s.mu.Lock()
	i := s.indexOfNode(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Node{}, fmt.Errorf("%w: node %q", domain.ErrNotFound, id)
	}
	updated := patch.Apply(s.graph.Nodes[i])
	s.graph.Nodes[i] = updated
	snap := s.graph.Clone()
	s.mu.Unlock()

	s.notify(snap)
	return updated.Clone(), nil
}

// RemoveNode deletes the node and every edge touching it.
// It returns false, changing nothing, if the node is protected or absent.
func (s *Store) RemoveNode(id string) bool {
	s.mu.Lock()
	i := s.indexOfNode(id)
	if i < 0 || s.graph.Nodes[i].IsProtected {
		s.mu.Unlock()
		return false
	}
	s.graph.Nodes = slices.Delete(s.graph.Nodes, i, i+1)
	before := len(s.graph.Edges)
	s.graph.Edges = slices.DeleteFunc(s.graph.Edges, func(e domain.Edge) bool {
		return e.Touches(id)
	})
	removedEdges := before - len(s.graph.Edges)
	snap := s.graph.Clone()
	s.mu.Unlock()

	s.logger.Debug("node removed", "node_id", id, "edges_removed", removedEdges)
	s.notify(snap)
	return true
}

// CanRemove reports whether RemoveNode(id) would succeed.
func (s *Store) CanRemove(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfNode(id)
	return i >= 0 && !s.graph.Nodes[i].IsProtected
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOfNode(id)
	if i < 0 {
		return domain.Node{}, false
	}
	return s.graph.Nodes[i].Clone(), true
}

// Has reports whether a node with the given id exists.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfNode(id) >= 0
}

// Protected returns the protected ids fixed at creation.
func (s *Store) Protected() []string {
	return slices.Clone(s.protected)
}

// Snapshot returns a deep copy of the current graph.
func (s *Store) Snapshot() domain.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Clone()
}

// Replace swaps the whole graph after validating it.
// On failure it returns an error wrapping domain.ErrInvalidGraph and the
// current graph is left untouched.
func (s *Store) Replace(g domain.Graph) error {
	next := g.Clone()
	if err := s.Validate(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.graph = next
	snap := s.graph.Clone()
	s.mu.Unlock()

	s.logger.Debug("graph replaced", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	s.notify(snap)
	return nil
}

// Validate checks g against the structural invariants and the protected set
// of this store, without committing anything.
func (s *Store) Validate(g domain.Graph) error {
	if err := s.check(g); err != nil {
		return err
	}
	if got := sortedIDs(g.ProtectedIDs()); !slices.Equal(got, s.protected) {
		return fmt.Errorf("%w: protected intents %v, want %v", domain.ErrInvalidGraph, got, s.protected)
	}
	return nil
}

// Subscribe registers a listener for committed mutations.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(g domain.Graph) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(g.Clone())
	}
}

// indexOfNode must be called with s.mu held.
func (s *Store) indexOfNode(id string) int {
	return slices.IndexFunc(s.graph.Nodes, func(n domain.Node) bool { return n.ID == id })
}

// indexOfEdge must be called with s.mu held.
func (s *Store) indexOfEdge(id string) int {
	return slices.IndexFunc(s.graph.Edges, func(e domain.Edge) bool { return e.ID == id })
}

func sortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}

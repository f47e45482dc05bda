package store

import (
	"errors"
	"fmt"

	"github.com/aretw0/intentflow/pkg/domain"
)

// check verifies that every node and edge is well formed, that ids are
// unique and that no edge dangles. All violations are reported together.
func (s *Store) check(g domain.Graph) error {
	var errs []error

	nodes := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if err := s.validate.Struct(n); err != nil {
			errs = append(errs, fmt.Errorf("nodes[%d]: %v", i, err))
			continue
		}
		if _, dup := nodes[n.ID]; dup {
			errs = append(errs, fmt.Errorf("nodes[%d]: %w %q", i, domain.ErrDuplicateID, n.ID))
			continue
		}
		nodes[n.ID] = struct{}{}
	}

	edges := make(map[string]struct{}, len(g.Edges))
	for i, e := range g.Edges {
		if err := s.validate.Struct(e); err != nil {
			errs = append(errs, fmt.Errorf("edges[%d]: %v", i, err))
			continue
		}
		if _, dup := edges[e.ID]; dup {
			errs = append(errs, fmt.Errorf("edges[%d]: %w %q", i, domain.ErrDuplicateID, e.ID))
		}
		edges[e.ID] = struct{}{}
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := nodes[end]; !ok {
				errs = append(errs, fmt.Errorf("edges[%d]: %w to node %q", i, domain.ErrDanglingReference, end))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidGraph, errors.Join(errs...))
	}
	return nil
}

package testutils

import (
	"testing"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/store"
	"github.com/stretchr/testify/require"
)

// SeededStore returns a store holding the default two-node graph.
// It fails the test immediately on error.
func SeededStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()

	s, err := store.New(domain.NewSeedGraph(), opts...)
	require.NoError(t, err, "Failed to seed store")
	return s
}

// GraphWith returns the seed graph extended with unprotected nodes carrying
// the given ids.
func GraphWith(ids ...string) domain.Graph {
	g := domain.NewSeedGraph()
	for _, id := range ids {
		g.Nodes = append(g.Nodes, domain.Node{
			ID:              id,
			Label:           id,
			TrainingPhrases: []string{},
			Responses:       []string{},
		})
	}
	return g
}

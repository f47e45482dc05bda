package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/intentflow/internal/presentation/graph"
	"github.com/aretw0/intentflow/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		graph    domain.Graph
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name:  "Protected Shape",
			graph: domain.NewSeedGraph(),
			contains: []string{
				"greet((\"Greet <br/> 💬 3 · 🗨️ 1\"))",
				"class greet,fallback protected;",
			},
		},
		{
			name: "Shapes And Edges",
			graph: domain.Graph{
				Nodes: []domain.Node{
					{ID: "intent-1.a", Label: "Say \"hi\"", TrainingPhrases: []string{"hi"}},
					{ID: "empty", Label: ""},
				},
				Edges: []domain.Edge{{ID: "e", Source: "intent-1.a", Target: "empty"}},
			},
			contains: []string{
				"intent_1_a[\"Say 'hi' <br/> 💬 1 · 🗨️ 0\"]",
				"empty[/\"empty <br/> 💬 0 · 🗨️ 0\"/]",
				"intent_1_a --> empty",
			},
			excludes: []string{"classDef protected", "Overlay"},
		},
		{
			name:    "Overlay",
			graph:   domain.NewSeedGraph(),
			overlay: &graph.Overlay{Selected: "greet", Issues: []string{"fallback", "fallback"}},
			contains: []string{
				"class fallback issue;",
				"class greet selected;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.graph, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output to omit %q, got:\n%s", bad, got)
				}
			}
			if strings.Count(got, "class fallback issue;") > 1 {
				t.Errorf("issues must be deduplicated:\n%s", got)
			}
		})
	}
}

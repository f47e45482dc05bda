package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/intentflow/pkg/domain"
)

func intent(id string) domain.Node {
	return domain.Node{
		ID:              id,
		Label:           id,
		TrainingPhrases: []string{"about " + id},
		Responses:       []string{"sure"},
	}
}

func TestLint(t *testing.T) {
	// 1. Scenario A: everything reachable
	g := domain.NewSeedGraph()
	g.Nodes = append(g.Nodes, intent("order"), intent("pay"))
	g.Edges = []domain.Edge{
		{ID: "e1", Source: domain.GreetID, Target: "order"},
		{ID: "e2", Source: "order", Target: "pay"},
	}
	if issues := Lint(g, domain.GreetID); len(issues) != 0 {
		t.Errorf("Scenario A (Valid) got issues: %v", issues)
	}
	if err := ValidateGraph(g, domain.GreetID, true); err != nil {
		t.Errorf("Scenario A strict failed: %v", err)
	}

	// 2. Scenario B: orphan intent without phrases or responses
	orphan := domain.Node{ID: "orphan", TrainingPhrases: []string{}, Responses: []string{" "}}
	g.Nodes = append(g.Nodes, orphan)
	issues := Lint(g, domain.GreetID)
	if len(issues) != 3 {
		t.Fatalf("Scenario B expected 3 issues, got %v", issues)
	}
	for _, issue := range issues {
		if issue.NodeID != "orphan" || issue.Severity != SeverityWarning {
			t.Errorf("unexpected issue %v", issue)
		}
	}
	if err := ValidateGraph(g, domain.GreetID, false); err != nil {
		t.Errorf("warnings must not fail a lenient check: %v", err)
	}
	err := ValidateGraph(g, domain.GreetID, true)
	if err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Errorf("strict check should report the orphan, got %v", err)
	}

	// 3. Scenario C: unknown start
	err = ValidateGraph(g, "ghost", false)
	if err == nil || !strings.Contains(err.Error(), "start intent not found") {
		t.Errorf("expected missing start error, got %v", err)
	}
}

func TestLint_ProtectedExempt(t *testing.T) {
	// Fallback is never linked from greet but the runtime enters it directly.
	issues := Lint(domain.NewSeedGraph(), domain.GreetID)
	if len(issues) != 0 {
		t.Errorf("seed graph should be clean, got %v", issues)
	}
}

func TestStartID(t *testing.T) {
	custom := domain.Graph{Nodes: []domain.Node{
		intent("menu"),
		{ID: "welcome", IsProtected: true},
		{ID: "help", IsProtected: true},
	}}

	tests := []struct {
		name string
		g    domain.Graph
		want string
	}{
		{"Greeting", domain.NewSeedGraph(), domain.GreetID},
		{"First Protected", custom, "welcome"},
		{"First Intent", domain.Graph{Nodes: []domain.Node{intent("menu")}}, "menu"},
		{"Empty", domain.Graph{}, domain.GreetID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartID(tt.g); got != tt.want {
				t.Errorf("StartID() = %q, want %q", got, tt.want)
			}
		})
	}

	custom.Edges = []domain.Edge{{ID: "e1", Source: "welcome", Target: "menu"}}
	if issues := Lint(custom, StartID(custom)); len(issues) != 0 {
		t.Errorf("custom seed should be clean, got %v", issues)
	}
}

func TestFlagged(t *testing.T) {
	ids := Flagged([]Issue{
		{Severity: SeverityError, Message: "no node"},
		{Severity: SeverityWarning, NodeID: "a"},
		{Severity: SeverityWarning, NodeID: "b"},
	})
	if strings.Join(ids, ",") != "a,b" {
		t.Errorf("expected a,b, got %v", ids)
	}
}

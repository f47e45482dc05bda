package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/intentflow/pkg/domain"
)

// Severity grades a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one lint finding.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.NodeID, i.Message)
}

// StartID picks the intent a conversation enters at: the greeting when
// present, otherwise the first protected intent, otherwise the first intent.
func StartID(g domain.Graph) string {
	if _, ok := g.Node(domain.GreetID); ok {
		return domain.GreetID
	}
	if ids := g.ProtectedIDs(); len(ids) > 0 {
		return ids[0]
	}
	if len(g.Nodes) > 0 {
		return g.Nodes[0].ID
	}
	return domain.GreetID
}

// Lint checks a structurally valid graph for authoring mistakes: intents
// not reachable from startID, intents the bot can never answer from, and
// intents without training phrases. Protected intents are exempt from the
// reachability and phrase checks since the runtime enters them directly.
func Lint(g domain.Graph, startID string) []Issue {
	if _, ok := g.Node(startID); !ok {
		return []Issue{{Severity: SeverityError, NodeID: startID, Message: "start intent not found"}}
	}

	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	// Crawl from the start intent.
	visited := map[string]bool{}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range adj[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	var issues []Issue
	for _, n := range g.Nodes {
		if len(n.Responses) == 0 || allBlank(n.Responses) {
			issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID, Message: "intent has no responses"})
		}
		if n.IsProtected {
			continue
		}
		if !visited[n.ID] {
			issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID, Message: fmt.Sprintf("intent is unreachable from %q", startID)})
		}
		if len(n.TrainingPhrases) == 0 {
			issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID, Message: "intent has no training phrases"})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].NodeID < issues[j].NodeID })
	return issues
}

// ValidateGraph returns an error when Lint reports any error-level issue.
// When strict is set, warnings fail as well.
func ValidateGraph(g domain.Graph, startID string, strict bool) error {
	var msgs []string
	for _, issue := range Lint(g, startID) {
		if issue.Severity == SeverityError || strict {
			msgs = append(msgs, issue.String())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
	}
	return nil
}

// Flagged returns the ids of the intents named by issues, in order.
func Flagged(issues []Issue) []string {
	var ids []string
	for _, issue := range issues {
		if issue.NodeID != "" {
			ids = append(ids, issue.NodeID)
		}
	}
	return ids
}

func allBlank(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/intentflow/internal/validator"
	"github.com/aretw0/intentflow/pkg/domain"
)

// Summary renders a bot as markdown: metadata, one section per intent with
// its phrases, responses and outgoing transitions, then lint findings.
func Summary(meta domain.Metadata, g domain.Graph, issues []validator.Issue) string {
	var b strings.Builder

	name := meta.Name
	if name == "" {
		name = "Untitled bot"
	}
	fmt.Fprintf(&b, "# %s %s\n\n", meta.Avatar, name)
	if meta.Personality != "" {
		fmt.Fprintf(&b, "> %s\n\n", meta.Personality)
	}
	fmt.Fprintf(&b, "%d intents, %d transitions.\n\n", len(g.Nodes), len(g.Edges))

	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = displayLabel(n)
	}

	for _, n := range g.Nodes {
		lock := ""
		if n.IsProtected {
			lock = " 🔒"
		}
		fmt.Fprintf(&b, "## %s%s\n\n`%s`\n\n", displayLabel(n), lock, n.ID)

		writeList(&b, "Training phrases", n.TrainingPhrases)
		writeList(&b, "Responses", n.Responses)

		var next []string
		for _, e := range g.Edges {
			if e.Source == n.ID {
				next = append(next, labels[e.Target])
			}
		}
		if len(next) > 0 {
			fmt.Fprintf(&b, "**Leads to:** %s\n\n", strings.Join(next, ", "))
		}
	}

	if len(issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", issue.Severity, issue.NodeID, issue.Message)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "**%s**\n\n", title)
	if len(items) == 0 {
		b.WriteString("_none_\n\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func displayLabel(n domain.Node) string {
	if n.Label == "" {
		return n.ID
	}
	return n.Label
}

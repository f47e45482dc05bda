package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/intentflow/pkg/domain"
)

// Overlay highlights editor state on the rendered graph.
type Overlay struct {
	Selected string
	Issues   []string // node ids flagged by the linter
}

// GenerateMermaid produces a Mermaid flowchart from an intent graph.
// Protected intents render as ((circles)), intents without training
// phrases as [/parallelograms/] and the rest as [rectangles]. Labels show
// the intent label together with its phrase and response counts.
func GenerateMermaid(g domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.IsProtected:
			opener, closer = "((", "))"
		case len(node.TrainingPhrases) == 0:
			opener, closer = "[/", "/]"
		}

		label := node.Label
		if label == "" {
			label = node.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> 💬 %d · 🗨️ %d\"%s\n",
			safeID, opener, escapeLabel(label), len(node.TrainingPhrases), len(node.Responses), closer)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}

	var protected []string
	for _, n := range g.Nodes {
		if n.IsProtected {
			protected = append(protected, sanitizeMermaidID(n.ID))
		}
	}
	if len(protected) > 0 {
		sb.WriteString("\n    classDef protected fill:#ede9fe,stroke:#7c3aed,stroke-width:2px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s protected;\n", strings.Join(protected, ","))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text for contrast under both light and dark themes.
		sb.WriteString("    classDef issue fill:#fff7ed,stroke:#ea580c,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Issues {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s issue;\n", safeID)
			}
		}
		if overlay.Selected != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}

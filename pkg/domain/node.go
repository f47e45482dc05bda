package domain

import "slices"

// Position is a canvas coordinate. The core never interprets it.
type Position struct {
	X float64 `json:"x" yaml:"x" mapstructure:"x"`
	Y float64 `json:"y" yaml:"y" mapstructure:"y"`
}

// Node is an intent: a named unit of conversational behavior with trigger
// phrases and candidate responses.
type Node struct {
	ID              string   `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Label           string   `json:"label" yaml:"label" mapstructure:"label"`
	TrainingPhrases []string `json:"trainingPhrases" yaml:"trainingPhrases" mapstructure:"trainingPhrases"`
	Responses       []string `json:"responses" yaml:"responses" mapstructure:"responses"`

	// IsProtected marks the entry and fallback intents. It is fixed when the
	// graph is created and never transferred to copies.
	IsProtected bool     `json:"isProtected" yaml:"isProtected" mapstructure:"isProtected"`
	Position    Position `json:"position" yaml:"position" mapstructure:"position"`
}

// Clone returns a copy of the node that shares no slices with n.
// Nil phrase and response lists come back as empty lists.
func (n Node) Clone() Node {
	n.TrainingPhrases = cloneStrings(n.TrainingPhrases)
	n.Responses = cloneStrings(n.Responses)
	return n
}

// Equal reports whether two nodes carry the same data.
// A nil list and an empty list are considered equal.
func (n Node) Equal(o Node) bool {
	return n.ID == o.ID &&
		n.Label == o.Label &&
		n.IsProtected == o.IsProtected &&
		n.Position == o.Position &&
		slices.Equal(n.TrainingPhrases, o.TrainingPhrases) &&
		slices.Equal(n.Responses, o.Responses)
}

// NodePatch describes a partial update. Nil fields are left unchanged.
// ID and IsProtected are deliberately absent: they cannot change after creation.
type NodePatch struct {
	Label           *string   `json:"label,omitempty"`
	TrainingPhrases *[]string `json:"trainingPhrases,omitempty"`
	Responses       *[]string `json:"responses,omitempty"`
	Position        *Position `json:"position,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p NodePatch) IsEmpty() bool {
	return p.Label == nil && p.TrainingPhrases == nil && p.Responses == nil && p.Position == nil
}

// Apply returns n with the patch merged in. Lists are copied.
func (p NodePatch) Apply(n Node) Node {
	out := n.Clone()
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.TrainingPhrases != nil {
		out.TrainingPhrases = cloneStrings(*p.TrainingPhrases)
	}
	if p.Responses != nil {
		out.Responses = cloneStrings(*p.Responses)
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

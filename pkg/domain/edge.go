package domain

// Edge is an allowed transition from one intent to another.
// Parallel edges between the same pair of intents are valid.
type Edge struct {
	ID     string `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Source string `json:"source" yaml:"source" mapstructure:"source" validate:"required"`
	Target string `json:"target" yaml:"target" mapstructure:"target" validate:"required"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

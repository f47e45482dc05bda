package domain

// Metadata describes the bot the graph belongs to. It travels with the
// graph in exported snapshots.
type Metadata struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Avatar      string `json:"avatar" yaml:"avatar" mapstructure:"avatar"`
	Personality string `json:"personality" yaml:"personality" mapstructure:"personality"`
}

package codec

import (
	"fmt"
	"time"

	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/schema"
)

// SchemaVersion is the envelope version written on export and required on import.
const SchemaVersion = "1.0"

// Envelope is the portable snapshot of a graph and its bot metadata.
type Envelope struct {
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Avatar      string        `json:"avatar" yaml:"avatar" mapstructure:"avatar"`
	Personality string        `json:"personality" yaml:"personality" mapstructure:"personality"`
	Nodes       []domain.Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges       []domain.Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
	Version     string        `json:"version" yaml:"version" mapstructure:"version"`
	ExportedAt  string        `json:"exportedAt,omitempty" yaml:"exportedAt,omitempty" mapstructure:"exportedAt"`
}

// Export wraps meta and g in a versioned envelope stamped with at.
func Export(meta domain.Metadata, g domain.Graph, at time.Time) Envelope {
	c := g.Clone()
	return Envelope{
		Name:        meta.Name,
		Avatar:      meta.Avatar,
		Personality: meta.Personality,
		Nodes:       c.Nodes,
		Edges:       c.Edges,
		Version:     SchemaVersion,
		ExportedAt:  at.UTC().Format(time.RFC3339),
	}
}

// Metadata returns the bot metadata carried by the envelope.
func (e Envelope) Metadata() domain.Metadata {
	return domain.Metadata{Name: e.Name, Avatar: e.Avatar, Personality: e.Personality}
}

// Graph returns a copy of the carried graph. Lists are never nil.
func (e Envelope) Graph() domain.Graph {
	return domain.Graph{Nodes: e.Nodes, Edges: e.Edges}.Clone()
}

var (
	positionSchema = schema.Object(schema.Schema{
		"x": schema.Float(),
		"y": schema.Float(),
	})

	nodeSchema = schema.Object(schema.Schema{
		"id":              schema.String(),
		"label":           schema.String(),
		"trainingPhrases": schema.Slice(schema.String()),
		"responses":       schema.Slice(schema.String()),
		"isProtected":     schema.Optional(schema.Bool()),
		"position":        positionSchema,
	})

	edgeSchema = schema.Object(schema.Schema{
		"id":     schema.String(),
		"source": schema.String(),
		"target": schema.String(),
	})

	versionType = schema.Custom("version", func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		if s != SchemaVersion {
			return fmt.Errorf("unsupported version %q, want %q", s, SchemaVersion)
		}
		return nil
	})

	timestampType = schema.Custom("timestamp", func(v any) error {
		switch ts := v.(type) {
		case time.Time:
			return nil
		case string:
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				return fmt.Errorf("expected RFC 3339 timestamp: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("expected timestamp, got %T", v)
		}
	})

	// EnvelopeSchema describes the accepted import shape. Unlisted fields
	// are ignored.
	EnvelopeSchema = schema.Schema{
		"name":        schema.String(),
		"avatar":      schema.String(),
		"personality": schema.String(),
		"nodes":       schema.Slice(nodeSchema),
		"edges":       schema.Slice(edgeSchema),
		"version":     versionType,
		"exportedAt":  schema.Optional(timestampType),
	}
)

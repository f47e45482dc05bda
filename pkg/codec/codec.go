package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/intentflow/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the text encoding of an envelope.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a format name to a Format. The empty string means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", name)
	}
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode renders the envelope as indented JSON or as YAML.
func Encode(env Envelope, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(env); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

// Decode parses text into an envelope. Malformed text yields a *ParseError;
// a document of the wrong shape or version yields a *SchemaError. The graph
// itself is not checked for referential integrity here.
func Decode(data []byte, f Format) (Envelope, error) {
	var raw any
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Envelope{}, &ParseError{Format: f, Err: err}
		}
	case FormatJSON, "":
		f = FormatJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return Envelope{}, &ParseError{Format: f, Err: err}
		}
	default:
		return Envelope{}, fmt.Errorf("unsupported format %q", f)
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return Envelope{}, &SchemaError{Err: fmt.Errorf("expected an object at the top level, got %T", raw)}
	}
	if err := ValidateDocument(doc); err != nil {
		return Envelope{}, &SchemaError{Err: err}
	}

	var env Envelope
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.DecodeHookFuncType(timeToString),
		Result:     &env,
		TagName:    "mapstructure",
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("decoder: %w", err)
	}
	if err := dec.Decode(doc); err != nil {
		return Envelope{}, &SchemaError{Err: err}
	}

	g := env.Graph()
	env.Nodes, env.Edges = g.Nodes, g.Edges
	return env, nil
}

// ValidateDocument checks a decoded document against EnvelopeSchema.
func ValidateDocument(doc map[string]any) error {
	return schema.Validate(EnvelopeSchema, doc)
}

// timeToString keeps timestamps that a YAML decoder resolved to time.Time
// assignable to the string field.
func timeToString(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if ts, ok := data.(time.Time); ok {
		return ts.UTC().Format(time.RFC3339), nil
	}
	return data, nil
}

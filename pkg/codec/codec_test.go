package codec_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/intentflow/pkg/codec"
	"github.com/aretw0/intentflow/pkg/domain"
	"github.com/aretw0/intentflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var meta = domain.Metadata{Name: "Pizzabot", Avatar: "🍕", Personality: "cheerful"}

func richGraph() domain.Graph {
	g := domain.NewSeedGraph()
	g.Nodes = append(g.Nodes,
		domain.Node{
			ID:              "order",
			Label:           "Order",
			TrainingPhrases: []string{"I want pizza", "order: large, \"extra\" cheese"},
			Responses:       []string{"Which size?", ""},
			Position:        domain.Position{X: 12.5, Y: -3},
		},
		domain.Node{ID: "empty", Label: "", TrainingPhrases: []string{}, Responses: []string{}},
	)
	g.Edges = append(g.Edges,
		domain.Edge{ID: "e1", Source: domain.GreetID, Target: "order"},
		domain.Edge{ID: "e2", Source: "order", Target: domain.FallbackID},
		domain.Edge{ID: "e3", Source: "order", Target: "order"},
	)
	return g
}

func TestRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	for _, f := range []codec.Format{codec.FormatJSON, codec.FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			g := richGraph()
			data, err := codec.Encode(codec.Export(meta, g, at), f)
			require.NoError(t, err)

			env, err := codec.Decode(data, f)
			require.NoError(t, err)

			assert.True(t, g.Equal(env.Graph()), "graph must survive the round trip")
			assert.Equal(t, meta, env.Metadata())
			assert.Equal(t, codec.SchemaVersion, env.Version)
			assert.Equal(t, "2024-05-01T10:30:00Z", env.ExportedAt)
		})
	}
}

func TestExport(t *testing.T) {
	g := domain.NewSeedGraph()
	env := codec.Export(meta, g, time.Now())

	env.Nodes[0].Label = "mutated"
	assert.NotEqual(t, "mutated", g.Nodes[0].Label, "export copies the graph")
	assert.NotNil(t, env.Edges)

	data, err := codec.Encode(env, codec.FormatJSON)
	require.NoError(t, err)
	for _, field := range []string{`"name"`, `"avatar"`, `"personality"`, `"nodes"`, `"edges"`, `"version": "1.0"`, `"exportedAt"`, `"trainingPhrases"`, `"isProtected"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestDecode_ParseError(t *testing.T) {
	cases := map[codec.Format]string{
		codec.FormatJSON: `{"name": `,
		codec.FormatYAML: "name: [unclosed",
	}
	for f, text := range cases {
		t.Run(string(f), func(t *testing.T) {
			_, err := codec.Decode([]byte(text), f)
			require.Error(t, err)

			var pe *codec.ParseError
			assert.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, domain.ErrParse)
			assert.NotErrorIs(t, err, domain.ErrSchema)
		})
	}
}

func TestDecode_SchemaError(t *testing.T) {
	valid := func() string {
		return `{"name":"b","avatar":"a","personality":"p","version":"1.0",
			"nodes":[{"id":"greet","label":"G","trainingPhrases":[],"responses":[],"isProtected":true,"position":{"x":0,"y":0}}],
			"edges":[]}`
	}
	_, err := codec.Decode([]byte(valid()), codec.FormatJSON)
	require.NoError(t, err, "baseline document must decode")

	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{"Top Level List", `[]`, ""},
		{"Missing Nodes", `{"name":"b","avatar":"a","personality":"p","version":"1.0","edges":[]}`, "nodes"},
		{"Missing Name", `{"avatar":"a","personality":"p","version":"1.0","nodes":[],"edges":[]}`, "name"},
		{"Wrong Version", `{"name":"b","avatar":"a","personality":"p","version":"2.0","nodes":[],"edges":[]}`, "version"},
		{"Node Without ID", `{"name":"b","avatar":"a","personality":"p","version":"1.0",
			"nodes":[{"label":"G","trainingPhrases":[],"responses":[],"position":{"x":0,"y":0}}],"edges":[]}`, "nodes[0].id"},
		{"Phrase Not String", `{"name":"b","avatar":"a","personality":"p","version":"1.0",
			"nodes":[{"id":"g","label":"G","trainingPhrases":[1],"responses":[],"position":{"x":0,"y":0}}],"edges":[]}`, "nodes[0].trainingPhrases[0]"},
		{"Edge Without Target", `{"name":"b","avatar":"a","personality":"p","version":"1.0","nodes":[],
			"edges":[{"id":"e","source":"g"}]}`, "edges[0].target"},
		{"Bad Timestamp", `{"name":"b","avatar":"a","personality":"p","version":"1.0","nodes":[],"edges":[],"exportedAt":"yesterday"}`, "exportedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode([]byte(tt.doc), codec.FormatJSON)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSchema)

			var se *codec.SchemaError
			require.ErrorAs(t, err, &se)
			if tt.key == "" {
				return
			}
			var keys []string
			for _, fe := range se.Fields() {
				var ve *schema.ValidationError
				if errors.As(fe, &ve) {
					keys = append(keys, ve.Key)
				}
			}
			assert.Contains(t, keys, tt.key)
		})
	}
}

func TestDecode_Lenient(t *testing.T) {
	doc := `
name: bot
avatar: ""
personality: ""
version: "1.0"
exportedAt: 2024-05-01T10:30:00Z
theme: dark
nodes:
  - id: greet
    label: Greet
    trainingPhrases: [hi]
    responses: [hello]
    position: {x: 250, y: 100}
    color: red
edges: []
`
	env, err := codec.Decode([]byte(doc), codec.FormatYAML)
	require.NoError(t, err)

	require.Len(t, env.Nodes, 1)
	n := env.Nodes[0]
	assert.False(t, n.IsProtected, "missing isProtected defaults to false")
	assert.Equal(t, domain.Position{X: 250, Y: 100}, n.Position)
	assert.Equal(t, "2024-05-01T10:30:00Z", env.ExportedAt)
	assert.NotNil(t, env.Edges)
}

func TestFormats(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want codec.Format
		err  bool
	}{
		{"", codec.FormatJSON, false},
		{"JSON", codec.FormatJSON, false},
		{"yml", codec.FormatYAML, false},
		{"toml", "", true},
	} {
		t.Run(fmt.Sprintf("Parse %q", tt.in), func(t *testing.T) {
			got, err := codec.ParseFormat(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, codec.FormatYAML, codec.FormatFromPath("bot.YAML"))
	assert.Equal(t, codec.FormatJSON, codec.FormatFromPath("bot.json"))
	assert.Equal(t, codec.FormatJSON, codec.FormatFromPath("bot"))
}

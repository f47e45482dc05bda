package dsl

import (
	"slices"

	"github.com/aretw0/intentflow/pkg/domain"
)

// IntentBuilder provides a fluent API for configuring an intent.
type IntentBuilder struct {
	node    domain.Node
	targets []string
	builder *Builder
}

// Label sets the display name.
func (i *IntentBuilder) Label(label string) *IntentBuilder {
	i.node.Label = label
	return i
}

// Phrases appends training phrases.
func (i *IntentBuilder) Phrases(phrases ...string) *IntentBuilder {
	i.node.TrainingPhrases = append(i.node.TrainingPhrases, phrases...)
	return i
}

// Responds appends candidate responses.
func (i *IntentBuilder) Responds(responses ...string) *IntentBuilder {
	i.node.Responses = append(i.node.Responses, responses...)
	return i
}

// At places the intent on the canvas.
func (i *IntentBuilder) At(x, y float64) *IntentBuilder {
	i.node.Position = domain.Position{X: x, Y: y}
	return i
}

// Protected marks the intent as undeletable for the session the graph seeds.
func (i *IntentBuilder) Protected() *IntentBuilder {
	i.node.IsProtected = true
	return i
}

// Go adds a transition to the target intent. Repeated targets are kept once.
func (i *IntentBuilder) Go(targets ...string) *IntentBuilder {
	for _, t := range targets {
		if !slices.Contains(i.targets, t) {
			i.targets = append(i.targets, t)
		}
	}
	return i
}

// Intent switches to another intent of the same builder.
func (i *IntentBuilder) Intent(id string) *IntentBuilder {
	return i.builder.Intent(id)
}

// Build returns a copy of the underlying domain.Node.
func (i *IntentBuilder) Build() domain.Node {
	return i.node.Clone()
}

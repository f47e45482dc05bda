package domain

// NewSeedGraph returns the graph every editor session starts from: the
// protected greet and fallback intents, unconnected.
func NewSeedGraph() Graph {
	return Graph{
		Nodes: []Node{
			{
				ID:              GreetID,
				Label:           "Greet",
				TrainingPhrases: []string{"hello", "hi", "good morning"},
				Responses:       []string{"Hello! How can I help you today?"},
				IsProtected:     true,
				Position:        Position{X: 250, Y: 100},
			},
			{
				ID:              FallbackID,
				Label:           "Fallback",
				TrainingPhrases: []string{},
				Responses:       []string{"Sorry, I didn't get that. Could you rephrase?"},
				IsProtected:     true,
				Position:        Position{X: 250, Y: 400},
			},
		},
		Edges: []Edge{},
	}
}

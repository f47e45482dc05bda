/*
Package intentflow is the editing core of a visual conversational-agent builder.

A bot is a directed graph of intents. Each intent carries a label, training
phrases, candidate responses, a canvas position and a protected flag; edges
are the allowed transitions between intents. The greet and fallback intents
of a new session are protected and can never be deleted.

# Components

  - store: the canonical graph, validated on every mutation.
  - operations: intent-level create, duplicate, remove, connect and update.
  - history: debounced snapshots with undo and redo.
  - codec: versioned JSON/YAML envelopes that round-trip the graph.
  - keyboard: delete, duplicate, undo, redo and save chords with a text-focus guard.

The Editor wires them together and is the single handle a host (canvas,
HTTP server, MCP agent, terminal UI) needs.

# Usage

	ed, err := intentflow.New(intentflow.WithSnapshotStore(file.New("./bots")))
	if err != nil {
		log.Fatal(err)
	}
	defer ed.Close()

	order, _ := ed.Create()
	phrases := []string{"I want a pizza"}
	ed.Update(order.ID, domain.NodePatch{TrainingPhrases: &phrases})
	ed.Connect(domain.GreetID, order.ID)

	ed.Undo() // the burst of edits above is undone as one step

	if err := ed.Save(context.Background()); err != nil {
		log.Fatal(err)
	}
*/
package intentflow

package domain

import "time"

// EventType defines the category of an editor event.
type EventType string

const (
	EventOperation EventType = "operation"
	EventCommit    EventType = "history_commit"
	EventUndo      EventType = "history_undo"
	EventRedo      EventType = "history_redo"
	EventImport    EventType = "import"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// OperationEvent reports one mutation attempt against the graph.
type OperationEvent struct {
	EventBase
	Op     string `json:"op"` // e.g. "create", "duplicate", "remove", "connect"
	NodeID string `json:"node_id,omitempty"`
	EdgeID string `json:"edge_id,omitempty"`
	Err    error  `json:"-"`
}

// HistoryEvent reports a change of the undo/redo stacks.
type HistoryEvent struct {
	EventBase
	Depth     int `json:"depth"`
	RedoDepth int `json:"redo_depth"`
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
}

// Hooks defines callbacks for editor observability. Nil callbacks are skipped.
type Hooks struct {
	OnOperation func(*OperationEvent)
	OnHistory   func(*HistoryEvent)
}

/*
Package domain contains the core data model of the intent graph editor.

It defines the entities the editing core works on and is kept free of I/O,
timers and persistence concerns.

# Key Entities

  - Node: an intent (label, training phrases, responses, protection flag, canvas position).
  - Edge: an allowed transition between two intents.
  - Graph: the ordered set of nodes and edges of one session.
  - NodePatch: a partial update of a node's mutable fields.
  - Metadata: the bot name, avatar and personality exported with the graph.
  - GraphDiff: the structural difference between two graphs.

Sentinel errors (ErrDuplicateID, ErrDanglingReference, ErrNotFound,
ErrInvalidGraph, ErrParse, ErrSchema) are shared by every layer so callers can
match failures with errors.Is regardless of which component produced them.
*/
package domain

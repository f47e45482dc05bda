package domain

import "errors"

// ErrDuplicateID is returned when a node id is already in use.
var ErrDuplicateID = errors.New("duplicate id")

// ErrDanglingReference is returned when an edge endpoint does not exist.
var ErrDanglingReference = errors.New("dangling reference")

// ErrNotFound is returned when a node id cannot be found in the graph.
var ErrNotFound = errors.New("not found")

// ErrInvalidGraph is returned when a graph violates a structural invariant.
var ErrInvalidGraph = errors.New("invalid graph")

// ErrParse is returned when an exported snapshot is not well-formed.
var ErrParse = errors.New("parse error")

// ErrSchema is returned when an exported snapshot has the wrong shape.
var ErrSchema = errors.New("schema error")

// ErrSnapshotNotFound is returned when a named snapshot does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

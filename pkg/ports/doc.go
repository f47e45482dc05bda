/*
Package ports defines the driven ports (interfaces) of the intent editor.

# Key Interfaces

  - SnapshotStore: persists encoded envelopes by name (memory, file, encrypted).
*/
package ports

package ports

import "context"

// SnapshotStore persists encoded snapshots of a bot by name.
// Payloads are opaque bytes, usually a codec envelope.
type SnapshotStore interface {
	// Save stores data under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, data []byte) error

	// Load retrieves the snapshot stored under name.
	// Returns domain.ErrSnapshotNotFound if it does not exist.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}

package checkpoint

import "context"

// Store persists snapshots under user-supplied logical names. Staleness is
// the caller's responsibility: a store never invalidates snapshots on its own.
type Store interface {
	// Save writes the snapshot under its name, replacing any previous one.
	Save(ctx context.Context, snap Snapshot) error

	// Load reads the snapshot stored under name. It returns a not-found
	// error if nothing is stored, and a corrupt error if the stored data
	// cannot be decoded or fails validation.
	Load(ctx context.Context, name string) (*Snapshot, error)

	// Exists reports whether a snapshot is stored under name. Pure
	// predicate, no side effects.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes the snapshot stored under name. It returns a
	// not-found error if nothing is stored.
	Delete(ctx context.Context, name string) error

	// List returns metadata for all stored snapshots.
	List(ctx context.Context) ([]Info, error)
}

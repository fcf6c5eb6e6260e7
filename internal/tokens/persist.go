package tokens

import "context"

// Row is one token as persisted to the backing store.
type Row struct {
	OwnerID  string
	Key      string
	Value    string
	Category string
}

// Persister is the backing-store contract for token snapshots. Upsert is
// idempotent: re-sending the same row overwrites in place. Implementations
// exist for SQLite and Redis; tests use in-memory fakes.
type Persister interface {
	// Upsert writes the rows, keyed on (OwnerID, Key). Last write wins.
	Upsert(ctx context.Context, rows []Row) error

	// Load returns all persisted tokens for the owner.
	Load(ctx context.Context, ownerID string) (map[string]string, error)
}

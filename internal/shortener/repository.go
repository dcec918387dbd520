package shortener

import "context"

// Repository persists shortened URL records.
//
// Implementations must apply the uniqueness checks of Create and the match of
// Deactivate atomically; the service never guards the gap between a read and
// a write itself.
type Repository interface {
	// Create stores a new active record. It returns ErrHashTaken if any record
	// already uses the hash, or ErrURLTaken if an active record exists for the URL.
	Create(ctx context.Context, record *Record) error

	// FindActiveByHash returns the active record with the given hash or ErrNotFound.
	FindActiveByHash(ctx context.Context, hash Hash) (*Record, error)

	// FindActiveByURL returns the active record for the exact URL or ErrNotFound.
	FindActiveByURL(ctx context.Context, url string) (*Record, error)

	// Deactivate marks the active record matching both hash and token as
	// inactive and reports whether a record matched.
	Deactivate(ctx context.Context, hash Hash, removeToken string) (bool, error)
}

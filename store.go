package authgate

import (
	"context"
	"time"
)

// SessionStore is the mapping from token to session record. Implementations
// must be safe under concurrent invocation from request handlers and the
// background reclaimer, and a reader must never observe a partially written
// record.
//
// Token uniqueness is guaranteed upstream by the generator; Put does not
// enforce it.
type SessionStore interface {
	// Put inserts a session record keyed by its token.
	Put(ctx context.Context, session *Session) error

	// Get returns the session for a token, or ErrSessionNotFound.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes the session for a token. Deleting an absent token is
	// not an error.
	Delete(ctx context.Context, token string) error

	// Range calls visit for each stored session over a snapshot of the
	// store, in no particular order. Returning false stops the iteration.
	// Sessions inserted or deleted during iteration may or may not be
	// visited.
	Range(ctx context.Context, visit func(session *Session) bool) error
}

// Blacklist is the set of tokens that must never again be treated as valid.
// Entries carry a TTL: once a revoked token's original expiry (plus a grace
// period) has passed, expiry alone invalidates it, so backends are free to
// drop the entry and keep the set bounded.
type Blacklist interface {
	// Add marks a token as revoked for at least ttl.
	Add(ctx context.Context, token string, ttl time.Duration) error

	// Contains reports whether a token is currently blacklisted.
	Contains(ctx context.Context, token string) (bool, error)
}

// Pruner is implemented by blacklist backends whose expired entries need an
// explicit sweep. Backends with native TTL support (Redis) evict on their
// own and do not implement it.
type Pruner interface {
	// Prune removes entries expired as of now and returns how many were
	// removed.
	Prune(ctx context.Context, now time.Time) (int, error)
}

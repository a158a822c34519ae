// File: authgate.store.inmemory.imp.go

package authgate

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is an in-memory implementation of SessionStore.
// Suitable for single-instance deployments, which is the gateway's default
// operating mode.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*Session),
	}
}

// Put inserts a session record keyed by its token.
func (m *MemorySessionStore) Put(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.Token] = session
	return nil
}

// Get returns the session for a token, or ErrSessionNotFound.
func (m *MemorySessionStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session for a token.
func (m *MemorySessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// Range visits each stored session over a snapshot taken under the read
// lock, so the visitor runs without holding the store locked and concurrent
// mutation can interleave with the sweep.
func (m *MemorySessionStore) Range(ctx context.Context, visit func(session *Session) bool) error {
	m.mu.RLock()
	snapshot := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		snapshot = append(snapshot, s)
	}
	m.mu.RUnlock()

	for _, s := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !visit(s) {
			return nil
		}
	}
	return nil
}

// Len returns the number of stored sessions. Useful for monitoring.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// blacklistEntry marks one revoked token hash with its retention deadline.
type blacklistEntry struct {
	expiresAt time.Time
}

// MemoryBlacklist is an in-memory implementation of Blacklist. Entries are
// stored as token hashes so the map never holds usable credentials, and each
// entry expires once the revoked token would have expired anyway.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	revoked map[string]blacklistEntry
}

// NewMemoryBlacklist creates an empty in-memory blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{
		revoked: make(map[string]blacklistEntry),
	}
}

// Add marks a token as revoked for at least ttl. Adding an already revoked
// token extends its retention; the operation is idempotent at the data
// level.
func (m *MemoryBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	entry := blacklistEntry{expiresAt: time.Now().Add(ttl)}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.revoked[hashToken(token)] = entry
	return nil
}

// Contains reports whether a token is currently blacklisted. An entry past
// its retention deadline reads as absent even before the pruner removes it.
func (m *MemoryBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.revoked[hashToken(token)]
	if !ok {
		return false, nil
	}
	if time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Prune removes entries whose retention deadline has passed and returns how
// many were removed.
func (m *MemoryBlacklist) Prune(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for hash, entry := range m.revoked {
		if now.After(entry.expiresAt) {
			delete(m.revoked, hash)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live blacklist entries.
func (m *MemoryBlacklist) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}

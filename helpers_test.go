package authgate

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

const testSigningKey = "test-signing-key-1234567890abcdef"

// testConfig returns a config suitable for unit tests: short sweep period,
// one-hour tokens, one trusted API key.
func testConfig() Config {
	return Config{
		ListenAddr:      ":0",
		TokenLifetime:   time.Hour,
		SweepInterval:   time.Hour, // tests trigger sweeps explicitly
		BlacklistGrace:  5 * time.Minute,
		APIKeys:         []string{"test-api-key"},
		TargetURL:       "http://downstream.invalid/hook",
		RelaySigningKey: testSigningKey,
		RelayTimeout:    5 * time.Second,
	}
}

// newTestManager builds a manager over fresh in-memory backends and returns
// the backends for direct inspection and seeding.
func newTestManager(t *testing.T) (SessionManager, *MemorySessionStore, *MemoryBlacklist) {
	t.Helper()

	store := NewMemorySessionStore()
	blacklist := NewMemoryBlacklist()

	manager, err := NewSessionManager(testConfig(), store, blacklist, slog.Default())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	return manager, store, blacklist
}

// seedSession inserts a session with an explicit expiry directly into the
// store, bypassing the manager. Used to construct already-expired records.
func seedSession(t *testing.T, store SessionStore, subjectID string, expiresAt time.Time) *Session {
	t.Helper()

	token, err := generateToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	session := &Session{
		Token:     token,
		SubjectID: subjectID,
		IssuedAt:  expiresAt.Add(-time.Hour),
		ExpiresAt: expiresAt,
	}
	if err := store.Put(context.Background(), session); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

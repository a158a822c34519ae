package authgate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SessionManager defines the token lifecycle operations of the gateway.
//
// Methods:
//   - Issue: creates a new session for a subject
//   - Refresh: atomically revokes a token and mints a replacement
//   - Revoke: terminates a session early
//   - Check: the authentication gate deciding valid/unknown/revoked/expired
type SessionManager interface {
	Issue(ctx context.Context, subjectID, deviceTag string) (*SessionResponse, error)
	Refresh(ctx context.Context, token string) (*SessionResponse, error)
	Revoke(ctx context.Context, token string) error
	Check(ctx context.Context, token string) (*CheckResult, error)
	Close() error
}

// lifecycleManager is the concrete SessionManager. It is the sole writer of
// the session store and the blacklist; the gate path only reads both.
type lifecycleManager struct {
	config    Config
	store     SessionStore
	blacklist Blacklist
	reclaimer *Reclaimer

	// mu serializes Refresh and Revoke so a refresh/revoke race on the same
	// token has exactly one winner: whichever enters the critical section
	// first blacklists the token, and the loser's re-check observes it.
	mu sync.Mutex
}

// NewSessionManager creates a session manager over the given store and
// blacklist and starts the background expiry reclaimer. The returned
// manager is safe for concurrent use. Call Close on shutdown to stop the
// reclaimer.
func NewSessionManager(config Config, store SessionStore, blacklist Blacklist, logger *slog.Logger) (SessionManager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if blacklist == nil {
		return nil, fmt.Errorf("blacklist cannot be nil")
	}
	if config.TokenLifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}

	return &lifecycleManager{
		config:    config,
		store:     store,
		blacklist: blacklist,
		reclaimer: NewReclaimer(store, blacklist, config.SweepInterval, logger),
	}, nil
}

// Issue creates a new session for subjectID and returns the token together
// with its expiry. deviceTag is optional. Issuance fails only on invalid
// input or when the secure random source is unavailable.
func (m *lifecycleManager) Issue(ctx context.Context, subjectID, deviceTag string) (*SessionResponse, error) {
	if subjectID == "" {
		return nil, ErrEmptySubject
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		SubjectID: subjectID,
		DeviceTag: deviceTag,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.TokenLifetime),
	}

	if err := m.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return m.response(session, now), nil
}

// Refresh revokes the presented token and mints a replacement carrying the
// same subject and device tag. The old token is blacklisted before the new
// one becomes visible, so no window exists where both are valid. Exactly
// one of two concurrent refreshes of the same token succeeds; the other
// fails with ErrSessionRevoked.
func (m *lifecycleManager) Refresh(ctx context.Context, token string) (*SessionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.gate(ctx, token)
	if err != nil {
		return nil, err
	}

	// Mint the replacement before retiring the old token so a generator
	// failure cannot leave the session revoked with nothing to hand back.
	newToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	if err := m.retire(ctx, session); err != nil {
		return nil, err
	}

	now := time.Now()
	replacement := &Session{
		Token:     newToken,
		SubjectID: session.SubjectID,
		DeviceTag: session.DeviceTag,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.TokenLifetime),
	}

	if err := m.store.Put(ctx, replacement); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return m.response(replacement, now), nil
}

// Revoke terminates the session for the presented token. The token is
// blacklisted until its original expiry plus the configured grace period;
// after that, expiry alone keeps it invalid. Revoking an already revoked
// token returns ErrSessionRevoked without changing any state.
func (m *lifecycleManager) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, err := m.gate(ctx, token)
	if err != nil {
		return err
	}

	return m.retire(ctx, session)
}

// Check is the authentication gate: it classifies a presented token as
// valid, unknown, revoked, or expired. The blacklist is consulted before
// the store so a revoked-and-since-expired token still reports revoked,
// which is the more informative signal. Expired records found here are
// deleted opportunistically; the reclaimer guarantees eventual cleanup
// regardless.
func (m *lifecycleManager) Check(ctx context.Context, token string) (*CheckResult, error) {
	revoked, err := m.blacklist.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup failed: %w", err)
	}
	if revoked {
		return &CheckResult{Status: StatusRevoked}, nil
	}

	session, err := m.store.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return &CheckResult{Status: StatusUnknown}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	if session.Expired(time.Now()) {
		_ = m.store.Delete(ctx, token)
		return &CheckResult{Status: StatusExpired}, nil
	}

	return &CheckResult{Status: StatusValid, Session: session}, nil
}

// Close stops the background reclaimer.
func (m *lifecycleManager) Close() error {
	return m.reclaimer.Close()
}

// gate runs Check and converts non-valid outcomes into their sentinel
// errors, returning the live session otherwise. Refresh and Revoke call it
// inside the critical section so the decision and the mutation are atomic
// with respect to other lifecycle operations.
func (m *lifecycleManager) gate(ctx context.Context, token string) (*Session, error) {
	result, err := m.Check(ctx, token)
	if err != nil {
		return nil, err
	}
	switch result.Status {
	case StatusValid:
		return result.Session, nil
	case StatusRevoked:
		return nil, ErrSessionRevoked
	case StatusExpired:
		return nil, ErrSessionExpired
	default:
		return nil, ErrSessionNotFound
	}
}

// retire blacklists a live session's token and removes it from the store.
// The blacklist entry outlives the token's natural expiry by the grace
// period only; beyond that, expiry already invalidates it.
func (m *lifecycleManager) retire(ctx context.Context, session *Session) error {
	ttl := session.Remaining(time.Now()) + m.config.BlacklistGrace
	if err := m.blacklist.Add(ctx, session.Token, ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	if err := m.store.Delete(ctx, session.Token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// response renders a session as the payload returned to the HTTP layer.
func (m *lifecycleManager) response(session *Session, now time.Time) *SessionResponse {
	return &SessionResponse{
		Token:     session.Token,
		SubjectID: session.SubjectID,
		DeviceTag: session.DeviceTag,
		IssuedAt:  session.IssuedAt,
		ExpiresAt: session.ExpiresAt,
		ExpiresIn: int64(session.ExpiresAt.Sub(now).Seconds()),
	}
}

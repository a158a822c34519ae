package authgate

import (
	"errors"
	"time"
)

// SessionStatus is the outcome of checking a presented token against the
// gateway's state. Valid is the only status under which the associated
// session may be used.
type SessionStatus string

const (
	StatusValid   SessionStatus = "valid"   // Token maps to a live session
	StatusUnknown SessionStatus = "unknown" // Token was never issued or already reclaimed
	StatusRevoked SessionStatus = "revoked" // Token was revoked or refreshed away
	StatusExpired SessionStatus = "expired" // Token is past its expiry instant
)

var (
	// ErrEmptySubject is returned when issuance is attempted without a subject.
	ErrEmptySubject = errors.New("subject ID cannot be empty")

	// ErrSessionNotFound is returned by stores when no session exists for a token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionRevoked is returned when an operation is attempted with a
	// token that has been revoked or refreshed away.
	ErrSessionRevoked = errors.New("session has been revoked")

	// ErrSessionExpired is returned when an operation is attempted with a
	// token past its expiry instant.
	ErrSessionExpired = errors.New("session has expired")

	// ErrGeneratorFailure is returned when the secure random source is
	// unavailable. The gateway never falls back to a weaker source.
	ErrGeneratorFailure = errors.New("secure random source unavailable")
)

// Session is the record associated with one issued token. All fields are
// immutable once the record has been created; a refresh mints an entirely
// new record under a new token.
//
// Fields:
//   - Token: opaque unguessable credential, unique key
//   - SubjectID: caller-supplied identity (e.g. a user ID)
//   - DeviceTag: optional caller-supplied secondary identifier
//   - IssuedAt: instant of creation
//   - ExpiresAt: IssuedAt plus the configured token lifetime
type Session struct {
	Token     string    `json:"token"`
	SubjectID string    `json:"subject_id"`
	DeviceTag string    `json:"device_tag,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry instant at the
// given time. Validity is always evaluated by wall-clock comparison, never
// by store presence alone.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Remaining returns the lifetime left at the given time, floored at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// CheckResult is the outcome of an authentication gate check. Session is
// populated only when Status is StatusValid.
type CheckResult struct {
	Status  SessionStatus
	Session *Session
}

// SessionResponse is returned after issuing or refreshing a session. It
// carries everything the HTTP layer needs to render a token response.
type SessionResponse struct {
	Token     string    `json:"token"`
	SubjectID string    `json:"subject_id"`
	DeviceTag string    `json:"device_tag,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn int64     `json:"expires_in"` // Remaining lifetime in seconds
}

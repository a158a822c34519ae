package authgate

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy drawn per token. 32 bytes (256 bits) encoded as
// 64 hex characters makes collisions a non-concern for the lifetime of a
// process.
const tokenBytes = 32

// generateToken produces a new opaque session token from the operating
// system's secure random source. It never falls back to a weaker source: if
// crypto/rand fails the error is surfaced as ErrGeneratorFailure and the
// caller must treat the condition as fatal.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneratorFailure, err)
	}
	return hex.EncodeToString(buf), nil
}

// hashToken returns the hex-encoded SHA-256 digest of a token. Blacklist
// backends store digests rather than usable credentials.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

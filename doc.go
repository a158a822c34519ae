// Package authgate implements a protective authentication gateway: it issues
// short-lived opaque bearer tokens to trusted clients, validates them on every
// request, and relays authorized payloads to a hidden downstream webhook.
//
// Features:
// - Cryptographically random, unguessable session tokens (256-bit, hex encoded)
// - Token lifecycle management: issuance, refresh with invalidation, revocation
// - TTL-bounded blacklist so revoked tokens never validate again
// - Background reclaimer that evicts expired sessions from the store
// - Pluggable session storage with in-memory (default) and Redis backends
// - Gin HTTP surface with CORS, API-key gating, and a signed webhook relay
package authgate

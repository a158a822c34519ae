// File: authgate.store.redis.imp.go

package authgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix = "authgate:session:"
	revokedPrefix = "authgate:revoked:"
)

// RedisSessionStore is a Redis-backed implementation of SessionStore.
// Sessions are stored as JSON values with a native TTL, so Redis itself
// handles expiry reclamation.
//
// The in-memory store remains the default; this backend is opt-in for
// deployments that accept the durability tradeoff.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a Redis-backed session store and verifies
// the connection.
func NewRedisSessionStore(client *redis.Client) (*RedisSessionStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisSessionStore{client: client}, nil
}

// Put stores the session as JSON under its token with a TTL matching the
// remaining session lifetime.
func (r *RedisSessionStore) Put(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	return r.client.Set(ctx, sessionPrefix+session.Token, payload, ttl).Err()
}

// Get returns the session for a token, or ErrSessionNotFound.
func (r *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := r.client.Get(ctx, sessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Delete removes the session for a token.
func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionPrefix+token).Err()
}

// Range visits each stored session using cursor-based SCAN so the server is
// never blocked on a full keyspace walk.
func (r *RedisSessionStore) Range(ctx context.Context, visit func(session *Session) bool) error {
	var cursor uint64
	const batchSize = 100

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context canceled: %w", err)
		}

		keys, newCursor, err := r.client.Scan(ctx, cursor, sessionPrefix+"*", batchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan error: %w", err)
		}

		for _, key := range keys {
			payload, err := r.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and read
			}
			if err != nil {
				return fmt.Errorf("redis error: %w", err)
			}

			var session Session
			if err := json.Unmarshal(payload, &session); err != nil {
				continue
			}
			if !visit(&session) {
				return nil
			}
		}

		if newCursor == 0 {
			return nil
		}
		cursor = newCursor
	}
}

// RedisBlacklist is a Redis-backed implementation of Blacklist. Revocation
// markers are stored under the SHA-256 hash of the token with a TTL, so the
// set stays bounded without an explicit sweep.
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist creates a Redis-backed blacklist and verifies the
// connection.
func NewRedisBlacklist(client *redis.Client) (*RedisBlacklist, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisBlacklist{client: client}, nil
}

// Add marks a token as revoked for at least ttl.
func (r *RedisBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.Set(ctx, revokedPrefix+hashToken(token), "1", ttl).Err()
}

// Contains reports whether a token is currently blacklisted.
func (r *RedisBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, revokedPrefix+hashToken(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return exists > 0, nil
}

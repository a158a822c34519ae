package authgate

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateWindow tracks request counts for one client within the current
// fixed window.
type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed window-and-count limiter keyed by client address.
// It intentionally implements no finer-grained policy: a client either has
// requests left in the current window or it waits for the next one.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateWindow
	limit   int
	window  time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window per
// client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
	}
}

// pruneThreshold is the client-map size at which Allow sheds stale windows
// before admitting a new client.
const pruneThreshold = 10000

// Allow records one request for the client and reports whether it fits in
// the current window. Stale windows are replaced on first touch, and the
// whole map is pruned once it grows past pruneThreshold, so memory stays
// bounded by the set of clients active within one window.
func (rl *RateLimiter) Allow(client string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[client]
	if !ok || now.After(w.resetAt) {
		if !ok && len(rl.clients) >= pruneThreshold {
			rl.pruneLocked(now)
		}
		rl.clients[client] = &rateWindow{count: 1, resetAt: now.Add(rl.window)}
		return true
	}

	w.count++
	return w.count <= rl.limit
}

// Prune removes windows that have already reset, bounding the client map.
func (rl *RateLimiter) Prune(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.pruneLocked(now)
}

func (rl *RateLimiter) pruneLocked(now time.Time) int {
	removed := 0
	for client, w := range rl.clients {
		if now.After(w.resetAt) {
			delete(rl.clients, client)
			removed++
		}
	}
	return removed
}

// RateLimit returns a middleware enforcing the limiter per client IP. A
// nil limiter disables limiting.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

package authgate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("Allows Up To Limit Per Window", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("10.0.0.1"))
		}
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("Clients Are Independent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
	})

	t.Run("Window Resets", func(t *testing.T) {
		limiter := NewRateLimiter(1, 10*time.Millisecond)

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		time.Sleep(15 * time.Millisecond)
		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("Prune Drops Stale Windows", func(t *testing.T) {
		limiter := NewRateLimiter(1, 10*time.Millisecond)
		limiter.Allow("10.0.0.1")
		limiter.Allow("10.0.0.2")

		time.Sleep(15 * time.Millisecond)
		assert.Equal(t, 2, limiter.Prune(time.Now()))
		assert.Zero(t, limiter.Prune(time.Now()))
	})

	t.Run("Concurrent Clients", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					assert.True(t, limiter.Allow("10.0.0.1"))
				}
			}()
		}
		wg.Wait()

		assert.False(t, limiter.Allow("10.0.0.1"))
	})
}

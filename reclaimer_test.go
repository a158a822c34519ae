package authgate

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes Expired Sessions Only", func(t *testing.T) {
		store := NewMemorySessionStore()
		blacklist := NewMemoryBlacklist()
		reclaimer := NewReclaimer(store, blacklist, time.Hour, nil)
		defer reclaimer.Close()

		live := seedSession(t, store, "live", time.Now().Add(time.Hour))
		for i := 0; i < 3; i++ {
			seedSession(t, store, fmt.Sprintf("stale%d", i), time.Now().Add(-time.Minute))
		}

		reclaimed, err := reclaimer.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, reclaimed)
		assert.Equal(t, 1, store.Len())

		_, err = store.Get(ctx, live.Token)
		require.NoError(t, err)
	})

	t.Run("Prunes Expired Blacklist Entries", func(t *testing.T) {
		store := NewMemorySessionStore()
		blacklist := NewMemoryBlacklist()
		reclaimer := NewReclaimer(store, blacklist, time.Hour, nil)
		defer reclaimer.Close()

		require.NoError(t, blacklist.Add(ctx, "stale", -time.Second))
		require.NoError(t, blacklist.Add(ctx, "live", time.Hour))

		_, err := reclaimer.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, blacklist.Len())
	})

	t.Run("Empty Store Reclaims Nothing", func(t *testing.T) {
		reclaimer := NewReclaimer(NewMemorySessionStore(), NewMemoryBlacklist(), time.Hour, nil)
		defer reclaimer.Close()

		reclaimed, err := reclaimer.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, reclaimed)
	})

	t.Run("Interleaves With Concurrent Mutation", func(t *testing.T) {
		store := NewMemorySessionStore()
		blacklist := NewMemoryBlacklist()
		reclaimer := NewReclaimer(store, blacklist, time.Hour, nil)
		defer reclaimer.Close()

		for i := 0; i < 20; i++ {
			seedSession(t, store, fmt.Sprintf("stale%d", i), time.Now().Add(-time.Minute))
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reclaimer.Sweep(ctx)
			assert.NoError(t, err)
		}()
		for i := 0; i < 10; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				seedSession(t, store, fmt.Sprintf("fresh%d", i), time.Now().Add(time.Hour))
			}()
		}
		wg.Wait()

		// Everything expired is gone; everything live survived.
		count := 0
		require.NoError(t, store.Range(ctx, func(session *Session) bool {
			assert.False(t, session.Expired(time.Now()))
			count++
			return true
		}))
		assert.Equal(t, 10, count)
	})
}

func TestReclaimerLoop(t *testing.T) {
	t.Run("Background Runs Evict Expired Sessions", func(t *testing.T) {
		store := NewMemorySessionStore()
		reclaimer := NewReclaimer(store, NewMemoryBlacklist(), 10*time.Millisecond, nil)
		defer reclaimer.Close()

		seedSession(t, store, "stale", time.Now().Add(-time.Minute))

		require.Eventually(t, func() bool {
			return store.Len() == 0
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Close Is Safe To Call Twice", func(t *testing.T) {
		reclaimer := NewReclaimer(NewMemorySessionStore(), NewMemoryBlacklist(), 10*time.Millisecond, nil)
		require.NoError(t, reclaimer.Close())
		require.NoError(t, reclaimer.Close())
	})
}

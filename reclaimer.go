package authgate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reclaimer periodically sweeps the session store and evicts records past
// their expiry instant. A missed or partial sweep is self-healing: the
// authentication gate checks expiry by timestamp on every request, so the
// sweep only bounds memory, it never decides validity.
type Reclaimer struct {
	store     SessionStore
	blacklist Blacklist
	interval  time.Duration
	logger    *slog.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewReclaimer creates a reclaimer and starts its background sweep loop.
// interval defaults to 60 seconds when non-positive. Call Close to stop the
// loop when shutting down.
func NewReclaimer(store SessionStore, blacklist Blacklist, interval time.Duration, logger *slog.Logger) *Reclaimer {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reclaimer{
		store:     store,
		blacklist: blacklist,
		interval:  interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}

	go r.run()

	return r
}

// run executes sweeps on a fixed period until Close is called. A failed
// sweep is logged and the next scheduled run proceeds normally.
func (r *Reclaimer) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.interval)
			reclaimed, err := r.Sweep(ctx)
			cancel()
			if err != nil {
				r.logger.Error("session sweep failed", "error", err)
				continue
			}
			if reclaimed > 0 {
				r.logger.Info("session sweep complete", "reclaimed", reclaimed)
			}
		}
	}
}

// Sweep snapshot-iterates the session store, deletes every record past its
// expiry instant, and prunes expired blacklist entries. It returns the
// number of sessions reclaimed. A record concurrently refreshed or revoked
// mid-sweep has already left the store, so the extra delete is a no-op and
// nothing is resurrected.
func (r *Reclaimer) Sweep(ctx context.Context) (int, error) {
	now := time.Now()

	var expired []string
	err := r.store.Range(ctx, func(session *Session) bool {
		if now.After(session.ExpiresAt) {
			expired = append(expired, session.Token)
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, token := range expired {
		if err := r.store.Delete(ctx, token); err != nil {
			return reclaimed, err
		}
		reclaimed++
	}

	if pruner, ok := r.blacklist.(Pruner); ok {
		if _, err := pruner.Prune(ctx, now); err != nil {
			return reclaimed, err
		}
	}

	return reclaimed, nil
}

// Close stops the background sweep loop. Safe to call more than once.
func (r *Reclaimer) Close() error {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	return nil
}

package catalog

import (
	"context"
	"myStyleFit/pkg/logger"
	"time"
)

// Refresher reloads the store on a fixed interval until ctx is cancelled.
type Refresher struct {
	store    *Store
	interval time.Duration
	timeout  time.Duration
}

func NewRefresher(store *Store, interval time.Duration) *Refresher {
	return &Refresher{
		store:    store,
		interval: interval,
		timeout:  2 * time.Minute,
	}
}

func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

func (r *Refresher) refreshOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.store.Refresh(ctx); err != nil {
		logger.Error("catalog_periodic_refresh_failed", "error", err)
	}
}

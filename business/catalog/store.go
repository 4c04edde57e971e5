package catalog

import (
	"context"
	"fmt"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"sync"
	"sync/atomic"
	"time"
)

// Loader reads the full product catalog, embeddings included, from storage.
type Loader interface {
	LoadProducts(ctx context.Context) ([]domain.ProductRecord, error)
}

// Store owns the current catalog snapshot. Readers take the snapshot pointer
// once per request; Refresh builds a new snapshot and swaps the pointer.
type Store struct {
	loader    Loader
	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
}

func NewStore(loader Loader) *Store {
	return &Store{loader: loader}
}

// Current returns the installed snapshot, or nil when no load has succeeded.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Snapshot is Current with the unavailability check folded in.
func (s *Store) Snapshot() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrDataUnavailable
	}
	return snap, nil
}

// Install swaps in an already-built snapshot.
func (s *Store) Install(snap *Snapshot) {
	s.current.Store(snap)
	catalogProducts.Set(float64(snap.Len()))
}

// Refresh loads the catalog and installs it. On failure the previous snapshot
// stays in place.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()

	records, err := s.loader.LoadProducts(ctx)
	if err != nil {
		catalogRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	snap, err := NewSnapshot(records)
	if err != nil {
		catalogRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build catalog snapshot: %w", err)
	}

	if dropped := snap.DroppedEmbeddings(); len(dropped) > 0 {
		logger.Warn("catalog_embedding_dimension_mismatch",
			"dim", snap.Dim(),
			"dropped_count", len(dropped),
		)
	}

	s.Install(snap)
	catalogRefreshes.WithLabelValues("ok").Inc()

	logger.Info("catalog_refreshed",
		"products", snap.Len(),
		"dim", snap.Dim(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return snap, nil
}

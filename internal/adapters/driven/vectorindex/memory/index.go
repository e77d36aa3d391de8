// Package memory provides an in-process vector index. Entries are lost
// when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine index held in a map.
type Index struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]domain.IndexEntry
}

// NewIndex creates an empty index. EnsureIndex must be called before Upsert.
func NewIndex() *Index {
	return &Index{entries: make(map[string]domain.IndexEntry)}
}

// EnsureIndex fixes the dimensionality on first call. Later calls with a
// different size keep the existing index and log a warning.
func (i *Index) EnsureIndex(_ context.Context, dimensions int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dims == 0 {
		i.dims = dimensions
		return nil
	}
	if i.dims != dimensions {
		logger.Warn("memory index has %d dimensions, embedder reports %d; keeping existing index",
			i.dims, dimensions)
	}
	return nil
}

// Upsert stores entries by id, replacing existing ones.
func (i *Index) Upsert(_ context.Context, entries []domain.IndexEntry) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dims == 0 {
		return 0, fmt.Errorf("%w: memory index not created", domain.ErrNotFound)
	}
	for _, e := range entries {
		if err := vectorindex.CheckDimensions(i.dims, e.Vector); err != nil {
			return 0, fmt.Errorf("entry %s: %w", e.ID, err)
		}
	}
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		i.entries[e.ID] = e
	}
	return len(entries), nil
}

// Query ranks every stored entry against vector.
func (i *Index) Query(_ context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.entries) == 0 {
		return nil, nil
	}
	if err := vectorindex.CheckDimensions(i.dims, vector); err != nil {
		return nil, err
	}

	all := make([]domain.IndexEntry, 0, len(i.entries))
	for _, e := range i.entries {
		all = append(all, e)
	}
	return vectorindex.Rank(vector, all, topK), nil
}

// Count returns the number of stored entries.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

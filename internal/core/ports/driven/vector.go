package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex stores chunk vectors with their text and source,
// and answers top-k similarity queries.
//
// Implementations may include:
//   - In-memory brute force (tests, throwaway sessions)
//   - SQLite and bbolt files (single-user local persistence)
//   - Qdrant (remote vector database service)
type VectorIndex interface {
	// EnsureIndex creates the index with the given dimensionality if it does not exist.
	// An existing index is reused as-is.
	EnsureIndex(ctx context.Context, dimensions int) error

	// Upsert stores one entry per chunk, keyed by the chunk id.
	// Entries with an existing id are replaced. Returns the number of entries written.
	Upsert(ctx context.Context, entries []domain.IndexEntry) (int, error)

	// Query returns at most topK matches ordered by descending similarity.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// EnsureIndex creates the vector index for the embedder's dimensionality
// if it does not exist yet. It is safe to call on every start.
func EnsureIndex(ctx context.Context, index driven.VectorIndex, embedder driven.EmbeddingService) error {
	dims := embedder.Dimensions()
	if dims <= 0 {
		return fmt.Errorf("%w: embedder %s reports %d dimensions", domain.ErrInvalidInput, embedder.ModelName(), dims)
	}
	if err := index.EnsureIndex(ctx, dims); err != nil {
		return fmt.Errorf("%w: ensure index: %w", domain.ErrIndex, err)
	}
	logger.Debug("vector index ready (%d dimensions)", dims)
	return nil
}

// upsertChunks pairs each chunk with its embedding and writes the entries.
// An empty batch is a no-op.
func upsertChunks(
	ctx context.Context,
	index driven.VectorIndex,
	chunks []domain.Chunk,
	embeddings [][]float32,
) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, fmt.Errorf("%w: %d chunks but %d embeddings",
			domain.ErrInvalidInput, len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		logger.Warn("no chunks to upsert, skipping")
		return 0, nil
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.NewIndexEntry(chunks[i], embeddings[i])
	}

	n, err := index.Upsert(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("%w: upsert %s: %w", domain.ErrIndex, chunks[0].Source, err)
	}

	logger.Info("upserted %d entries for %s", n, chunks[0].Source)
	return n, nil
}

// queryIndex returns the topK nearest entries. A failing index yields no
// matches so the caller can still answer.
func queryIndex(ctx context.Context, index driven.VectorIndex, vector []float32, topK int) []domain.QueryMatch {
	matches, err := index.Query(ctx, vector, topK)
	if err != nil {
		logger.Warn("vector query failed, continuing without context: %v", err)
		return nil
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

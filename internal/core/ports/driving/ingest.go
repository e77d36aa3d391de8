package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestService indexes documents from object storage.
type IngestService interface {
	// IngestAll processes every accepted document in the store.
	// Per-document failures are recorded in the report; only a failure to
	// list the corpus is returned as an error.
	IngestAll(ctx context.Context, opts IngestOptions) (*domain.IngestReport, error)

	// Accepts reports whether documents named name are ingested by IngestAll.
	Accepts(name string) bool

	// IngestDocument processes a single named document.
	IngestDocument(ctx context.Context, name string) domain.IngestOutcome

	// Upload stores a local file in object storage under its base name,
	// extracts its text and returns the chunks.
	Upload(ctx context.Context, localPath string) ([]domain.Chunk, error)

	// IndexChunks embeds and upserts already-chunked text.
	IndexChunks(ctx context.Context, chunks []domain.Chunk) (int, error)
}

// IngestOptions configures a corpus ingestion pass.
type IngestOptions struct {
	// Prefix restricts ingestion to names starting with it.
	Prefix string

	// OnProgress is called after each document is attempted.
	// done counts attempted documents out of total accepted ones.
	OnProgress func(done, total int, outcome domain.IngestOutcome)
}

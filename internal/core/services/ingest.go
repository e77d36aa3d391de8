package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const defaultRetryBase = 500 * time.Millisecond

// IngestService turns stored documents into index entries.
// Documents are processed one at a time.
type IngestService struct {
	store     driven.ObjectStore
	extractor driven.TextExtractor
	chunker   driven.Chunker
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	settings  domain.IngestSettings

	tempDir   string
	retryBase time.Duration
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithTempDir sets the directory documents are spooled into before extraction.
// Defaults to the system temp directory.
func WithTempDir(dir string) IngestOption {
	return func(s *IngestService) {
		s.tempDir = dir
	}
}

// WithRetryBase sets the initial backoff between embedding retries.
func WithRetryBase(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.retryBase = d
		}
	}
}

// NewIngestService creates an ingestion service.
func NewIngestService(
	store driven.ObjectStore,
	extractor driven.TextExtractor,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings domain.IngestSettings,
	opts ...IngestOption,
) *IngestService {
	if len(settings.MediaTypes) == 0 {
		settings.MediaTypes = []domain.MediaType{domain.MediaTypePDF}
	}
	s := &IngestService{
		store:     store,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		settings:  settings,
		retryBase: defaultRetryBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Accepts reports whether documents named name are ingested.
func (s *IngestService) Accepts(name string) bool {
	mt := domain.MediaTypeFromName(name)
	return mt != domain.MediaTypeUnknown && slices.Contains(s.settings.MediaTypes, mt)
}

// IngestAll ingests every accepted document in the store.
func (s *IngestService) IngestAll(ctx context.Context, opts driving.IngestOptions) (*domain.IngestReport, error) {
	report := &domain.IngestReport{RunID: uuid.NewString(), IndexSize: -1}

	names, err := s.store.List(ctx, opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var accepted []string
	for _, name := range names {
		if !s.Accepts(name) {
			logger.Info("skipping %s: media type %s not accepted", name, domain.MediaTypeFromName(name))
			report.Skipped = append(report.Skipped, name)
			continue
		}
		accepted = append(accepted, name)
	}
	logger.Info("run %s: ingesting %d documents (%d skipped)", report.RunID, len(accepted), len(report.Skipped))

	for i, name := range accepted {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		outcome := s.IngestDocument(ctx, name)
		if outcome.OK() {
			logger.Debug("run %s: ingested %s (%d chunks)", report.RunID, name, outcome.Chunks)
		} else {
			logger.Warn("run %s: failed to ingest %s: %v", report.RunID, name, outcome.Err)
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(accepted), outcome)
		}
	}

	if n, err := s.index.Count(ctx); err != nil {
		logger.Warn("run %s: counting index entries: %v", report.RunID, err)
	} else {
		report.IndexSize = n
	}

	logger.Info("run %s: finished, %d succeeded, %d failed, %d chunks, index holds %d entries",
		report.RunID, len(report.Succeeded()), len(report.Failed()), report.TotalChunks(), report.IndexSize)
	return report, nil
}

// IngestDocument fetches, extracts, chunks, embeds and upserts one document.
func (s *IngestService) IngestDocument(ctx context.Context, name string) domain.IngestOutcome {
	n, err := s.ingest(ctx, name)
	return domain.IngestOutcome{Document: name, Chunks: n, Err: err}
}

func (s *IngestService) ingest(ctx context.Context, name string) (int, error) {
	mt := domain.MediaTypeFromName(name)
	if mt == domain.MediaTypeUnknown {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, name)
	}

	spooled, err := s.spool(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	defer func() {
		if rmErr := os.Remove(spooled); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logger.Warn("failed to remove temp file %s: %v", spooled, rmErr)
		}
	}()

	text, err := s.extractor.Extract(ctx, spooled, mt)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
	}

	chunks := domain.NewChunks(name, s.chunker.Split(text))
	logger.Debug("%s: %d characters, %d chunks", name, len(text), len(chunks))

	return s.IndexChunks(ctx, chunks)
}

// spool copies the named object into a temp file and returns its path.
// On error no file is left behind.
func (s *IngestService) spool(ctx context.Context, name string) (string, error) {
	rc, err := s.store.Fetch(ctx, name)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", name, err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(s.tempDir, "docqa-*"+path.Ext(name))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, copyErr := io.Copy(f, rc)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	return f.Name(), nil
}

// IndexChunks embeds chunks in a single batch and upserts them.
// Transient embedding failures are retried with exponential backoff.
func (s *IngestService) IndexChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return upsertChunks(ctx, s.index, nil, nil)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var vectors [][]float32
	backoff := retry.WithMaxRetries(uint64(max(s.settings.EmbedRetries, 0)), retry.NewExponential(s.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = s.embedder.Embed(ctx, texts...)
		if embedErr != nil {
			logger.Debug("embedding %s failed: %v", chunks[0].Source, embedErr)
			return retry.RetryableError(embedErr)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrEmbedding, chunks[0].Source, err)
	}

	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("%w: %s: got %d vectors for %d chunks",
			domain.ErrEmbedding, chunks[0].Source, len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return 0, fmt.Errorf("%w: %s: empty vector for chunk %d", domain.ErrEmbedding, chunks[0].Source, i)
		}
	}

	return upsertChunks(ctx, s.index, chunks, vectors)
}

// Upload stores a local file under its base name, extracts its text and
// returns the resulting chunks without indexing them.
func (s *IngestService) Upload(ctx context.Context, localPath string) ([]domain.Chunk, error) {
	name := filepath.Base(localPath)
	mt := domain.MediaTypeFromName(name)
	if mt == domain.MediaTypeUnknown {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, name)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrNotFound, localPath, err)
	}
	defer f.Close()

	if err := s.store.Store(ctx, name, f); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	logger.Info("uploaded %s", name)

	text, err := s.extractor.Extract(ctx, localPath, mt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, name, err)
	}

	return domain.NewChunks(name, s.chunker.Split(text)), nil
}

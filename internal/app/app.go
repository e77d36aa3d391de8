// Package app assembles the adapters and services selected by the
// application settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/objectstore/filesystem"
	"github.com/custodia-labs/docqa/internal/adapters/driven/objectstore/gcs"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/bolt"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/qdrant"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex/sqlite"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// defaultDocumentsDir is the filesystem storage root inside the config directory.
const defaultDocumentsDir = "documents"

// App holds the wired pipeline services and everything they keep open.
type App struct {
	Ingest  *services.IngestService
	Query   *services.QueryService
	ChatLog *services.ChatLogService

	// Watcher is set when the object store can report changes.
	Watcher driven.ObjectWatcher

	closers []io.Closer
}

// Close releases the index, the object store and the model clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewSettingsService opens the config file in configDir and returns a
// settings service backed by it. An empty configDir means ~/.docqa.
func NewSettingsService(configDir string) (*services.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store, ai.NewConfigValidator()), nil
}

// Build creates the model clients, vector index and object store described
// by settings and wires the pipeline services on top of them.
// The vector index is created if it does not exist yet.
func Build(ctx context.Context, settings domain.AppSettings, configDir string) (*App, error) {
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = dir
	}

	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	models, err := ai.NewServices(ctx, settings)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closerFunc(func() error {
		models.Close()
		return nil
	}))

	index, err := OpenVectorIndex(settings.VectorIndex)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, index)

	if err := services.EnsureIndex(ctx, index, models.Embedding); err != nil {
		return nil, err
	}

	store, err := OpenObjectStore(ctx, settings.Storage, configDir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)
	if w, isWatcher := store.(driven.ObjectWatcher); isWatcher {
		a.Watcher = w
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, err
	}

	split := chunker.New(
		chunker.WithChunkSize(settings.Ingest.ChunkSize),
		chunker.WithOverlap(settings.Ingest.ChunkOverlap),
	)

	a.Ingest = services.NewIngestService(
		store, extractors.Default(), split, models.Embedding, index, settings.Ingest,
	)
	a.Query = services.NewQueryService(
		models.Embedding, index, models.LLM, prompts, settings.Query,
		services.WithStateObserver(func(s services.QueryState) {
			logger.Debug("query state: %s", s)
		}),
	)
	a.ChatLog = services.NewChatLogService(store)

	logger.Debug("pipeline ready: %s index %q, %s storage",
		settings.VectorIndex.Backend, settings.VectorIndex.IndexName, settings.Storage.Backend)
	ok = true
	return a, nil
}

// OpenVectorIndex opens the vector index backend named in settings.
func OpenVectorIndex(settings domain.VectorIndexSettings) (driven.VectorIndex, error) {
	name := settings.IndexName
	if name == "" {
		name = domain.DefaultIndexName
	}

	switch settings.Backend {
	case domain.VectorBackendMemory:
		return memory.NewIndex(), nil
	case domain.VectorBackendSQLite, "":
		return sqlite.Open(settings.Path, name)
	case domain.VectorBackendBolt:
		return bolt.Open(settings.Path, name)
	case domain.VectorBackendQdrant:
		return qdrant.NewIndex(qdrant.Config{
			URL:        settings.URL,
			APIKey:     settings.APIKey,
			Collection: name,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// OpenObjectStore opens the object storage backend named in settings.
// The filesystem backend defaults to a documents directory inside configDir.
func OpenObjectStore(
	ctx context.Context, settings domain.StorageSettings, configDir string,
) (driven.ObjectStore, error) {
	switch settings.Backend {
	case domain.StorageBackendFilesystem, "":
		root := settings.Root
		if root == "" {
			root = filepath.Join(configDir, defaultDocumentsDir)
		}
		return filesystem.NewStore(root)
	case domain.StorageBackendGCS:
		return gcs.NewStore(ctx, gcs.Config{
			Bucket: settings.Bucket,
			Prefix: settings.Prefix,
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

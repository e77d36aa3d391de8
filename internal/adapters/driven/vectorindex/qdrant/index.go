// Package qdrant provides a vector index backed by a Qdrant collection,
// spoken to over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL     = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Qdrant point ids must be integers or UUIDs, so chunk ids map onto
// name-based UUIDs and travel in the payload.
const payloadChunkID = "chunk_id"

var errCollectionMissing = errors.New("collection does not exist")

// Config holds configuration for the Qdrant index.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Index stores entries as points in one collection using Cosine distance.
type Index struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string

	mu   sync.Mutex
	dims int
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	Score   float64 `json:"score"`
	Payload struct {
		ChunkID string `json:"chunk_id"`
		Text    string `json:"text"`
		Source  string `json:"source"`
	} `json:"payload"`
}

type collectionInfo struct {
	Config struct {
		Params struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

// NewIndex creates a Qdrant index client. No request is made until EnsureIndex.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}, nil
}

// PointID returns the UUID a chunk id is stored under.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// EnsureIndex creates the collection with Cosine distance if it does not exist.
// An existing collection is reused; a size mismatch is logged.
func (i *Index) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	existing, err := i.collectionSize(ctx)
	switch {
	case err == nil:
		if existing != dimensions {
			logger.Warn("collection %q has %d dimensions, embedder reports %d; keeping existing collection",
				i.collection, existing, dimensions)
		}
		i.dims = existing
		return nil
	case !errors.Is(err, errCollectionMissing):
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{"size": dimensions, "distance": "Cosine"},
	}
	if err := i.do(ctx, http.MethodPut, i.collectionPath(""), body, nil); err != nil {
		return fmt.Errorf("creating collection %q: %w", i.collection, err)
	}
	logger.Info("created qdrant collection %q (%d dimensions)", i.collection, dimensions)
	i.dims = dimensions
	return nil
}

// Upsert writes all entries as points and waits for the write to apply.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if dims := i.knownDimensions(); dims > 0 {
		for _, e := range entries {
			if err := vectorindex.CheckDimensions(dims, e.Vector); err != nil {
				return 0, fmt.Errorf("entry %s: %w", e.ID, err)
			}
		}
	}

	points := make([]point, len(entries))
	for n, e := range entries {
		points[n] = point{
			ID:     PointID(e.ID),
			Vector: e.Vector,
			Payload: map[string]any{
				payloadChunkID: e.ID,
				"text":         e.Metadata.Text,
				"source":       e.Metadata.Source,
			},
		}
	}

	body := map[string]any{"points": points}
	if err := i.do(ctx, http.MethodPut, i.collectionPath("/points?wait=true"), body, nil); err != nil {
		return 0, fmt.Errorf("upserting points: %w", err)
	}
	return len(entries), nil
}

// Query runs a server-side similarity search. A missing collection has no matches.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	if dims := i.knownDimensions(); dims > 0 {
		if err := vectorindex.CheckDimensions(dims, vector); err != nil {
			return nil, err
		}
	}

	body := map[string]any{"vector": vector, "limit": topK, "with_payload": true}
	var result []scoredPoint
	err := i.do(ctx, http.MethodPost, i.collectionPath("/points/search"), body, &result)
	if errors.Is(err, errCollectionMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	matches := make([]domain.QueryMatch, len(result))
	for n, r := range result {
		matches[n] = domain.QueryMatch{
			ID:       r.Payload.ChunkID,
			Score:    r.Score,
			Metadata: domain.Metadata{Text: r.Payload.Text, Source: r.Payload.Source},
		}
	}
	return matches, nil
}

// Count returns the exact number of points in the collection.
func (i *Index) Count(ctx context.Context) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	err := i.do(ctx, http.MethodPost, i.collectionPath("/points/count"), map[string]any{"exact": true}, &result)
	if errors.Is(err, errCollectionMissing) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return result.Count, nil
}

// Close releases idle connections.
func (i *Index) Close() error {
	i.client.CloseIdleConnections()
	return nil
}

func (i *Index) knownDimensions() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.dims
}

func (i *Index) collectionSize(ctx context.Context) (int, error) {
	var info collectionInfo
	if err := i.do(ctx, http.MethodGet, i.collectionPath(""), nil, &info); err != nil {
		return 0, err
	}
	return info.Config.Params.Vectors.Size, nil
}

func (i *Index) collectionPath(suffix string) string {
	return i.baseURL + "/collections/" + url.PathEscape(i.collection) + suffix
}

// do sends a JSON request and decodes the "result" field of the response into out.
func (i *Index) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("api-key", i.apiKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", errCollectionMissing, i.collection)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, req.URL.Path, resp.StatusCode, string(msg))
	}
	if out == nil {
		return nil
	}

	envelope := struct {
		Result json.RawMessage `json:"result"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

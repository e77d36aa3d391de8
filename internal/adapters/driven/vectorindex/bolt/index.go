// Package bolt provides a vector index persisted in a bbolt file.
//
// Each named index is a bucket of JSON records keyed by entry id. A meta
// bucket records the dimensionality of every index in the file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultFileName is the database file created inside the data directory.
const DefaultFileName = "vectors.bolt"

var bucketMeta = []byte("_indexes")

type storedEntry struct {
	Vector []float32 `json:"v"`
	Text   string    `json:"t"`
	Source string    `json:"s"`
}

// Index is one named vector index inside a bbolt file.
type Index struct {
	db   *bbolt.DB
	name []byte
}

// Open opens (creating if needed) the bbolt file at path and binds the index name.
// If path is empty, defaults to ~/.docqa/data/vectors.bolt.
func Open(path, name string) (*Index, error) {
	if name == "" || name == string(bucketMeta) {
		return nil, fmt.Errorf("%w: invalid index name %q", domain.ErrInvalidInput, name)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".docqa", "data", DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating meta bucket: %w", err)
	}

	return &Index{db: db, name: []byte(name)}, nil
}

// EnsureIndex creates the index bucket if absent. An existing index keeps
// its dimensionality; a different request is logged and ignored.
func (i *Index) EnsureIndex(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	return i.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if existing, ok := readDimensions(meta, i.name); ok {
			if existing != dimensions {
				logger.Warn("index %q has %d dimensions, embedder reports %d; keeping existing index",
					i.name, existing, dimensions)
			}
			return nil
		}

		if _, err := tx.CreateBucketIfNotExists(i.name); err != nil {
			return fmt.Errorf("creating index bucket: %w", err)
		}
		logger.Info("created vector index %q (%d dimensions)", i.name, dimensions)
		return meta.Put(i.name, []byte(strconv.Itoa(dimensions)))
	})
}

// Upsert writes entries in one transaction. Any wrong-length vector rejects the batch.
func (i *Index) Upsert(_ context.Context, entries []domain.IndexEntry) (int, error) {
	err := i.db.Update(func(tx *bbolt.Tx) error {
		dims, ok := readDimensions(tx.Bucket(bucketMeta), i.name)
		bucket := tx.Bucket(i.name)
		if !ok || bucket == nil {
			return fmt.Errorf("%w: index %q", domain.ErrNotFound, i.name)
		}

		for _, e := range entries {
			if err := vectorindex.CheckDimensions(dims, e.Vector); err != nil {
				return fmt.Errorf("entry %s: %w", e.ID, err)
			}
			data, err := json.Marshal(storedEntry{Vector: e.Vector, Text: e.Metadata.Text, Source: e.Metadata.Source})
			if err != nil {
				return fmt.Errorf("marshal entry %s: %w", e.ID, err)
			}
			if err := bucket.Put([]byte(e.ID), data); err != nil {
				return fmt.Errorf("put entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Query scans the index bucket and ranks every entry against vector.
// An index that was never created has no matches.
func (i *Index) Query(_ context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	var entries []domain.IndexEntry
	err := i.db.View(func(tx *bbolt.Tx) error {
		dims, ok := readDimensions(tx.Bucket(bucketMeta), i.name)
		bucket := tx.Bucket(i.name)
		if !ok || bucket == nil {
			return nil
		}
		if err := vectorindex.CheckDimensions(dims, vector); err != nil {
			return err
		}

		return bucket.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("decode entry %s: %w", k, err)
			}
			entries = append(entries, domain.IndexEntry{
				ID:       string(k),
				Vector:   stored.Vector,
				Metadata: domain.Metadata{Text: stored.Text, Source: stored.Source},
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return vectorindex.Rank(vector, entries, topK), nil
}

// Count returns the number of entries in the index.
func (i *Index) Count(_ context.Context) (int, error) {
	var n int
	err := i.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(i.name); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Close closes the bolt file.
func (i *Index) Close() error {
	return i.db.Close()
}

func readDimensions(meta *bbolt.Bucket, name []byte) (int, bool) {
	raw := meta.Get(name)
	if raw == nil {
		return 0, false
	}
	dims, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return dims, true
}

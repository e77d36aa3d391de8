// Package gcs provides an object store backed by a Google Cloud Storage bucket.
//
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS (a file path or the
// JSON itself) when set, and application default credentials otherwise.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ObjectStore = (*Store)(nil)

// Request timeouts.
const (
	listTimeout  = 30 * time.Second
	writeTimeout = 2 * time.Minute
	readTimeout  = 2 * time.Minute
)

// Config holds configuration for the GCS store.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// Prefix scopes every object name, e.g. "docqa/".
	Prefix string

	// ClientOptions are passed to storage.NewClient after the credential options.
	ClientOptions []option.ClientOption
}

// Store maps object names onto bucket keys under a fixed prefix.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewStore creates a storage client for the configured bucket.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", domain.ErrInvalidInput)
	}

	opts := append(credentialOptions(), option.WithScopes(storage.ScopeReadWrite))
	opts = append(opts, cfg.ClientOptions...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Store{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		prefix: normalizePrefix(cfg.Prefix),
	}, nil
}

// List returns object names under prefix, relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.key(prefix)})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, strings.TrimPrefix(attrs.Name, s.prefix))
	}
	sort.Strings(names)
	return names, nil
}

// Fetch opens a reader for the named object. The reader owns its timeout
// and releases it on Close.
func (s *Store) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)

	r, err := s.bucket.Object(s.key(name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		cancel()
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return &cancelOnClose{ReadCloser: r, cancel: cancel}, nil
}

// Store uploads data under name.
func (s *Store) Store(ctx context.Context, name string, data io.Reader) error {
	if name == "" {
		return fmt.Errorf("%w: object name is required", domain.ErrInvalidInput)
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	w := s.bucket.Object(s.key(name)).NewWriter(ctx)
	w.ContentType = ContentType(name)
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing writer for %s: %w", name, err)
	}
	return nil
}

// Close closes the storage client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return s.prefix + strings.TrimPrefix(name, "/")
}

// ContentType guesses the MIME type stored with an object from its extension.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func credentialOptions() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

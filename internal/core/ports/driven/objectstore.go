package driven

import (
	"context"
	"io"
)

// ObjectStore is durable storage for raw documents and interaction logs.
// Names are slash-separated and relative to the store's root.
type ObjectStore interface {
	// List returns the names of all objects whose name starts with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Fetch opens the named object for reading.
	// Returns domain.ErrNotFound if it does not exist.
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)

	// Store writes data under name, replacing any existing object.
	Store(ctx context.Context, name string, data io.Reader) error

	// Close releases resources.
	Close() error
}

// ObjectWatcher is implemented by stores that can report changed objects.
type ObjectWatcher interface {
	// Watch calls fn with the name of every object created or modified
	// until ctx is cancelled.
	Watch(ctx context.Context, fn func(name string)) error
}

// Package filesystem provides an object store rooted at a local directory.
//
// Object names are slash-separated paths relative to the root. Hidden files
// and directories (leading ".") are never listed or watched.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.ObjectStore   = (*Store)(nil)
	_ driven.ObjectWatcher = (*Store)(nil)
)

// Store keeps objects as files under a root directory.
type Store struct {
	root     string
	includes []string
	excludes []string
	debounce time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithInclude limits List and Watch to names matching any of the doublestar patterns.
func WithInclude(patterns ...string) Option {
	return func(s *Store) {
		s.includes = append(s.includes, patterns...)
	}
}

// WithExclude hides names matching any of the doublestar patterns.
func WithExclude(patterns ...string) Option {
	return func(s *Store) {
		s.excludes = append(s.excludes, patterns...)
	}
}

// NewStore creates the root directory if needed and returns a store over it.
func NewStore(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: storage root is required", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("creating root: %w", err)
	}

	s := &Store{root: abs, debounce: defaultDebounce}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range append(append([]string{}, s.includes...), s.excludes...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad pattern %q", domain.ErrInvalidInput, p)
		}
	}
	return s, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// List walks the root and returns matching object names in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == s.root {
			return nil
		}

		name, err := s.objectName(p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, prefix) && s.matches(name) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.root, err)
	}

	sort.Strings(names)
	return names, nil
}

// Fetch opens the named file.
func (s *Store) Fetch(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// Store writes data to a temp file next to the target and renames it into
// place, so readers never see a partial object.
func (s *Store) Store(ctx context.Context, name string, data io.Reader) error {
	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: data}); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// resolve maps an object name to a path inside the root.
func (s *Store) resolve(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if name == "" || clean == "." || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: object name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *Store) objectName(p string) (string, error) {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// matches applies hidden-file, include and exclude filters to a file name.
func (s *Store) matches(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if isHidden(part) {
			return false
		}
	}
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return false
		}
	}
	if len(s.includes) == 0 {
		return true
	}
	for _, pattern := range s.includes {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package extractors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors/pdf"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry routes each media type to the extractor registered for it.
// Later registrations replace earlier ones for the same type.
type Registry struct {
	byType map[domain.MediaType]driven.TextExtractor
}

// NewRegistry creates a registry from the given extractors.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byType: make(map[domain.MediaType]driven.TextExtractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Default returns a registry with the PDF and plain text extractors.
func Default() *Registry {
	return NewRegistry(pdf.New(), plaintext.New())
}

// Register adds e for every media type it supports.
func (r *Registry) Register(e driven.TextExtractor) {
	for _, mt := range e.SupportedMediaTypes() {
		r.byType[mt] = e
	}
}

// SupportedMediaTypes returns every registered media type, sorted.
func (r *Registry) SupportedMediaTypes() []domain.MediaType {
	types := make([]domain.MediaType, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Extract checks the file exists, then delegates to the extractor for mediaType.
func (r *Registry) Extract(ctx context.Context, path string, mediaType domain.MediaType) (string, error) {
	e, ok := r.byType[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mediaType)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return e.Extract(ctx, path, mediaType)
}

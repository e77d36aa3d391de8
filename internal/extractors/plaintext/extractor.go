// Package plaintext reads UTF-8 text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor returns file contents as-is, replacing invalid UTF-8.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []domain.MediaType {
	return []domain.MediaType{domain.MediaTypeText}
}

// Extract reads the whole file.
func (e *Extractor) Extract(_ context.Context, path string, mediaType domain.MediaType) (string, error) {
	if mediaType != domain.MediaTypeText {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mediaType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// TextExtractor converts document bytes into plain text.
type TextExtractor interface {
	// SupportedMediaTypes returns the media types this extractor handles.
	SupportedMediaTypes() []domain.MediaType

	// Extract reads the document at path and returns its text.
	// Returns domain.ErrNotFound if the file cannot be opened and
	// domain.ErrUnsupportedType for media types it does not handle.
	Extract(ctx context.Context, path string, mediaType domain.MediaType) (string, error)
}

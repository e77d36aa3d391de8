// Package pdf extracts text from PDF files using a pure Go reader.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads the text layer of every page. Scanned pages without
// a text layer contribute nothing.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMediaTypes returns the media types this extractor handles.
func (e *Extractor) SupportedMediaTypes() []domain.MediaType {
	return []domain.MediaType{domain.MediaTypePDF}
}

// Extract returns the text of all pages joined by a single space.
func (e *Extractor) Extract(ctx context.Context, path string, mediaType domain.MediaType) (text string, err error) {
	if mediaType != domain.MediaTypePDF {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mediaType)
	}

	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("reading page %d of %s: %w", i, path, err)
		}
		pages = append(pages, content)
	}

	text = strings.Join(pages, " ")
	logger.Debug("extracted %d pages (%d chars) from %s", len(pages), len(text), path)
	return text, nil
}

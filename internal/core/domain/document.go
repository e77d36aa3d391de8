package domain

import (
	"fmt"
	"path"
	"strings"
)

// MediaType identifies how a document's bytes are turned into text.
type MediaType string

// Known media types.
const (
	// MediaTypePDF is a Portable Document Format file.
	MediaTypePDF MediaType = "pdf"

	// MediaTypeText is UTF-8 plain text.
	MediaTypeText MediaType = "text"

	// MediaTypeUnknown is anything else.
	MediaTypeUnknown MediaType = ""
)

// MediaTypeFromName derives the media type from a document name's extension.
// Matching is case-insensitive.
func MediaTypeFromName(name string) MediaType {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return MediaTypePDF
	case ".txt":
		return MediaTypeText
	default:
		return MediaTypeUnknown
	}
}

// ParseMediaType converts a configured string into a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypePDF:
		return MediaTypePDF, nil
	case MediaTypeText:
		return MediaTypeText, nil
	default:
		return MediaTypeUnknown, fmt.Errorf("%w: media type %q", ErrUnsupportedType, s)
	}
}

// String returns the string representation.
func (m MediaType) String() string {
	if m == MediaTypeUnknown {
		return "unknown"
	}
	return string(m)
}

// Document is a source document as held in object storage.
// It is created externally and never mutated by the pipeline.
type Document struct {
	// Name identifies the document within the corpus.
	// It is also the source id stamped on every chunk.
	Name string

	// MediaType selects the text extractor.
	MediaType MediaType

	// Content is the raw document bytes.
	Content []byte
}

// Chunk is an ordered piece of a document's extracted text.
type Chunk struct {
	// Text is the trimmed, non-empty chunk content.
	Text string

	// Source is the name of the document the chunk came from.
	Source string

	// Ordinal is the chunk's position within the document, starting at 0.
	Ordinal int
}

// ID returns the deterministic index id for the chunk.
func (c Chunk) ID() string {
	return ChunkID(c.Source, c.Ordinal)
}

// ChunkID derives the index id for the chunk at ordinal within source.
// Re-ingesting a document yields the same ids, so entries are replaced rather than duplicated.
func ChunkID(source string, ordinal int) string {
	return fmt.Sprintf("%s-%d", source, ordinal)
}

// NewChunks stamps source and consecutive ordinals onto split text.
func NewChunks(source string, texts []string) []Chunk {
	if len(texts) == 0 {
		return nil
	}
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{Text: t, Source: source, Ordinal: i}
	}
	return chunks
}

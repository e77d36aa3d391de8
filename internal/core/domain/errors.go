package domain

import "errors"

// Pipeline errors. Services wrap the underlying cause with one of these
// so callers can classify failures with errors.Is.
var (
	// ErrExtraction indicates a document could not be read or converted to text.
	// It aborts ingestion of that document only.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding model was unavailable or returned malformed output.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates a vector index store or query failure.
	ErrIndex = errors.New("vector index failure")

	// ErrGeneration indicates the generative model call failed.
	// No fallback answer is produced for it.
	ErrGeneration = errors.New("generation failed")

	// ErrStructuredOutputParse indicates model output was not a valid StructuredAnswer.
	// It is always recovered locally with the raw-text fallback.
	ErrStructuredOutputParse = errors.New("structured output parse failed")
)

// Supporting errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a media type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotConfigured indicates a required provider has no usable settings.
	ErrNotConfigured = errors.New("not configured")
)

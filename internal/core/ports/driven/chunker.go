package driven

// Chunker splits extracted document text into overlapping retrieval units.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Split returns the chunk texts for text in document order.
	// Every returned string is trimmed and non-empty. Empty input yields no chunks.
	Split(text string) []string
}

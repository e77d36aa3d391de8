package driven

import "context"

// EmbeddingService maps text to fixed-dimensionality vectors.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, mxbai-embed-large)
//   - Google Gemini (embedding-001)
type EmbeddingService interface {
	// Embed returns one vector per input text, in input order.
	// A single text is treated as a one-element batch and yields a one-element result.
	Embed(ctx context.Context, texts ...string) ([][]float32, error)

	// Dimensions returns the size of every vector this instance produces.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

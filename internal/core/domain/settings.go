package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Generative Language API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process memory only.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite persists vectors in a local SQLite database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendBolt persists vectors in a local bbolt file.
	VectorBackendBolt VectorBackend = "bolt"

	// VectorBackendQdrant uses a remote Qdrant collection.
	VectorBackendQdrant VectorBackend = "qdrant"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendBolt, VectorBackendQdrant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// StorageBackend selects the object storage implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageBackendFilesystem stores objects as files under a root directory.
	StorageBackendFilesystem StorageBackend = "filesystem"

	// StorageBackendGCS stores objects in a Google Cloud Storage bucket.
	StorageBackendGCS StorageBackend = "gcs"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendFilesystem || b == StorageBackendGCS
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Dimensions overrides the model's known vector size.
	Dimensions int

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generative model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend

	// IndexName names the index (table, bucket or collection).
	IndexName string

	// Path is the database file for local backends.
	// Empty means a file inside the data directory.
	Path string

	// URL is the Qdrant endpoint.
	URL string

	// APIKey authenticates against Qdrant Cloud.
	APIKey string
}

// StorageSettings holds object storage configuration.
type StorageSettings struct {
	// Backend selects the storage implementation.
	Backend StorageBackend

	// Root is the directory used by the filesystem backend.
	Root string

	// Bucket is the GCS bucket name.
	Bucket string

	// Prefix scopes every object name inside the bucket.
	Prefix string
}

// IngestSettings holds chunking and ingestion behaviour.
type IngestSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters carried into the next chunk.
	ChunkOverlap int

	// MediaTypes lists the document types ingestion accepts.
	MediaTypes []MediaType

	// EmbedRetries is how many times a failed batch embedding is retried.
	EmbedRetries int
}

// QuerySettings holds question answering behaviour.
type QuerySettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// GenerationTimeout bounds a single generative call.
	GenerationTimeout time.Duration

	// MaxTokens caps the generated answer length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls answer randomness.
	Temperature float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Storage     StorageSettings
	Ingest      IngestSettings
	Query       QuerySettings
}

// Defaults used when nothing is configured.
const (
	DefaultChunkSize         = 800
	DefaultChunkOverlap      = 150
	DefaultTopK              = 5
	DefaultIndexName         = "docqa"
	DefaultGenerationTimeout = 120 * time.Second
)

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users choose them explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		VectorIndex: VectorIndexSettings{
			Backend:   VectorBackendSQLite,
			IndexName: DefaultIndexName,
		},
		Storage: StorageSettings{
			Backend: StorageBackendFilesystem,
		},
		Ingest: IngestSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			MediaTypes:   []MediaType{MediaTypePDF},
		},
		Query: QuerySettings{
			TopK:              DefaultTopK,
			GenerationTimeout: DefaultGenerationTimeout,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "models/embedding-001",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-2.0-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"models/embedding-001":      768,
		"models/text-embedding-004": 768,
	}
}

package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyVectorBackend   = "vector.backend"
	keyVectorIndexName = "vector.index_name"
	keyVectorPath      = "vector.path"
	keyVectorURL       = "vector.url"
	keyVectorAPIKey    = "vector.api_key"
	keyStorageBackend  = "storage.backend"
	keyStorageRoot     = "storage.root"
	keyStorageBucket   = "storage.bucket"
	keyStoragePrefix   = "storage.prefix"
	keyChunkSize       = "ingest.chunk_size"
	keyChunkOverlap    = "ingest.chunk_overlap"
	keyMediaTypes      = "ingest.media_types"
	keyEmbedRetries    = "ingest.embed_retries"
	keyTopK            = "query.top_k"
	keyGenTimeout      = "query.generation_timeout"
	keyMaxTokens       = "query.max_tokens"
	keyTemperature     = "query.temperature"
)

const localAIBaseURL = "http://localhost:11434"

// providerKeyEnv maps cloud providers to the environment variable holding their API key.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GOOGLE_API_KEY",
}

// SettingsService manages application settings.
// Stored values are overlaid by DOCQA_* environment variables, where the
// variable name is the upper-cased key with dots replaced by underscores
// (for example DOCQA_LLM_MODEL).
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Passing nil disables the overlay.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = lookup
	return s
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.getString(keyEmbedBaseURL, ""),
			APIKey:            s.getString(keyEmbedAPIKey, ""),
			Dimensions:        s.getInt(keyEmbedDims, defaults.Embedding.Dimensions),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.getString(keyLLMBaseURL, ""),
			APIKey:   s.getString(keyLLMAPIKey, ""),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:   domain.VectorBackend(s.getString(keyVectorBackend, defaults.VectorIndex.Backend.String())),
			IndexName: s.getString(keyVectorIndexName, defaults.VectorIndex.IndexName),
			Path:      s.getString(keyVectorPath, ""),
			URL:       s.getString(keyVectorURL, ""),
			APIKey:    s.getString(keyVectorAPIKey, ""),
		},
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(s.getString(keyStorageBackend, defaults.Storage.Backend.String())),
			Root:    s.getString(keyStorageRoot, ""),
			Bucket:  s.getString(keyStorageBucket, ""),
			Prefix:  s.getString(keyStoragePrefix, ""),
		},
		Ingest: domain.IngestSettings{
			ChunkSize:    s.getInt(keyChunkSize, defaults.Ingest.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Ingest.ChunkOverlap),
			MediaTypes:   s.getMediaTypes(defaults.Ingest.MediaTypes),
			EmbedRetries: s.getInt(keyEmbedRetries, defaults.Ingest.EmbedRetries),
		},
		Query: domain.QuerySettings{
			TopK:              s.getInt(keyTopK, defaults.Query.TopK),
			GenerationTimeout: s.getDuration(keyGenTimeout, defaults.Query.GenerationTimeout),
			MaxTokens:         s.getInt(keyMaxTokens, defaults.Query.MaxTokens),
			Temperature:       s.getFloat(keyTemperature, defaults.Query.Temperature),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}
	if settings.VectorIndex.APIKey == "" {
		settings.VectorIndex.APIKey, _ = s.lookupEnv("QDRANT_API_KEY")
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String(), false},
		{keyEmbedModel, settings.Embedding.Model, false},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{keyEmbedAPIKey, settings.Embedding.APIKey, settings.Embedding.APIKey == ""},
		{keyEmbedDims, settings.Embedding.Dimensions, false},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond, false},
		{keyLLMProvider, settings.LLM.Provider.String(), false},
		{keyLLMModel, settings.LLM.Model, false},
		{keyLLMBaseURL, settings.LLM.BaseURL, false},
		{keyLLMAPIKey, settings.LLM.APIKey, settings.LLM.APIKey == ""},
		{keyVectorBackend, settings.VectorIndex.Backend.String(), false},
		{keyVectorIndexName, settings.VectorIndex.IndexName, false},
		{keyVectorPath, settings.VectorIndex.Path, false},
		{keyVectorURL, settings.VectorIndex.URL, false},
		{keyVectorAPIKey, settings.VectorIndex.APIKey, settings.VectorIndex.APIKey == ""},
		{keyStorageBackend, settings.Storage.Backend.String(), false},
		{keyStorageRoot, settings.Storage.Root, false},
		{keyStorageBucket, settings.Storage.Bucket, false},
		{keyStoragePrefix, settings.Storage.Prefix, false},
		{keyChunkSize, settings.Ingest.ChunkSize, false},
		{keyChunkOverlap, settings.Ingest.ChunkOverlap, false},
		{keyMediaTypes, mediaTypeStrings(settings.Ingest.MediaTypes), false},
		{keyEmbedRetries, settings.Ingest.EmbedRetries, false},
		{keyTopK, settings.Query.TopK, false},
		{keyGenTimeout, settings.Query.GenerationTimeout.String(), false},
		{keyMaxTokens, settings.Query.MaxTokens, false},
		{keyTemperature, settings.Query.Temperature, false},
	}

	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates a single setting by its dotted key, converting value to the key's type.
func (s *SettingsService) Set(key, value string) error {
	var typed any
	switch key {
	case keyEmbedProvider, keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case keyVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case keyStorageBackend:
		if !domain.StorageBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, value)
		}
		typed = value
	case keyEmbedDims, keyChunkSize, keyChunkOverlap, keyEmbedRetries, keyTopK, keyMaxTokens:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case keyEmbedRPS, keyTemperature:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		typed = f
	case keyGenTimeout:
		if _, err := s.parseDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
		}
		typed = value
	case keyMediaTypes:
		var types []string
		for _, part := range strings.Split(value, ",") {
			mt, err := domain.ParseMediaType(part)
			if err != nil {
				return err
			}
			types = append(types, mt.String())
		}
		typed = types
	case keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey,
		keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyVectorIndexName, keyVectorPath, keyVectorURL, keyVectorAPIKey,
		keyStorageRoot, keyStorageBucket, keyStoragePrefix:
		typed = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = localAIBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	// Known models pin the vector size; unknown ones keep any explicit override.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = localAIBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the current settings can run the pipeline.
// All problems are reported together.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: embedding provider", domain.ErrNotConfigured))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("%w: llm provider", domain.ErrNotConfigured))
	}
	if !settings.VectorIndex.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: vector backend %q", domain.ErrInvalidInput, settings.VectorIndex.Backend))
	}
	if settings.VectorIndex.Backend == domain.VectorBackendQdrant && settings.VectorIndex.URL == "" {
		errs = append(errs, fmt.Errorf("%w: %s is required for qdrant", domain.ErrNotConfigured, keyVectorURL))
	}
	if !settings.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend))
	}
	if settings.Storage.Backend == domain.StorageBackendGCS && settings.Storage.Bucket == "" {
		errs = append(errs, fmt.Errorf("%w: %s is required for gcs", domain.ErrNotConfigured, keyStorageBucket))
	}
	if settings.Ingest.ChunkOverlap >= settings.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, settings.Ingest.ChunkOverlap, settings.Ingest.ChunkSize))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

// envName maps a dotted key to its DOCQA_* override variable.
func envName(key string) string {
	return "DOCQA_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *SettingsService) env(key string) (string, bool) {
	val, ok := s.lookupEnv(envName(key))
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (s *SettingsService) providerKey(p domain.AIProvider) string {
	name, ok := providerKeyEnv[p]
	if !ok {
		return ""
	}
	val, _ := s.lookupEnv(name)
	return val
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val, ok := s.env(key); ok {
		return val
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if val, ok := s.env(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if val, ok := s.env(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.getString(key, "")
	if val == "" {
		return defaultVal
	}
	d, err := s.parseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.getString(key, "")
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getMediaTypes(defaultVal []domain.MediaType) []domain.MediaType {
	var raw []string
	if val, ok := s.env(keyMediaTypes); ok {
		raw = strings.Split(val, ",")
	} else {
		raw = s.configStore.GetStringSlice(keyMediaTypes)
	}

	var types []domain.MediaType
	for _, r := range raw {
		if mt, err := domain.ParseMediaType(r); err == nil && !slices.Contains(types, mt) {
			types = append(types, mt)
		}
	}
	if len(types) == 0 {
		return defaultVal
	}
	return types
}

func mediaTypeStrings(types []domain.MediaType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// parseDuration parses a duration string.
func (s *SettingsService) parseDuration(str string) (time.Duration, error) {
	return time.ParseDuration(str)
}

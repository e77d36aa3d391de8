package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestServices_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		s := &Services{}
		// Should not panic
		s.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantErr     bool
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "unconfigured settings returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
		{
			name: "gemini provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderGemini,
				APIKey:   "test-key",
			},
		},
		{
			name: "openai without key is not configured",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
			},
			wantNil: true,
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			wantErr:     true,
			errContains: "anthropic does not support embeddings",
		},
		{
			name: "unknown provider returns nil",
			settings: &domain.EmbeddingSettings{
				Provider: "unknown",
				APIKey:   "test-key",
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateEmbeddingService_Dimensions(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		want     int
	}{
		{
			name:     "known model",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			want:     384,
		},
		{
			name:     "unknown ollama model falls back",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "custom"},
			want:     768,
		},
		{
			name: "explicit override wins",
			settings: domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-large", Dimensions: 512,
			},
			want: 512,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), &tt.settings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Dimensions())
		})
	}
}

func TestCreateEmbeddingService_RateLimited(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		RequestsPerSecond: 2,
	})

	require.NoError(t, err)
	assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		wantNil  bool
	}{
		{name: "nil settings", wantNil: true},
		{name: "empty settings", settings: &domain.LLMSettings{}, wantNil: true},
		{name: "ollama", settings: &domain.LLMSettings{Provider: domain.AIProviderOllama}},
		{name: "openai", settings: &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"}},
		{name: "anthropic", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"}},
		{name: "gemini", settings: &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "k"}},
		{name: "anthropic without key", settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic}, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
			} else {
				assert.NotNil(t, svc)
			}
		})
	}
}

func newOllamaServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := newOllamaServer(t, true)

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("unreachable wraps embedding error", func(t *testing.T) {
		server := newOllamaServer(t, false)

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		})

		assert.Nil(t, svc)
		require.ErrorIs(t, err, domain.ErrEmbedding)
		assert.Contains(t, err.Error(), "docqa settings set")
	})

	t.Run("not configured returns nil", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{})

		assert.NoError(t, err)
		assert.Nil(t, svc)
	})
}

func TestCreateAndValidateLLMService(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := newOllamaServer(t, true)

		svc, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("unreachable wraps generation error", func(t *testing.T) {
		server := newOllamaServer(t, false)

		_, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL,
		})

		assert.ErrorIs(t, err, domain.ErrGeneration)
	})
}

func TestNewServices(t *testing.T) {
	server := newOllamaServer(t, true)

	t.Run("both configured", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
		settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}

		services, err := NewServices(context.Background(), settings)

		require.NoError(t, err)
		defer services.Close()
		assert.NotNil(t, services.Embedding)
		assert.NotNil(t, services.LLM)
	})

	t.Run("missing llm", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}

		_, err := NewServices(context.Background(), settings)

		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})

	t.Run("missing embedding", func(t *testing.T) {
		_, err := NewServices(context.Background(), domain.DefaultAppSettings())

		assert.ErrorIs(t, err, domain.ErrNotConfigured)
	})
}

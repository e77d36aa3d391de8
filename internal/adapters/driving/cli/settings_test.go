package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestSettingsShow_PrintsSections(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settings := domain.DefaultAppSettings()
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk-1234567890abcdef",
	}
	settings.VectorIndex.Backend = domain.VectorBackendQdrant
	settings.VectorIndex.URL = "http://qdrant:6333"
	settingsService = &mockSettingsService{settings: settings}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	for _, section := range []string{"[Embedding]", "[LLM]", "[Vector Index]", "[Storage]", "[Ingest]", "[Query]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Backend: qdrant")
	assert.Contains(t, out, "URL: http://qdrant:6333")
	assert.Contains(t, out, "Chunk size: 800")
	assert.Contains(t, out, "Chunk overlap: 150")
	assert.Contains(t, out, "Media types: pdf")
	assert.Contains(t, out, "Top K: 5")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = &mockSettingsService{
		settings:    domain.DefaultAppSettings(),
		validateErr: errors.New("embedding provider not configured"),
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"settings"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "Warning: embedding provider not configured")
	assert.Contains(t, buf.String(), "docqa settings wizard")
}

func TestSettingsSet(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	mock := &mockSettingsService{settings: domain.DefaultAppSettings()}
	settingsService = mock

	t.Run("plain value", func(t *testing.T) {
		buf := new(bytes.Buffer)
		rootCmd.SetOut(buf)
		rootCmd.SetArgs([]string{"settings", "set", "query.top_k", "8"})
		defer rootCmd.SetArgs(nil)

		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, "8", mock.set["query.top_k"])
		assert.Contains(t, buf.String(), "Set query.top_k = 8")
	})

	t.Run("api key is masked", func(t *testing.T) {
		buf := new(bytes.Buffer)
		rootCmd.SetOut(buf)
		rootCmd.SetArgs([]string{"settings", "set", "llm.api_key", "sk-abcdefghijklmnop"})
		defer rootCmd.SetArgs(nil)

		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, "sk-abcdefghijklmnop", mock.set["llm.api_key"])
		assert.Contains(t, buf.String(), "Set llm.api_key = sk-a...mnop")
	})

	t.Run("invalid value", func(t *testing.T) {
		mock.setErr = domain.ErrInvalidInput
		defer func() { mock.setErr = nil }()

		buf := new(bytes.Buffer)
		rootCmd.SetOut(buf)
		rootCmd.SetErr(buf)
		rootCmd.SetArgs([]string{"settings", "set", "vector.backend", "faiss"})
		defer rootCmd.SetArgs(nil)

		err := rootCmd.Execute()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"settings", "show"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

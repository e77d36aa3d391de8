package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent"), r.URL.Path)

		var req struct {
			Contents []struct {
				Role  string `json:"role"`
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig *struct {
				StopSequences   []string `json:"stopSequences"`
				Temperature     float64  `json:"temperature"`
				MaxOutputTokens int      `json:"maxOutputTokens"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "question", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, []string{"END"}, req.GenerationConfig.StopSequences)
		assert.InDelta(t, 0.2, req.GenerationConfig.Temperature, 1e-6)
		assert.Equal(t, 256, req.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"an"},{"text":"swer"}]}}]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(context.Background(), Config{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "models/"+DefaultModel, svc.ModelName())

	out, err := svc.Generate(context.Background(), "question", driven.GenerateOptions{
		StopWords: []string{"END"}, Temperature: 0.2, MaxTokens: 256,
	})

	require.NoError(t, err)
	assert.Equal(t, "answer", out)
}

func TestGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(context.Background(), Config{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.Error(t, err)
}

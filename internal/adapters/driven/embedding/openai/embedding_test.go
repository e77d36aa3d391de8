package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)

	svc, err := NewEmbeddingService(Config{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "sk", Model: "text-embedding-3-large", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
	assert.True(t, svc.shorten)
}

func TestEmbed_OrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)
		assert.Zero(t, req.Dimensions)

		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0.5,0.5]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Embed(context.Background(), "first", "second")

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0.5, 0.5}}, out)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`},
		{"count mismatch", http.StatusOK, `{"data":[{"index":0,"embedding":[1]}]}`},
		{"empty vector", http.StatusOK, `{"data":[{"index":0,"embedding":[]},{"index":1,"embedding":[1]}]}`},
		{"duplicate index", http.StatusOK, `{"data":[{"index":0,"embedding":[1]},{"index":0,"embedding":[1]}]}`},
		{"not json", http.StatusBadGateway, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc, err := NewEmbeddingService(Config{APIKey: "sk", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = svc.Embed(context.Background(), "a", "b")
			assert.Error(t, err)
		})
	}
}

func TestEmbed_NoInput(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	out, err := svc.Embed(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestPing(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk", BaseURL: server.URL})
	require.NoError(t, err)

	assert.NoError(t, svc.Ping(context.Background()))
	status = http.StatusUnauthorized
	assert.Error(t, svc.Ping(context.Background()))
}

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
)

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/embedding-001:batchEmbedContents"), r.URL.Path)

		var req struct {
			Requests []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 2)
		assert.Equal(t, "second", req.Requests[1].Content.Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1,0.2]},{"values":[0.3,0.4]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(context.Background(), Config{
		APIKey: "key", Model: "embedding-001", Endpoint: server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "models/embedding-001", svc.ModelName())

	out, err := svc.Embed(context.Background(), "first", "second")

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.3, out[1][0], 1e-6)
	assert.NoError(t, svc.Close())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/embedding-001"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"models/embedding-001","displayName":"Embedding 001"}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)
	defer svc.Close()

	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbed_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.1]}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestEmbed_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "key", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "a")
	assert.Error(t, err)
	assert.Error(t, svc.Ping(context.Background()))
}

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *EmbeddingClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewEmbeddingClient(EmbeddingConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "text-embedding-test",
	})
	return srv, client
}

func TestEmbedBatch(t *testing.T) {
	_, client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-test", req.Model)

		type item struct {
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			data[i] = item{Embedding: []float32{float32(i), 1}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second", "third"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbedBatchRejectsEmptyInput(t *testing.T) {
	called := false
	_, client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.EmbedBatch(context.Background(), []string{"fine", "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input 1 is empty")
	assert.False(t, called, "no request should be sent for invalid input")
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	_, client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1,2]}]}`)
	})

	_, err := client.EmbedBatch(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count mismatch")
}

func TestEmbedBatchProviderError(t *testing.T) {
	_, client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := client.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestEmbedSingle(t *testing.T) {
	_, client := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[0.5,0.25]}]}`)
	})

	vector, err := client.Embed(context.Background(), "question text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vector)
}

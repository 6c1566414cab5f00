package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOllamaServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		inputs, ok := req.Input.([]any)
		require.True(t, ok)

		resp := ollamaEmbedResponse{Embeddings: make([][]float32, len(inputs))}
		for i := range inputs {
			vec := make([]float32, dims)
			for j := range vec {
				vec[j] = float32(i+1) / float32(j+1)
			}
			resp.Embeddings[i] = vec
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestOllamaEmbedder(t *testing.T, srv *httptest.Server) *OllamaEmbedder {
	t.Helper()
	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Dimensions:      DefaultDimensions,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	return e
}

func TestOllamaEmbedder_Embed_ReturnsNormalizedVector(t *testing.T) {
	srv := fakeOllamaServer(t, DefaultDimensions)
	defer srv.Close()

	e := newTestOllamaEmbedder(t, srv)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultDimensions)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.01)
}

func TestOllamaEmbedder_Embed_EmptyInput_ReturnsZeroVector(t *testing.T) {
	srv := fakeOllamaServer(t, DefaultDimensions)
	defer srv.Close()

	e := newTestOllamaEmbedder(t, srv)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestOllamaEmbedder_EmbedBatch_ChunksRequests(t *testing.T) {
	srv := fakeOllamaServer(t, DefaultDimensions)
	defer srv.Close()

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Dimensions:      DefaultDimensions,
		BatchSize:       2,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	texts := []string{"a", "b", "c", "d", "e"}
	vecs, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	for _, v := range vecs {
		assert.Len(t, v, DefaultDimensions)
	}
}

func TestOllamaEmbedder_HealthCheckFailure_ReturnsError(t *testing.T) {
	_, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host: "http://127.0.0.1:1", // nothing listening
	})
	require.Error(t, err)
}

func TestOllamaEmbedder_Close_RejectsFurtherEmbeds(t *testing.T) {
	srv := fakeOllamaServer(t, DefaultDimensions)
	defer srv.Close()

	e := newTestOllamaEmbedder(t, srv)
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "after close")
	require.Error(t, err)
}

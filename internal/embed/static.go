package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
)

// MockEmbedder generates deterministic, hash-based embeddings without any
// external model or network dependency. It exists for tests and as a dev
// fallback when no real embedding backend is configured: identical input
// always yields identical output, and distinct inputs yield distinct output
// with overwhelming probability, which is all the archive's query engine and
// pipeline tests need from an embedder.
type MockEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder producing vectors of the given
// dimension. A dims <= 0 falls back to DefaultDimensions.
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &MockEmbedder{dims: dims}
}

// Embed generates a deterministic embedding for a single text.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}

	return normalizeVector(e.hashVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

// hashVector mixes a rolling FNV-like hash of each byte into every vector
// component, seeded by component index so that components are correlated
// with position as well as content.
func (e *MockEmbedder) hashVector(text string) []float32 {
	vector := make([]float32, e.dims)

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	state := seed
	for i := range vector {
		state ^= uint64(i) + 0x9e3779b97f4a7c15
		state *= 1099511628211
		state ^= state >> 33
		// Map to a signed component in roughly [-1, 1].
		vector[i] = float32(int64(state%2000001)-1000000) / 1000000.0
	}
	return vector
}

// Dimensions returns D.
func (e *MockEmbedder) Dimensions() int { return e.dims }

// ModelName returns the model identifier.
func (e *MockEmbedder) ModelName() string { return "mock" }

// Available reports readiness; the mock embedder is always available once
// constructed and not yet closed.
func (e *MockEmbedder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close marks the embedder closed; subsequent calls return an error.
func (e *MockEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

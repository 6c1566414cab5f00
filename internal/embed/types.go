// Package embed provides pluggable text-to-vector embedding for conversation chunks.
package embed

import (
	"context"
	"math"
)

// Embedding-related defaults. D=384 matches the reference configuration
// and the embeddings columnar schema.
const (
	// DefaultDimensions is the embedding dimension used across the archive unless a
	// backend overrides it.
	DefaultDimensions = 384

	// DefaultBatchSize bounds how many texts a single EmbedBatch call processes in
	// one HTTP round trip for network-backed embedders.
	DefaultBatchSize = 32

	// DefaultMaxRetries is the default retry budget for network-backed embedders.
	DefaultMaxRetries = 3
)

// Embedder maps text to a fixed-dimension, L2-normalized vector.
//
// Implementations must be safe for concurrent use: stage-3 pipeline workers share
// a single Embedder instance.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. Equivalent to mapping
	// Embed over texts, up to numerics.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns D, the length of every vector this embedder produces.
	Dimensions() int

	// ModelName returns the model identifier, used as part of the cache key by
	// CachedEmbedder and reported in diagnostics.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases any resources (connections, file handles) held by the embedder.
	Close() error
}

// normalizeVector returns an L2-normalized copy of v, leaving v unmodified.
// A zero vector is returned unchanged since it has no direction to
// normalize toward.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// MeanPool returns the component-wise mean of a non-empty set of equal-length
// vectors, L2-normalized. An empty input yields an empty vector.
func MeanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return []float32{}
	}

	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		for i, val := range v {
			sum[i] += float64(val)
		}
	}

	mean := make([]float32, dim)
	for i, s := range sum {
		mean[i] = float32(s / float64(len(vectors)))
	}
	return normalizeVector(mean)
}

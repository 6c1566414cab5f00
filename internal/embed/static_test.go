package embed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Embed_ReturnsCorrectDimensions(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	embedding, err := embedder.Embed(context.Background(), "hello from the archive")

	require.NoError(t, err)
	assert.Len(t, embedding, DefaultDimensions)
}

func TestMockEmbedder_Embed_VectorIsNormalized(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	embedding, err := embedder.Embed(context.Background(), "hello from the archive")
	require.NoError(t, err)

	magnitude := vectorMagnitude(embedding)
	assert.InDelta(t, 1.0, magnitude, 0.01, "vector should be unit-normalized")
}

func TestMockEmbedder_Embed_IsDeterministic(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	text := "Can you help me debug this function?"

	emb1, err1 := embedder.Embed(context.Background(), text)
	emb2, err2 := embedder.Embed(context.Background(), text)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, emb1, emb2, "same text should produce identical vectors")
}

func TestMockEmbedder_Embed_DeterministicAcrossInstances(t *testing.T) {
	e1 := NewMockEmbedder(DefaultDimensions)
	e2 := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = e1.Close() }()
	defer func() { _ = e2.Close() }()

	text := "What's the weather like today?"

	emb1, _ := e1.Embed(context.Background(), text)
	emb2, _ := e2.Embed(context.Background(), text)

	assert.Equal(t, emb1, emb2)
}

func TestMockEmbedder_Embed_DifferentTextsProduceDifferentVectors(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	emb1, _ := embedder.Embed(context.Background(), "first message")
	emb2, _ := embedder.Embed(context.Background(), "second message")

	assert.NotEqual(t, emb1, emb2)
}

func TestMockEmbedder_Embed_EmptyInput_ReturnsZeroVector(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	embedding, err := embedder.Embed(context.Background(), "")

	require.NoError(t, err)
	assert.Len(t, embedding, DefaultDimensions)
	for i, v := range embedding {
		assert.Equal(t, float32(0), v, "element %d should be zero", i)
	}
}

func TestMockEmbedder_Embed_WhitespaceOnly_ReturnsZeroVector(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	embedding, err := embedder.Embed(context.Background(), "   \t\n  ")

	require.NoError(t, err)
	for _, v := range embedding {
		assert.Equal(t, float32(0), v)
	}
}

func TestMockEmbedder_Available_AlwaysTrue(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	assert.True(t, embedder.Available(context.Background()))
}

func TestMockEmbedder_Performance(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	texts := make([]string, 1000)
	for i := range texts {
		texts[i] = "message number " + string(rune('A'+i%26))
	}

	start := time.Now()
	for _, text := range texts {
		_, err := embedder.Embed(context.Background(), text)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 1*time.Second, "embedding 1000 texts should take < 1s (took %v)", elapsed)
}

func TestMockEmbedder_ImplementsEmbedderInterface(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	var _ Embedder = embedder
}

func TestMockEmbedder_Dimensions_ReturnsConfigured(t *testing.T) {
	embedder := NewMockEmbedder(128)
	defer func() { _ = embedder.Close() }()

	assert.Equal(t, 128, embedder.Dimensions())
}

func TestMockEmbedder_Dimensions_DefaultsTo384(t *testing.T) {
	embedder := NewMockEmbedder(0)
	defer func() { _ = embedder.Close() }()

	assert.Equal(t, DefaultDimensions, embedder.Dimensions())
}

func TestMockEmbedder_ModelName_ReturnsMock(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	assert.Equal(t, "mock", embedder.ModelName())
}

func TestMockEmbedder_EmbedBatch_ReturnsCorrectCount(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	texts := []string{"hi", "how are you", "goodbye"}

	embeddings, err := embedder.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, embeddings, 3)
	for i, emb := range embeddings {
		assert.Len(t, emb, DefaultDimensions, "embedding %d should have correct dimensions", i)
	}
}

func TestMockEmbedder_EmbedBatch_EmptyList_ReturnsEmpty(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	embeddings, err := embedder.EmbedBatch(context.Background(), []string{})

	require.NoError(t, err)
	assert.Empty(t, embeddings)
}

func TestMockEmbedder_EmbedBatch_MatchesEmbed(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	texts := []string{"alpha", "beta"}
	batch, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	for i, text := range texts {
		single, err := embedder.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestMockEmbedder_Close_IsIdempotent(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)

	assert.NoError(t, embedder.Close())
	assert.NoError(t, embedder.Close())
	assert.NoError(t, embedder.Close())
}

func TestMockEmbedder_Embed_AfterClose_ReturnsError(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	_ = embedder.Close()

	_, err := embedder.Embed(context.Background(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestMockEmbedder_Available_AfterClose_ReturnsFalse(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	_ = embedder.Close()

	assert.False(t, embedder.Available(context.Background()))
}

func TestMockEmbedder_Embed_UnicodeText_NoError(t *testing.T) {
	embedder := NewMockEmbedder(DefaultDimensions)
	defer func() { _ = embedder.Close() }()

	texts := []string{
		"日本語のテキスト",
		"Комментарий на русском",
		"emoji incoming 🚀",
	}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			embedding, err := embedder.Embed(context.Background(), text)
			require.NoError(t, err)
			assert.Len(t, embedding, DefaultDimensions)
		})
	}
}

func TestMeanPool_EmptyInput_ReturnsEmptyVector(t *testing.T) {
	result := MeanPool(nil)
	assert.Empty(t, result)
}

func TestMeanPool_SingleVector_ReturnsNormalizedCopy(t *testing.T) {
	v := []float32{3, 4}
	result := MeanPool([][]float32{v})
	assert.InDelta(t, 1.0, vectorMagnitude(result), 0.001)
}

func TestMeanPool_AveragesComponentwise(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	result := MeanPool([][]float32{a, b})

	assert.InDelta(t, float64(result[0]), float64(result[1]), 0.001)
	assert.InDelta(t, 1.0, vectorMagnitude(result), 0.001)
}

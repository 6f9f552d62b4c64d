package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weswalla/logjam/internal/domain"
)

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestStaticEmbedder_Embed_ReturnsCorrectDimensions(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "some page content")
	require.NoError(t, err)
	assert.Len(t, vec, domain.ModelStatic.DimensionCount())
}

func TestStaticEmbedder_Embed_VectorIsNormalized(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "notes about logseq")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestStaticEmbedder_Embed_IsDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	text := "notes about logseq and graph databases"
	v1, err1 := e.Embed(context.Background(), text)
	v2, err2 := e.Embed(context.Background(), text)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, v1, v2)
}

func TestStaticEmbedder_Embed_EmptyTextReturnsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	vec, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedder_EmbedBatch_PreservesOrder(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()

	texts := []string{"alpha text", "beta text", "gamma text"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedder_Embed_AfterClose(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
}

func TestStaticEmbedder_OverlappingTextsAreMoreSimilarThanUnrelated(t *testing.T) {
	e := NewStaticEmbedder()
	defer e.Close()
	ctx := context.Background()

	ml1, err := e.Embed(ctx, "machine learning is a subset of artificial intelligence")
	require.NoError(t, err)
	ml2, err := e.Embed(ctx, "artificial intelligence systems and machine learning")
	require.NoError(t, err)
	weather, err := e.Embed(ctx, "the weather today is sunny and warm")
	require.NoError(t, err)

	v1, err := domain.NewEmbeddingVector(ml1)
	require.NoError(t, err)
	v2, err := domain.NewEmbeddingVector(ml2)
	require.NoError(t, err)
	v3, err := domain.NewEmbeddingVector(weather)
	require.NoError(t, err)

	simRelated, err := v1.CosineSimilarity(v2)
	require.NoError(t, err)
	simUnrelated, err := v1.CosineSimilarity(v3)
	require.NoError(t, err)

	assert.Greater(t, simRelated, simUnrelated)
}

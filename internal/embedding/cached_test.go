package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps an Embedder and counts calls made to its
// inner methods, to verify the cache avoids redundant work.
type countingEmbedder struct {
	inner      Embedder
	embedCalls int
	batchCalls int
	batchTotal int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchTotal += len(texts)
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Dimensions() int                    { return c.inner.Dimensions() }
func (c *countingEmbedder) ModelName() string                  { return c.inner.ModelName() }
func (c *countingEmbedder) Available(ctx context.Context) bool { return c.inner.Available(ctx) }
func (c *countingEmbedder) Close() error                       { return c.inner.Close() }

func TestCachedEmbedder_Embed_CacheHitSkipsInnerCall(t *testing.T) {
	inner := &countingEmbedder{inner: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	v1, err := cached.Embed(context.Background(), "repeated text")
	require.NoError(t, err)
	v2, err := cached.Embed(context.Background(), "repeated text")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.embedCalls)
}

func TestCachedEmbedder_Embed_DifferentTextMisses(t *testing.T) {
	inner := &countingEmbedder{inner: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "text one")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "text two")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.embedCalls)
}

func TestCachedEmbedder_EmbedBatch_OnlyMissesGoToInner(t *testing.T) {
	inner := &countingEmbedder{inner: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.Embed(context.Background(), "already cached")
	require.NoError(t, err)
	inner.embedCalls = 0

	batch, err := cached.EmbedBatch(context.Background(), []string{"already cached", "new text"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, 1, inner.batchCalls)
	assert.Equal(t, 1, inner.batchTotal)
}

func TestCachedEmbedder_EmbedBatch_AllCachedSkipsInner(t *testing.T) {
	inner := &countingEmbedder{inner: NewStaticEmbedder()}
	cached := NewCachedEmbedder(inner, 10)

	_, err := cached.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	inner.batchCalls = 0

	_, err = cached.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 0, inner.batchCalls)
}

func TestCachedEmbedder_EmbedBatch_Empty(t *testing.T) {
	cached := NewCachedEmbedder(NewStaticEmbedder(), 10)

	batch, err := cached.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestCachedEmbedder_PassthroughMethods(t *testing.T) {
	inner := NewStaticEmbedder()
	cached := NewCachedEmbedder(inner, 10)

	assert.Equal(t, inner.Dimensions(), cached.Dimensions())
	assert.Equal(t, inner.ModelName(), cached.ModelName())
	assert.True(t, cached.Available(context.Background()))

	require.NoError(t, cached.Close())
	assert.False(t, cached.Available(context.Background()))
}

func TestCachedEmbedder_DefaultSizeUsedWhenNonPositive(t *testing.T) {
	cached := NewCachedEmbedder(NewStaticEmbedder(), 0)
	assert.NotNil(t, cached.cache)
}

package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedIsDeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Paris is the capital of France.")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Paris is the capital of France.")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)

	var sum float64
	for _, v := range a {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestEmbedIgnoresStopwordsAndCase(t *testing.T) {
	e := NewEmbedder(128)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "The Capital of FRANCE")
	b, _ := e.Embed(ctx, "capital france")
	assert.Equal(t, a, b)
}

func TestEmbedEmptyTextIsZeroVector(t *testing.T) {
	e := NewEmbedder(16)
	v, err := e.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, v, 16)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	e := NewEmbedder(32)
	ctx := context.Background()
	texts := []string{"rome colosseum", "kyoto temples"}

	vecs, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	first, _ := e.Embed(ctx, texts[0])
	second, _ := e.Embed(ctx, texts[1])
	assert.Equal(t, first, vecs[0])
	assert.Equal(t, second, vecs[1])
}

func TestNewEmbedderDefaultsDimension(t *testing.T) {
	assert.Equal(t, 512, NewEmbedder(0).Dimension())
	assert.Equal(t, "hashing", NewEmbedder(8).Name())
}

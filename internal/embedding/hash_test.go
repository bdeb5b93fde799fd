package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/vector"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "The quick brown fox")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "the QUICK brown fox!")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, vector.L2Norm(a), 1e-5)
}

func TestHashEmbedder_SharedWordsScoreHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "capital of france")
	near, _ := e.Embed(ctx, "paris is the capital of france")
	far, _ := e.Embed(ctx, "bananas grow on tropical plants")
	assert.Greater(t, vector.CosineSimilarity(q, near), vector.CosineSimilarity(q, far))
}

func TestHashEmbedder_EmptyText(t *testing.T) {
	e := NewHashEmbedder(0)
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, v, 384)
	assert.Zero(t, vector.L2Norm(v))
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(32)
	out, err := e.EmbedBatch(context.Background(), []string{"one", "two", "one"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[2])
	assert.Equal(t, "hash-bow-32", e.Model())
	assert.NoError(t, e.Close())
}

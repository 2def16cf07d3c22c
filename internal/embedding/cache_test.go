package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserve/internal/models"
)

// mockEmbedder implements Embedder for testing.
type mockEmbedder struct {
	embedCalls int
	batchCalls int
	err        error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return vectorFor(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func TestCachingEmbedderIdempotence(t *testing.T) {
	mock := &mockEmbedder{}
	e := NewCachingEmbedder(mock, NewMemoryCache())

	first, err := e.Embed(context.Background(), "what is docker")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "what is docker")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.embedCalls, "second call must be served from cache")
}

func TestCacheKeyNormalisesWhitespace(t *testing.T) {
	assert.Equal(t, CacheKey("what  is\tdocker"), CacheKey(" what is docker "))
	assert.NotEqual(t, CacheKey("what is docker"), CacheKey("what is podman"))
}

func TestCachingEmbedderBatchPartialHits(t *testing.T) {
	mock := &mockEmbedder{}
	e := NewCachingEmbedder(mock, NewMemoryCache())

	_, err := e.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vectorFor("alpha"), vecs[0])
	assert.Equal(t, vectorFor("beta"), vecs[1])
	assert.Equal(t, vectorFor("gamma"), vecs[2])
	assert.Equal(t, 1, mock.batchCalls)

	// Everything is cached now; another batch must not touch the model.
	_, err = e.EmbedBatch(context.Background(), []string{"beta", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, 1, mock.batchCalls)
}

func TestCachingEmbedderPropagatesFailure(t *testing.T) {
	mock := &mockEmbedder{err: models.ErrEmbeddingFailure}
	e := NewCachingEmbedder(mock, NewMemoryCache())

	_, err := e.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbeddingFailure))

	// Failures are not cached.
	mock.err = nil
	vec, err := e.Embed(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, vec)
	assert.Equal(t, 2, mock.embedCalls)
}

func TestMemoryCacheFirstWriterWins(t *testing.T) {
	c := NewMemoryCache()
	c.Put("k", []float32{1})
	c.Put("k", []float32{2})

	vec, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 1, c.Len())
}

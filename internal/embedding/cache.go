package embedding

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// Cache stores computed vectors by text hash. Implementations must be safe
// for concurrent use; eviction policy is up to the implementation.
type Cache interface {
	Get(key string) ([]float32, bool)
	Put(key string, vector []float32)
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

func (c *MemoryCache) Get(key string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[key]
	return vec, ok
}

func (c *MemoryCache) Put(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		// First writer wins; identical recomputations are idempotent.
		return
	}
	c.entries[key] = vector
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheKey hashes whitespace-normalised text, so formatting-only variants
// share a cache entry.
func CacheKey(text string) string {
	normalised := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalised))
	return fmt.Sprintf("%x", sum)
}

// CachingEmbedder wraps an Embedder with a Cache. Hits skip the underlying
// model entirely.
type CachingEmbedder struct {
	inner Embedder
	cache Cache
}

func NewCachingEmbedder(inner Embedder, cache Cache) *CachingEmbedder {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CachingEmbedder{inner: inner, cache: cache}
}

func (e *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Put(key, vec)
	return vec, nil
}

// EmbedBatch serves what it can from the cache and sends only the misses to
// the underlying model, preserving input order in the result.
func (e *CachingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := e.cache.Get(CacheKey(text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, vec := range vecs {
		i := missIdx[j]
		out[i] = vec
		e.cache.Put(CacheKey(texts[i]), vec)
	}
	return out, nil
}

package llm

import (
	"context"
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitalia-labs/vitalia/internal/core"
)

// CachingEmbedder wraps an EmbeddingProvider with an in-memory LRU so
// repeated chunk texts (retries, re-imports) skip the paid API call.
type CachingEmbedder struct {
	inner core.EmbeddingProvider
	cache *lru.Cache[string, []float32]
}

func NewCachingEmbedder(inner core.EmbeddingProvider, size int) (*CachingEmbedder, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("embed cache: %w", err)
	}
	return &CachingEmbedder{inner: inner, cache: c}, nil
}

func (c *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, t := range texts {
		if vec, ok := c.cache.Get(cacheKey(t)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed cache: got %d embeddings for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		c.cache.Add(cacheKey(texts[i]), vecs[j])
	}
	return out, nil
}

// cacheKey hashes the text so large chunk bodies are not held as map keys.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return string(sum[:])
}

var _ core.EmbeddingProvider = (*CachingEmbedder)(nil)

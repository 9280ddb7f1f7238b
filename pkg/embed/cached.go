package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dtnitsch/llm-intent-miner/pkg/caching"
)

// CachedEmbedder stores vectors from another embedder in a file cache keyed
// by model and text.
type CachedEmbedder struct {
	inner Embedder
	model string
	cache *caching.Cache
}

// NewCachedEmbedder wraps inner with a cache rooted at dir.
func NewCachedEmbedder(inner Embedder, model, dir string, ttl time.Duration) (*CachedEmbedder, error) {
	cache, err := caching.NewCache(dir, ttl)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, model: model, cache: cache}, nil
}

func (c *CachedEmbedder) Available() bool { return c.inner.Available() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.model + "\x00" + text
	if data, ok := c.cache.Get(key); ok {
		var vec []float32
		if err := json.Unmarshal(data, &vec); err == nil {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(vec); err == nil {
		// A failed write only costs a recomputation next time.
		_ = c.cache.Set(key, data)
	}
	return vec, nil
}

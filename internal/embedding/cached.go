package embedding

import (
	"context"

	"github.com/ppiankov/claimlens/internal/cache"
)

// CachedEncoder memoizes another encoder's vectors
type CachedEncoder struct {
	next  Encoder
	cache cache.Cache
	model string
}

// NewCachedEncoder wraps enc; model namespaces the cache keys
func NewCachedEncoder(enc Encoder, c cache.Cache, model string) *CachedEncoder {
	return &CachedEncoder{next: enc, cache: c, model: model}
}

// Encode returns the cached vector or encodes and stores it
func (e *CachedEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(e.model, text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := e.next.Encode(ctx, text)
	if err != nil {
		return nil, err
	}

	// A failed cache write only costs a re-encode later
	_ = e.cache.Set(key, vec, 0)
	return vec, nil
}

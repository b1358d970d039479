// Package embcache memoizes embedding vectors keyed by content hash.
package embcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
)

// Embeddings are deterministic for fixed text, so a long TTL is correct.
const embeddingTTL = 24 * time.Hour

const keyNamespace = "emb"

// resultCache is the consumer interface for the embedding cache (ISP).
type resultCache interface {
	Get(ctx context.Context, key string) ([]byte, cache.Status)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// CachedEmbedder caches single-text embeddings in the result cache.
type CachedEmbedder struct {
	inner  domain.Embedder
	cache  resultCache
	logger *zap.Logger
}

// New creates a caching decorator around an embedder.
func New(inner domain.Embedder, c resultCache, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, logger: logger}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss or unavailable: full EmbeddingResult from inner.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := cache.Key(keyNamespace, text)

	if data, status := c.cache.Get(ctx, key); status == cache.Hit {
		vec, err := bytesToVector(data)
		if err == nil {
			return domain.EmbeddingResult{Embedding: vec}, nil
		}
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
	}

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.cache.Set(ctx, key, vectorToCacheBytes(result.Embedding), embeddingTTL)
	return result, nil
}

// BatchEmbed bypasses the cache entirely: batching exists to amortize per-call
// overhead across many distinct texts where hits are unlikely (bulk indexing).
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return res, nil
	}

	res, err := domain.BatchFallback(ctx, c.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed fallback: %w", err)
	}
	return res, nil
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

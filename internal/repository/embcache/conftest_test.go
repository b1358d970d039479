package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
)

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	calls      int
	batchRes   domain.BatchEmbeddingResult
	batchErr   error
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	if m.batchRes.Embeddings != nil {
		return m.batchRes, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: m.result.PromptTokens * len(texts),
		TotalTokens:  m.result.TotalTokens * len(texts),
	}, nil
}

// mockCache implements the consumer interface for tests.
type mockCache struct {
	getFn   func(ctx context.Context, key string) ([]byte, cache.Status)
	setFn   func(ctx context.Context, key string, value []byte, ttl time.Duration)
	lastTTL time.Duration
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, cache.Status) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, cache.Miss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	m.lastTTL = ttl
	if m.setFn != nil {
		m.setFn(ctx, key, value, ttl)
	}
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockCache) {
	t.Helper()
	mc := &mockCache{}
	return New(inner, mc, zap.NewNop()), mc
}

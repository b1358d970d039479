package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/cinerag/internal/domain"
	"github.com/kailas-cloud/cinerag/internal/repository/cache"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, mc := newTestCachedEmbedder(t, inner)

	var setCalled bool
	mc.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) {
		setCalled = true
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !setCalled {
		t.Fatal("expected cache put after miss")
	}
	if mc.lastTTL != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", mc.lastTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3},
	}}
	ce, mc := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	mc.getFn = func(_ context.Context, _ string) ([]byte, cache.Status) {
		return cached, cache.Hit
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner embedder must not be called on hit, got %d calls", inner.calls)
	}
}

func TestEmbed_CacheUnavailableFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.7},
		TotalTokens: 3,
	}}
	ce, mc := newTestCachedEmbedder(t, inner)

	mc.getFn = func(_ context.Context, _ string) ([]byte, cache.Status) {
		return nil, cache.Unavailable
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("cache outage must not fail embedding: %v", err)
	}
	if result.Embedding[0] != 0.7 {
		t.Fatalf("expected inner result, got %v", result.Embedding)
	}
}

func TestEmbed_CorruptCacheEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.9}}}
	ce, mc := newTestCachedEmbedder(t, inner)

	mc.getFn = func(_ context.Context, _ string) ([]byte, cache.Status) {
		return []byte{0x01, 0x02, 0x03}, cache.Hit // not a multiple of 4
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 0.9 {
		t.Fatalf("expected inner result on corrupt entry, got %v", result.Embedding)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, _ := newTestCachedEmbedder(t, inner)

	if _, err := ce.Embed(context.Background(), "test text"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestBatchEmbed_BypassesCache(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1},
		TotalTokens: 5,
	}}
	ce, mc := newTestCachedEmbedder(t, inner)

	var getCalled, setCalled bool
	mc.getFn = func(_ context.Context, _ string) ([]byte, cache.Status) {
		getCalled = true
		return nil, cache.Miss
	}
	mc.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) {
		setCalled = true
	}

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if getCalled || setCalled {
		t.Error("batch path must not touch the cache")
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call to inner, got %d", inner.batchCalls)
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	ce, _ := newTestCachedEmbedder(t, inner)

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Error("expected empty result for empty input")
	}
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75}
	got, err := bytesToVector(vectorToCacheBytes(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("vec[%d] = %f, want %f", i, got[i], vec[i])
		}
	}
}
